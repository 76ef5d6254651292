package types

import (
	"encoding/json"
	"strconv"
	"time"
)

// SessionConfig is the free-form widget configuration attached to a session
// (pageContext, pageData, customInstructions, jsonData, aiProvider, model,
// maxTokens). Accessors never mutate the underlying object.
type SessionConfig struct {
	obj *Object
}

func NewSessionConfig(obj *Object) SessionConfig {
	return SessionConfig{obj: obj}
}

// SessionConfigFromMap converts a Go map; keys are sorted.
func SessionConfigFromMap(m map[string]any) SessionConfig {
	return SessionConfig{obj: ObjectFromMap(m)}
}

func (c SessionConfig) Value(key string) any {
	v, _ := c.obj.Get(key)
	return v
}

// String returns the value under key when it is a string, or "" otherwise.
func (c SessionConfig) String(key string) string {
	s, _ := c.Value(key).(string)
	return s
}

// Object returns the value under key when it is a JSON object.
func (c SessionConfig) Object(key string) (*Object, bool) {
	return AsObject(c.Value(key))
}

// Int reads a positive integer setting such as maxTokens. Numeric strings are accepted.
func (c SessionConfig) Int(key string) (int, bool) {
	switch t := c.Value(key).(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), n > 0
		}
		if f, err := t.Float64(); err == nil {
			return int(f), f >= 1
		}
	case float64:
		return int(t), t >= 1
	case int:
		return t, t > 0
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, n > 0
		}
	}
	return 0, false
}

func (c SessionConfig) Keys() []string { return c.obj.Keys() }

func (c SessionConfig) Len() int { return c.obj.Len() }

// Merge returns a new config holding c's entries overlaid with other's.
// The merge is shallow: a key present in other replaces the whole value.
func (c SessionConfig) Merge(other SessionConfig) SessionConfig {
	out := c.obj.Clone()
	if out == nil {
		out = NewObject()
	}
	for _, k := range other.obj.Keys() {
		v, _ := other.obj.Get(k)
		out.Set(k, CloneValue(v))
	}
	return SessionConfig{obj: out}
}

// Raw exposes the underlying object for serialization.
func (c SessionConfig) Raw() *Object {
	if c.obj == nil {
		return NewObject()
	}
	return c.obj
}

func (c SessionConfig) MarshalJSON() ([]byte, error) {
	return c.Raw().MarshalJSON()
}

func (c *SessionConfig) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.obj = NewObject()
		return nil
	}
	obj := NewObject()
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	c.obj = obj
	return nil
}

type Session struct {
	ID             string        `json:"sessionId"`
	ClientID       string        `json:"clientId"`
	UserIdentifier string        `json:"userIdentifier,omitempty"`
	Config         SessionConfig `json:"config"`
	CreatedAt      time.Time     `json:"createdAt"`
	LastActivity   time.Time     `json:"lastActivity"`
}

// SessionStats summarizes a client's sessions.
type SessionStats struct {
	TotalSessions  int `json:"totalSessions"`
	ActiveSessions int `json:"activeSessions"`
}

// ClientConfig is the per-tenant bot branding plus the system prompt.
type ClientConfig struct {
	SystemPrompt      string `json:"system_prompt,omitempty"`
	BotName           string `json:"bot_name,omitempty"`
	PoweredByText     string `json:"powered_by_text,omitempty"`
	PrimaryColor      string `json:"primary_color,omitempty"`
	BotIconURL        string `json:"bot_icon_url,omitempty"`
	BotMessageBgColor string `json:"bot_message_bg_color,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`
	DailyTokenBudget  int64  `json:"daily_token_budget,omitempty"`
}

// WidgetDefaults returns the branding keys merged into new session configs.
func (c ClientConfig) WidgetDefaults() map[string]string {
	out := map[string]string{}
	if c.BotName != "" {
		out["botName"] = c.BotName
	}
	if c.PoweredByText != "" {
		out["poweredByText"] = c.PoweredByText
	}
	if c.PrimaryColor != "" {
		out["primaryColor"] = c.PrimaryColor
	}
	if c.BotIconURL != "" {
		out["botIconUrl"] = c.BotIconURL
	}
	if c.BotMessageBgColor != "" {
		out["botMessageBgColor"] = c.BotMessageBgColor
	}
	return out
}

// Client is a tenant that embeds the widget.
type Client struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	APIKeyHash     string       `json:"-"`
	KeyPrefix      string       `json:"key_prefix"`
	Config         ClientConfig `json:"config"`
	AllowedDomains []string     `json:"allowed_domains,omitempty"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
}
