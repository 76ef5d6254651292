package types

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a conversation. History is passed oldest first.
type Message struct {
	ID        string         `json:"id,omitempty"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// GenerateOptions are per-call overrides for a provider. Nil pointers mean
// "not supplied" and must not be forwarded to the backend.
type GenerateOptions struct {
	Model       string   `json:"model,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// AIResponse is the normalized result every provider adapter returns.
type AIResponse struct {
	Content      string `json:"content"`
	Provider     string `json:"provider"`
	ProviderName string `json:"providerName"`
	Model        string `json:"model"`
	Usage        Usage  `json:"usage"`
}

type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// NewUsage builds a Usage, computing the total when the backend did not report one.
func NewUsage(input, output, total int) Usage {
	if total == 0 {
		total = input + output
	}
	return Usage{InputTokens: input, OutputTokens: output, TotalTokens: total}
}

func IntPtr(v int) *int { return &v }

func Float64Ptr(v float64) *float64 { return &v }
