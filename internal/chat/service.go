// Package chat implements the widget conversation flow: sessions, messages,
// uploaded files, and the context prompt sent to the AI provider.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/af-corp/chatbot-gateway/internal/budget"
	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/router"
	"github.com/af-corp/chatbot-gateway/internal/store"
	"github.com/af-corp/chatbot-gateway/internal/telemetry"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

// ErrInvalidInput marks request validation failures.
var ErrInvalidInput = errors.New("invalid input")

// Providers is the part of the provider registry the service needs.
type Providers interface {
	Generate(ctx context.Context, provider string, messages []types.Message, opts types.GenerateOptions) (*types.AIResponse, error)
	ListAvailable() []string
	IsAvailable(name string) bool
	DefaultProvider() string
}

// Settings are the reloadable knobs of the chat flow.
type Settings struct {
	HistoryLimit     int
	DefaultMaxTokens int
	MaxMessageChars  int
	ActiveWindow     time.Duration
	Widget           config.WidgetDefaults
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		HistoryLimit:     cfg.Chat.HistoryLimit,
		DefaultMaxTokens: cfg.Chat.DefaultMaxTokens,
		MaxMessageChars:  cfg.Chat.MaxMessageChars,
		ActiveWindow:     cfg.Chat.ActiveWindow,
		Widget:           cfg.Widget,
	}
}

type Service struct {
	store     store.Store
	providers Providers
	health    *router.HealthTracker
	metrics   *telemetry.Metrics

	mu       sync.RWMutex
	settings Settings
	now      func() time.Time
}

// NewService wires the chat flow. health and metrics may be nil.
func NewService(st store.Store, providers Providers, settings Settings, health *router.HealthTracker, metrics *telemetry.Metrics) *Service {
	return &Service{
		store:     st,
		providers: providers,
		health:    health,
		metrics:   metrics,
		settings:  settings,
		now:       time.Now,
	}
}

// UpdateSettings swaps the settings; it is registered as a config reload hook.
func (s *Service) UpdateSettings(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	slog.Info("chat settings updated",
		"history_limit", settings.HistoryLimit,
		"default_max_tokens", settings.DefaultMaxTokens,
	)
}

func (s *Service) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

type SendRequest struct {
	SessionID string               `json:"sessionId"`
	Message   string               `json:"message"`
	Config    *types.SessionConfig `json:"config,omitempty"`
}

type SendResult struct {
	Response     string      `json:"response"`
	SessionID    string      `json:"sessionId"`
	MessageCount int         `json:"messageCount"`
	Provider     string      `json:"provider"`
	ProviderName string      `json:"providerName"`
	Model        string      `json:"model"`
	Usage        types.Usage `json:"usage"`
}

// Send runs one chat turn: it stores the user message, builds the context
// prompt, calls the provider once, and stores the reply. Provider errors
// are returned unchanged.
//
// The history window is read before the user message is stored, so it holds
// the last HistoryLimit prior messages and never the current one. Older
// deployments loaded the window afterwards, which spent one slot on the
// current message and showed it twice in the prompt.
func (s *Service) Send(ctx context.Context, client *types.Client, req SendRequest) (*SendResult, error) {
	settings := s.Settings()
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if settings.MaxMessageChars > 0 && utf8.RuneCountInString(req.Message) > settings.MaxMessageChars {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, settings.MaxMessageChars)
	}

	sess, err := s.store.GetSession(ctx, client.ID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if req.Config != nil && req.Config.Len() > 0 {
		sess.Config = sess.Config.Merge(*req.Config)
		if err := s.store.UpdateSessionConfig(ctx, sess.ID, sess.Config); err != nil {
			return nil, fmt.Errorf("update session config: %w", err)
		}
	}

	history, err := s.store.RecentMessages(ctx, sess.ID, settings.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if err := s.store.AppendMessage(ctx, sess.ID, &types.Message{Role: types.RoleUser, Content: req.Message}); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	provider := s.resolveProvider(sess.Config)
	fileData, err := s.activeFileData(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	prompt := BuildContextPrompt(req.Message, sess.Config, history, fileData, client.Config.SystemPrompt)
	estimate := budget.EstimateTokens(prompt)
	s.metrics.RecordContextTokens(client.ID, estimate)
	slog.Info("context prompt built",
		"session_id", sess.ID,
		"provider", provider,
		"history_messages", len(history),
		"has_file", fileData != nil,
		"prompt_token_estimate", estimate,
	)

	opts := types.GenerateOptions{Model: sess.Config.String("model")}
	if n, ok := sess.Config.Int("maxTokens"); ok {
		opts.MaxTokens = types.IntPtr(n)
	} else if settings.DefaultMaxTokens > 0 {
		opts.MaxTokens = types.IntPtr(settings.DefaultMaxTokens)
	}

	start := s.now()
	resp, err := s.providers.Generate(ctx, provider, []types.Message{{Role: types.RoleUser, Content: prompt}}, opts)
	durationMs := float64(s.now().Sub(start).Milliseconds())
	if err != nil {
		s.recordFailure(client.ID, provider, durationMs, err)
		return nil, err
	}
	if s.health != nil {
		s.health.RecordSuccess(resp.Provider)
	}
	s.metrics.RecordRequest(telemetry.RequestLabels{
		Client:       client.ID,
		Provider:     resp.Provider,
		Status:       "ok",
		DurationMs:   durationMs,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	})

	reply := &types.Message{
		Role:    types.RoleAssistant,
		Content: resp.Content,
		Metadata: map[string]any{
			"provider": resp.Provider,
			"model":    resp.Model,
			"usage":    resp.Usage,
		},
	}
	if err := s.store.AppendMessage(ctx, sess.ID, reply); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}
	count, err := s.store.CountMessages(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	slog.Info("chat message answered",
		"session_id", sess.ID,
		"provider", resp.Provider,
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration_ms", durationMs,
	)

	return &SendResult{
		Response:     resp.Content,
		SessionID:    sess.ID,
		MessageCount: count,
		Provider:     resp.Provider,
		ProviderName: resp.ProviderName,
		Model:        resp.Model,
		Usage:        resp.Usage,
	}, nil
}

func (s *Service) recordFailure(clientID, provider string, durationMs float64, err error) {
	var unavailable *router.ProviderUnavailableError
	if !errors.As(err, &unavailable) && s.health != nil {
		s.health.RecordFailure(provider, err)
	}
	s.metrics.RecordRequest(telemetry.RequestLabels{
		Client:     clientID,
		Provider:   provider,
		Status:     "error",
		DurationMs: durationMs,
	})
	slog.Warn("provider call failed", "provider", provider, "error", err)
}

// resolveProvider picks the session's aiProvider, then the configured
// default when it is registered, then the first registered id. An empty
// result lets the registry report the missing provider.
func (s *Service) resolveProvider(cfg types.SessionConfig) string {
	if p := cfg.String("aiProvider"); p != "" {
		return p
	}
	def := s.providers.DefaultProvider()
	if def != "" && s.providers.IsAvailable(def) {
		return def
	}
	if available := s.providers.ListAvailable(); len(available) > 0 {
		return available[0]
	}
	return def
}

func (s *Service) activeFileData(ctx context.Context, sessionID string) (*types.FileData, error) {
	f, err := s.store.ActiveFile(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active file: %w", err)
	}
	return f.Data, nil
}

type HistoryResult struct {
	SessionID string          `json:"sessionId"`
	Messages  []types.Message `json:"messages"`
	Count     int             `json:"count"`
}

// History returns every message of the session, oldest first.
func (s *Service) History(ctx context.Context, client *types.Client, sessionID string) (*HistoryResult, error) {
	sess, err := s.store.GetSession(ctx, client.ID, sessionID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.RecentMessages(ctx, sess.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if msgs == nil {
		msgs = []types.Message{}
	}
	return &HistoryResult{SessionID: sess.ID, Messages: msgs, Count: len(msgs)}, nil
}

// ClearHistory deletes the session's messages and reports how many were removed.
func (s *Service) ClearHistory(ctx context.Context, client *types.Client, sessionID string) (int, error) {
	sess, err := s.store.GetSession(ctx, client.ID, sessionID)
	if err != nil {
		return 0, err
	}
	n, err := s.store.ClearMessages(ctx, sess.ID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	slog.Info("chat history cleared", "session_id", sess.ID, "deleted", n)
	return n, nil
}
