package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// CreateSession starts a conversation. The stored config is the server's
// widget defaults, overlaid by the client's branding, overlaid by cfg.
func (s *Service) CreateSession(ctx context.Context, client *types.Client, cfg types.SessionConfig, userIdentifier string) (*types.Session, error) {
	merged := s.botDefaults(client).Merge(cfg)
	sess := &types.Session{
		ClientID:       client.ID,
		UserIdentifier: userIdentifier,
		Config:         merged,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	slog.Info("chat session created", "session_id", sess.ID, "client_id", client.ID)
	return sess, nil
}

func (s *Service) botDefaults(client *types.Client) types.SessionConfig {
	w := s.Settings().Widget
	server := types.ClientConfig{
		BotName:           w.BotName,
		PoweredByText:     w.PoweredByText,
		PrimaryColor:      w.PrimaryColor,
		BotIconURL:        w.BotIconURL,
		BotMessageBgColor: w.BotMessageBgColor,
	}
	return toConfig(server.WidgetDefaults()).Merge(toConfig(client.Config.WidgetDefaults()))
}

func toConfig(m map[string]string) types.SessionConfig {
	obj := make(map[string]any, len(m))
	for k, v := range m {
		obj[k] = v
	}
	return types.SessionConfigFromMap(obj)
}

func (s *Service) GetSession(ctx context.Context, client *types.Client, sessionID string) (*types.Session, error) {
	return s.store.GetSession(ctx, client.ID, sessionID)
}

// UpdateConfig merges cfg into the session's config; keys in cfg win.
func (s *Service) UpdateConfig(ctx context.Context, client *types.Client, sessionID string, cfg types.SessionConfig) (*types.Session, error) {
	sess, err := s.store.GetSession(ctx, client.ID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Config = sess.Config.Merge(cfg)
	if err := s.store.UpdateSessionConfig(ctx, sess.ID, sess.Config); err != nil {
		return nil, fmt.Errorf("update session config: %w", err)
	}
	return sess, nil
}

// Stats counts the client's sessions and those active within the window.
func (s *Service) Stats(ctx context.Context, client *types.Client) (types.SessionStats, error) {
	since := s.now().Add(-s.Settings().ActiveWindow)
	return s.store.SessionStats(ctx, client.ID, since)
}
