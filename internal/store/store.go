package store

import (
	"context"
	"errors"
	"time"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// ErrNotFound is returned when a session, file, or client does not exist or
// is not visible to the caller.
var ErrNotFound = errors.New("not found")

// Store persists clients, sessions, messages, and file uploads.
//
// Session configs and file data must come back with object keys in the
// order they were saved: CSV columns and prompt sections are derived from
// that order. The postgres schema keeps both in JSON (not JSONB) columns.
type Store interface {
	CreateClient(ctx context.Context, c *types.Client) error
	// LookupClient returns the active client with the given API key hash.
	LookupClient(ctx context.Context, keyHash string) (*types.Client, error)
	// DeactivateClient disables the client owning keyHash.
	DeactivateClient(ctx context.Context, keyHash string) error

	CreateSession(ctx context.Context, s *types.Session) error
	// GetSession returns the session only when it belongs to clientID.
	GetSession(ctx context.Context, clientID, sessionID string) (*types.Session, error)
	UpdateSessionConfig(ctx context.Context, sessionID string, cfg types.SessionConfig) error
	SessionStats(ctx context.Context, clientID string, activeSince time.Time) (types.SessionStats, error)

	// AppendMessage stores m, filling ID and Timestamp when unset, and bumps
	// the session's last activity.
	AppendMessage(ctx context.Context, sessionID string, m *types.Message) error
	// RecentMessages returns up to limit of the newest messages, oldest first.
	// A limit of zero or less returns every message.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]types.Message, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)
	ClearMessages(ctx context.Context, sessionID string) (int, error)

	// SaveFile stores f as the session's active file, deactivating earlier ones.
	SaveFile(ctx context.Context, f *types.FileUpload) error
	ActiveFile(ctx context.Context, sessionID string) (*types.FileUpload, error)
	DeactivateFiles(ctx context.Context, sessionID string) (int, error)
}
