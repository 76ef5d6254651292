package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateClient(ctx context.Context, c *types.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cfg, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("encode client config: %w", err)
	}
	domains := c.AllowedDomains
	if domains == nil {
		domains = []string{}
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO clients (id, name, email, api_key_hash, key_prefix, config, allowed_domains, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, c.ID, c.Name, c.Email, c.APIKeyHash, c.KeyPrefix, cfg, domains, c.IsActive).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupClient(ctx context.Context, keyHash string) (*types.Client, error) {
	var c types.Client
	var cfg []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, api_key_hash, key_prefix, config, allowed_domains, is_active, created_at
		FROM clients
		WHERE api_key_hash = $1
		  AND is_active
	`, keyHash).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.APIKeyHash,
		&c.KeyPrefix,
		&cfg,
		&c.AllowedDomains,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "query client")
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &c.Config); err != nil {
			return nil, fmt.Errorf("decode client config: %w", err)
		}
	}
	return &c, nil
}

func (s *PostgresStore) DeactivateClient(ctx context.Context, keyHash string) error {
	tag, err := s.db.Exec(ctx, `UPDATE clients SET is_active = FALSE WHERE api_key_hash = $1 AND is_active`, keyHash)
	if err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess *types.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	cfg, err := sess.Config.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode session config: %w", err)
	}
	err = s.db.QueryRow(ctx, `
		INSERT INTO chat_sessions (id, client_id, user_identifier, config)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, last_activity
	`, sess.ID, sess.ClientID, sess.UserIdentifier, cfg).Scan(&sess.CreatedAt, &sess.LastActivity)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, clientID, sessionID string) (*types.Session, error) {
	if uuid.Validate(sessionID) != nil {
		return nil, ErrNotFound
	}
	var sess types.Session
	var cfg []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, client_id, user_identifier, config, created_at, last_activity
		FROM chat_sessions
		WHERE id = $1 AND client_id = $2
	`, sessionID, clientID).Scan(
		&sess.ID,
		&sess.ClientID,
		&sess.UserIdentifier,
		&cfg,
		&sess.CreatedAt,
		&sess.LastActivity,
	)
	if err != nil {
		return nil, notFound(err, "query session")
	}
	if err := sess.Config.UnmarshalJSON(cfg); err != nil {
		return nil, fmt.Errorf("decode session config: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) UpdateSessionConfig(ctx context.Context, sessionID string, cfg types.SessionConfig) error {
	raw, err := cfg.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode session config: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE chat_sessions SET config = $2, last_activity = NOW() WHERE id = $1
	`, sessionID, raw)
	if err != nil {
		return fmt.Errorf("update session config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SessionStats(ctx context.Context, clientID string, activeSince time.Time) (types.SessionStats, error) {
	var stats types.SessionStats
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE last_activity >= $2)
		FROM chat_sessions
		WHERE client_id = $1
	`, clientID, activeSince).Scan(&stats.TotalSessions, &stats.ActiveSessions)
	if err != nil {
		return stats, fmt.Errorf("query session stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, sessionID string, m *types.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	meta := []byte("{}")
	if len(m.Metadata) > 0 {
		raw, err := types.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("encode message metadata: %w", err)
		}
		meta = raw
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var ts time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING created_at
	`, m.ID, sessionID, m.Role, m.Content, meta, m.Timestamp).Scan(&ts)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE chat_sessions SET last_activity = $2 WHERE id = $1`, sessionID, ts); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	m.Timestamp = &ts
	return nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]types.Message, error) {
	var lim any // NULL means no limit
	if limit > 0 {
		lim = limit
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, role, content, metadata, created_at FROM (
			SELECT id, role, content, metadata, created_at
			FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, sessionID, lim)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []types.Message
	for rows.Next() {
		var m types.Message
		var meta []byte
		var ts time.Time
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &meta, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Timestamp = &ts
		if len(meta) > 2 {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountMessages(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM chat_messages WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ClearMessages(ctx context.Context, sessionID string) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) SaveFile(ctx context.Context, f *types.FileUpload) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	data, err := json.Marshal(f.Data)
	if err != nil {
		return fmt.Errorf("encode file data: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE file_uploads SET is_active = FALSE WHERE session_id = $1 AND is_active`, f.SessionID); err != nil {
		return fmt.Errorf("deactivate files: %w", err)
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO file_uploads (id, session_id, original_name, file_type, file_size, processed_data, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING uploaded_at
	`, f.ID, f.SessionID, f.OriginalName, f.FileType, f.FileSize, data).Scan(&f.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit file: %w", err)
	}
	f.IsActive = true
	return nil
}

func (s *PostgresStore) ActiveFile(ctx context.Context, sessionID string) (*types.FileUpload, error) {
	var f types.FileUpload
	var data []byte
	err := s.db.QueryRow(ctx, `
		SELECT id, session_id, original_name, file_type, file_size, processed_data, is_active, uploaded_at
		FROM file_uploads
		WHERE session_id = $1 AND is_active
		ORDER BY uploaded_at DESC
		LIMIT 1
	`, sessionID).Scan(
		&f.ID,
		&f.SessionID,
		&f.OriginalName,
		&f.FileType,
		&f.FileSize,
		&data,
		&f.IsActive,
		&f.UploadedAt,
	)
	if err != nil {
		return nil, notFound(err, "query active file")
	}
	var fd types.FileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("decode file data: %w", err)
	}
	f.Data = &fd
	return &f, nil
}

func (s *PostgresStore) DeactivateFiles(ctx context.Context, sessionID string) (int, error) {
	tag, err := s.db.Exec(ctx, `UPDATE file_uploads SET is_active = FALSE WHERE session_id = $1 AND is_active`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("deactivate files: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
