package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/af-corp/chatbot-gateway/internal/fileproc"
	"github.com/af-corp/chatbot-gateway/internal/store"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

// UploadFile parses a .json or .csv upload and makes it the session's
// active file.
func (s *Service) UploadFile(ctx context.Context, client *types.Client, sessionID, name string, r io.Reader) (*types.FileUpload, error) {
	sess, err := s.store.GetSession(ctx, client.ID, sessionID)
	if err != nil {
		return nil, err
	}
	fd, err := fileproc.Process(name, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	upload := &types.FileUpload{
		SessionID:    sess.ID,
		OriginalName: name,
		FileType:     fd.Type,
		FileSize:     fd.Size,
		Data:         fd,
	}
	if err := s.store.SaveFile(ctx, upload); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}
	slog.Info("file uploaded",
		"session_id", sess.ID,
		"file_type", fd.Type,
		"size", fd.Size,
	)
	return upload, nil
}

// FileInfo returns the session's active file.
func (s *Service) FileInfo(ctx context.Context, client *types.Client, sessionID string) (*types.FileUpload, error) {
	sess, err := s.store.GetSession(ctx, client.ID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.ActiveFile(ctx, sess.ID)
}

// QueryFile searches the active file for q, case-insensitively.
func (s *Service) QueryFile(ctx context.Context, client *types.Client, sessionID, q string) (*fileproc.QueryResult, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	f, err := s.FileInfo(ctx, client, sessionID)
	if err != nil {
		return nil, err
	}
	result := fileproc.Query(f.Data, q)
	if result == nil {
		return nil, store.ErrNotFound
	}
	return result, nil
}

// DeleteFile deactivates the session's active file.
func (s *Service) DeleteFile(ctx context.Context, client *types.Client, sessionID string) error {
	sess, err := s.store.GetSession(ctx, client.ID, sessionID)
	if err != nil {
		return err
	}
	n, err := s.store.DeactivateFiles(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
