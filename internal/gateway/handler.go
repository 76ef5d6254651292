package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/af-corp/chatbot-gateway/internal/auth"
	"github.com/af-corp/chatbot-gateway/internal/chat"
	"github.com/af-corp/chatbot-gateway/internal/httputil"
	"github.com/af-corp/chatbot-gateway/internal/ratelimit"
	"github.com/af-corp/chatbot-gateway/internal/router"
	"github.com/af-corp/chatbot-gateway/internal/store"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

// UsageRecorder is the part of ratelimit.TokenBudget the handlers need.
type UsageRecorder interface {
	Record(ctx context.Context, clientID string, tokens int64) error
}

var _ UsageRecorder = (*ratelimit.BudgetTracker)(nil)

// Handler holds the dependencies of the /api/chat handlers.
type Handler struct {
	chat      *chat.Service
	budget    UsageRecorder
	maxUpload func() int64
}

func NewHandler(svc *chat.Service, budget UsageRecorder, maxUpload func() int64) *Handler {
	return &Handler{chat: svc, budget: budget, maxUpload: maxUpload}
}

type createSessionRequest struct {
	Config         types.SessionConfig `json:"config"`
	UserIdentifier string              `json:"userIdentifier"`
}

type updateConfigRequest struct {
	Config types.SessionConfig `json:"config"`
}

type queryRequest struct {
	Query string `json:"query"`
}

// fileView is the widget-facing description of an upload.
type fileView struct {
	FileID     string             `json:"fileId"`
	SessionID  string             `json:"sessionId"`
	FileName   string             `json:"fileName"`
	FileType   string             `json:"fileType"`
	FileSize   int64              `json:"fileSize"`
	Summary    *types.FileSummary `json:"summary,omitempty"`
	UploadedAt time.Time          `json:"uploadedAt"`
}

func newFileView(f *types.FileUpload) fileView {
	v := fileView{
		FileID:     f.ID,
		SessionID:  f.SessionID,
		FileName:   f.OriginalName,
		FileType:   f.FileType,
		FileSize:   f.FileSize,
		UploadedAt: f.UploadedAt,
	}
	if f.Data != nil {
		v.Summary = f.Data.Summary
	}
	return v
}

// CreateSession handles POST /api/chat/sessions/create
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	sess, err := h.chat.CreateSession(r.Context(), client, req.Config, req.UserIdentifier)
	if err != nil {
		writeServiceError(w, reqID, err, "Session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sess)
}

// GetSession handles GET /api/chat/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	sess, err := h.chat.GetSession(r.Context(), client, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, reqID, err, "Session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

// UpdateSessionConfig handles PUT /api/chat/sessions/{id}/config
func (h *Handler) UpdateSessionConfig(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req updateConfigRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	sess, err := h.chat.UpdateConfig(r.Context(), client, chi.URLParam(r, "id"), req.Config)
	if err != nil {
		writeServiceError(w, reqID, err, "Session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess)
}

// SessionStats handles GET /api/chat/sessions/stats/summary
func (h *Handler) SessionStats(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	stats, err := h.chat.Stats(r.Context(), client)
	if err != nil {
		writeServiceError(w, reqID, err, "")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// SendMessage handles POST /api/chat/messages/send
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req chat.SendRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}

	res, err := h.chat.Send(r.Context(), client, req)
	if err != nil {
		var unavailable *router.ProviderUnavailableError
		switch {
		case errors.As(err, &unavailable), errors.Is(err, store.ErrNotFound), errors.Is(err, chat.ErrInvalidInput):
			writeServiceError(w, reqID, err, "Session not found")
		default:
			slog.Error("send message failed", "request_id", reqID, "session_id", req.SessionID, "error", err)
			httputil.WriteProviderError(w, reqID, err)
		}
		return
	}

	if err := h.budget.Record(r.Context(), client.ID, int64(res.Usage.TotalTokens)); err != nil {
		slog.Warn("token usage not recorded", "request_id", reqID, "client_id", client.ID, "error", err)
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// History handles GET /api/chat/messages/history/{id}
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	hist, err := h.chat.History(r.Context(), client, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, reqID, err, "Session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hist)
}

// ClearHistory handles DELETE /api/chat/messages/clear/{id}
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "id")
	n, err := h.chat.ClearHistory(r.Context(), client, sessionID)
	if err != nil {
		writeServiceError(w, reqID, err, "Session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"sessionId":    sessionID,
		"deletedCount": n,
	})
}

// UploadFile handles POST /api/chat/files/upload (multipart: sessionId, file)
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	limit := h.maxUpload()
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, reqID, http.StatusRequestEntityTooLarge, "file_too_large", "File is too large", "")
			return
		}
		httputil.WriteBadRequestError(w, reqID, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		httputil.WriteBadRequestError(w, reqID, "sessionId is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "file is required")
		return
	}
	defer file.Close()
	if header.Size > limit {
		httputil.WriteError(w, reqID, http.StatusRequestEntityTooLarge, "file_too_large", "File is too large", "")
		return
	}

	upload, err := h.chat.UploadFile(r.Context(), client, sessionID, header.Filename, file)
	if err != nil {
		writeServiceError(w, reqID, err, "Session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newFileView(upload))
}

// FileInfo handles GET /api/chat/files/info/{id}
func (h *Handler) FileInfo(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	f, err := h.chat.FileInfo(r.Context(), client, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, reqID, err, "No active file for this session")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newFileView(f))
}

// QueryFile handles POST /api/chat/files/query/{id}
func (h *Handler) QueryFile(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	res, err := h.chat.QueryFile(r.Context(), client, chi.URLParam(r, "id"), req.Query)
	if err != nil {
		writeServiceError(w, reqID, err, "No active file for this session")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// DeleteFile handles DELETE /api/chat/files/{id}
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	reqID, client, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := h.chat.DeleteFile(r.Context(), client, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, reqID, err, "No active file for this session")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "File removed"})
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (string, *types.Client, bool) {
	reqID := w.Header().Get("X-Request-ID")
	client, ok := auth.ClientFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return reqID, nil, false
	}
	return reqID, client, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, reqID string, dest any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps chat service errors onto the error envelope.
func writeServiceError(w http.ResponseWriter, reqID string, err error, notFound string) {
	var unavailable *router.ProviderUnavailableError
	switch {
	case errors.As(err, &unavailable):
		httputil.WriteError(w, reqID, http.StatusBadRequest, "provider_unavailable", err.Error(), "")
	case errors.Is(err, store.ErrNotFound):
		httputil.WriteNotFoundError(w, reqID, notFound)
	case errors.Is(err, chat.ErrInvalidInput):
		httputil.WriteBadRequestError(w, reqID, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.WriteError(w, reqID, http.StatusGatewayTimeout, "timeout", "Request timed out", "")
	default:
		slog.Error("request failed", "request_id", reqID, "error", err)
		httputil.WriteInternalError(w, reqID, "Internal server error")
	}
}
