package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// APIError is the JSON error envelope returned to the widget.
type APIError struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func WriteError(w http.ResponseWriter, requestID string, statusCode int, code, message, details string) {
	w.Header().Set("X-Request-ID", requestID)
	WriteJSON(w, statusCode, APIError{
		Error:     message,
		Details:   details,
		Code:      code,
		RequestID: requestID,
	})
}

func WriteAuthError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusUnauthorized, "invalid_api_key", message, "")
}

func WriteRateLimitError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusTooManyRequests, "rate_limit_exceeded", message, "")
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusBadRequest, "invalid_request", message, "")
}

func WriteNotFoundError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusNotFound, "not_found", message, "")
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusInternalServerError, "internal_error", message, "")
}

func WriteServiceUnavailableError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusServiceUnavailable, "service_unavailable", message, "")
}

func WriteBudgetExceededError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusTooManyRequests, "token_budget_exceeded", message, "")
}

// WriteProviderError maps a backend failure by its text: authentication
// problems become 401, rate limits 429, anything else 500. The backend's
// message is passed through as details.
func WriteProviderError(w http.ResponseWriter, requestID string, err error) {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "api key") || strings.Contains(lower, "api_key"):
		WriteError(w, requestID, http.StatusUnauthorized, "provider_auth_error",
			"AI provider authentication failed. Check the provider API key.", msg)
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate_limit"):
		WriteError(w, requestID, http.StatusTooManyRequests, "provider_rate_limited",
			"AI provider rate limit exceeded. Please try again later.", msg)
	default:
		WriteError(w, requestID, http.StatusInternalServerError, "provider_error",
			"Failed to generate a response.", msg)
	}
}

func WriteForbiddenError(w http.ResponseWriter, requestID, code, message, details string) {
	WriteError(w, requestID, http.StatusForbidden, code, message, details)
}
