package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/af-corp/chatbot-gateway/internal/httputil"
)

// HeaderAPIKey carries the client key sent by the widget.
const HeaderAPIKey = "X-API-Key"

// Middleware returns a chi middleware that authenticates requests by API
// key. The key is read from X-API-Key, or from a Bearer token.
func Middleware(clients ClientStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := w.Header().Get("X-Request-ID")

			key := strings.TrimSpace(r.Header.Get(HeaderAPIKey))
			if key == "" {
				if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					key = strings.TrimSpace(bearer)
				}
			}
			if key == "" {
				httputil.WriteAuthError(w, reqID, "Missing API key. Send it in the X-API-Key header.")
				return
			}

			client, err := clients.Lookup(r.Context(), HashKey(key))
			if err != nil {
				slog.Error("client lookup failed", "error", err, "key_prefix", safePrefix(key))
				httputil.WriteInternalError(w, reqID, "Internal error during authentication")
				return
			}
			if client == nil || !client.IsActive {
				slog.Warn("auth failed: unknown or inactive key", "key_prefix", safePrefix(key))
				httputil.WriteAuthError(w, reqID, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClient(r.Context(), client)))
		})
	}
}
