package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/af-corp/chatbot-gateway/internal/httputil"
)

// DomainSettings controls the per-client origin check.
type DomainSettings struct {
	Enforce        bool
	AllowLocalhost bool
}

// DomainCheck returns a middleware that only lets an authenticated client's
// requests through when their Origin (or Referer) is one of the client's
// allowed domains. It must run after Middleware. Requests without a client
// in the context pass untouched.
func DomainCheck(settings func() DomainSettings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := settings()
			client, ok := ClientFromContext(r.Context())
			if !s.Enforce || !ok {
				next.ServeHTTP(w, r)
				return
			}
			reqID := w.Header().Get("X-Request-ID")

			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = r.Header.Get("Referer")
			}
			if origin == "" {
				httputil.WriteForbiddenError(w, reqID, "origin_required", "Origin header required",
					"Requests must originate from an allowed domain")
				return
			}

			u, err := url.Parse(origin)
			if err != nil || u.Scheme == "" || u.Host == "" {
				httputil.WriteForbiddenError(w, reqID, "domain_not_allowed", "Invalid Origin header", origin)
				return
			}
			if s.AllowLocalhost && isLocalhost(u) {
				next.ServeHTTP(w, r)
				return
			}
			if !DomainAllowed(u, client.AllowedDomains) {
				slog.Warn("request from domain not allowed",
					"request_id", reqID,
					"client_id", client.ID,
					"origin", u.Scheme+"://"+u.Host,
				)
				httputil.WriteForbiddenError(w, reqID, "domain_not_allowed", "Domain not allowed", u.Scheme+"://"+u.Host)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DomainAllowed reports whether origin matches one of the allowed entries.
// An entry is "https://shop.example.com", a bare host "shop.example.com",
// or a wildcard "*.example.com" that also matches example.com itself.
// An empty list allows nothing.
func DomainAllowed(origin *url.URL, allowed []string) bool {
	host := strings.ToLower(origin.Host)
	full := strings.ToLower(origin.Scheme) + "://" + host
	for _, entry := range allowed {
		entry = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(entry)), "/")
		switch {
		case entry == "":
			continue
		case strings.HasPrefix(entry, "*."):
			base := entry[2:]
			h := origin.Hostname()
			if strings.EqualFold(h, base) || strings.HasSuffix(strings.ToLower(h), "."+base) {
				return true
			}
		case strings.Contains(entry, "://"):
			if full == entry {
				return true
			}
		case host == entry:
			return true
		}
	}
	return false
}

func isLocalhost(u *url.URL) bool {
	if u.Scheme != "http" {
		return false
	}
	h := u.Hostname()
	return h == "localhost" || h == "127.0.0.1"
}
