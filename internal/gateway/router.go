package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the pieces NewRouter mounts.
type Deps struct {
	Handler        *Handler
	Health         http.HandlerFunc
	Auth           func(http.Handler) http.Handler
	DomainCheck    func(http.Handler) http.Handler
	RateLimit      func(http.Handler) http.Handler
	AllowedOrigins func() []string
}

// NewRouter builds the HTTP API. /health is public; everything under
// /api/chat requires a client key and, when DomainCheck is set, an Origin
// from the client's allowed domains. Message sending is also rate limited.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLog)
	if d.AllowedOrigins != nil {
		r.Use(cors(d.AllowedOrigins))
	}

	r.Get("/health", d.Health)

	r.Route("/api/chat", func(r chi.Router) {
		r.Use(d.Auth)
		if d.DomainCheck != nil {
			r.Use(d.DomainCheck)
		}

		r.Post("/sessions/create", d.Handler.CreateSession)
		r.Get("/sessions/stats/summary", d.Handler.SessionStats)
		r.Get("/sessions/{id}", d.Handler.GetSession)
		r.Put("/sessions/{id}/config", d.Handler.UpdateSessionConfig)

		r.Group(func(r chi.Router) {
			if d.RateLimit != nil {
				r.Use(d.RateLimit)
			}
			r.Post("/messages/send", d.Handler.SendMessage)
		})
		r.Get("/messages/history/{id}", d.Handler.History)
		r.Delete("/messages/clear/{id}", d.Handler.ClearHistory)

		r.Post("/files/upload", d.Handler.UploadFile)
		r.Get("/files/info/{id}", d.Handler.FileInfo)
		r.Post("/files/query/{id}", d.Handler.QueryFile)
		r.Delete("/files/{id}", d.Handler.DeleteFile)
	})
	return r
}
