package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/af-corp/chatbot-gateway/internal/httputil"
	"github.com/af-corp/chatbot-gateway/internal/router"
)

// Check pings one backing service. A nil error means healthy.
type Check func(ctx context.Context) error

type healthResponse struct {
	Status          string                  `json:"status"`
	Version         string                  `json:"version"`
	Providers       []string                `json:"providers"`
	DefaultProvider string                  `json:"defaultProvider"`
	ProviderHealth  []router.ProviderHealth `json:"providerHealth"`
	Checks          map[string]string       `json:"checks,omitempty"`
}

// ProviderLister is satisfied by *router.Registry.
type ProviderLister interface {
	ListAvailable() []string
	DefaultProvider() string
}

// HealthHandler reports configured providers and the state of each check.
// Any failing check turns the status to "degraded" with a 503.
func HealthHandler(version string, providers ProviderLister, tracker *router.HealthTracker, checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:          "healthy",
			Version:         version,
			Providers:       providers.ListAvailable(),
			DefaultProvider: providers.DefaultProvider(),
			ProviderHealth:  []router.ProviderHealth{},
		}
		if tracker != nil {
			resp.ProviderHealth = tracker.Snapshot()
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "error: " + err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
