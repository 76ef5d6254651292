package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/af-corp/chatbot-gateway/internal/auth"
	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/httputil"
	"github.com/af-corp/chatbot-gateway/internal/telemetry"
)

const (
	headerLimit     = "X-RateLimit-Limit"
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
	headerRetry     = "Retry-After"
)

// Middleware enforces the per-client request rate and daily token budget.
// It runs after auth; requests without a client pass through. settings is
// read on every request so config reloads apply.
func Middleware(limiter RequestLimiter, budget TokenBudget, settings func() config.RateLimitConfig, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := w.Header().Get("X-Request-ID")
			cfg := settings()

			client, ok := auth.ClientFromContext(r.Context())
			if !ok || !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			rpm := cfg.DefaultRequestsPerMin
			if client.Config.RequestsPerMinute > 0 {
				rpm = client.Config.RequestsPerMinute
			}
			if rpm > 0 {
				d := limiter.Allow(r.Context(), "rpm:"+client.ID, int64(rpm), time.Minute)
				w.Header().Set(headerLimit, strconv.Itoa(rpm))
				w.Header().Set(headerRemaining, strconv.FormatInt(d.Remaining, 10))
				w.Header().Set(headerReset, d.ResetAt.UTC().Format(time.RFC3339))

				if !d.Allowed {
					slog.Warn("rate limit exceeded",
						"request_id", reqID,
						"client_id", client.ID,
						"limit", rpm,
					)
					metrics.RecordRateLimitHit(client.ID, "rpm")
					w.Header().Set(headerRetry, strconv.Itoa(int(d.RetryAfter.Round(time.Second).Seconds())))
					httputil.WriteRateLimitError(w, reqID,
						fmt.Sprintf("Rate limit exceeded: %d requests per minute", rpm))
					return
				}
			}

			limit := cfg.DefaultDailyTokenBudget
			if client.Config.DailyTokenBudget > 0 {
				limit = client.Config.DailyTokenBudget
			}
			if status := budget.Check(r.Context(), client.ID, limit); !status.Allowed {
				slog.Warn("daily token budget exceeded",
					"request_id", reqID,
					"client_id", client.ID,
					"used", status.Used,
					"limit", status.Limit,
				)
				metrics.RecordRateLimitHit(client.ID, "token_budget")
				httputil.WriteBudgetExceededError(w, reqID,
					fmt.Sprintf("Daily token budget exceeded: used %d of %d tokens", status.Used, status.Limit))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
