package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/simple-teams/internal/config"
	"github.com/tendant/simple-teams/internal/httputil"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
					"user_agent", r.UserAgent(),
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters creates rate limiting middleware functions based on configuration.
// Reads, mutations, and invitations get separate budgets since invitation
// endpoints trigger outbound email.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			"read":   noOp,
			"mutate": noOp,
			"invite": noOp,
		}
	}

	return map[string]func(http.Handler) http.Handler{
		"read": RateLimit(RateLimitConfig{
			Requests: cfg.ReadRequestsPerMinute,
			Window:   time.Duration(cfg.ReadWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
		"mutate": RateLimit(RateLimitConfig{
			Requests: cfg.MutateRequestsPerMinute,
			Window:   time.Duration(cfg.MutateWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
		"invite": RateLimit(RateLimitConfig{
			Requests: cfg.InviteRequestsPerWindow,
			Window:   time.Duration(cfg.InviteWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
	}
}
