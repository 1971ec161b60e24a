package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-teams/internal/config"
	"github.com/tendant/simple-teams/internal/http/features/invites"
	featureteams "github.com/tendant/simple-teams/internal/http/features/teams"
	"github.com/tendant/simple-teams/internal/http/middleware"
	"github.com/tendant/simple-teams/internal/httputil"
	"github.com/tendant/simple-teams/pkg/teams"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	TeamService     *teams.Service
	JWTSecret       []byte
	JWTIssuer       string
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	auth := middleware.Auth(middleware.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})

	teamsHandler := featureteams.NewHandler(cfg.Logger, cfg.TeamService)
	invitesHandler := invites.NewHandler(cfg.Logger, cfg.TeamService)

	// Read endpoints
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["read"])
		r.Get("/v1/teams", teamsHandler.List)
		r.Get("/v1/teams/{teamID}/members", teamsHandler.ListMembers)
		r.Get("/v1/teams/{teamID}/activities", teamsHandler.ListActivities)
	})

	// Mutating endpoints
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["mutate"])
		r.Post("/v1/teams", teamsHandler.Create)
		r.Patch("/v1/teams/{teamID}", teamsHandler.Update)
		r.Delete("/v1/teams/{teamID}", teamsHandler.Delete)
		r.Delete("/v1/teams/{teamID}/members/{userID}", teamsHandler.Kick)
		r.Post("/v1/teams/{teamID}/leave", teamsHandler.Leave)
		r.Patch("/v1/teams/{teamID}/members/{userID}/role", teamsHandler.ChangeRole)
	})

	// Invitation endpoints get their own budget since they send email
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["invite"])
		r.Post("/v1/teams/{teamID}/invites", invitesHandler.Invite)
		r.Post("/v1/invites/accept", invitesHandler.Accept)
	})

	return r
}
