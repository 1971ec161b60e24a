// Package simpleteams provides an embeddable team membership library:
// team lifecycle, role-gated administration, email invitations, and the
// team activity log. Authentication is delegated to your identity
// service; this library only verifies its access tokens.
//
// Setup:
//
//  1. Run migrations from migrations/ folder using your preferred tool
//  2. Create a Teams instance and mount routes
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/myapp?sslmode=disable")
//
//	tm, err := simpleteams.New(simpleteams.Config{
//	    DB:        db,
//	    JWTSecret: "same-secret-your-identity-service-signs-with",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/teams", tm.Router())
//	http.ListenAndServe(":8080", r)
package simpleteams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-teams/internal/http/features/invites"
	featureteams "github.com/tendant/simple-teams/internal/http/features/teams"
	"github.com/tendant/simple-teams/internal/http/middleware"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/repository"
	"github.com/tendant/simple-teams/pkg/teams"
)

// Config holds the configuration for the teams library.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// JWTSecret is the secret key used to verify access tokens issued by
	// your identity service (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the expected issuer claim (default: "simple-idm").
	JWTIssuer string

	// AppBaseURL is the frontend base URL embedded in invite accept links.
	AppBaseURL string

	// InviteTTL is how long invites stay acceptable (default: 7 days).
	InviteTTL time.Duration

	// Mailer delivers invite emails (optional; invites still succeed
	// without one, silently skipping notification).
	Mailer teams.Mailer

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Teams is the main library instance.
type Teams struct {
	config          Config
	db              *sql.DB
	teamsRepo       *repository.TeamsRepository
	membershipsRepo *repository.MembershipsRepository
	invitesRepo     *repository.InvitesRepository
	activitiesRepo  *repository.ActivitiesRepository
	usersRepo       *repository.UsersRepository
	service         *teams.Service
}

// New creates a new Teams instance with the given configuration.
// Returns an error if required database tables don't exist.
// Run migrations first - see migrations/ folder for SQL files.
func New(cfg Config) (*Teams, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// Validate schema exists
	if err := validateSchema(cfg.DB); err != nil {
		return nil, err
	}

	// Initialize repositories
	teamsRepo := repository.NewTeamsRepository(cfg.DB)
	membershipsRepo := repository.NewMembershipsRepository(cfg.DB)
	invitesRepo := repository.NewInvitesRepository(cfg.DB)
	activitiesRepo := repository.NewActivitiesRepository(cfg.DB)
	usersRepo := repository.NewUsersRepository(cfg.DB)

	service := teams.NewService(
		teams.Config{
			AppBaseURL: cfg.AppBaseURL,
			InviteTTL:  cfg.InviteTTL,
			Logger:     cfg.Logger,
		},
		repository.NewRunner(cfg.DB),
		teamsRepo,
		membershipsRepo,
		invitesRepo,
		activitiesRepo,
		usersRepo,
		cfg.Mailer,
	)

	return &Teams{
		config:          cfg,
		db:              cfg.DB,
		teamsRepo:       teamsRepo,
		membershipsRepo: membershipsRepo,
		invitesRepo:     invitesRepo,
		activitiesRepo:  activitiesRepo,
		usersRepo:       usersRepo,
		service:         service,
	}, nil
}

// Router returns a chi router with all team routes.
// Mount this on your main router:
//
//	r := chi.NewRouter()
//	r.Mount("/teams", tm.Router())
//
// Routes (all protected):
//
//	POST   /                           - Create a team
//	GET    /                           - List the caller's teams
//	PATCH  /{teamID}                   - Rename a team
//	DELETE /{teamID}                   - Delete a team
//	GET    /{teamID}/members           - List team members
//	DELETE /{teamID}/members/{userID}  - Kick a member
//	POST   /{teamID}/leave             - Leave a team
//	PATCH  /{teamID}/members/{userID}/role - Change a member's role
//	GET    /{teamID}/activities        - Team activity log (paginated)
//	POST   /{teamID}/invites           - Invite a user by email
//	POST   /invites/accept             - Accept an invitation
func (t *Teams) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(t.AuthMiddleware())

	teamsHandler := featureteams.NewHandler(t.config.Logger, t.service)
	invitesHandler := invites.NewHandler(t.config.Logger, t.service)

	r.Post("/", teamsHandler.Create)
	r.Get("/", teamsHandler.List)
	r.Patch("/{teamID}", teamsHandler.Update)
	r.Delete("/{teamID}", teamsHandler.Delete)
	r.Get("/{teamID}/members", teamsHandler.ListMembers)
	r.Delete("/{teamID}/members/{userID}", teamsHandler.Kick)
	r.Post("/{teamID}/leave", teamsHandler.Leave)
	r.Patch("/{teamID}/members/{userID}/role", teamsHandler.ChangeRole)
	r.Get("/{teamID}/activities", teamsHandler.ListActivities)
	r.Post("/{teamID}/invites", invitesHandler.Invite)
	r.Post("/invites/accept", invitesHandler.Accept)

	return r
}

// Service returns the team service for advanced usage.
func (t *Teams) Service() *teams.Service {
	return t.service
}

// AuthMiddleware returns middleware that validates JWT tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(tm.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (t *Teams) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(middleware.AuthConfig{
		JWTSecret: []byte(t.config.JWTSecret),
		Issuer:    t.config.JWTIssuer,
	})
}

// GetUserIDFromContext extracts the user ID from a context.
// Use after AuthMiddleware:
//
//	userID, ok := simpleteams.GetUserIDFromContext(ctx)
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return middleware.GetUserID(ctx)
}

// Handler returns an http.Handler for mounting with http.StripPrefix.
// This is useful when using standard library ServeMux:
//
//	mux := http.NewServeMux()
//	mux.Handle("/teams/", http.StripPrefix("/teams", tm.Handler()))
func (t *Teams) Handler() http.Handler {
	return t.Router()
}

// Routes registers all team routes on an http.ServeMux with the given prefix.
// This provides a simpler way to mount routes without StripPrefix:
//
//	mux := http.NewServeMux()
//	tm.Routes(mux, "/api/v1/teams")
func (t *Teams) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, t.Router()))
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("simpleteams: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("simpleteams: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("simpleteams: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "simple-idm"
	}
	if cfg.InviteTTL == 0 {
		cfg.InviteTTL = domain.DefaultInviteTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(db *sql.DB) error {
	requiredTables := []string{"users", "teams", "memberships", "invites", "activities"}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRow(query, table).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("simpleteams: missing table '%s' - run migrations first (see migrations/ folder)", table)
		}
		if err != nil {
			return fmt.Errorf("simpleteams: failed to check schema: %w", err)
		}
	}

	return nil
}
