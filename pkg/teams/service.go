// Package teams implements multi-tenant team membership: team lifecycle,
// role-gated administration, invitations, membership changes, and the
// team activity log.
package teams

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/repository"
)

// TxRunner runs a function inside a single database transaction. Writes
// issued through the Querier are visible together or not at all.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q repository.Querier) error) error
}

// TeamStore persists teams.
type TeamStore interface {
	CreateTx(ctx context.Context, q repository.Querier, team *domain.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	UpdateTx(ctx context.Context, q repository.Querier, team *domain.Team) error
	SetOwnerTx(ctx context.Context, q repository.Querier, teamID, ownerID uuid.UUID) error
	SoftDeleteTx(ctx context.Context, q repository.Querier, id uuid.UUID) error
}

// MembershipStore persists the (team, user) → role mapping. Implementations
// must enforce one membership row per user per team.
type MembershipStore interface {
	CreateTx(ctx context.Context, q repository.Querier, m *domain.Membership) error
	GetByTeamAndUser(ctx context.Context, teamID, userID uuid.UUID) (*domain.Membership, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*repository.MemberWithUser, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*repository.MembershipWithTeam, error)
	UpdateRoleTx(ctx context.Context, q repository.Querier, id uuid.UUID, role domain.Role) error
	DeleteTx(ctx context.Context, q repository.Querier, id uuid.UUID) error
	DeleteByTeamTx(ctx context.Context, q repository.Querier, teamID uuid.UUID) error
}

// InviteStore persists invitations keyed by token hash.
type InviteStore interface {
	CreateTx(ctx context.Context, q repository.Querier, invite *domain.Invite) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error)
	GetPendingByTeamAndEmail(ctx context.Context, teamID uuid.UUID, email string) (*domain.Invite, error)
	Refresh(ctx context.Context, id uuid.UUID, role domain.Role, expiresAt time.Time) error
	MarkAcceptedTx(ctx context.Context, q repository.Querier, id uuid.UUID) error
}

// ActivityStore persists the append-only team activity log.
type ActivityStore interface {
	CreateTx(ctx context.Context, q repository.Querier, a *domain.Activity) error
	ListByTeam(ctx context.Context, teamID uuid.UUID, offset, limit int) ([]*repository.ActivityWithActor, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
}

// UserStore reads users owned by the identity service.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Mailer delivers invite notifications. Delivery is best effort; errors are
// logged and never propagated to the inviter.
type Mailer interface {
	SendInviteEmail(to, teamName string, role domain.Role, acceptURL string) error
}

// Config holds service configuration.
type Config struct {
	// AppBaseURL is the frontend base URL embedded in invite accept links.
	AppBaseURL string

	// InviteTTL is how long invites stay acceptable (default: 7 days).
	InviteTTL time.Duration

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// Service orchestrates all team operations. Every operation takes the
// authenticated actor's user id; authentication itself happens upstream.
type Service struct {
	config     Config
	tx         TxRunner
	teams      TeamStore
	members    MembershipStore
	invites    InviteStore
	activities ActivityStore
	users      UserStore
	mailer     Mailer
}

// NewService creates a new teams service. mailer may be nil, in which case
// invite notifications are skipped.
func NewService(
	config Config,
	tx TxRunner,
	teams TeamStore,
	members MembershipStore,
	invites InviteStore,
	activities ActivityStore,
	users UserStore,
	mailer Mailer,
) *Service {
	if config.InviteTTL == 0 {
		config.InviteTTL = domain.DefaultInviteTTL
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Service{
		config:     config,
		tx:         tx,
		teams:      teams,
		members:    members,
		invites:    invites,
		activities: activities,
		users:      users,
		mailer:     mailer,
	}
}

// VerifyAccess is the single permission gate all operations pass through.
// It loads the team (NotFound if absent or soft-deleted) and the actor's
// membership (Forbidden if absent or the role is not allowed), and returns
// both for reuse by the caller.
func (s *Service) VerifyAccess(ctx context.Context, teamID, userID uuid.UUID, allowed ...domain.Role) (*domain.Team, *domain.Membership, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}

	member, err := s.members.GetByTeamAndUser(ctx, teamID, userID)
	if err != nil {
		if err == domain.ErrMemberNotFound {
			return nil, nil, domain.ErrNotTeamMember
		}
		return nil, nil, err
	}

	if !slices.Contains(allowed, member.Role) {
		return nil, nil, domain.ErrInsufficientRole
	}

	return team, member, nil
}
