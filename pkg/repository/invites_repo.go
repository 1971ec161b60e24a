package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
)

// InvitesRepository handles invite persistence. Raw tokens never touch the
// database; rows carry the SHA-256 hash.
type InvitesRepository struct {
	db *sql.DB
}

// NewInvitesRepository creates a new invites repository.
func NewInvitesRepository(db *sql.DB) *InvitesRepository {
	return &InvitesRepository{db: db}
}

// CreateTx creates an invite within a transaction.
func (r *InvitesRepository) CreateTx(ctx context.Context, q Querier, invite *domain.Invite) error {
	query := `
		INSERT INTO invites (id, team_id, email, role, invited_by, token_hash, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		invite.ID, invite.TeamID, invite.Email, invite.Role, invite.InvitedBy,
		invite.TokenHash, invite.Status, invite.CreatedAt, invite.ExpiresAt,
	)
	return err
}

// GetByTokenHash retrieves an invite by its token hash.
func (r *InvitesRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	query := `
		SELECT id, team_id, email, role, invited_by, token_hash, status, created_at, expires_at
		FROM invites
		WHERE token_hash = $1
	`
	invite := &domain.Invite{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&invite.ID, &invite.TeamID, &invite.Email, &invite.Role, &invite.InvitedBy,
		&invite.TokenHash, &invite.Status, &invite.CreatedAt, &invite.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// GetPendingByTeamAndEmail retrieves the pending, unexpired invite for a
// (team, email) pair, if one exists.
func (r *InvitesRepository) GetPendingByTeamAndEmail(ctx context.Context, teamID uuid.UUID, email string) (*domain.Invite, error) {
	query := `
		SELECT id, team_id, email, role, invited_by, token_hash, status, created_at, expires_at
		FROM invites
		WHERE team_id = $1 AND email = $2 AND status = 'pending' AND expires_at > NOW()
	`
	invite := &domain.Invite{}
	err := r.db.QueryRowContext(ctx, query, teamID, email).Scan(
		&invite.ID, &invite.TeamID, &invite.Email, &invite.Role, &invite.InvitedBy,
		&invite.TokenHash, &invite.Status, &invite.CreatedAt, &invite.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// Refresh updates a pending invite's role and extends its expiry instead of
// creating a duplicate row for the same (team, email).
func (r *InvitesRepository) Refresh(ctx context.Context, id uuid.UUID, role domain.Role, expiresAt time.Time) error {
	query := `
		UPDATE invites
		SET role = $1, expires_at = $2
		WHERE id = $3 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, role, expiresAt, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInviteNotFound
	}
	return nil
}

// MarkAcceptedTx marks a pending invite as accepted within a transaction.
func (r *InvitesRepository) MarkAcceptedTx(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `
		UPDATE invites
		SET status = 'accepted'
		WHERE id = $1 AND status = 'pending'
	`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInviteNotFound
	}
	return nil
}

