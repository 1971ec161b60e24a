package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
)

// TeamsRepository handles team persistence.
type TeamsRepository struct {
	db *sql.DB
}

// NewTeamsRepository creates a new teams repository.
func NewTeamsRepository(db *sql.DB) *TeamsRepository {
	return &TeamsRepository{db: db}
}

// CreateTx creates a new team within a transaction.
func (r *TeamsRepository) CreateTx(ctx context.Context, q Querier, team *domain.Team) error {
	query := `
		INSERT INTO teams (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.ExecContext(ctx, query,
		team.ID, team.Name, team.OwnerID, team.CreatedAt, team.UpdatedAt,
	)
	return err
}

// GetByID retrieves a team by ID, excluding soft-deleted teams.
func (r *TeamsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	query := `
		SELECT id, name, owner_id, created_at, updated_at, deleted_at
		FROM teams
		WHERE id = $1 AND deleted_at IS NULL
	`
	team := &domain.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.OwnerID,
		&team.CreatedAt, &team.UpdatedAt, &team.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

// UpdateTx updates a team's mutable fields within a transaction.
func (r *TeamsRepository) UpdateTx(ctx context.Context, q Querier, team *domain.Team) error {
	query := `
		UPDATE teams
		SET name = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := q.ExecContext(ctx, query, team.Name, team.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// SetOwnerTx repoints the team's owner reference within a transaction.
func (r *TeamsRepository) SetOwnerTx(ctx context.Context, q Querier, teamID, ownerID uuid.UUID) error {
	query := `
		UPDATE teams
		SET owner_id = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := q.ExecContext(ctx, query, ownerID, teamID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// SoftDeleteTx soft deletes a team within a transaction.
func (r *TeamsRepository) SoftDeleteTx(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `
		UPDATE teams
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
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
		return domain.ErrTeamNotFound
	}
	return nil
}
