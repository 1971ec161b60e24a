package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
)

// MembershipsRepository handles membership persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

// MemberWithUser combines a membership with the member's display fields.
type MemberWithUser struct {
	Membership domain.Membership
	User       domain.User
}

// MembershipWithTeam combines a membership with its team summary.
type MembershipWithTeam struct {
	Membership domain.Membership
	Team       domain.Team
}

// CreateTx creates a membership within a transaction. The unique constraint
// on (team_id, user_id) is the race backstop: a concurrent insert for the
// same pair surfaces as domain.ErrAlreadyMember.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (id, team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.ExecContext(ctx, query, m.ID, m.TeamID, m.UserID, m.Role, m.JoinedAt)
	if IsUniqueViolation(err) {
		return domain.ErrAlreadyMember
	}
	return err
}

// GetByTeamAndUser retrieves a user's membership in a team.
func (r *MembershipsRepository) GetByTeamAndUser(ctx context.Context, teamID, userID uuid.UUID) (*domain.Membership, error) {
	query := `
		SELECT id, team_id, user_id, role, joined_at
		FROM memberships
		WHERE team_id = $1 AND user_id = $2
	`
	m := &domain.Membership{}
	err := r.db.QueryRowContext(ctx, query, teamID, userID).Scan(
		&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByTeam retrieves all members of a team with user display fields,
// ordered by role rank then join time.
func (r *MembershipsRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*MemberWithUser, error) {
	query := `
		SELECT
			m.id, m.team_id, m.user_id, m.role, m.joined_at,
			u.id, u.email, u.name, u.profile_image
		FROM memberships m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.team_id = $1
		ORDER BY
			CASE m.role WHEN 'OWNER' THEN 0 WHEN 'ADMIN' THEN 1 ELSE 2 END,
			m.joined_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*MemberWithUser
	for rows.Next() {
		var mw MemberWithUser
		err := rows.Scan(
			&mw.Membership.ID, &mw.Membership.TeamID, &mw.Membership.UserID,
			&mw.Membership.Role, &mw.Membership.JoinedAt,
			&mw.User.ID, &mw.User.Email, &mw.User.Name, &mw.User.ProfileImage,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, &mw)
	}
	return members, rows.Err()
}

// ListByUser retrieves all memberships of a user with team summaries,
// newest membership first. Soft-deleted teams are excluded.
func (r *MembershipsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*MembershipWithTeam, error) {
	query := `
		SELECT
			m.id, m.team_id, m.user_id, m.role, m.joined_at,
			t.id, t.name, t.owner_id, t.created_at, t.updated_at, t.deleted_at
		FROM memberships m
		INNER JOIN teams t ON m.team_id = t.id
		WHERE m.user_id = $1 AND t.deleted_at IS NULL
		ORDER BY m.joined_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*MembershipWithTeam
	for rows.Next() {
		var mt MembershipWithTeam
		err := rows.Scan(
			&mt.Membership.ID, &mt.Membership.TeamID, &mt.Membership.UserID,
			&mt.Membership.Role, &mt.Membership.JoinedAt,
			&mt.Team.ID, &mt.Team.Name, &mt.Team.OwnerID,
			&mt.Team.CreatedAt, &mt.Team.UpdatedAt, &mt.Team.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, &mt)
	}
	return results, rows.Err()
}

// UpdateRoleTx updates a membership's role within a transaction.
func (r *MembershipsRepository) UpdateRoleTx(ctx context.Context, q Querier, id uuid.UUID, role domain.Role) error {
	query := `UPDATE memberships SET role = $1 WHERE id = $2`
	result, err := q.ExecContext(ctx, query, role, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

// DeleteTx removes a membership within a transaction.
func (r *MembershipsRepository) DeleteTx(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `DELETE FROM memberships WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

// DeleteByTeamTx removes every membership of a team within a transaction.
// Used by team deletion so no orphan rows survive the team.
func (r *MembershipsRepository) DeleteByTeamTx(ctx context.Context, q Querier, teamID uuid.UUID) error {
	query := `DELETE FROM memberships WHERE team_id = $1`
	_, err := q.ExecContext(ctx, query, teamID)
	return err
}

