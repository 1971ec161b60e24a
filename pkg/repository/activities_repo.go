package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
)

// ActivitiesRepository handles the append-only team activity log. Rows are
// only ever inserted; there is no update or delete path.
type ActivitiesRepository struct {
	db *sql.DB
}

// NewActivitiesRepository creates a new activities repository.
func NewActivitiesRepository(db *sql.DB) *ActivitiesRepository {
	return &ActivitiesRepository{db: db}
}

// ActivityWithActor combines an activity with the actor's display fields.
type ActivityWithActor struct {
	Activity domain.Activity
	Actor    domain.User
}

// CreateTx appends an activity record within a transaction.
func (r *ActivitiesRepository) CreateTx(ctx context.Context, q Querier, a *domain.Activity) error {
	var metadata []byte
	if !a.Metadata.IsZero() {
		var err error
		metadata, err = json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
	}

	query := `
		INSERT INTO activities (id, team_id, type, actor_id, metadata, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.ExecContext(ctx, query,
		a.ID, a.TeamID, a.Type, a.ActorID, metadata, a.Description, a.CreatedAt,
	)
	return err
}

// ListByTeam retrieves a page of a team's activities with actor display
// fields, newest first.
func (r *ActivitiesRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, offset, limit int) ([]*ActivityWithActor, error) {
	query := `
		SELECT
			a.id, a.team_id, a.type, a.actor_id, a.metadata, a.description, a.created_at,
			u.id, u.email, u.name, u.profile_image
		FROM activities a
		INNER JOIN users u ON a.actor_id = u.id
		WHERE a.team_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, teamID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*ActivityWithActor
	for rows.Next() {
		var aa ActivityWithActor
		var metadata []byte
		err := rows.Scan(
			&aa.Activity.ID, &aa.Activity.TeamID, &aa.Activity.Type, &aa.Activity.ActorID,
			&metadata, &aa.Activity.Description, &aa.Activity.CreatedAt,
			&aa.Actor.ID, &aa.Actor.Email, &aa.Actor.Name, &aa.Actor.ProfileImage,
		)
		if err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &aa.Activity.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity metadata: %w", err)
			}
		}
		activities = append(activities, &aa)
	}
	return activities, rows.Err()
}

// CountByTeam counts all activities of a team.
func (r *ActivitiesRepository) CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM activities WHERE team_id = $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, teamID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
