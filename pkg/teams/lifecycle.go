package teams

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/repository"
)

// Create creates a team owned by ownerID. The team, the owner's OWNER
// membership, and the TEAM_CREATED activity are written in one transaction:
// all three succeed or none do.
func (s *Service) Create(ctx context.Context, name string, ownerID uuid.UUID) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateTeamName(name); err != nil {
		return nil, err
	}

	now := time.Now()
	team := &domain.Team{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	membership := &domain.Membership{
		ID:       uuid.New(),
		TeamID:   team.ID,
		UserID:   ownerID,
		Role:     domain.RoleOwner,
		JoinedAt: now,
	}
	activity := &domain.Activity{
		ID:          uuid.New(),
		TeamID:      team.ID,
		Type:        domain.ActivityTeamCreated,
		ActorID:     ownerID,
		Description: fmt.Sprintf("Team %q was created", name),
		CreatedAt:   now,
	}

	err := s.tx.InTx(ctx, func(q repository.Querier) error {
		if err := s.teams.CreateTx(ctx, q, team); err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		if err := s.members.CreateTx(ctx, q, membership); err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		if err := s.activities.CreateTx(ctx, q, activity); err != nil {
			return fmt.Errorf("failed to log team creation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

// Update renames a team. Requires OWNER or ADMIN. The rename and its
// TEAM_UPDATED activity commit together so the audit trail cannot lose the
// entry while the rename sticks.
func (s *Service) Update(ctx context.Context, teamID, actorID uuid.UUID, name string) (*domain.Team, error) {
	team, _, err := s.VerifyAccess(ctx, teamID, actorID, domain.RoleOwner, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if err := domain.ValidateTeamName(name); err != nil {
		return nil, err
	}

	team.Name = name
	activity := &domain.Activity{
		ID:          uuid.New(),
		TeamID:      teamID,
		Type:        domain.ActivityTeamUpdated,
		ActorID:     actorID,
		Description: fmt.Sprintf("Team name updated to %q", name),
		CreatedAt:   time.Now(),
	}

	err = s.tx.InTx(ctx, func(q repository.Querier) error {
		if err := s.teams.UpdateTx(ctx, q, team); err != nil {
			return fmt.Errorf("failed to update team: %w", err)
		}
		if err := s.activities.CreateTx(ctx, q, activity); err != nil {
			return fmt.Errorf("failed to log team update: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

// Delete soft-deletes a team and removes every membership in one
// transaction. Requires OWNER.
func (s *Service) Delete(ctx context.Context, teamID, actorID uuid.UUID) error {
	if _, _, err := s.VerifyAccess(ctx, teamID, actorID, domain.RoleOwner); err != nil {
		return err
	}

	return s.tx.InTx(ctx, func(q repository.Querier) error {
		if err := s.teams.SoftDeleteTx(ctx, q, teamID); err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		if err := s.members.DeleteByTeamTx(ctx, q, teamID); err != nil {
			return fmt.Errorf("failed to delete team memberships: %w", err)
		}
		return nil
	})
}

// ListUserTeams returns every team the user belongs to together with the
// user's role, newest membership first.
func (s *Service) ListUserTeams(ctx context.Context, userID uuid.UUID) ([]*repository.MembershipWithTeam, error) {
	return s.members.ListByUser(ctx, userID)
}
