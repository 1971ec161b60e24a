package teams

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/repository"
)

// Pagination defaults for the activity log.
const (
	DefaultActivityPageSize = 20
	MaxActivityPageSize     = 100
)

// ListMembers returns a team's members with display fields, ordered by role
// then join time. Any member may list.
func (s *Service) ListMembers(ctx context.Context, teamID, actorID uuid.UUID) ([]*repository.MemberWithUser, error) {
	_, _, err := s.VerifyAccess(ctx, teamID, actorID,
		domain.RoleOwner, domain.RoleAdmin, domain.RoleMember)
	if err != nil {
		return nil, err
	}
	return s.members.ListByTeam(ctx, teamID)
}

// Kick removes targetUserID from the team. Requires OWNER or ADMIN; the
// owner is never kickable, admins cannot remove peer admins, and self-kick
// is always rejected. The removal and its MEMBER_KICKED activity commit
// together.
func (s *Service) Kick(ctx context.Context, teamID, targetUserID, actorID uuid.UUID) error {
	_, actor, err := s.VerifyAccess(ctx, teamID, actorID, domain.RoleOwner, domain.RoleAdmin)
	if err != nil {
		return err
	}

	target, err := s.members.GetByTeamAndUser(ctx, teamID, targetUserID)
	if err != nil {
		return err
	}

	if target.UserID == actorID {
		return domain.ErrSelfKick
	}
	if err := domain.CheckKick(actor.Role, target.Role); err != nil {
		return err
	}

	activity := &domain.Activity{
		ID:      uuid.New(),
		TeamID:  teamID,
		Type:    domain.ActivityMemberKicked,
		ActorID: actorID,
		Metadata: domain.ActivityMetadata{
			TargetUserID: &target.UserID,
			TargetRole:   target.Role,
		},
		Description: "Member was removed from the team",
		CreatedAt:   time.Now(),
	}

	return s.tx.InTx(ctx, func(q repository.Querier) error {
		if err := s.members.DeleteTx(ctx, q, target.ID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if err := s.activities.CreateTx(ctx, q, activity); err != nil {
			return fmt.Errorf("failed to log member removal: %w", err)
		}
		return nil
	})
}

// Leave removes the actor's own membership. The owner cannot leave; they
// must transfer ownership or delete the team first.
func (s *Service) Leave(ctx context.Context, teamID, actorID uuid.UUID) error {
	_, member, err := s.VerifyAccess(ctx, teamID, actorID,
		domain.RoleOwner, domain.RoleAdmin, domain.RoleMember)
	if err != nil {
		return err
	}

	if err := domain.CheckLeave(member.Role); err != nil {
		return err
	}

	activity := &domain.Activity{
		ID:          uuid.New(),
		TeamID:      teamID,
		Type:        domain.ActivityMemberLeft,
		ActorID:     actorID,
		Description: "Member left the team",
		CreatedAt:   time.Now(),
	}

	return s.tx.InTx(ctx, func(q repository.Querier) error {
		if err := s.members.DeleteTx(ctx, q, member.ID); err != nil {
			return fmt.Errorf("failed to remove membership: %w", err)
		}
		if err := s.activities.CreateTx(ctx, q, activity); err != nil {
			return fmt.Errorf("failed to log member leave: %w", err)
		}
		return nil
	})
}

// ChangeRole sets targetUserID's role. Requires OWNER. The owner's own role
// cannot be changed through this path. Promoting to OWNER is an ownership
// transfer: the acting owner demotes to ADMIN, the team's owner reference
// repoints, and the target promotes, all in one transaction so no state
// with zero or two owners is ever observable.
func (s *Service) ChangeRole(ctx context.Context, teamID, targetUserID, actorID uuid.UUID, newRole domain.Role) (*domain.Membership, error) {
	_, actor, err := s.VerifyAccess(ctx, teamID, actorID, domain.RoleOwner)
	if err != nil {
		return nil, err
	}

	target, err := s.members.GetByTeamAndUser(ctx, teamID, targetUserID)
	if err != nil {
		return nil, err
	}

	if err := domain.CheckChangeRole(actor.Role, target.Role); err != nil {
		return nil, err
	}

	oldRole := target.Role
	activity := &domain.Activity{
		ID:      uuid.New(),
		TeamID:  teamID,
		Type:    domain.ActivityRoleChanged,
		ActorID: actorID,
		Metadata: domain.ActivityMetadata{
			TargetUserID: &target.UserID,
			OldRole:      oldRole,
			NewRole:      newRole,
		},
		Description: fmt.Sprintf("Member role changed from %s to %s", oldRole, newRole),
		CreatedAt:   time.Now(),
	}

	err = s.tx.InTx(ctx, func(q repository.Querier) error {
		if newRole == domain.RoleOwner {
			if err := s.members.UpdateRoleTx(ctx, q, actor.ID, domain.RoleAdmin); err != nil {
				return fmt.Errorf("failed to demote current owner: %w", err)
			}
			if err := s.teams.SetOwnerTx(ctx, q, teamID, targetUserID); err != nil {
				return fmt.Errorf("failed to transfer team ownership: %w", err)
			}
		}
		if err := s.members.UpdateRoleTx(ctx, q, target.ID, newRole); err != nil {
			return fmt.Errorf("failed to change member role: %w", err)
		}
		if err := s.activities.CreateTx(ctx, q, activity); err != nil {
			return fmt.Errorf("failed to log role change: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	target.Role = newRole
	return target, nil
}

// ActivityPage is one page of a team's activity log, newest first.
type ActivityPage struct {
	Activities []*repository.ActivityWithActor
	Page       int
	Limit      int
	Total      int64
	Pages      int
}

// ListActivities returns a page of the team's activity log. Any member may
// read it.
func (s *Service) ListActivities(ctx context.Context, teamID, actorID uuid.UUID, page, limit int) (*ActivityPage, error) {
	_, _, err := s.VerifyAccess(ctx, teamID, actorID,
		domain.RoleOwner, domain.RoleAdmin, domain.RoleMember)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultActivityPageSize
	}
	if limit > MaxActivityPageSize {
		limit = MaxActivityPageSize
	}

	activities, err := s.activities.ListByTeam(ctx, teamID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.activities.CountByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	return &ActivityPage{
		Activities: activities,
		Page:       page,
		Limit:      limit,
		Total:      total,
		Pages:      pages,
	}, nil
}
