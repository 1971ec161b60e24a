package teams

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/repository"
)

// Invite issues an invitation for email to join the team at the proposed
// role. Requires OWNER or ADMIN. Re-inviting a pending email refreshes the
// existing invite's role and expiry instead of creating a duplicate. The
// notification email is fire and forget: the invite is durable and the
// caller sees success even if delivery fails.
func (s *Service) Invite(ctx context.Context, teamID, actorID uuid.UUID, email string, role domain.Role) (*domain.Invite, error) {
	team, _, err := s.VerifyAccess(ctx, teamID, actorID, domain.RoleOwner, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, domain.ErrInvalidInviteRole
	}

	// An existing account with this email must not already be on the team.
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if user != nil {
		if _, err := s.members.GetByTeamAndUser(ctx, teamID, user.ID); err == nil {
			return nil, domain.ErrAlreadyMember
		} else if !errors.Is(err, domain.ErrMemberNotFound) {
			return nil, err
		}
	}

	expiresAt := time.Now().Add(s.config.InviteTTL)

	// Idempotent re-invite: refresh the pending invite instead of stacking
	// a second row for the same (team, email).
	existing, err := s.invites.GetPendingByTeamAndEmail(ctx, teamID, email)
	if err != nil && !errors.Is(err, domain.ErrInviteNotFound) {
		return nil, err
	}
	if existing != nil {
		if err := s.invites.Refresh(ctx, existing.ID, role, expiresAt); err != nil {
			return nil, err
		}
		existing.Role = role
		existing.ExpiresAt = expiresAt
		s.config.Logger.Info("refreshed pending invite", "team_id", teamID, "email", email)
		return existing, nil
	}

	rawToken, err := GenerateToken(inviteTokenLen)
	if err != nil {
		return nil, err
	}

	invite := &domain.Invite{
		ID:        uuid.New(),
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		InvitedBy: actorID,
		TokenHash: HashToken(rawToken),
		Status:    domain.InviteStatusPending,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	err = s.tx.InTx(ctx, func(q repository.Querier) error {
		return s.invites.CreateTx(ctx, q, invite)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	s.notifyInvitee(invite, team.Name, rawToken)

	return invite, nil
}

// notifyInvitee sends the invite email in the background. Failures are
// logged, never surfaced: the invite already committed.
func (s *Service) notifyInvitee(invite *domain.Invite, teamName, rawToken string) {
	if s.mailer == nil {
		return
	}

	acceptURL := fmt.Sprintf("%s/teams/invite/accept?token=%s",
		strings.TrimRight(s.config.AppBaseURL, "/"), url.QueryEscape(rawToken))

	go func() {
		if err := s.mailer.SendInviteEmail(invite.Email, teamName, invite.Role, acceptURL); err != nil {
			s.config.Logger.Error("failed to send invite email",
				"error", err, "team_id", invite.TeamID, "email", invite.Email)
		}
	}()
}

// AcceptResult is the outcome of accepting an invite.
type AcceptResult struct {
	Team          *domain.Team
	AlreadyMember bool
}

// AcceptInvite redeems an invite token for userID. A pending, unexpired
// invite yields a membership at the proposed role, the invite flips to
// accepted, and a MEMBER_JOINED activity is appended, all in one
// transaction. If the user is already on the team the invite is marked
// accepted and no second membership is created.
func (s *Service) AcceptInvite(ctx context.Context, rawToken string, userID uuid.UUID) (*AcceptResult, error) {
	invite, err := s.invites.GetByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if invite.Status != domain.InviteStatusPending {
		return nil, domain.ErrInviteNotFound
	}
	if !invite.IsAcceptable() {
		return nil, domain.ErrInviteExpired
	}

	team, err := s.teams.GetByID(ctx, invite.TeamID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Already a member: consume the invite, add nothing.
	if _, err := s.members.GetByTeamAndUser(ctx, team.ID, userID); err == nil {
		return s.acceptAsExistingMember(ctx, invite, team)
	} else if !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	displayName := user.Email
	if user.Name != nil && *user.Name != "" {
		displayName = *user.Name
	}

	now := time.Now()
	membership := &domain.Membership{
		ID:       uuid.New(),
		TeamID:   team.ID,
		UserID:   userID,
		Role:     invite.Role,
		JoinedAt: now,
	}
	activity := &domain.Activity{
		ID:          uuid.New(),
		TeamID:      team.ID,
		Type:        domain.ActivityMemberJoined,
		ActorID:     userID,
		Description: fmt.Sprintf("%s joined the team via invitation", displayName),
		CreatedAt:   now,
	}

	err = s.tx.InTx(ctx, func(q repository.Querier) error {
		if err := s.members.CreateTx(ctx, q, membership); err != nil {
			return err
		}
		if err := s.invites.MarkAcceptedTx(ctx, q, invite.ID); err != nil {
			return fmt.Errorf("failed to mark invite accepted: %w", err)
		}
		if err := s.activities.CreateTx(ctx, q, activity); err != nil {
			return fmt.Errorf("failed to log member join: %w", err)
		}
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyMember) {
		// Lost a race with a concurrent accept; the membership uniqueness
		// constraint held, so just consume the invite.
		return s.acceptAsExistingMember(ctx, invite, team)
	}
	if err != nil {
		return nil, err
	}

	return &AcceptResult{Team: team}, nil
}

func (s *Service) acceptAsExistingMember(ctx context.Context, invite *domain.Invite, team *domain.Team) (*AcceptResult, error) {
	err := s.tx.InTx(ctx, func(q repository.Querier) error {
		return s.invites.MarkAcceptedTx(ctx, q, invite.ID)
	})
	if err != nil && !errors.Is(err, domain.ErrInviteNotFound) {
		return nil, err
	}
	return &AcceptResult{Team: team, AlreadyMember: true}, nil
}
