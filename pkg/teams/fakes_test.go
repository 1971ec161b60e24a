package teams

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/repository"
)

// fakeState is shared in-memory backing data for the store fakes. It
// enforces the same uniqueness constraint on (team_id, user_id) the
// database does, so race backstop behavior can be exercised without
// Postgres.
type fakeState struct {
	mu          sync.Mutex
	teams       map[uuid.UUID]*domain.Team
	memberships map[uuid.UUID]*domain.Membership
	invites     map[uuid.UUID]*domain.Invite
	activities  []*domain.Activity
	users       map[uuid.UUID]*domain.User
}

func newFakeState() *fakeState {
	return &fakeState{
		teams:       make(map[uuid.UUID]*domain.Team),
		memberships: make(map[uuid.UUID]*domain.Membership),
		invites:     make(map[uuid.UUID]*domain.Invite),
		users:       make(map[uuid.UUID]*domain.User),
	}
}

func (f *fakeState) InTx(ctx context.Context, fn func(q repository.Querier) error) error {
	return fn(nil)
}

func (f *fakeState) addUser(email string, name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.users[id] = &domain.User{ID: id, Email: email, Name: &name}
	return id
}

func (f *fakeState) membershipFor(teamID, userID uuid.UUID) *domain.Membership {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			copied := *m
			return &copied
		}
	}
	return nil
}

func (f *fakeState) ownerCount(teamID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, m := range f.memberships {
		if m.TeamID == teamID && m.Role == domain.RoleOwner {
			count++
		}
	}
	return count
}

func (f *fakeState) activitiesOfType(teamID uuid.UUID, typ domain.ActivityType) []*domain.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Activity
	for _, a := range f.activities {
		if a.TeamID == teamID && a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

type fakeTeams struct{ *fakeState }

func (f fakeTeams) CreateTx(ctx context.Context, q repository.Querier, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *team
	f.teams[team.ID] = &copied
	return nil
}

func (f fakeTeams) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok || team.DeletedAt != nil {
		return nil, domain.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (f fakeTeams) UpdateTx(ctx context.Context, q repository.Querier, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.teams[team.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrTeamNotFound
	}
	stored.Name = team.Name
	stored.UpdatedAt = time.Now()
	return nil
}

func (f fakeTeams) SetOwnerTx(ctx context.Context, q repository.Querier, teamID, ownerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.teams[teamID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrTeamNotFound
	}
	stored.OwnerID = ownerID
	return nil
}

func (f fakeTeams) SoftDeleteTx(ctx context.Context, q repository.Querier, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.teams[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrTeamNotFound
	}
	now := time.Now()
	stored.DeletedAt = &now
	return nil
}

type fakeMembers struct{ *fakeState }

func (f fakeMembers) CreateTx(ctx context.Context, q repository.Querier, m *domain.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.memberships {
		if existing.TeamID == m.TeamID && existing.UserID == m.UserID {
			return domain.ErrAlreadyMember
		}
	}
	copied := *m
	f.memberships[m.ID] = &copied
	return nil
}

func (f fakeMembers) GetByTeamAndUser(ctx context.Context, teamID, userID uuid.UUID) (*domain.Membership, error) {
	if m := f.membershipFor(teamID, userID); m != nil {
		return m, nil
	}
	return nil, domain.ErrMemberNotFound
}

func (f fakeMembers) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*repository.MemberWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []*repository.MemberWithUser
	for _, m := range f.memberships {
		if m.TeamID != teamID {
			continue
		}
		mw := &repository.MemberWithUser{Membership: *m}
		if u, ok := f.users[m.UserID]; ok {
			mw.User = *u
		}
		members = append(members, mw)
	}
	sort.Slice(members, func(i, j int) bool {
		ri, rj := members[i].Membership.Role.Rank(), members[j].Membership.Role.Rank()
		if ri != rj {
			return ri < rj
		}
		return members[i].Membership.JoinedAt.Before(members[j].Membership.JoinedAt)
	})
	return members, nil
}

func (f fakeMembers) ListByUser(ctx context.Context, userID uuid.UUID) ([]*repository.MembershipWithTeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var results []*repository.MembershipWithTeam
	for _, m := range f.memberships {
		if m.UserID != userID {
			continue
		}
		team, ok := f.teams[m.TeamID]
		if !ok || team.DeletedAt != nil {
			continue
		}
		results = append(results, &repository.MembershipWithTeam{Membership: *m, Team: *team})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Membership.JoinedAt.After(results[j].Membership.JoinedAt)
	})
	return results, nil
}

func (f fakeMembers) UpdateRoleTx(ctx context.Context, q repository.Querier, id uuid.UUID, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[id]
	if !ok {
		return domain.ErrMemberNotFound
	}
	m.Role = role
	return nil
}

func (f fakeMembers) DeleteTx(ctx context.Context, q repository.Querier, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.memberships[id]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(f.memberships, id)
	return nil
}

func (f fakeMembers) DeleteByTeamTx(ctx context.Context, q repository.Querier, teamID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, m := range f.memberships {
		if m.TeamID == teamID {
			delete(f.memberships, id)
		}
	}
	return nil
}

type fakeInvites struct{ *fakeState }

func (f fakeInvites) CreateTx(ctx context.Context, q repository.Querier, invite *domain.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *invite
	f.invites[invite.ID] = &copied
	return nil
}

func (f fakeInvites) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.TokenHash == tokenHash {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, domain.ErrInviteNotFound
}

func (f fakeInvites) GetPendingByTeamAndEmail(ctx context.Context, teamID uuid.UUID, email string) (*domain.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.TeamID == teamID && inv.Email == email &&
			inv.Status == domain.InviteStatusPending && time.Now().Before(inv.ExpiresAt) {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, domain.ErrInviteNotFound
}

func (f fakeInvites) Refresh(ctx context.Context, id uuid.UUID, role domain.Role, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok || inv.Status != domain.InviteStatusPending {
		return domain.ErrInviteNotFound
	}
	inv.Role = role
	inv.ExpiresAt = expiresAt
	return nil
}

func (f fakeInvites) MarkAcceptedTx(ctx context.Context, q repository.Querier, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok || inv.Status != domain.InviteStatusPending {
		return domain.ErrInviteNotFound
	}
	inv.Status = domain.InviteStatusAccepted
	return nil
}

type fakeActivities struct{ *fakeState }

func (f fakeActivities) CreateTx(ctx context.Context, q repository.Querier, a *domain.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *a
	f.activities = append(f.activities, &copied)
	return nil
}

func (f fakeActivities) ListByTeam(ctx context.Context, teamID uuid.UUID, offset, limit int) ([]*repository.ActivityWithActor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*domain.Activity
	for _, a := range f.activities {
		if a.TeamID == teamID {
			all = append(all, a)
		}
	}
	// newest first; insertion order breaks timestamp ties
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	var page []*repository.ActivityWithActor
	for _, a := range all[offset:end] {
		aa := &repository.ActivityWithActor{Activity: *a}
		if u, ok := f.users[a.ActorID]; ok {
			aa.Actor = *u
		}
		page = append(page, aa)
	}
	return page, nil
}

func (f fakeActivities) CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, a := range f.activities {
		if a.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

type fakeUsers struct{ *fakeState }

func (f fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// fakeMailer records invite emails; Send failures are injectable.
type fakeMailer struct {
	err  error
	sent chan string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan string, 8)}
}

func (m *fakeMailer) SendInviteEmail(to, teamName string, role domain.Role, acceptURL string) error {
	m.sent <- acceptURL
	return m.err
}

// joinTeam inserts a membership directly, bypassing the invite flow.
func joinTeam(t *testing.T, state *fakeState, teamID, userID uuid.UUID, role domain.Role) {
	t.Helper()
	err := fakeMembers{state}.CreateTx(context.Background(), nil, &domain.Membership{
		ID:       uuid.New(),
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed membership: %v", err)
	}
}

func newTestService(mailer Mailer) (*Service, *fakeState) {
	state := newFakeState()
	svc := NewService(
		Config{AppBaseURL: "http://localhost:3000"},
		state,
		fakeTeams{state},
		fakeMembers{state},
		fakeInvites{state},
		fakeActivities{state},
		fakeUsers{state},
		mailer,
	)
	return svc, state
}
