package domain

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus represents the state of an invitation.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
)

// DefaultInviteTTL is how long an invitation stays acceptable.
const DefaultInviteTTL = 7 * 24 * time.Hour

// Invite is a time-boxed, single-use offer for an email address to join a
// team at a proposed role. The raw token is only ever handed to the invitee;
// the database stores its hash.
type Invite struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	Email     string
	Role      Role
	InvitedBy uuid.UUID
	TokenHash string
	Status    InviteStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsAcceptable returns true if the invite is pending and not yet expired.
func (i *Invite) IsAcceptable() bool {
	return i.Status == InviteStatusPending && time.Now().Before(i.ExpiresAt)
}
