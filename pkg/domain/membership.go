package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role governs what a member may do within a team.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ParseRole parses a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

// Rank returns the sort rank of a role for member listings: OWNER first.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 0
	case RoleAdmin:
		return 1
	case RoleMember:
		return 2
	}
	return 3
}

// Membership grants a user a role within a team. A user holds at most one
// membership per team.
type Membership struct {
	ID       uuid.UUID
	TeamID   uuid.UUID
	UserID   uuid.UUID
	Role     Role
	JoinedAt time.Time
}
