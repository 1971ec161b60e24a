package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTeamNameLen is the maximum allowed length of a team name.
const MaxTeamNameLen = 50

// Team represents a named group owned by exactly one user.
type Team struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// ValidateTeamName checks that a team name is non-empty and within limits.
func ValidateTeamName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxTeamNameLen {
		return ErrInvalidTeamName
	}
	return nil
}
