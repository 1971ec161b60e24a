package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType identifies the kind of team event an activity records.
type ActivityType string

const (
	ActivityTeamCreated    ActivityType = "team_created"
	ActivityTeamUpdated    ActivityType = "team_updated"
	ActivityMemberJoined   ActivityType = "member_joined"
	ActivityMemberLeft     ActivityType = "member_left"
	ActivityMemberKicked   ActivityType = "member_kicked"
	ActivityRoleChanged    ActivityType = "role_changed"
	ActivityProjectCreated ActivityType = "project_created"
	ActivityProjectDeleted ActivityType = "project_deleted"
)

// ActivityMetadata carries the activity-specific fields. Only the fields
// relevant to the activity type are set; the rest stay empty and are
// omitted from the stored JSON.
type ActivityMetadata struct {
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
	TargetRole   Role       `json:"target_role,omitempty"`
	OldRole      Role       `json:"old_role,omitempty"`
	NewRole      Role       `json:"new_role,omitempty"`
}

// IsZero reports whether no metadata fields are set.
func (m ActivityMetadata) IsZero() bool {
	return m.TargetUserID == nil && m.TargetRole == "" && m.OldRole == "" && m.NewRole == ""
}

// Activity is an immutable audit entry describing one team-affecting event.
// Records are append-only: never mutated or deleted once written.
type Activity struct {
	ID          uuid.UUID
	TeamID      uuid.UUID
	Type        ActivityType
	ActorID     uuid.UUID
	Metadata    ActivityMetadata
	Description string
	CreatedAt   time.Time
}
