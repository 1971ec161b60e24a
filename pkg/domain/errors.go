package domain

import "errors"

// Team errors
var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrInvalidTeamName   = errors.New("team name must be between 1 and 50 characters")
	ErrNotTeamMember     = errors.New("you are not a member of this team")
	ErrInsufficientRole  = errors.New("insufficient permissions")
	ErrInvalidRole       = errors.New("invalid role")
)

// Membership errors
var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrAlreadyMember     = errors.New("user is already a team member")
	ErrSelfKick          = errors.New("you cannot kick yourself")
	ErrCannotKickOwner   = errors.New("cannot kick team owner")
	ErrAdminKickAdmin    = errors.New("admins cannot remove other admins")
	ErrOwnerCannotLeave  = errors.New("owner cannot leave team, transfer ownership or delete the team first")
	ErrCannotChangeOwner = errors.New("cannot change the owner's role")
)

// Invite errors
var (
	ErrInviteNotFound    = errors.New("invalid or expired invitation")
	ErrInviteExpired     = errors.New("invitation has expired")
	ErrInvalidInviteRole = errors.New("members can only be invited as admin or member")
	ErrInvalidEmail      = errors.New("invalid email address")
)

// User errors
var (
	ErrUserNotFound = errors.New("user not found")
)
