package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-teams/internal/httputil"
	"github.com/tendant/simple-teams/pkg/domain"
)

var statusByErr = map[error]int{
	// Not found
	domain.ErrTeamNotFound:   http.StatusNotFound,
	domain.ErrMemberNotFound: http.StatusNotFound,
	domain.ErrInviteNotFound: http.StatusNotFound,
	domain.ErrUserNotFound:   http.StatusNotFound,

	// Forbidden
	domain.ErrNotTeamMember:     http.StatusForbidden,
	domain.ErrInsufficientRole:  http.StatusForbidden,
	domain.ErrCannotKickOwner:   http.StatusForbidden,
	domain.ErrAdminKickAdmin:    http.StatusForbidden,
	domain.ErrOwnerCannotLeave:  http.StatusForbidden,
	domain.ErrCannotChangeOwner: http.StatusForbidden,

	// Conflict
	domain.ErrAlreadyMember: http.StatusConflict,

	// Bad request
	domain.ErrInvalidTeamName:   http.StatusBadRequest,
	domain.ErrInvalidRole:       http.StatusBadRequest,
	domain.ErrInvalidInviteRole: http.StatusBadRequest,
	domain.ErrInvalidEmail:      http.StatusBadRequest,
	domain.ErrSelfKick:          http.StatusBadRequest,
}

// WriteError maps a domain error to its HTTP status and writes the response.
// Unrecognized errors are logged and surface as a 500.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	// Expired invites are indistinguishable from unknown tokens to the caller
	if errors.Is(err, domain.ErrInviteExpired) {
		httputil.Error(w, http.StatusNotFound, domain.ErrInviteNotFound.Error())
		return
	}

	for domainErr, status := range statusByErr {
		if errors.Is(err, domainErr) {
			httputil.Error(w, status, domainErr.Error())
			return
		}
	}

	if logger != nil {
		logger.Error("internal error", "error", err)
	}
	httputil.Error(w, http.StatusInternalServerError, "internal server error")
}
