package invites

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-teams/internal/http/features/common"
	"github.com/tendant/simple-teams/internal/http/middleware"
	"github.com/tendant/simple-teams/internal/httputil"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/teams"
)

// Handler handles team invitation endpoints.
type Handler struct {
	logger  *slog.Logger
	service *teams.Service
}

// NewHandler creates a new invites handler.
func NewHandler(logger *slog.Logger, service *teams.Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// InviteRequest represents an invitation request.
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteResponse represents a created or refreshed invitation.
// The raw token is never returned; it travels only in the invite email.
type InviteResponse struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AcceptRequest represents an invitation acceptance.
type AcceptRequest struct {
	Token string `json:"token"`
}

// AcceptResponse represents the outcome of accepting an invitation.
type AcceptResponse struct {
	TeamID        string `json:"team_id"`
	TeamName      string `json:"team_name"`
	AlreadyMember bool   `json:"already_member"`
}

// Invite invites a user to the team by email.
// POST /v1/teams/{teamID}/invites
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid team id")
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	invite, err := h.service.Invite(r.Context(), teamID, actorID, req.Email, role)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, InviteResponse{
		ID:        invite.ID.String(),
		TeamID:    invite.TeamID.String(),
		Email:     invite.Email,
		Role:      string(invite.Role),
		Status:    string(invite.Status),
		ExpiresAt: invite.ExpiresAt,
	})
}

// Accept redeems an invitation token for the caller.
// POST /v1/invites/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		httputil.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	result, err := h.service.AcceptInvite(r.Context(), req.Token, userID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, AcceptResponse{
		TeamID:        result.Team.ID.String(),
		TeamName:      result.Team.Name,
		AlreadyMember: result.AlreadyMember,
	})
}
