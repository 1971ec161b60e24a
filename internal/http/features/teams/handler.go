package teams

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-teams/internal/http/features/common"
	"github.com/tendant/simple-teams/internal/http/middleware"
	"github.com/tendant/simple-teams/internal/httputil"
	"github.com/tendant/simple-teams/pkg/domain"
	"github.com/tendant/simple-teams/pkg/repository"
	"github.com/tendant/simple-teams/pkg/teams"
)

// Handler handles team lifecycle and membership endpoints.
type Handler struct {
	logger  *slog.Logger
	service *teams.Service
}

// NewHandler creates a new teams handler.
func NewHandler(logger *slog.Logger, service *teams.Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// TeamResponse represents a team in API responses.
type TeamResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberResponse represents a team member with user display fields.
type MemberResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name,omitempty"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	Role         string    `json:"role"`
	JoinedAt     time.Time `json:"joined_at"`
}

// UserTeamResponse represents one of the caller's team memberships.
type UserTeamResponse struct {
	Team     TeamResponse `json:"team"`
	Role     string       `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
}

// ActivityResponse represents one activity log entry.
type ActivityResponse struct {
	ID          string                   `json:"id"`
	Type        string                   `json:"type"`
	Description string                   `json:"description,omitempty"`
	Metadata    *domain.ActivityMetadata `json:"metadata,omitempty"`
	Actor       ActorResponse            `json:"actor"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ActorResponse identifies the user who performed an activity.
type ActorResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// ActivityPageResponse represents a page of the activity log.
type ActivityPageResponse struct {
	Activities []ActivityResponse `json:"activities"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	Total      int64              `json:"total"`
	Pages      int                `json:"pages"`
}

// CreateRequest represents a team creation request.
type CreateRequest struct {
	Name string `json:"name"`
}

// UpdateRequest represents a team rename request.
type UpdateRequest struct {
	Name string `json:"name"`
}

// ChangeRoleRequest represents a role change request.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

func teamResponse(t *domain.Team) TeamResponse {
	return TeamResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		OwnerID:   t.OwnerID.String(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func memberResponse(m *repository.MemberWithUser) MemberResponse {
	return MemberResponse{
		UserID:       m.User.ID.String(),
		Email:        m.User.Email,
		Name:         m.User.Name,
		ProfileImage: m.User.ProfileImage,
		Role:         string(m.Membership.Role),
		JoinedAt:     m.Membership.JoinedAt,
	}
}

func activityResponse(a *repository.ActivityWithActor) ActivityResponse {
	resp := ActivityResponse{
		ID:          a.Activity.ID.String(),
		Type:        string(a.Activity.Type),
		Description: a.Activity.Description,
		Actor: ActorResponse{
			ID:    a.Actor.ID.String(),
			Email: a.Actor.Email,
			Name:  a.Actor.Name,
		},
		CreatedAt: a.Activity.CreatedAt,
	}
	if !a.Activity.Metadata.IsZero() {
		metadata := a.Activity.Metadata
		resp.Metadata = &metadata
	}
	return resp
}

// requestIDs extracts the authenticated user and the teamID path parameter.
func requestIDs(w http.ResponseWriter, r *http.Request) (userID, teamID uuid.UUID, ok bool) {
	userID, authed := middleware.GetUserID(r.Context())
	if !authed {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid team id")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, teamID, true
}

// Create creates a team owned by the caller.
// POST /v1/teams
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	team, err := h.service.Create(r.Context(), req.Name, userID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, teamResponse(team))
}

// List returns the caller's teams, newest first.
// GET /v1/teams
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	memberships, err := h.service.ListUserTeams(r.Context(), userID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]UserTeamResponse, 0, len(memberships))
	for _, m := range memberships {
		resp = append(resp, UserTeamResponse{
			Team:     teamResponse(&m.Team),
			Role:     string(m.Membership.Role),
			JoinedAt: m.Membership.JoinedAt,
		})
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"teams": resp})
}

// Update renames a team.
// PATCH /v1/teams/{teamID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, teamID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	team, err := h.service.Update(r.Context(), teamID, userID, req.Name)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, teamResponse(team))
}

// Delete soft-deletes a team and removes all memberships.
// DELETE /v1/teams/{teamID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, teamID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), teamID, userID); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers returns the team roster ordered by role then join time.
// GET /v1/teams/{teamID}/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, teamID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(r.Context(), teamID, userID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, memberResponse(m))
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"members": resp})
}

// Kick removes a member from the team.
// DELETE /v1/teams/{teamID}/members/{userID}
func (h *Handler) Kick(w http.ResponseWriter, r *http.Request) {
	actorID, teamID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	targetUserID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.service.Kick(r.Context(), teamID, targetUserID, actorID); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave removes the caller's own membership.
// POST /v1/teams/{teamID}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, teamID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	if err := h.service.Leave(r.Context(), teamID, userID); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangeRole changes a member's role. Promoting to owner transfers ownership.
// PATCH /v1/teams/{teamID}/members/{userID}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actorID, teamID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	targetUserID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	membership, err := h.service.ChangeRole(r.Context(), teamID, targetUserID, actorID, role)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"user_id": membership.UserID.String(),
		"role":    string(membership.Role),
	})
}

// ListActivities returns a page of the team's activity log, newest first.
// GET /v1/teams/{teamID}/activities?page=&limit=
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, teamID, ok := requestIDs(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.ListActivities(r.Context(), teamID, userID, page, limit)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := ActivityPageResponse{
		Activities: make([]ActivityResponse, 0, len(result.Activities)),
		Page:       result.Page,
		Limit:      result.Limit,
		Total:      result.Total,
		Pages:      result.Pages,
	}
	for _, a := range result.Activities {
		resp.Activities = append(resp.Activities, activityResponse(a))
	}

	httputil.JSON(w, http.StatusOK, resp)
}
