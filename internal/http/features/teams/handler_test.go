package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-teams/internal/http/middleware"
)

func authedRequest(method, path, body string, teamID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	if teamID != "" {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("teamID", teamID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

func TestCreate_Validation(t *testing.T) {
	handler := &Handler{}

	tests := []struct {
		name           string
		body           string
		authed         bool
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unauthenticated",
			body:           `{"name": "Alpha"}`,
			authed:         false,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "unauthorized",
		},
		{
			name:           "invalid json",
			body:           `{invalid}`,
			authed:         true,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.authed {
				req = authedRequest(http.MethodPost, "/v1/teams", tt.body, "")
			} else {
				req = httptest.NewRequest(http.MethodPost, "/v1/teams", bytes.NewBufferString(tt.body))
			}
			rec := httptest.NewRecorder()

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Validation should have failed before reaching service")
				}
			}()

			handler.Create(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.expectedStatus)
			}

			var response map[string]string
			json.NewDecoder(rec.Body).Decode(&response)
			if response["error"] != tt.expectedError {
				t.Errorf("Error = %q, want %q", response["error"], tt.expectedError)
			}
		})
	}
}

func TestUpdate_InvalidTeamID(t *testing.T) {
	handler := &Handler{}

	req := authedRequest(http.MethodPatch, "/v1/teams/not-a-uuid", `{"name": "Beta"}`, "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var response map[string]string
	json.NewDecoder(rec.Body).Decode(&response)
	if response["error"] != "invalid team id" {
		t.Errorf("Error = %q, want %q", response["error"], "invalid team id")
	}
}

func TestKick_InvalidUserID(t *testing.T) {
	handler := &Handler{}

	teamID := uuid.New().String()
	req := authedRequest(http.MethodDelete, "/v1/teams/"+teamID+"/members/nope", "", teamID)
	routeCtx := chi.RouteContext(req.Context())
	routeCtx.URLParams.Add("userID", "nope")
	rec := httptest.NewRecorder()

	handler.Kick(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var response map[string]string
	json.NewDecoder(rec.Body).Decode(&response)
	if response["error"] != "invalid user id" {
		t.Errorf("Error = %q, want %q", response["error"], "invalid user id")
	}
}

func TestChangeRole_InvalidRole(t *testing.T) {
	handler := &Handler{}

	teamID := uuid.New().String()
	req := authedRequest(http.MethodPatch, "/v1/teams/"+teamID+"/members/x/role", `{"role": "superuser"}`, teamID)
	routeCtx := chi.RouteContext(req.Context())
	routeCtx.URLParams.Add("userID", uuid.New().String())
	rec := httptest.NewRecorder()

	handler.ChangeRole(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var response map[string]string
	json.NewDecoder(rec.Body).Decode(&response)
	if response["error"] != "invalid role" {
		t.Errorf("Error = %q, want %q", response["error"], "invalid role")
	}
}
