package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var testSecret = []byte("test-secret-key-at-least-32-chars!!")

func signToken(t *testing.T, secret []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	cfg := AuthConfig{JWTSecret: testSecret, Issuer: "simple-idm"}

	var gotUserID uuid.UUID
	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		if !ok {
			t.Error("user ID missing from context")
		}
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	}))

	validToken := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    "simple-idm",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + validToken,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: validToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			authHeader: "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{
				Subject:   userID.String(),
				Issuer:    "simple-idm",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			authHeader: "Bearer " + signToken(t, []byte("another-secret-key-32-chars-long!!"), jwt.RegisteredClaims{
				Subject:   userID.String(),
				Issuer:    "simple-idm",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong issuer",
			authHeader: "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{
				Subject:   userID.String(),
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "non-uuid subject",
			authHeader: "Bearer " + signToken(t, testSecret, jwt.RegisteredClaims{
				Subject:   "alice",
				Issuer:    "simple-idm",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && gotUserID != userID {
				t.Errorf("context user ID = %v, want %v", gotUserID, userID)
			}
		})
	}
}
