package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testAuth = utils.AuthConfig{JWTSecret: "test-secret", Issuer: "identity"}

func actorEcho(t *testing.T, got *entity.Actor) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := utils.GetActorFromContext(r.Context())
		require.True(t, ok)
		*got = actor
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthJWT(t *testing.T) {
	userID := uuid.New()

	valid, err := utils.NewAccessToken(testAuth, userID, "admin", time.Hour)
	require.NoError(t, err)
	noRole, err := utils.NewAccessToken(testAuth, userID, "", time.Hour)
	require.NoError(t, err)
	expired, err := utils.NewAccessToken(testAuth, userID, "customer", -time.Minute)
	require.NoError(t, err)
	otherIssuer, err := utils.NewAccessToken(utils.AuthConfig{JWTSecret: testAuth.JWTSecret, Issuer: "elsewhere"}, userID, "customer", time.Hour)
	require.NoError(t, err)
	otherSecret, err := utils.NewAccessToken(utils.AuthConfig{JWTSecret: "nope", Issuer: testAuth.Issuer}, userID, "customer", time.Hour)
	require.NoError(t, err)
	badRole, err := utils.NewAccessToken(testAuth, userID, "root", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantRole entity.UserRole
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"no token", "Bearer ", http.StatusUnauthorized, ""},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"other issuer", "Bearer " + otherIssuer, http.StatusUnauthorized, ""},
		{"other secret", "Bearer " + otherSecret, http.StatusUnauthorized, ""},
		{"unknown role", "Bearer " + badRole, http.StatusUnauthorized, ""},
		{"admin", "Bearer " + valid, http.StatusOK, entity.RoleAdmin},
		{"default role", "Bearer " + noRole, http.StatusOK, entity.RoleCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got entity.Actor
			h := AuthJWT(testAuth, zap.NewNop())(actorEcho(t, &got))

			req := httptest.NewRequest(http.MethodGet, "/api/reservations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, userID, got.ID)
				assert.Equal(t, tt.wantRole, got.Role)
			}
		})
	}
}

func TestAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Admin(zap.NewNop())(next)

	serve := func(role string, authenticated bool) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authenticated {
			req = req.WithContext(utils.SetUserContext(req.Context(), uuid.New(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve("", false))
	assert.Equal(t, http.StatusForbidden, serve("customer", true))
	assert.Equal(t, http.StatusNoContent, serve("admin", true))
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":false`)
}

func TestLoggerCapturesStatus(t *testing.T) {
	h := Logger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/reservations", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
