package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbardin/equiprent/internal/domain"
	"github.com/tbardin/equiprent/internal/middleware"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// identityEchoHandler records the identity the middleware put in context.
func identityEchoHandler(got *domain.Identity, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *found = middleware.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthHandler_ValidToken_PassesIdentity(t *testing.T) {
	want := domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}
	token, err := middleware.IssueToken(testSecret, want, time.Hour)
	require.NoError(t, err)

	var got domain.Identity
	var found bool
	h := middleware.NewAuthHandler(testSecret)(identityEchoHandler(&got, &found))

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, want, got)
}

func TestAuthHandler_MissingHeader_Returns401(t *testing.T) {
	var got domain.Identity
	var found bool
	h := middleware.NewAuthHandler(testSecret)(identityEchoHandler(&got, &found))

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/all", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, found)
}

func TestAuthHandler_WrongSecret_Returns401(t *testing.T) {
	token, err := middleware.IssueToken("wrong-secret-wrong-secret-wrong!", domain.Identity{
		UserID: uuid.New(),
		Role:   domain.RoleRenter,
	}, time.Hour)
	require.NoError(t, err)

	h := middleware.NewAuthHandler(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a forged token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_ExpiredToken_Returns401(t *testing.T) {
	token, err := middleware.IssueToken(testSecret, domain.Identity{
		UserID: uuid.New(),
		Role:   domain.RoleRenter,
	}, -time.Minute)
	require.NoError(t, err)

	h := middleware.NewAuthHandler(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_UnknownRole_Returns401(t *testing.T) {
	token, err := middleware.IssueToken(testSecret, domain.Identity{
		UserID: uuid.New(),
		Role:   domain.Role("superuser"),
	}, time.Hour)
	require.NoError(t, err)

	h := middleware.NewAuthHandler(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an unknown role")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityFromContext_NoMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := middleware.IdentityFromContext(req.Context())
	assert.False(t, ok)
}
