package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/disaster-portal/disaster-portal-api/models"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := NewAdminToken("test-secret", "user-1", "ops@example.com")
	assert.NoError(t, err)

	claims, err := ParseAdminToken("test-secret", token)
	assert.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseAdminTokenWrongSecret(t *testing.T) {
	token, err := NewAdminToken("test-secret", "user-1", "ops@example.com")
	assert.NoError(t, err)

	_, err = ParseAdminToken("other-secret", token)
	assert.Error(t, err)
}

func TestAdminMiddlewareMissingHeader(t *testing.T) {
	handler := AdminMiddleware("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("PUT", "/api/v1/incident/1234/status", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminMiddlewareRejectsNonAdminRole(t *testing.T) {
	claims := AdminClaims{
		Email: "asha@example.com",
		Role:  models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	handler := AdminMiddleware("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("PUT", "/api/v1/incident/1234/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminMiddlewareAttachesIdentity(t *testing.T) {
	token, err := NewAdminToken("test-secret", "user-1", "ops@example.com")
	assert.NoError(t, err)

	var got Identity
	handler := AdminMiddleware("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		assert.True(t, ok)
		got = id
	}))

	req := httptest.NewRequest("PUT", "/api/v1/incident/1234/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "ops@example.com", got.Email)
}
