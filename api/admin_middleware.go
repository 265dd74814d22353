package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/models"
)

// AdminClaims is the JWT payload minted at admin login
type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// NewAdminToken signs a short-lived JWT for an allow-listed admin identity
func NewAdminToken(secret, userID, email string) (string, error) {
	claims := AdminClaims{
		Email: email,
		Role:  models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAdminToken validates the JWT signature and returns the claims
func ParseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AdminMiddleware gates triage routes behind a valid admin JWT. The role is
// enforced here, server-side; client-side checks are advisory only.
func AdminMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			header := r.Header.Get("Authorization")
			parts := strings.Split(header, "Bearer ")
			if len(parts) != 2 {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}

			claims, err := ParseAdminToken(secret, parts[1])
			if err != nil {
				zap.S().Errorw("admin token rejected", "url", r.URL, "error", err)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}
			if claims.Role != models.RoleAdmin {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": "admin role required"}`))
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: claims.Subject, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
