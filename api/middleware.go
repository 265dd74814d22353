package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
	"github.com/disaster-portal/disaster-portal-api/session"
)

// MiddlewareDB is a struct that holds the database, config and session store
type MiddlewareDB struct {
	DB       databases.UserDatabase
	Conf     *config.Config
	Sessions *session.Store
}

var authenticator auth.Authenticator
var cache store.Cache

// Middleware adds some basic header authentication around accessing the routes
// and attaches the authenticated identity to the request context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())
		ctx := WithIdentity(r.Context(), Identity{UserID: user.ID(), Email: user.UserName()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CreateToken returns a bearer token for an identity that just signed in.
// The user's role record is resolved here, once, and cached in the session
// store for the lifetime of the session.
func (m MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	email, _, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}

	user, err := m.DB.FindOne(r.Context(), bson.M{"email": strings.ToLower(email)})
	if err != nil {
		http.Error(w, "failed to get user by email", http.StatusUnauthorized)
		return
	}

	role := user.Role
	if role == "" {
		// legacy record with no role yet, decide it now and persist
		role = models.RoleUser
		if m.Conf.IsAdminEmail(user.Email) {
			role = models.RoleAdmin
		}
		filter := bson.M{"_id": user.ID}
		update := bson.M{"$set": bson.M{"role": role}}
		if _, err := m.DB.UpdateOne(r.Context(), filter, update); err != nil {
			config.ErrorStatus("failed to assign role", http.StatusInternalServerError, w, err)
			return
		}
	}

	token := uuid.New().String()
	authUser := auth.NewDefaultUser(user.Email, user.ID.Hex(), nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)

	m.Sessions.SignIn(session.Session{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Name:   user.Name,
		Role:   role,
	})

	response := map[string]string{
		"token": token,
		"_id":   user.ID.Hex(),
		"role":  role,
	}

	responseBody, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), time.Hour*24*365*100) // 100 years ttl
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser validates a user
func (m MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	usernameHash := sha256.Sum256([]byte(strings.ToLower(email)))

	user, err := m.DB.FindOne(ctx, bson.M{"email": strings.ToLower(email)})
	if err != nil {
		return nil, fmt.Errorf("no matching email found")
	}

	expectedUsernameHash := sha256.Sum256([]byte(user.Email))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}

	if usernameMatch {
		return auth.NewDefaultUser(user.Email, user.ID.Hex(), nil, nil), nil
	}
	return nil, fmt.Errorf("invalid credentials")
}

// RevokeToken revokes a token and tears the session down
func (m MiddlewareDB) RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken := r.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) != 2 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "missing bearer token"}`))
		return
	}
	reqToken = splitToken[1]

	if id, ok := IdentityFromContext(r.Context()); ok {
		m.Sessions.SignOut(id.UserID)
	}

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, reqToken, r)
	body := fmt.Sprintf(`{"revoked token": "%s"}`, reqToken)
	w.Write([]byte(body))
}
