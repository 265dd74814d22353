package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/disaster-portal/disaster-portal-api/api"
	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
)

// User exposes the user account endpoints
type User struct {
	DB   databases.UserDatabase
	Conf *config.Config
}

// UserCreateHandler registers a new account. The role is decided right here
// from the allow-list and never re-evaluated afterwards.
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		config.ErrorStatus("email and password are required", http.StatusBadRequest, w, nil)
		return
	}

	count, err := u.DB.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		config.ErrorStatus("failed to check for existing user", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w, nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	role := models.RoleUser
	if u.Conf.IsAdminEmail(email) {
		role = models.RoleAdmin
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Name:      req.Name,
		Password:  string(hash),
		Role:      role,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := u.DB.InsertOne(context.Background(), user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(user)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UserHandler returns a user by _id
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AdminLoginHandler issues the JWT used by the triage console. Only accounts
// whose stored role is admin get a token; the allow-list is not consulted
// again at login time.
func (u User) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := u.DB.FindOne(context.Background(), bson.M{"email": email})
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, nil)
		return
	}

	if user.Role != models.RoleAdmin {
		config.ErrorStatus("admin role required", http.StatusForbidden, w, nil)
		return
	}

	token, err := api.NewAdminToken(u.Conf.AdminSecret, user.ID.Hex(), user.Email)
	if err != nil {
		config.ErrorStatus("failed to sign admin token", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.AdminLoginResponse{
		Token: token,
		ID:    user.ID.Hex(),
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
