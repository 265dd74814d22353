package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/disaster-portal/disaster-portal-api/api/handlers"
	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/databases/mocks"
	"github.com/disaster-portal/disaster-portal-api/models"
)

// MockDatabaseHelper is a mock type for the DatabaseHelper type
type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func TestUser_UserHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/user/asdf", nil)
	if err != nil {
		t.Fatal(err)
	}

	req = mux.SetURLVars(req, map[string]string{"user_id": "asdf"})
	req.Header.Set("Authorization", "Bearer abc123")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Conf: &config.Config{}}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestUser_UserCreateHandlerMissingFields(t *testing.T) {
	body, _ := json.Marshal(models.CreateUserRequest{Name: "Asha"})
	req, err := http.NewRequest("POST", "/api/v1/user/create-user", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.User{DB: databases.NewUserDatabase(&MockDatabaseHelper{}), Conf: &config.Config{}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_UserCreateHandlerDuplicateEmail(t *testing.T) {
	body, _ := json.Marshal(models.CreateUserRequest{
		Email:    "asha@example.com",
		Name:     "Asha",
		Password: "hunter22",
	})
	req, err := http.NewRequest("POST", "/api/v1/user/create-user", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Conf: &config.Config{}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUser_UserCreateHandlerAssignsAdminRole(t *testing.T) {
	body, _ := json.Marshal(models.CreateUserRequest{
		Email:    "ops@example.com",
		Name:     "Ops",
		Password: "hunter22",
	})
	req, err := http.NewRequest("POST", "/api/v1/user/create-user", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}

	var inserted models.User
	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(models.User)
	})
	db.On("Collection", "users").Return(conn)

	conf := &config.Config{AdminEmails: []string{"ops@example.com"}}
	u := handlers.User{DB: databases.NewUserDatabase(db), Conf: conf}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.RoleAdmin, inserted.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inserted.Password), []byte("hunter22")))
}

func TestUser_AdminLoginHandlerRejectsNonAdmin(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	body, _ := json.Marshal(models.AdminLoginRequest{Email: "asha@example.com", Password: "hunter22"})
	req, err := http.NewRequest("POST", "/api/v1/admin/login", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).Email = "asha@example.com"
		(*arg).Password = string(hash)
		(*arg).Role = models.RoleUser
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Conf: &config.Config{AdminSecret: "test-secret"}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUser_AdminLoginHandlerIssuesToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	body, _ := json.Marshal(models.AdminLoginRequest{Email: "ops@example.com", Password: "hunter22"})
	req, err := http.NewRequest("POST", "/api/v1/admin/login", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).Email = "ops@example.com"
		(*arg).Password = string(hash)
		(*arg).Role = models.RoleAdmin
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Conf: &config.Config{AdminSecret: "test-secret"}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.AdminLoginResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleAdmin, resp.Role)
}

func TestUser_AdminLoginHandlerWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	body, _ := json.Marshal(models.AdminLoginRequest{Email: "ops@example.com", Password: "wrong"})
	req, err := http.NewRequest("POST", "/api/v1/admin/login", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).Email = "ops@example.com"
		(*arg).Password = string(hash)
		(*arg).Role = models.RoleAdmin
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db), Conf: &config.Config{AdminSecret: "test-secret"}}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
