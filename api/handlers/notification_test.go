package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/disaster-portal/disaster-portal-api/api/handlers"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/databases/mocks"
	"github.com/disaster-portal/disaster-portal-api/models"
)

func TestNotification_GetUserNotificationsHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/users/user-1/notifications", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Notification)
		*arg = []models.Notification{
			{ID: primitive.NewObjectID(), Title: "New Incident Reported", UserID: "user-1"},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "notifications").Return(conn)

	n := handlers.Notification{NDB: databases.NewNotificationDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.GetUserNotificationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var notifications []models.Notification
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &notifications))
	assert.Len(t, notifications, 1)
	assert.Equal(t, "New Incident Reported", notifications[0].Title)
}

func TestNotification_GetUserNotificationsHandlerEmpty(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/users/user-1/notifications", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "notifications").Return(conn)

	n := handlers.Notification{NDB: databases.NewNotificationDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.GetUserNotificationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestNotification_MarkNotificationAsReadHandlerBadHex(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/user/user-1/notifications/1234/read", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1", "notification_id": "1234"})

	n := handlers.Notification{NDB: databases.NewNotificationDatabase(&MockDatabaseHelper{})}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkNotificationAsReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNotification_MarkNotificationAsReadHandlerNotFound(t *testing.T) {
	nID := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/user/user-1/notifications/"+nID.Hex()+"/read", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1", "notification_id": nID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	db.On("Collection", "notifications").Return(conn)

	n := handlers.Notification{NDB: databases.NewNotificationDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkNotificationAsReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNotification_MarkAllNotificationsReadHandler(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/users/user-1/notifications/read-all", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Notification)
		*arg = []models.Notification{
			{ID: primitive.NewObjectID(), UserID: "user-1"},
			{ID: primitive.NewObjectID(), UserID: "user-1"},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	db.On("Collection", "notifications").Return(conn)

	n := handlers.Notification{NDB: databases.NewNotificationDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkAllNotificationsReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.MarkAllReadResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Marked)
	conn.AssertNumberOfCalls(t, "UpdateOne", 2)
}

func TestNotification_MarkAllNotificationsReadHandlerPartialFailure(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/users/user-1/notifications/read-all", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Notification)
		*arg = []models.Notification{
			{ID: primitive.NewObjectID(), UserID: "user-1"},
			{ID: primitive.NewObjectID(), UserID: "user-1"},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("mocked-error")).Once()
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	db.On("Collection", "notifications").Return(conn)

	n := handlers.Notification{NDB: databases.NewNotificationDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkAllNotificationsReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.MarkAllReadResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Marked)
}
