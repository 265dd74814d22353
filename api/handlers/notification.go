package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/api"
	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
	"github.com/disaster-portal/disaster-portal-api/notifications"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NotificationHub tracks connected feed subscribers (userId -> feed)
type NotificationHub struct {
	feeds map[string]*notifications.Feed
	mutex sync.Mutex
}

var hub = &NotificationHub{
	feeds: make(map[string]*notifications.Feed),
}

// Notification exposes the notification endpoints and the live feed socket
type Notification struct {
	NDB databases.NotificationDatabase
}

// GetUserNotificationsHandler returns all notifications for a user, newest
// first
func (n Notification) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	dbResp, err := n.NDB.Find(context.Background(),
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		config.ErrorStatus("failed to get notifications by user id", http.StatusNotFound, w, err)
		return
	}

	if dbResp == nil {
		dbResp = []models.Notification{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkNotificationAsReadHandler flips a single notification to read
func (n Notification) MarkNotificationAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	notificationID := mux.Vars(r)["notification_id"]

	nID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	filter := bson.M{"_id": nID, "userId": userID}
	update := bson.M{"$set": bson.M{"read": true}}
	res, err := n.NDB.UpdateOne(context.Background(), filter, update)
	if err != nil {
		config.ErrorStatus("failed to mark notification as read", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("notification not found", http.StatusNotFound, w, nil)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"read": true})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkAllNotificationsReadHandler flips every unread notification for a user
// to read, one write per record. A failed write is logged and skipped; the
// remaining records are still attempted.
func (n Notification) MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	unread, err := n.NDB.Find(ctx, bson.M{"userId": userID, "read": false})
	if err != nil {
		config.ErrorStatus("failed to get unread notifications", http.StatusInternalServerError, w, err)
		return
	}

	marked := 0
	for _, record := range unread {
		filter := bson.M{"_id": record.ID}
		update := bson.M{"$set": bson.M{"read": true}}
		if _, err := n.NDB.UpdateOne(ctx, filter, update); err != nil {
			zap.S().Errorw("failed to mark notification as read",
				"notification", record.ID.Hex(),
				"user", userID,
				"error", err)
			continue
		}
		marked++
	}

	b, err := json.Marshal(models.MarkAllReadResponse{Marked: marked})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// wsEvent is the envelope pushed to feed subscribers
type wsEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// wsCommand is what subscribers send back over the socket
type wsCommand struct {
	Action string `json:"action"`
}

// HandleNotificationsWebSocket subscribes a user to their live notification
// feed. The snapshot goes out first, then one new_notification event per
// insert. A mark_all_read command flips the visible records and answers with
// the marked count.
func (n Notification) HandleNotificationsWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		conn.Close()
		return
	}

	// writes to a gorilla conn must be serialized
	var writeMu sync.Mutex
	writeJSON := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	var feed *notifications.Feed

	alerter := notifications.AlerterFunc(func(record models.Notification) {
		if err := writeJSON(wsEvent{Event: "new_notification", Data: record}); err != nil {
			zap.S().Errorw("failed to push notification",
				"user", userID,
				"error", err)
			return
		}
		writeJSON(wsEvent{Event: "unread_count", Data: feed.UnreadCount()})
	})

	feed = notifications.NewFeed(n.NDB, notifications.NewStoreSource(n.NDB), alerter)
	if err := feed.Subscribe(r.Context(), userID); err != nil {
		conn.Close()
		return
	}

	hub.mutex.Lock()
	hub.feeds[userID] = feed
	hub.mutex.Unlock()
	zap.S().Infow("user connected to notification feed", "user", userID)

	if err := writeJSON(wsEvent{Event: "snapshot", Data: feed.Notifications()}); err != nil {
		zap.S().Errorw("failed to send snapshot", "user", userID, "error", err)
	}
	writeJSON(wsEvent{Event: "unread_count", Data: feed.UnreadCount()})

	defer func() {
		feed.Unsubscribe()
		hub.mutex.Lock()
		delete(hub.feeds, userID)
		hub.mutex.Unlock()
		conn.Close()
		zap.S().Infow("user disconnected from notification feed", "user", userID)
	}()

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if cmd.Action == "mark_all_read" {
			marked := feed.MarkAllVisibleAsRead(context.Background())
			if err := writeJSON(wsEvent{Event: "marked_read", Data: models.MarkAllReadResponse{Marked: marked}}); err != nil {
				return
			}
			writeJSON(wsEvent{Event: "unread_count", Data: feed.UnreadCount()})
		}
	}
}
