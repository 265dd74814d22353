package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
)

// fakeNotificationDB records read-flag updates issued by the feed
type fakeNotificationDB struct {
	mu      sync.Mutex
	updates []interface{}
	fail    bool
}

func (f *fakeNotificationDB) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationDB) InsertOne(ctx context.Context, n models.Notification, opts ...*options.InsertOneOptions) (databases.InsertOneResultHelper, error) {
	return nil, nil
}

func (f *fakeNotificationDB) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("mocked-error")
	}
	f.updates = append(f.updates, filter)
	return &mongo.UpdateResult{ModifiedCount: 1}, nil
}

func (f *fakeNotificationDB) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationDB) Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (databases.StreamHelper, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeNotificationDB) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

// fakeSource hands the feed a canned snapshot and a channel the test drives
type fakeSource struct {
	snapshot []models.Notification
	inserts  chan models.Notification
	openErr  error

	mu      sync.Mutex
	stopped int
}

func newFakeSource(snapshot ...models.Notification) *fakeSource {
	return &fakeSource{
		snapshot: snapshot,
		inserts:  make(chan models.Notification, 16),
	}
}

func (s *fakeSource) Open(ctx context.Context, recipientID string) ([]models.Notification, <-chan models.Notification, func(), error) {
	if s.openErr != nil {
		return nil, nil, nil, s.openErr
	}
	return s.snapshot, s.inserts, func() {
		s.mu.Lock()
		s.stopped++
		s.mu.Unlock()
	}, nil
}

func (s *fakeSource) stopCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func notification(read bool) models.Notification {
	return models.Notification{
		ID:      primitive.NewObjectID(),
		Title:   "New Incident Reported",
		Message: `Your incident "Flood in Delhi" has been submitted.`,
		UserID:  "user-1",
		Read:    read,
	}
}

// alertRecorder collects alerts so tests can wait for delivery
type alertRecorder struct {
	ch chan models.Notification
}

func newAlertRecorder() *alertRecorder {
	return &alertRecorder{ch: make(chan models.Notification, 16)}
}

func (a *alertRecorder) Alert(n models.Notification) { a.ch <- n }

func (a *alertRecorder) wait(t *testing.T) models.Notification {
	t.Helper()
	select {
	case n := <-a.ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for alert")
		return models.Notification{}
	}
}

func (a *alertRecorder) none(t *testing.T) {
	t.Helper()
	select {
	case n := <-a.ch:
		t.Fatalf("unexpected alert for %s", n.ID.Hex())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeedSubscribeRequiresRecipient(t *testing.T) {
	feed := NewFeed(&fakeNotificationDB{}, newFakeSource(), nil)

	err := feed.Subscribe(context.Background(), "")

	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, feed.Notifications())
	assert.Zero(t, feed.UnreadCount())
}

func TestFeedSnapshotProducesNoAlerts(t *testing.T) {
	n1 := notification(false)
	alerts := newAlertRecorder()
	feed := NewFeed(&fakeNotificationDB{}, newFakeSource(n1), alerts)

	err := feed.Subscribe(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Len(t, feed.Notifications(), 1)
	assert.Equal(t, 1, feed.UnreadCount())
	alerts.none(t)
}

func TestFeedInsertPrependsAndAlertsOnce(t *testing.T) {
	n1 := notification(false)
	n2 := notification(false)
	alerts := newAlertRecorder()
	source := newFakeSource(n1)
	feed := NewFeed(&fakeNotificationDB{}, source, alerts)

	assert.NoError(t, feed.Subscribe(context.Background(), "user-1"))
	source.inserts <- n2

	got := alerts.wait(t)
	assert.Equal(t, n2.ID, got.ID)

	entries := feed.Notifications()
	assert.Len(t, entries, 2)
	assert.Equal(t, n2.ID, entries[0].ID)
	assert.Equal(t, n1.ID, entries[1].ID)
	assert.Equal(t, 2, feed.UnreadCount())
	alerts.none(t)
}

func TestFeedDeduplicatesByID(t *testing.T) {
	n1 := notification(false)
	n2 := notification(false)
	alerts := newAlertRecorder()
	source := newFakeSource(n1)
	feed := NewFeed(&fakeNotificationDB{}, source, alerts)

	assert.NoError(t, feed.Subscribe(context.Background(), "user-1"))

	// replay of a snapshot record, then a duplicate live insert
	source.inserts <- n1
	source.inserts <- n2
	source.inserts <- n2

	got := alerts.wait(t)
	assert.Equal(t, n2.ID, got.ID)
	alerts.none(t)

	assert.Len(t, feed.Notifications(), 2)
}

func TestFeedMarkAllVisibleAsRead(t *testing.T) {
	n1 := notification(false)
	n2 := notification(true)
	n3 := notification(false)
	ndb := &fakeNotificationDB{}
	feed := NewFeed(ndb, newFakeSource(n1, n2, n3), nil)

	assert.NoError(t, feed.Subscribe(context.Background(), "user-1"))
	assert.Equal(t, 2, feed.UnreadCount())

	marked := feed.MarkAllVisibleAsRead(context.Background())

	assert.Equal(t, 2, marked)
	assert.Zero(t, feed.UnreadCount())
	assert.Equal(t, 2, ndb.updateCount())

	// second call with no intervening insert issues no remote updates
	marked = feed.MarkAllVisibleAsRead(context.Background())
	assert.Zero(t, marked)
	assert.Equal(t, 2, ndb.updateCount())
}

func TestFeedMarkAllKeepsLocalFlagsOnRemoteFailure(t *testing.T) {
	n1 := notification(false)
	ndb := &fakeNotificationDB{fail: true}
	feed := NewFeed(ndb, newFakeSource(n1), nil)

	assert.NoError(t, feed.Subscribe(context.Background(), "user-1"))
	marked := feed.MarkAllVisibleAsRead(context.Background())

	assert.Equal(t, 1, marked)
	assert.Zero(t, feed.UnreadCount())
	assert.Zero(t, ndb.updateCount())
}

func TestFeedUnreadCountGrowsWithInserts(t *testing.T) {
	n1 := notification(false)
	n2 := notification(false)
	alerts := newAlertRecorder()
	source := newFakeSource(n1)
	feed := NewFeed(&fakeNotificationDB{}, source, alerts)

	assert.NoError(t, feed.Subscribe(context.Background(), "user-1"))
	assert.Equal(t, 1, feed.MarkAllVisibleAsRead(context.Background()))
	assert.Zero(t, feed.UnreadCount())

	source.inserts <- n2
	alerts.wait(t)

	assert.Equal(t, 1, feed.UnreadCount())
}

func TestFeedUnsubscribeSilence(t *testing.T) {
	n1 := notification(false)
	n2 := notification(false)
	alerts := newAlertRecorder()
	source := newFakeSource(n1)
	feed := NewFeed(&fakeNotificationDB{}, source, alerts)

	assert.NoError(t, feed.Subscribe(context.Background(), "user-1"))
	feed.Unsubscribe()
	feed.Unsubscribe() // safe to call twice

	assert.Equal(t, 1, source.stopCalls())

	source.inserts <- n2
	alerts.none(t)
	assert.Len(t, feed.Notifications(), 1)
	assert.Equal(t, 1, feed.UnreadCount())
}

func TestFeedResubscribeAfterIdentityChange(t *testing.T) {
	feed := NewFeed(&fakeNotificationDB{}, newFakeSource(), nil)

	assert.NoError(t, feed.Subscribe(context.Background(), "user-1"))
	assert.ErrorIs(t, feed.Subscribe(context.Background(), "user-2"), ErrAlreadySubscribed)

	feed.Unsubscribe()
	assert.NoError(t, feed.Subscribe(context.Background(), "user-2"))
}

func TestFeedSourceErrorLeavesEmptyStableState(t *testing.T) {
	source := newFakeSource()
	source.openErr = errors.New("permission denied")
	feed := NewFeed(&fakeNotificationDB{}, source, nil)

	err := feed.Subscribe(context.Background(), "user-1")

	assert.Error(t, err)
	assert.Empty(t, feed.Notifications())
	assert.Zero(t, feed.UnreadCount())
	assert.Zero(t, feed.MarkAllVisibleAsRead(context.Background()))
}
