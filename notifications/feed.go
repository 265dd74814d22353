// Package notifications maintains a live, recipient-scoped, time-ordered
// view of notification records and their read state. The feed holds no
// duplicates and surfaces a one-shot alert for every record inserted after
// its initial snapshot.
package notifications

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
)

// ErrNoRecipient is returned when Subscribe is called without a recipient;
// the feed stays empty and no subscription is established
var ErrNoRecipient = errors.New("recipient id is required")

// ErrAlreadySubscribed is returned when Subscribe is called on a feed that
// already holds a live subscription; callers must Unsubscribe first, e.g.
// when the recipient identity changes
var ErrAlreadySubscribed = errors.New("feed is already subscribed")

// Alerter surfaces a one-shot user-facing alert for a newly inserted record
type Alerter interface {
	Alert(n models.Notification)
}

// AlerterFunc adapts a function to the Alerter interface
type AlerterFunc func(models.Notification)

// Alert calls f
func (f AlerterFunc) Alert(n models.Notification) { f(n) }

// Source opens a recipient-scoped live view of the notification store: the
// full current snapshot (newest first), then every subsequent insert on the
// channel. The channel is closed when the stream ends; stop releases it and
// is safe to call more than once.
type Source interface {
	Open(ctx context.Context, recipientID string) (snapshot []models.Notification, inserts <-chan models.Notification, stop func(), err error)
}

// Feed is the in-memory, newest-first sequence of one recipient's
// notifications. All methods are safe for concurrent use.
type Feed struct {
	ndb    databases.NotificationDatabase
	source Source
	alert  Alerter

	mu          sync.Mutex
	recipientID string
	entries     []models.Notification
	seen        map[string]struct{}
	stop        func()
	subscribed  bool
	done        chan struct{}
}

// NewFeed creates a feed that reads through source and writes read-state
// updates through ndb. alert may be nil if no toast surface is attached.
func NewFeed(ndb databases.NotificationDatabase, source Source, alert Alerter) *Feed {
	return &Feed{
		ndb:    ndb,
		source: source,
		alert:  alert,
		seen:   make(map[string]struct{}),
	}
}

// Subscribe establishes the live subscription for the given recipient. The
// snapshot is loaded before any change event is applied, so nothing inserted
// between mount and the first event is lost. On any source error the feed is
// left in a stable empty state; no retry is orchestrated here.
func (f *Feed) Subscribe(ctx context.Context, recipientID string) error {
	if recipientID == "" {
		return ErrNoRecipient
	}

	f.mu.Lock()
	if f.subscribed {
		f.mu.Unlock()
		return ErrAlreadySubscribed
	}
	f.mu.Unlock()

	snapshot, inserts, stop, err := f.source.Open(ctx, recipientID)
	if err != nil {
		zap.S().Errorw("notification subscription failed",
			"recipient", recipientID,
			"error", err)
		return err
	}

	f.mu.Lock()
	f.recipientID = recipientID
	f.entries = append([]models.Notification(nil), snapshot...)
	f.seen = make(map[string]struct{}, len(snapshot))
	for _, n := range snapshot {
		f.seen[n.ID.Hex()] = struct{}{}
	}
	f.stop = stop
	f.subscribed = true
	done := make(chan struct{})
	f.done = done
	f.mu.Unlock()

	go f.consume(inserts, done)
	return nil
}

// consume applies live insert events until the source channel closes. Alerts
// fire outside the lock, after the record has been admitted.
func (f *Feed) consume(inserts <-chan models.Notification, done chan struct{}) {
	defer close(done)
	for n := range inserts {
		if f.admit(n) && f.alert != nil {
			f.alert.Alert(n)
		}
	}
}

// admit prepends the record unless it is a duplicate or the feed has been
// unsubscribed. Returns true when the record is newly inserted.
func (f *Feed) admit(n models.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.subscribed {
		return false
	}
	key := n.ID.Hex()
	if _, dup := f.seen[key]; dup {
		return false
	}
	f.seen[key] = struct{}{}
	f.entries = append([]models.Notification{n}, f.entries...)
	return true
}

// Notifications returns a copy of the current sequence, newest first
func (f *Feed) Notifications() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.entries...)
}

// UnreadCount returns the number of in-memory records with read == false
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.entries {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAllVisibleAsRead flips every currently-unread record to read locally
// and issues one remote update per previously-unread record. Remote failures
// are logged, not retried, and never roll the local flag back. Returns the
// number of records that were unread.
func (f *Feed) MarkAllVisibleAsRead(ctx context.Context) int {
	f.mu.Lock()
	var marked []models.Notification
	for i := range f.entries {
		if !f.entries[i].Read {
			f.entries[i].Read = true
			marked = append(marked, f.entries[i])
		}
	}
	f.mu.Unlock()

	for _, n := range marked {
		filter := bson.M{"_id": n.ID}
		update := bson.M{"$set": bson.M{"read": true}}
		if _, err := f.ndb.UpdateOne(ctx, filter, update); err != nil {
			zap.S().Errorw("failed to persist notification read flag",
				"notification", n.ID.Hex(),
				"recipient", f.recipientID,
				"error", err)
		}
	}
	return len(marked)
}

// Unsubscribe releases the remote subscription. Safe to call multiple times;
// insertions arriving afterwards cause no state change and no alert.
func (f *Feed) Unsubscribe() {
	f.mu.Lock()
	stop := f.stop
	f.stop = nil
	f.subscribed = false
	f.mu.Unlock()

	if stop != nil {
		stop()
	}
}
