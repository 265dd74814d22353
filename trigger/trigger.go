// Package trigger mirrors incident inserts into the notification collection,
// one notification per new incident, addressed to the reporter.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
	templates "github.com/disaster-portal/disaster-portal-api/templates/html"
)

const notificationTitle = "New Incident Reported"

type incidentEvent struct {
	FullDocument models.Incident `bson:"fullDocument"`
}

// Trigger watches the incident collection and writes one notification per
// insert. Failures are logged and skipped; the stream is not replayed.
type Trigger struct {
	IDB databases.IncidentDatabase
	NDB databases.NotificationDatabase
	UDB databases.UserDatabase

	// SendgridKey enables the email receipt when set
	SendgridKey string

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a trigger over the given databases
func New(idb databases.IncidentDatabase, ndb databases.NotificationDatabase, udb databases.UserDatabase, sendgridKey string) *Trigger {
	return &Trigger{
		IDB:         idb,
		NDB:         ndb,
		UDB:         udb,
		SendgridKey: sendgridKey,
	}
}

// Start opens the change stream and processes inserts until Stop is called.
// Returns an error only when the stream cannot be opened at all.
func (t *Trigger) Start() error {
	ctx, cancel := context.WithCancel(context.Background())

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: "insert"},
		}}},
	}
	stream, err := t.IDB.Watch(ctx, pipeline)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open incident stream: %w", err)
	}

	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx, stream)
	zap.S().Info("incident notification trigger started")
	return nil
}

// Stop tears down the stream and waits for the worker to drain
func (t *Trigger) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	zap.S().Info("incident notification trigger stopped")
}

func (t *Trigger) run(ctx context.Context, stream databases.StreamHelper) {
	defer close(t.done)
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event incidentEvent
		if err := stream.Decode(&event); err != nil {
			zap.S().Errorw("failed to decode incident change event", "error", err)
			continue
		}
		t.process(ctx, event.FullDocument)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		zap.S().Errorw("incident change stream ended", "error", err)
	}
}

// process writes exactly one notification for the incident. Incidents with
// no reporter are skipped; there is nobody to notify.
func (t *Trigger) process(ctx context.Context, incident models.Incident) {
	if incident.UserID == "" {
		zap.S().Warnw("incident has no reporter, skipping notification",
			"incident", incident.ID.Hex())
		return
	}

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		Title:     notificationTitle,
		Message:   fmt.Sprintf("Your incident %q has been submitted.", incident.Title),
		UserID:    incident.UserID,
		Read:      false,
		Timestamp: primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := t.NDB.InsertOne(ctx, notification); err != nil {
		zap.S().Errorw("failed to write notification for incident",
			"incident", incident.ID.Hex(),
			"user", incident.UserID,
			"error", err)
		return
	}

	zap.S().Infow("notification written for incident",
		"incident", incident.ID.Hex(),
		"notification", notification.ID.Hex(),
		"user", incident.UserID)

	if t.SendgridKey != "" {
		t.sendReceiptEmail(ctx, incident)
	}
}

// sendReceiptEmail mails the reporter a submission receipt. Best effort, a
// failure never affects the notification that is already written.
func (t *Trigger) sendReceiptEmail(ctx context.Context, incident models.Incident) {
	uID, err := primitive.ObjectIDFromHex(incident.UserID)
	if err != nil {
		return
	}
	user, err := t.UDB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil || user.Email == "" {
		return
	}

	htmlContent := templates.RenderIncidentReceivedEmail(user.Name, incident.Title)
	plainText := fmt.Sprintf("Your incident %q has been submitted. We will keep you posted as it moves through triage.", incident.Title)

	from := mail.NewEmail("Disaster Portal", "no-reply@disaster-portal.org")
	to := mail.NewEmail(user.Name, user.Email)
	message := mail.NewSingleEmail(from, notificationTitle, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(t.SendgridKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send receipt email",
			"incident", incident.ID.Hex(),
			"error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status",
			"status", response.StatusCode,
			"body", response.Body)
	}
}
