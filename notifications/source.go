package notifications

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
)

// StoreSource feeds a Feed from the notification collection: a change stream
// filtered to the recipient's inserts plus an initial snapshot ordered by
// timestamp descending.
type StoreSource struct {
	DB databases.NotificationDatabase
}

// NewStoreSource wires a source over the given notification database
func NewStoreSource(db databases.NotificationDatabase) *StoreSource {
	return &StoreSource{DB: db}
}

// Open starts the change stream before loading the snapshot so no insert can
// fall between the two; the feed's dedup absorbs any overlap.
func (s *StoreSource) Open(ctx context.Context, recipientID string) ([]models.Notification, <-chan models.Notification, func(), error) {
	streamCtx, cancel := context.WithCancel(context.Background())

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: "insert"},
			{Key: "fullDocument.userId", Value: recipientID},
		}}},
	}
	stream, err := s.DB.Watch(streamCtx, pipeline)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	snapshot, err := s.DB.Find(ctx,
		bson.M{"userId": recipientID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	)
	if err != nil {
		cancel()
		stream.Close(context.Background())
		return nil, nil, nil, err
	}

	inserts := make(chan models.Notification)
	go pump(streamCtx, stream, inserts, recipientID)

	return snapshot, inserts, cancel, nil
}

// pump forwards decoded insert events until the stream ends or the context
// is cancelled, then closes the channel
func pump(ctx context.Context, stream databases.StreamHelper, inserts chan<- models.Notification, recipientID string) {
	defer close(inserts)
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event struct {
			FullDocument models.Notification `bson:"fullDocument"`
		}
		if err := stream.Decode(&event); err != nil {
			zap.S().Errorw("failed to decode notification change event",
				"recipient", recipientID,
				"error", err)
			continue
		}
		select {
		case inserts <- event.FullDocument:
		case <-ctx.Done():
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		zap.S().Errorw("notification change stream ended",
			"recipient", recipientID,
			"error", err)
	}
}
