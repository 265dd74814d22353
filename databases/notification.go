package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/disaster-portal/disaster-portal-api/models"
)

const notificationCollectionName = "notifications"

// NotificationDatabase contains the methods to use with the notification database
type NotificationDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error)
	InsertOne(ctx context.Context, notification models.Notification, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (StreamHelper, error)
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

func (n *notificationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error) {
	cursor, err := n.db.Collection(notificationCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var notifications []models.Notification
	if err := cursor.Decode(&notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (n *notificationDatabase) InsertOne(ctx context.Context, notification models.Notification, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return n.db.Collection(notificationCollectionName).InsertOne(ctx, notification, opts...)
}

func (n *notificationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return n.db.Collection(notificationCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (n *notificationDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return n.db.Collection(notificationCollectionName).CountDocuments(ctx, filter, opts...)
}

func (n *notificationDatabase) Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (StreamHelper, error) {
	return n.db.Collection(notificationCollectionName).Watch(ctx, pipeline, opts...)
}
