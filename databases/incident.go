package databases

// go generate: mockery --name IncidentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/disaster-portal/disaster-portal-api/models"
)

const incidentCollectionName = "incidents"

// IncidentDatabase contains the methods to use with the incident database
type IncidentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Incident, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error)
	InsertOne(ctx context.Context, incident models.Incident, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (StreamHelper, error)
}

type incidentDatabase struct {
	db DatabaseHelper
}

// NewIncidentDatabase initializes a new instance of incident database with the provided db connection
func NewIncidentDatabase(db DatabaseHelper) IncidentDatabase {
	return &incidentDatabase{
		db: db,
	}
}

func (i *incidentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Incident, error) {
	incident := &models.Incident{}
	err := i.db.Collection(incidentCollectionName).FindOne(ctx, filter).Decode(&incident)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (i *incidentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error) {
	cursor, err := i.db.Collection(incidentCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var incidents []models.Incident
	if err := cursor.Decode(&incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (i *incidentDatabase) InsertOne(ctx context.Context, incident models.Incident, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return i.db.Collection(incidentCollectionName).InsertOne(ctx, incident, opts...)
}

func (i *incidentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return i.db.Collection(incidentCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (i *incidentDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := i.db.Collection(incidentCollectionName).DeleteOne(ctx, filter, opts...)
	return err
}

func (i *incidentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return i.db.Collection(incidentCollectionName).CountDocuments(ctx, filter, opts...)
}

func (i *incidentDatabase) Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (StreamHelper, error) {
	return i.db.Collection(incidentCollectionName).Watch(ctx, pipeline, opts...)
}
