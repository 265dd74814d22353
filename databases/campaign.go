package databases

// go generate: mockery --name CampaignDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/disaster-portal/disaster-portal-api/models"
)

const campaignCollectionName = "donations"

// CampaignDatabase contains the methods to use with the campaign database
type CampaignDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Campaign, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Campaign, error)
	InsertOne(ctx context.Context, campaign models.Campaign, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type campaignDatabase struct {
	db DatabaseHelper
}

// NewCampaignDatabase initializes a new instance of campaign database with the provided db connection
func NewCampaignDatabase(db DatabaseHelper) CampaignDatabase {
	return &campaignDatabase{
		db: db,
	}
}

func (c *campaignDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	err := c.db.Collection(campaignCollectionName).FindOne(ctx, filter).Decode(&campaign)
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func (c *campaignDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Campaign, error) {
	cursor, err := c.db.Collection(campaignCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var campaigns []models.Campaign
	if err := cursor.Decode(&campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (c *campaignDatabase) InsertOne(ctx context.Context, campaign models.Campaign, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(campaignCollectionName).InsertOne(ctx, campaign, opts...)
}

func (c *campaignDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(campaignCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (c *campaignDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(campaignCollectionName).DeleteOne(ctx, filter, opts...)
	return err
}

func (c *campaignDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(campaignCollectionName).CountDocuments(ctx, filter, opts...)
}
