package databases

// go generate: mockery --name DonationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/disaster-portal/disaster-portal-api/models"
)

const donationCollectionName = "donationPledges"

// DonationDatabase contains the methods to use with the donation pledge database
type DonationDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Donation, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Donation, error)
	InsertOne(ctx context.Context, donation models.Donation, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type donationDatabase struct {
	db DatabaseHelper
}

// NewDonationDatabase initializes a new instance of donation database with the provided db connection
func NewDonationDatabase(db DatabaseHelper) DonationDatabase {
	return &donationDatabase{
		db: db,
	}
}

func (d *donationDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Donation, error) {
	donation := &models.Donation{}
	err := d.db.Collection(donationCollectionName).FindOne(ctx, filter).Decode(&donation)
	if err != nil {
		return nil, err
	}
	return donation, nil
}

func (d *donationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Donation, error) {
	cursor, err := d.db.Collection(donationCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var donations []models.Donation
	if err := cursor.Decode(&donations); err != nil {
		return nil, err
	}
	return donations, nil
}

func (d *donationDatabase) InsertOne(ctx context.Context, donation models.Donation, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return d.db.Collection(donationCollectionName).InsertOne(ctx, donation, opts...)
}

func (d *donationDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return d.db.Collection(donationCollectionName).CountDocuments(ctx, filter, opts...)
}
