package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/disaster-portal/disaster-portal-api/models"
)

const userCollectionName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.User, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error)
	InsertOne(ctx context.Context, user models.User, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userCollectionName).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	cursor, err := u.db.Collection(userCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userDatabase) InsertOne(ctx context.Context, user models.User, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return u.db.Collection(userCollectionName).InsertOne(ctx, user, opts...)
}

func (u *userDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return u.db.Collection(userCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (u *userDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return u.db.Collection(userCollectionName).CountDocuments(ctx, filter, opts...)
}
