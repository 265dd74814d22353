package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification holds the structure for the notification collection in mongo.
// Records are written once by the incident trigger and only ever mutated by
// flipping Read to true.
type Notification struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	UserID    string             `json:"userId" bson:"userId"`
	Read      bool               `json:"read" bson:"read"`
	Timestamp primitive.DateTime `json:"timestamp" bson:"timestamp"`
}

// MarkAllReadResponse holds the structure for the read-all endpoint response
type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}
