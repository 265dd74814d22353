package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// DefaultGoalAmount is the goal every campaign starts with
const DefaultGoalAmount int64 = 10000

// Campaign holds the structure for the donations collection in mongo. A
// campaign is linked to exactly one incident via IncidentID.
type Campaign struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id"`
	IncidentID      primitive.ObjectID `json:"incidentId" bson:"incidentId"`
	GoalAmount      int64              `json:"goalAmount" bson:"goalAmount"`
	CollectedAmount int64              `json:"collectedAmount" bson:"collectedAmount"`
	CreatedBy       string             `json:"createdBy" bson:"createdBy"`
	CreatedAt       primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// CampaignDetails is a campaign joined with its incident for the campaign
// list screen
type CampaignDetails struct {
	Campaign    Campaign `json:"campaign"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}
