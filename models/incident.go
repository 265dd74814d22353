package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Incident statuses walked through by admin triage. Pending is the only
// status an incident can be created with.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
)

// Location is a point in decimal degrees picked on the map widget
type Location struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Incident holds the structure for the incident collection in mongo
type Incident struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id"`
	Title               string             `json:"title" bson:"title"`
	Description         string             `json:"description" bson:"description"`
	Location            Location           `json:"location" bson:"location"`
	ImageURL            string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Status              string             `json:"status" bson:"status"`
	HasDonationCampaign bool               `json:"hasDonationCampaign" bson:"hasDonationCampaign"`
	UserID              string             `json:"userId" bson:"userId"`
	CreatedAt           primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// CreateIncidentRequest holds the structure for reporting a new incident
type CreateIncidentRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

// Validate checks the request at the repository boundary before any write
func (r *CreateIncidentRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if r.Location.Lat < -90 || r.Location.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if r.Location.Lng < -180 || r.Location.Lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// UpdateStatusRequest holds the structure for an admin status change
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ValidStatus reports whether s is one of the triage statuses
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}
