package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Donation holds the structure for the donation pledge collection in mongo.
// Pledges are insert-only; PaymentID is the gateway's opaque reference.
type Donation struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	CampaignID    primitive.ObjectID `json:"campaignId" bson:"campaignId"`
	IncidentID    primitive.ObjectID `json:"incidentId" bson:"incidentId"`
	CampaignTitle string             `json:"campaignTitle" bson:"campaignTitle"`
	Amount        int64              `json:"amount" bson:"amount"`
	Currency      string             `json:"currency" bson:"currency"`
	PaymentID     string             `json:"paymentId" bson:"paymentId"`
	Timestamp     primitive.DateTime `json:"timestamp" bson:"timestamp"`
}

// CheckoutSessionRequest holds the structure for creating a payment session.
// Amount is in minor currency units.
type CheckoutSessionRequest struct {
	CampaignID string `json:"campaignId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// CheckoutSessionResponse returns the hosted payment page for the widget
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// RecordDonationRequest holds the structure for persisting a pledge after the
// payment widget reports success
type RecordDonationRequest struct {
	CampaignID string `json:"campaignId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	PaymentID  string `json:"paymentId"`
}
