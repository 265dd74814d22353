package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
)

// minimum charge accepted by the gateway, in minor units
const minDonationAmount = 100

const defaultCurrency = "inr"

// Donation exposes the pledge endpoints backing the payment widget
type Donation struct {
	DDB     databases.DonationDatabase
	CDB     databases.CampaignDatabase
	IDB     databases.IncidentDatabase
	BaseURL string
}

// CreateCheckoutSessionHandler opens a hosted payment page for a campaign
// donation. Amounts are taken in minor currency units.
func (d Donation) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Amount < minDonationAmount {
		config.ErrorStatus("donation amount below minimum", http.StatusBadRequest, w, nil)
		return
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	cID, err := primitive.ObjectIDFromHex(req.CampaignID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	campaign, err := d.CDB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get campaign by ID", http.StatusNotFound, w, err)
		return
	}

	incident, err := d.IDB.FindOne(context.Background(), bson.M{"_id": campaign.IncidentID})
	if err != nil {
		config.ErrorStatus("failed to get incident for campaign", http.StatusNotFound, w, err)
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Donation: %s", incident.Title)),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(d.BaseURL + "/donation/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(d.BaseURL + "/donation/cancel"),
	}
	params.AddMetadata("campaignId", campaign.ID.Hex())
	params.AddMetadata("incidentId", campaign.IncidentID.Hex())

	s, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.CheckoutSessionResponse{SessionID: s.ID, URL: s.URL})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RecordDonationHandler persists a pledge after the widget reports success.
// The payment is verified against the gateway before anything is written;
// the client's word alone never moves the collected total.
func (d Donation) RecordDonationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RecordDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.PaymentID == "" {
		config.ErrorStatus("payment id is required", http.StatusBadRequest, w, nil)
		return
	}

	cID, err := primitive.ObjectIDFromHex(req.CampaignID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	campaign, err := d.CDB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get campaign by ID", http.StatusNotFound, w, err)
		return
	}

	// pledges are insert-only, a replayed payment id is rejected
	count, err := d.DDB.CountDocuments(context.Background(), bson.M{"paymentId": req.PaymentID})
	if err != nil {
		config.ErrorStatus("failed to check for existing pledge", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("payment already recorded", http.StatusConflict, w, nil)
		return
	}

	pi, err := paymentintent.Get(req.PaymentID, nil)
	if err != nil {
		config.ErrorStatus("failed to verify payment", http.StatusBadGateway, w, err)
		return
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		config.ErrorStatus("payment has not succeeded", http.StatusPaymentRequired, w, nil)
		return
	}
	if pi.Amount != req.Amount {
		config.ErrorStatus("payment amount mismatch", http.StatusBadRequest, w, nil)
		return
	}

	incident, err := d.IDB.FindOne(context.Background(), bson.M{"_id": campaign.IncidentID})
	if err != nil {
		config.ErrorStatus("failed to get incident for campaign", http.StatusNotFound, w, err)
		return
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	donation := models.Donation{
		ID:            primitive.NewObjectID(),
		CampaignID:    campaign.ID,
		IncidentID:    campaign.IncidentID,
		CampaignTitle: incident.Title,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentID:     req.PaymentID,
		Timestamp:     primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := d.DDB.InsertOne(context.Background(), donation); err != nil {
		config.ErrorStatus("failed to record donation", http.StatusInternalServerError, w, err)
		return
	}

	filter := bson.M{"_id": campaign.ID}
	update := bson.M{"$inc": bson.M{"collectedAmount": req.Amount}}
	if _, err := d.CDB.UpdateOne(context.Background(), filter, update); err != nil {
		// the pledge row is already down, only the running total lags
		zap.S().Errorw("failed to increment collected amount",
			"campaign", campaign.ID.Hex(),
			"payment", req.PaymentID,
			"error", err)
	}

	b, err := json.Marshal(donation)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// DonationsByCampaignIDHandler returns every pledge recorded for a campaign
func (d Donation) DonationsByCampaignIDHandler(w http.ResponseWriter, r *http.Request) {
	campaignID := mux.Vars(r)["campaign_id"]

	cID, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := d.DDB.Find(context.Background(), bson.M{"campaignId": cID})
	if err != nil {
		config.ErrorStatus("failed to get donations by campaign id", http.StatusNotFound, w, err)
		return
	}

	if dbResp == nil {
		dbResp = []models.Donation{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
