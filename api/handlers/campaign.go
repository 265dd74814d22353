package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/api"
	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
)

// Campaign exposes the donation campaign endpoints
type Campaign struct {
	CDB databases.CampaignDatabase
	IDB databases.IncidentDatabase
}

// EnableCampaignHandler opens a donation campaign for an incident. The
// campaign row is written first and the incident flag second, so a crash in
// between can never leave a flagged incident without a campaign. A failed
// flag write deletes the campaign again.
func (c Campaign) EnableCampaignHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to resolve identity", http.StatusUnauthorized, w, nil)
		return
	}

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	incident, err := c.IDB.FindOne(context.Background(), bson.M{"_id": iID})
	if err != nil {
		config.ErrorStatus("failed to get incident by ID", http.StatusNotFound, w, err)
		return
	}
	if incident.HasDonationCampaign {
		config.ErrorStatus("incident already has a donation campaign", http.StatusConflict, w, nil)
		return
	}

	campaign := models.Campaign{
		ID:              primitive.NewObjectID(),
		IncidentID:      iID,
		GoalAmount:      models.DefaultGoalAmount,
		CollectedAmount: 0,
		CreatedBy:       identity.UserID,
		CreatedAt:       primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := c.CDB.InsertOne(context.Background(), campaign); err != nil {
		config.ErrorStatus("failed to create campaign", http.StatusInternalServerError, w, err)
		return
	}

	filter := bson.M{"_id": iID}
	update := bson.M{"$set": bson.M{"hasDonationCampaign": true}}
	if _, err := c.IDB.UpdateOne(context.Background(), filter, update); err != nil {
		zap.S().Errorw("failed to flag incident, removing orphan campaign",
			"incident", incidentID,
			"campaign", campaign.ID.Hex(),
			"error", err)
		if delErr := c.CDB.DeleteOne(context.Background(), bson.M{"_id": campaign.ID}); delErr != nil {
			// the reconciliation sweep will pick this one up
			zap.S().Errorw("failed to remove orphan campaign",
				"campaign", campaign.ID.Hex(),
				"error", delErr)
		}
		config.ErrorStatus("failed to enable campaign", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(campaign)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CampaignByIncidentIDHandler returns the campaign opened for an incident
func (c Campaign) CampaignByIncidentIDHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := c.CDB.FindOne(context.Background(), bson.M{"incidentId": iID})
	if err != nil {
		config.ErrorStatus("failed to get campaign by incident ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CampaignHandler returns every campaign joined with its incident details.
// Campaigns whose incident has disappeared are skipped, not errored.
func (c Campaign) CampaignHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := c.CDB.Find(context.Background(), bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get campaigns", http.StatusNotFound, w, err)
		return
	}

	details := []models.CampaignDetails{}
	for _, campaign := range campaigns {
		incident, err := c.IDB.FindOne(context.Background(), bson.M{"_id": campaign.IncidentID})
		if err != nil {
			zap.S().Warnw("campaign references missing incident",
				"campaign", campaign.ID.Hex(),
				"incident", campaign.IncidentID.Hex())
			continue
		}
		details = append(details, models.CampaignDetails{
			Campaign:    campaign,
			Title:       incident.Title,
			Description: incident.Description,
			ImageURL:    incident.ImageURL,
		})
	}

	b, err := json.Marshal(details)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
