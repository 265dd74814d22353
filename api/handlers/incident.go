package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/api"
	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
	"github.com/disaster-portal/disaster-portal-api/session"
)

// Incident exposes the incident report endpoints
type Incident struct {
	DB       databases.IncidentDatabase
	Sessions *session.Store
}

// CreateIncidentHandler files a new incident report. The reporter, status and
// timestamp are decided here, never taken from the request body.
func (i Incident) CreateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to resolve identity", http.StatusUnauthorized, w, nil)
		return
	}

	var req models.CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := req.Validate(); err != nil {
		config.ErrorStatus("invalid incident report", http.StatusBadRequest, w, err)
		return
	}

	incident := models.Incident{
		ID:                  primitive.NewObjectID(),
		Title:               req.Title,
		Description:         req.Description,
		Location:            req.Location,
		ImageURL:            req.ImageURL,
		Status:              models.StatusPending,
		HasDonationCampaign: false,
		UserID:              identity.UserID,
		CreatedAt:           primitive.NewDateTimeFromTime(time.Now()),
	}

	if _, err := i.DB.InsertOne(context.Background(), incident); err != nil {
		config.ErrorStatus("failed to create incident", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(incident)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// IncidentHandler returns the full incident list, newest first
func (i Incident) IncidentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := i.DB.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		config.ErrorStatus("failed to get incidents", http.StatusNotFound, w, err)
		return
	}

	// the frontend expects an empty array, not null, when there are no reports
	if dbResp == nil {
		dbResp = []models.Incident{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// IncidentsByUserIDHandler returns every incident filed by the given user,
// in store order
func (i Incident) IncidentsByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	dbResp, err := i.DB.Find(context.Background(), bson.M{"userId": userID})
	if err != nil {
		config.ErrorStatus("failed to get incidents by user id", http.StatusNotFound, w, err)
		return
	}

	if dbResp == nil {
		dbResp = []models.Incident{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// IncidentByIDHandler returns a single incident by _id
func (i Incident) IncidentByIDHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := i.DB.FindOne(context.Background(), bson.M{"_id": iID})
	if err != nil {
		config.ErrorStatus("failed to get incident by ID", http.StatusNotFound, w, err)
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

// UpdateIncidentStatusHandler moves an incident through triage. Routed behind
// the admin token middleware; the status enum is still checked here.
func (i Incident) UpdateIncidentStatusHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	iID, err := primitive.ObjectIDFromHex(incidentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidStatus(req.Status) {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w, nil)
		return
	}

	filter := bson.M{"_id": iID}
	update := bson.M{"$set": bson.M{"status": req.Status}}
	res, err := i.DB.UpdateOne(context.Background(), filter, update)
	if err != nil {
		config.ErrorStatus("failed to update incident status", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.ErrorStatus("incident not found", http.StatusNotFound, w, nil)
		return
	}

	zap.S().Infow("incident status updated",
		"incident", incidentID,
		"status", req.Status)

	b, _ := json.Marshal(map[string]interface{}{"status": req.Status})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteIncidentHandler removes an incident. The reporter may delete their
// own report; admins may delete any.
func (i Incident) DeleteIncidentHandler(w http.ResponseWriter, r *http.Request) {
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

	incident, err := i.DB.FindOne(context.Background(), bson.M{"_id": iID})
	if err != nil {
		config.ErrorStatus("failed to get incident by ID", http.StatusNotFound, w, err)
		return
	}

	if incident.UserID != identity.UserID && i.Sessions.Role(identity.UserID) != models.RoleAdmin {
		config.ErrorStatus("not allowed to delete this incident", http.StatusForbidden, w, nil)
		return
	}

	if err := i.DB.DeleteOne(context.Background(), bson.M{"_id": iID}); err != nil {
		config.ErrorStatus("failed to delete incident", http.StatusInternalServerError, w, err)
		return
	}

	b, _ := json.Marshal(map[string]interface{}{"deleted": incidentID})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
