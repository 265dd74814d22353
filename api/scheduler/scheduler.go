// Package scheduler runs the periodic reconciliation jobs
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/databases"
)

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron *cron.Cron
	IDB  databases.IncidentDatabase
	CDB  databases.CampaignDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(idb databases.IncidentDatabase, cdb databases.CampaignDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		IDB:  idb,
		CDB:  cdb,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Reconcile campaign flags daily at 3 AM UTC. The job is idempotent, so
	// no cross-instance lock is taken.
	_, err := s.cron.AddFunc("0 3 * * *", s.reconcileCampaignFlags)
	if err != nil {
		zap.S().Errorw("failed to register campaign flag job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("reconciliation scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("reconciliation scheduler stopped")
}

// reconcileCampaignFlags clears hasDonationCampaign on incidents that have
// no backing campaign row. These appear when a compensating delete after a
// failed campaign enable also failed.
func (s *Scheduler) reconcileCampaignFlags() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	flagged, err := s.IDB.Find(ctx, bson.M{"hasDonationCampaign": true})
	if err != nil {
		zap.S().Errorw("failed to find flagged incidents", "error", err)
		return
	}

	cleared := 0
	for _, incident := range flagged {
		count, err := s.CDB.CountDocuments(ctx, bson.M{"incidentId": incident.ID})
		if err != nil {
			zap.S().Errorw("failed to count campaigns for incident",
				"incident", incident.ID.Hex(),
				"error", err)
			continue
		}
		if count > 0 {
			continue
		}

		filter := bson.M{"_id": incident.ID}
		update := bson.M{"$set": bson.M{"hasDonationCampaign": false}}
		if _, err := s.IDB.UpdateOne(ctx, filter, update); err != nil {
			zap.S().Errorw("failed to clear campaign flag",
				"incident", incident.ID.Hex(),
				"error", err)
			continue
		}
		cleared++
		zap.S().Infow("cleared campaign flag with no backing campaign",
			"incident", incident.ID.Hex())
	}

	zap.S().Infow("campaign flag reconciliation finished",
		"flagged", len(flagged),
		"cleared", cleared)
}
