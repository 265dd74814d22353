package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/api"
	"github.com/disaster-portal/disaster-portal-api/api/scheduler"
	"github.com/disaster-portal/disaster-portal-api/config"
	"github.com/disaster-portal/disaster-portal-api/databases"
	"github.com/disaster-portal/disaster-portal-api/models"
	"github.com/disaster-portal/disaster-portal-api/session"
	"github.com/disaster-portal/disaster-portal-api/trigger"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper
	sessions *session.Store
	cld      *cloudinary.Cloudinary

	trig  *trigger.Trigger
	sched *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{
		DB:       databases.NewUserDatabase(a.dbHelper),
		Conf:     &a.Config,
		Sessions: a.sessions,
	}
	m.SetupGoGuardian()

	admin := api.AdminMiddleware(a.Config.AdminSecret)

	r := mux.NewRouter()

	u := User{DB: databases.NewUserDatabase(a.dbHelper), Conf: &a.Config}
	i := Incident{DB: databases.NewIncidentDatabase(a.dbHelper), Sessions: a.sessions}
	c := Campaign{CDB: databases.NewCampaignDatabase(a.dbHelper), IDB: databases.NewIncidentDatabase(a.dbHelper)}
	d := Donation{
		DDB:     databases.NewDonationDatabase(a.dbHelper),
		CDB:     databases.NewCampaignDatabase(a.dbHelper),
		IDB:     databases.NewIncidentDatabase(a.dbHelper),
		BaseURL: a.Config.BaseURL,
	}
	n := Notification{NDB: databases.NewNotificationDatabase(a.dbHelper)}
	cloudinaryHandler := CloudinaryHandler{Cld: a.cld}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// live feed socket, identity comes from the userId query param
	r.HandleFunc("/ws/notifications", n.HandleNotificationsWebSocket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/admin/login", http.HandlerFunc(u.AdminLoginHandler)).Methods("POST")

	apiCreate.Handle("/incident", api.Middleware(http.HandlerFunc(i.CreateIncidentHandler))).Methods("POST")
	apiCreate.Handle("/incidents", api.Middleware(http.HandlerFunc(i.IncidentHandler))).Methods("GET")
	apiCreate.Handle("/incidents/user/{user_id}", api.Middleware(http.HandlerFunc(i.IncidentsByUserIDHandler))).Methods("GET")
	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(i.IncidentByIDHandler))).Methods("GET")
	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(i.DeleteIncidentHandler))).Methods("DELETE")
	apiCreate.Handle("/incident/{incident_id}/status", admin(http.HandlerFunc(i.UpdateIncidentStatusHandler))).Methods("PUT")

	apiCreate.Handle("/incident/{incident_id}/campaign", admin(http.HandlerFunc(c.EnableCampaignHandler))).Methods("POST")
	apiCreate.Handle("/incident/{incident_id}/campaign", api.Middleware(http.HandlerFunc(c.CampaignByIncidentIDHandler))).Methods("GET")
	apiCreate.Handle("/campaigns", api.Middleware(http.HandlerFunc(c.CampaignHandler))).Methods("GET")

	apiCreate.Handle("/donation/create-checkout-session", api.Middleware(http.HandlerFunc(d.CreateCheckoutSessionHandler))).Methods("POST")
	apiCreate.Handle("/donation/record", api.Middleware(http.HandlerFunc(d.RecordDonationHandler))).Methods("POST")
	apiCreate.Handle("/donations/campaign/{campaign_id}", api.Middleware(http.HandlerFunc(d.DonationsByCampaignIDHandler))).Methods("GET")

	apiCreate.Handle("/users/{user_id}/notifications", api.Middleware(http.HandlerFunc(n.GetUserNotificationsHandler))).Methods("GET")
	apiCreate.Handle("/users/{user_id}/notifications/read-all", api.Middleware(http.HandlerFunc(n.MarkAllNotificationsReadHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}/notifications/{notification_id}/read", api.Middleware(http.HandlerFunc(n.MarkNotificationAsReadHandler))).Methods("PUT")

	apiCreate.Handle("/upload-image", api.Middleware(http.HandlerFunc(cloudinaryHandler.UploadImageHandler))).Methods("POST")
	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("disaster-portal-api has connected to the database")

	a.sessions = session.NewStore()

	// initialize stripe
	if a.Config.StripeKey == "" {
		zap.S().Warn("stripe secret key is not set, donations are disabled")
	}
	stripe.Key = a.Config.StripeKey

	// initialize cloudinary
	if a.Config.CloudinaryURL != "" {
		a.cld, err = cloudinary.NewFromURL(a.Config.CloudinaryURL)
		if err != nil {
			zap.S().With(err).Error("failed to initialize cloudinary")
			return err
		}
	}

	// incident inserts fan out to notifications through the trigger
	a.trig = trigger.New(
		databases.NewIncidentDatabase(a.dbHelper),
		databases.NewNotificationDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		a.Config.SendgridKey,
	)
	if err := a.trig.Start(); err != nil {
		zap.S().With(err).Error("failed to start incident trigger")
		return err
	}

	a.sched = scheduler.NewScheduler(
		databases.NewIncidentDatabase(a.dbHelper),
		databases.NewCampaignDatabase(a.dbHelper),
	)
	a.sched.Start()

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Shutdown stops the background workers
func (a *App) Shutdown() {
	if a.trig != nil {
		a.trig.Stop()
	}
	if a.sched != nil {
		a.sched.Stop()
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
