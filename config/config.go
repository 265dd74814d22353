package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL           string
	DatabaseName  string
	BaseURL       string
	Port          string
	AdminEmails   []string
	AdminSecret   string
	StripeKey     string
	CloudinaryURL string
	SendgridKey   string
}

// New sets up all config related services
func New() *Config {

	// local development reads a .env file; deployed environments rely on
	// the process environment only
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:           os.Getenv("DB_URI"),
		DatabaseName:  os.Getenv("DB_NAME"),
		BaseURL:       os.Getenv("BASE_URL"),
		Port:          os.Getenv("PORT"),
		AdminEmails:   splitEmails(os.Getenv("ADMIN_EMAILS")),
		AdminSecret:   os.Getenv("ADMIN_JWT_SECRET"),
		StripeKey:     os.Getenv("STRIPE_SECRET_KEY"),
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		SendgridKey:   os.Getenv("SENDGRID_API_KEY"),
	}
}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

func splitEmails(raw string) []string {
	var emails []string
	for _, e := range strings.Split(raw, ",") {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

// IsAdminEmail reports whether the given email is on the admin allow-list.
// The list is read once at startup and never re-evaluated for live sessions.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
