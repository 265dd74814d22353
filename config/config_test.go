package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	os.Setenv("ADMIN_EMAILS", "admin@example.com, Second@Example.com")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, []string{"admin@example.com", "second@example.com"}, conf.AdminEmails)
}

func TestIsAdminEmail(t *testing.T) {
	conf := &Config{AdminEmails: []string{"admin@example.com"}}

	assert.True(t, conf.IsAdminEmail("admin@example.com"))
	assert.True(t, conf.IsAdminEmail("  ADMIN@example.com "))
	assert.False(t, conf.IsAdminEmail("someone@example.com"))
	assert.False(t, conf.IsAdminEmail(""))
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "error it borked")
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(2))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}
