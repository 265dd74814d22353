package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disaster-portal/disaster-portal-api/session"
)

var a App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func setupRouter() {
	a.sessions = session.NewStore()
	a.Router = a.New()
}

func TestUnknownRoute(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_IncidentsRouteUnauthorized(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("GET", "/api/v1/incidents", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_StatusRouteRequiresAdminToken(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("PUT", "/api/v1/incident/1234/status", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_StatusRouteRejectsGarbageToken(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("PUT", "/api/v1/incident/1234/status", nil)
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}
