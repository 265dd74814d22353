package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/disaster-portal/disaster-portal-api/api/handlers"
	"github.com/disaster-portal/disaster-portal-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, workers and router
		log.Fatal(err)
	}
	defer a.Shutdown()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("disaster-portal-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
