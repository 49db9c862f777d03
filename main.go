package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/QuickRoll12/quickroll-backend/config"
	"github.com/QuickRoll12/quickroll-backend/database"
	"github.com/QuickRoll12/quickroll-backend/fraud"
	"github.com/QuickRoll12/quickroll-backend/handlers"
	"github.com/QuickRoll12/quickroll-backend/redemption"
	"github.com/QuickRoll12/quickroll-backend/sessions"
	"github.com/QuickRoll12/quickroll-backend/verify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// databases
	store, err := database.OpenStore(cfg.FraudDBPath)
	if err != nil {
		log.Fatal(err)
	}
	profiles, err := database.OpenProfileDB(cfg.ProfileDBPath)
	if err != nil {
		log.Fatal(err)
	}

	// core
	registry := sessions.NewRegistry(cfg.GridRows, cfg.GridCols)
	hub := handlers.NewHub()
	manager := sessions.NewManager(registry, hub, store, cfg.RotationInterval)
	guard := fraud.NewGuard(store, cfg.RecentWindow, cfg.MultiUserWindow, cfg.DeviceUserCap)
	geo := fraud.NewRoundRobin(fraud.DefaultProviders(cfg.GeoTimeout)...)

	var photos redemption.PhotoVerifier
	if cfg.PhotoVerifyURL != "" {
		photos = verify.NewHTTPVerifier(cfg.PhotoVerifyURL, cfg.PhotoVerifyTimeout)
	}

	pipeline := redemption.NewPipeline(
		registry, guard, store, geo, profiles, photos, store, hub,
		cfg.RecentWindow, cfg.AllowedCountry, cfg.RequirePhoto,
	)

	// router
	router := gin.Default()
	api := handlers.NewAPI(manager, pipeline, hub, cfg.AllowedOrigins)
	api.Routes(router)

	log.Println("listening on", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
