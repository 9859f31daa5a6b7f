package main

import (
	"time"

	"github.com/dentio/brushtrack/config"
	"github.com/dentio/brushtrack/models"
	"github.com/dentio/brushtrack/routes"
	"github.com/dentio/brushtrack/services"
	"github.com/dentio/brushtrack/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.BrushingRecord{}, &models.DailyStat{})

	// Fit the engagement model before any prediction endpoint is reachable.
	if err := services.InitClassifier(); err != nil {
		utils.Sugar.Fatalf("engagement model fit failed: %v", err)
	}

	r := routes.SetupRouter(db)

	// Background retention for daily stats (best-effort)
	utils.StartStatsPruner(time.Hour)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
