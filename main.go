package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"eformboard/adapters/fleetasset"
	"eformboard/adapters/tabular"
	"eformboard/app"
	"eformboard/internal/config"
	"eformboard/internal/fleet"
	"eformboard/internal/ingest"
	"eformboard/ports"
	"eformboard/ui"
)

func main() {
	// Load .env if present; environment variables win
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	reader := tabular.NewReader()
	loader := ingest.NewLoader(reader)

	// The default fleet reference is injected from configuration; a nil
	// source means uploads without a fleet file run without enrichment.
	var defaultSource ports.FleetSource
	if cfg.Data.DefaultFleetFile != "" {
		defaultSource = fleetasset.NewFileSource(cfg.Data.DefaultFleetFile, cfg.Data.DefaultFleetSheet)
		log.Printf("[Main] Default fleet reference: %s", cfg.Data.DefaultFleetFile)
	}
	reconciler := fleet.NewReconciler(loader, defaultSource)

	service := app.NewDashboardService(loader, reconciler, cfg.Roles)
	server := ui.NewServer(service, reader, cfg.Data.MaxUploadBytes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg.Server.Port); err != nil {
		log.Fatalf("[Main] Server error: %v", err)
	}
}
