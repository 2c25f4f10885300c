package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jomondi/fleetpulse/internal/adapters/http"
	natsadapter "github.com/jomondi/fleetpulse/internal/adapters/nats"
	"github.com/jomondi/fleetpulse/internal/adapters/postgres"
	"github.com/jomondi/fleetpulse/internal/adapters/valkey"
	"github.com/jomondi/fleetpulse/internal/core/ports"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
	"github.com/jomondi/fleetpulse/internal/pkg/config"
	"github.com/jomondi/fleetpulse/internal/pkg/logging"
	"github.com/jomondi/fleetpulse/internal/pkg/metrics"
	"github.com/jomondi/fleetpulse/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("fleetpulse-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Sample pool stats for Prometheus
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Cache. A failed connect must leave the services with a nil interface,
	// not a typed-nil *valkey.Cache that would slip past their nil checks.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, running cache-less", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	vehicleRepo := postgres.NewVehicleRepo(db)
	positionRepo := postgres.NewPositionRepo(db)
	geofenceRepo := postgres.NewGeofenceRepo(db)
	billingRepo := postgres.NewBillingRepo(db)
	userRepo := postgres.NewUserRepo(db)
	templateRepo := postgres.NewTemplateRepo(db)

	// Map pipeline tuned from config
	virtOpts := usecases.DefaultVirtualizerOptions()
	virtOpts.MaxVehiclesPerView = cfg.Map.MaxVehiclesPerView
	virtOpts.Cluster = usecases.ClusterOptions{
		MaxZoom:  cfg.Map.ClusterMaxZoom,
		RadiusPx: cfg.Map.ClusterRadiusPx,
	}
	virtualizer := usecases.NewViewportVirtualizer(virtOpts)

	// Use cases
	vehicleSvc := usecases.NewVehicleService(vehicleRepo, positionRepo, cacheSvc)
	mapSvc := usecases.NewMapService(positionRepo, virtualizer)
	feeSvc := usecases.NewFeeService(billingRepo, cacheSvc)
	geofenceSvc := usecases.NewGeofenceService(geofenceRepo, nc)
	userSvc := usecases.NewUserService(userRepo)
	templateSvc := usecases.NewTemplateService(templateRepo)
	importSvc := usecases.NewImportService(vehicleRepo, userRepo)

	deps := &http.Dependencies{
		Vehicles:  vehicleSvc,
		Map:       mapSvc,
		Fees:      feeSvc,
		Geofences: geofenceSvc,
		Users:     userSvc,
		Templates: templateSvc,
		Importer:  importSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    10 * 1024 * 1024, // 10 MB: CSV imports come through the body
		AppName:      "FleetPulse API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.fleetpulse.app",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
