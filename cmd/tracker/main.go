// The tracker polls the GP51 webapi on an interval and feeds position
// batches through the tracking pipeline: validation, storage, NATS
// publishing, and geofence evaluation.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jomondi/fleetpulse/internal/adapters/gp51"
	natsadapter "github.com/jomondi/fleetpulse/internal/adapters/nats"
	"github.com/jomondi/fleetpulse/internal/adapters/postgres"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
	"github.com/jomondi/fleetpulse/internal/pkg/config"
	"github.com/jomondi/fleetpulse/internal/pkg/logging"
	"github.com/jomondi/fleetpulse/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load("fleetpulse-tracker")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	if cfg.GP51.Username == "" || cfg.GP51.Password == "" {
		log.Fatal("gp51.username and gp51.password are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	vehicleRepo := postgres.NewVehicleRepo(db)
	positionRepo := postgres.NewPositionRepo(db)
	geofenceRepo := postgres.NewGeofenceRepo(db)

	geofenceSvc := usecases.NewGeofenceService(geofenceRepo, publisher)
	trackingSvc := usecases.NewTrackingService(positionRepo, vehicleRepo, publisher, geofenceSvc)

	source := gp51.New(cfg.GP51.BaseURL, cfg.GP51.Username, cfg.GP51.Password)

	go pollLoop(ctx, source, trackingSvc, cfg.GP51.PollEvery())

	slog.Info("tracker started", "poll_interval", cfg.GP51.PollEvery().String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("tracker stopping")
	cancel()
}

func pollLoop(ctx context.Context, source *gp51.Client, tracking *usecases.TrackingService, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		poll(ctx, source, tracking)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func poll(ctx context.Context, source *gp51.Client, tracking *usecases.TrackingService) {
	start := time.Now()

	pollCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	positions, err := source.FetchPositions(pollCtx)
	metrics.GP51PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GP51PollErrors.Inc()
		slog.Error("gp51 poll failed", "error", err)
		return
	}
	if len(positions) == 0 {
		return
	}

	if err := tracking.ProcessBatch(pollCtx, positions); err != nil {
		slog.Error("process batch failed", "count", len(positions), "error", err)
		return
	}

	slog.Debug("batch processed", "count", len(positions), "took", time.Since(start).String())
}
