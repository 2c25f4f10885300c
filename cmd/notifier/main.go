// The notifier runs the Temporal worker for geofence alert dispatch and a
// JetStream subscriber that starts a workflow per alert.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/jomondi/fleetpulse/internal/adapters/nats"
	"github.com/jomondi/fleetpulse/internal/adapters/notify"
	"github.com/jomondi/fleetpulse/internal/adapters/postgres"
	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
	"github.com/jomondi/fleetpulse/internal/pkg/config"
	"github.com/jomondi/fleetpulse/internal/pkg/logging"
	"github.com/jomondi/fleetpulse/internal/workflows"
)

func main() {
	cfg, err := config.Load("fleetpulse-notifier")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	geofenceRepo := postgres.NewGeofenceRepo(db)
	userRepo := postgres.NewUserRepo(db)
	vehicleRepo := postgres.NewVehicleRepo(db)
	templateRepo := postgres.NewTemplateRepo(db)
	templateSvc := usecases.NewTemplateService(templateRepo)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.AlertDispatchWorkflow)
	w.RegisterActivity(&workflows.AlertActivities{
		Templates: templateSvc,
		Geofences: geofenceRepo,
		Users:     userRepo,
		Vehicles:  vehicleRepo,
		Notifier:  notify.NewLogNotifier(),
	})

	// Each geofence alert on the stream starts one dispatch workflow.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeGeofenceAlerts(ctx, func(ctx context.Context, alert *domain.GeofenceAlert) error {
		opts := client.StartWorkflowOptions{
			ID:        fmt.Sprintf("alert-dispatch-%s", alert.ID),
			TaskQueue: cfg.Temporal.TaskQueue,
		}
		input := workflows.AlertDispatchInput{
			AlertID:   alert.ID,
			VehicleID: alert.VehicleID,
			ZoneName:  alert.ZoneName,
			Event:     string(alert.Event),
			Time:      alert.Time.Format(time.RFC3339),
		}
		_, err := c.ExecuteWorkflow(ctx, opts, workflows.AlertDispatchWorkflow, input)
		if err != nil {
			slog.Error("start dispatch workflow failed", "alert_id", alert.ID, "error", err)
		}
		return err
	})
	if err != nil {
		log.Fatalf("subscribe geofence alerts: %v", err)
	}

	slog.Info("notifier worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
