// The importer loads vehicles or users into the platform from CSV files.
//
//	importer vehicles fleet.csv
//	importer users staff.csv
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jomondi/fleetpulse/internal/adapters/postgres"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
	"github.com/jomondi/fleetpulse/internal/pkg/config"
	"github.com/jomondi/fleetpulse/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: importer <vehicles|users> <file.csv>")
	}
	kind, path := os.Args[1], os.Args[2]

	cfg, err := config.Load("fleetpulse-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("info", "text")

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	importer := usecases.NewImportService(postgres.NewVehicleRepo(db), postgres.NewUserRepo(db))

	var report *usecases.ImportReport
	switch kind {
	case "vehicles":
		report, err = importer.ImportVehicles(ctx, f)
	case "users":
		report, err = importer.ImportUsers(ctx, f)
	default:
		log.Fatalf("unknown import kind: %s", kind)
	}
	if err != nil {
		log.Fatalf("import: %v", err)
	}

	fmt.Printf("imported %d, skipped %d\n", report.Imported, report.Skipped)
	for _, e := range report.Errors {
		fmt.Printf("  %s\n", e)
	}
	if report.Skipped > 0 {
		os.Exit(1)
	}
}
