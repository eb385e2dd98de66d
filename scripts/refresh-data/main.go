// refresh-data populates the local database from the World Bank API.
//
// Runs the three refresh batches in dependency order: countries, then
// indicator metadata, then the per-(country, indicator) observation fan-out.
// Every write is an idempotent upsert, so rerunning after an interruption is
// safe and converges to the same state.
//
// Usage: go run ./scripts/refresh-data [-skip-observations]
//
// Database connection: config.yaml or standard PG* environment variables.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/config"
	"github.com/happydata/happydata-engine/pkg/database"
	"github.com/happydata/happydata-engine/pkg/happiness"
	"github.com/happydata/happydata-engine/pkg/logging"
	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/repositories"
	"github.com/happydata/happydata-engine/pkg/services"
	"github.com/happydata/happydata-engine/pkg/workerpool"
	"github.com/happydata/happydata-engine/pkg/worldbank"
)

func main() {
	skipObservations := flag.Bool("skip-observations", false,
		"Refresh only the country and indicator catalogs")
	flag.Parse()

	cfg, err := config.Load("dev")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are expected

	ctx := context.Background()

	logger.Info("Connecting",
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.DSN())))

	migrationDB, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.DSN(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	ingest := services.NewIngestService(
		worldbank.NewClient(&cfg.WorldBank, cfg.Version, logger),
		happiness.NewParser(&cfg.Happiness, logger),
		repositories.NewCountryRepository(db),
		repositories.NewIndicatorRepository(db),
		repositories.NewCountryDataRepository(db),
		repositories.NewHappinessRepository(db),
		repositories.NewIngestionRunRepository(db),
		workerpool.New(workerpool.Config{MaxConcurrent: cfg.WorldBank.MaxConcurrent}, logger),
		logger,
	)

	batches := []struct {
		name string
		run  func(context.Context) (*models.IngestionRun, error)
	}{
		{"countries", ingest.RefreshCountries},
		{"indicators", ingest.RefreshIndicators},
	}
	if !*skipObservations {
		batches = append(batches, struct {
			name string
			run  func(context.Context) (*models.IngestionRun, error)
		}{"observations", ingest.RefreshObservations})
	}

	for _, batch := range batches {
		run, err := batch.run(ctx)
		if err != nil {
			logger.Fatal("Batch failed", zap.String("batch", batch.name), zap.Error(err))
		}
		fmt.Printf("%-12s %d created, %d updated", batch.name, run.Created, run.Updated)
		if run.Note != "" {
			fmt.Printf(" (%s)", run.Note)
		}
		fmt.Println()
	}
}
