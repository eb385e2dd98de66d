// ingest-happiness loads a World Happiness Report workbook into the database.
//
// Each row's country name is reconciled to a stored World Bank country; rows
// that cannot be reconciled are persisted without a link and reported at the
// end. Rerunning with the same file overwrites rather than duplicates.
//
// Usage: go run ./scripts/ingest-happiness <path-to-xlsx>
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
	"github.com/happydata/happydata-engine/pkg/repositories"
	"github.com/happydata/happydata-engine/pkg/services"
	"github.com/happydata/happydata-engine/pkg/workerpool"
	"github.com/happydata/happydata-engine/pkg/worldbank"
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s <path-to-xlsx>\n", os.Args[0])
		os.Exit(1)
	}
	path := args[0]

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read workbook: %v\n", err)
		os.Exit(1)
	}

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
		workerpool.New(workerpool.DefaultConfig(), logger),
		logger,
	)

	run, unmatched, err := ingest.IngestHappiness(ctx, path)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	fmt.Println(happiness.FormatSummary(run.Created, run.Updated, unmatched))
	if len(unmatched) > 0 {
		fmt.Println("Unmatched country names:")
		for _, name := range unmatched {
			fmt.Printf("  %s\n", name)
		}
	}
}
