package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/config"
	"github.com/happydata/happydata-engine/pkg/database"
	"github.com/happydata/happydata-engine/pkg/handlers"
	"github.com/happydata/happydata-engine/pkg/happiness"
	"github.com/happydata/happydata-engine/pkg/logging"
	"github.com/happydata/happydata-engine/pkg/middleware"
	"github.com/happydata/happydata-engine/pkg/repositories"
	"github.com/happydata/happydata-engine/pkg/services"
	"github.com/happydata/happydata-engine/pkg/workerpool"
	"github.com/happydata/happydata-engine/pkg/worldbank"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are expected

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.DSN())),
		zap.String("worldbank_base_url", cfg.WorldBank.BaseURL),
		zap.Int("tracked_indicators", len(worldbank.TrackedIndicators)))

	ctx := context.Background()

	// Migrations run through database/sql; the pool below is pgx-native.
	migrationDB, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.DSN(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	countryRepo := repositories.NewCountryRepository(db)
	indicatorRepo := repositories.NewIndicatorRepository(db)
	dataRepo := repositories.NewCountryDataRepository(db)
	happinessRepo := repositories.NewHappinessRepository(db)
	runRepo := repositories.NewIngestionRunRepository(db)

	wbClient := worldbank.NewClient(&cfg.WorldBank, cfg.Version, logger)
	parser := happiness.NewParser(&cfg.Happiness, logger)
	pool := workerpool.New(workerpool.Config{MaxConcurrent: cfg.WorldBank.MaxConcurrent}, logger)

	ingestService := services.NewIngestService(
		wbClient, parser, countryRepo, indicatorRepo, dataRepo, happinessRepo,
		runRepo, pool, logger)
	dataService := services.NewDataService(
		countryRepo, indicatorRepo, dataRepo, happinessRepo, runRepo, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDataHandler(dataService, logger).RegisterRoutes(mux)
	handlers.NewAdminHandler(ingestService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting happydata-engine",
		zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger, or a human-readable development one
// for local runs.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
