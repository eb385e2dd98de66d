package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/apperrors"
	"github.com/happydata/happydata-engine/pkg/countrymap"
	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/repositories"
	"github.com/happydata/happydata-engine/pkg/workerpool"
	"github.com/happydata/happydata-engine/pkg/worldbank"
)

// WorldBankClient is the upstream surface the ingest service consumes. All
// methods degrade to empty results on upstream failure.
type WorldBankClient interface {
	Countries(ctx context.Context) []models.Country
	Indicator(ctx context.Context, indicatorID string) *models.Indicator
	Observations(ctx context.Context, countryID, indicatorID string) []models.CountryData
}

// HappinessParser reads a World Happiness Report workbook into rows.
type HappinessParser interface {
	ParseFile(path string) []models.HappinessData
}

// IngestService populates and refreshes the stored datasets. Every operation
// is an idempotent batch of upserts: interrupting a batch and rerunning it
// converges to the same state. Each operation records an ingestion run and
// returns it with the created/updated counts filled in.
type IngestService interface {
	// RefreshCountries pulls the country catalog and upserts it.
	RefreshCountries(ctx context.Context) (*models.IngestionRun, error)

	// RefreshIndicators pulls metadata for every tracked indicator code and
	// upserts it. Codes unknown upstream are skipped.
	RefreshIndicators(ctx context.Context) (*models.IngestionRun, error)

	// RefreshObservations fans out one time-series fetch per stored
	// (country, indicator) pair with bounded concurrency. A failed pair is
	// logged and skipped; the batch always runs to completion.
	RefreshObservations(ctx context.Context) (*models.IngestionRun, error)

	// IngestHappiness parses the workbook at path, reconciles each row's
	// country name to a stored country, and upserts the rows. Unreconciled
	// rows are persisted without a country link and their names returned.
	IngestHappiness(ctx context.Context, path string) (*models.IngestionRun, []string, error)
}

// ingestService implements IngestService.
type ingestService struct {
	wb         WorldBankClient
	parser     HappinessParser
	countries  repositories.CountryRepository
	indicators repositories.IndicatorRepository
	data       repositories.CountryDataRepository
	happiness  repositories.HappinessRepository
	runs       repositories.IngestionRunRepository
	pool       *workerpool.Pool
	logger     *zap.Logger
}

// NewIngestService creates the ingest service.
func NewIngestService(
	wb WorldBankClient,
	parser HappinessParser,
	countries repositories.CountryRepository,
	indicators repositories.IndicatorRepository,
	data repositories.CountryDataRepository,
	happiness repositories.HappinessRepository,
	runs repositories.IngestionRunRepository,
	pool *workerpool.Pool,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		wb:         wb,
		parser:     parser,
		countries:  countries,
		indicators: indicators,
		data:       data,
		happiness:  happiness,
		runs:       runs,
		pool:       pool,
		logger:     logger.Named("ingest"),
	}
}

func (s *ingestService) RefreshCountries(ctx context.Context) (*models.IngestionRun, error) {
	started := time.Now()

	fetched := s.wb.Countries(ctx)
	if len(fetched) == 0 {
		s.logger.Warn("Country catalog fetch returned no records")
		return s.recordRun(ctx, models.RunKindCountries, started, 0, 0, 0, "upstream returned no records"), nil
	}

	created, updated, err := s.countries.UpsertAll(ctx, fetched)
	if err != nil {
		return nil, fmt.Errorf("failed to store countries: %w", err)
	}

	s.logger.Info("Refreshed countries",
		zap.Int("created", created), zap.Int("updated", updated))
	return s.recordRun(ctx, models.RunKindCountries, started, created, updated, 0, ""), nil
}

func (s *ingestService) RefreshIndicators(ctx context.Context) (*models.IngestionRun, error) {
	started := time.Now()

	fetched := make([]models.Indicator, 0, len(worldbank.TrackedIndicators))
	for _, code := range worldbank.TrackedIndicators {
		ind := s.wb.Indicator(ctx, code)
		if ind == nil {
			s.logger.Warn("Skipping indicator with no upstream metadata",
				zap.String("indicator", code))
			continue
		}
		fetched = append(fetched, *ind)
	}

	if len(fetched) == 0 {
		return s.recordRun(ctx, models.RunKindIndicators, started, 0, 0, 0, "upstream returned no records"), nil
	}

	created, updated, err := s.indicators.UpsertAll(ctx, fetched)
	if err != nil {
		return nil, fmt.Errorf("failed to store indicators: %w", err)
	}

	s.logger.Info("Refreshed indicators",
		zap.Int("created", created), zap.Int("updated", updated))
	return s.recordRun(ctx, models.RunKindIndicators, started, created, updated, 0, ""), nil
}

// pairCounts carries per-pair upsert totals through the worker pool.
type pairCounts struct {
	created int
	updated int
}

func (s *ingestService) RefreshObservations(ctx context.Context) (*models.IngestionRun, error) {
	started := time.Now()

	countries, err := s.countries.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	indicators, err := s.indicators.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicators: %w", err)
	}
	if len(countries) == 0 || len(indicators) == 0 {
		return nil, errors.New("no stored countries or indicators; run the catalog refreshes first")
	}

	tasks := make([]workerpool.Task[pairCounts], 0, len(countries)*len(indicators))
	for _, country := range countries {
		for _, indicator := range indicators {
			countryID, indicatorID := country.ID, indicator.ID
			tasks = append(tasks, workerpool.Task[pairCounts]{
				ID: countryID + "/" + indicatorID,
				Execute: func(ctx context.Context) (pairCounts, error) {
					observations := s.wb.Observations(ctx, countryID, indicatorID)
					created, updated, err := s.data.UpsertSeries(ctx, observations)
					return pairCounts{created: created, updated: updated}, err
				},
			})
		}
	}

	s.logger.Info("Starting observation fan-out",
		zap.Int("countries", len(countries)),
		zap.Int("indicators", len(indicators)),
		zap.Int("pairs", len(tasks)))

	results := workerpool.Process(ctx, s.pool, tasks, func(completed, total int) {
		if completed%500 == 0 || completed == total {
			s.logger.Info("Observation fan-out progress",
				zap.Int("completed", completed), zap.Int("total", total))
		}
	})

	var created, updated, failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
			s.logger.Warn("Observation pair failed",
				zap.String("pair", result.ID), zap.Error(result.Err))
			continue
		}
		created += result.Result.created
		updated += result.Result.updated
	}

	note := ""
	if failed > 0 {
		note = fmt.Sprintf("%d of %d pairs failed", failed, len(tasks))
	}

	s.logger.Info("Refreshed observations",
		zap.Int("created", created), zap.Int("updated", updated),
		zap.Int("failed_pairs", failed))
	return s.recordRun(ctx, models.RunKindObservations, started, created, updated, 0, note), nil
}

func (s *ingestService) IngestHappiness(ctx context.Context, path string) (*models.IngestionRun, []string, error) {
	started := time.Now()

	records := s.parser.ParseFile(path)
	if len(records) == 0 {
		s.logger.Warn("Happiness workbook yielded no records", zap.String("path", path))
		return s.recordRun(ctx, models.RunKindHappiness, started, 0, 0, 0, "no records parsed"), nil, nil
	}

	unmatchedSet := make(map[string]struct{})
	for i := range records {
		record := &records[i]

		code, ok := countrymap.Code(record.CountryName)
		if !ok {
			unmatchedSet[record.CountryName] = struct{}{}
			continue
		}

		country, err := s.countries.GetByCode(ctx, code)
		if errors.Is(err, apperrors.ErrCountryNotFound) {
			unmatchedSet[record.CountryName] = struct{}{}
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve country %s: %w", code, err)
		}

		record.CountryID = &country.ID
		if record.Region == "" {
			record.Region = country.RegionValue
		}
	}

	created, updated, err := s.happiness.UpsertAll(ctx, records)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store happiness rows: %w", err)
	}

	unmatched := make([]string, 0, len(unmatchedSet))
	for name := range unmatchedSet {
		unmatched = append(unmatched, name)
	}
	sort.Strings(unmatched)

	if len(unmatched) > 0 {
		s.logger.Warn("Unmatched country names in happiness workbook",
			zap.Int("count", len(unmatched)),
			zap.String("names", countrymap.FormatUnmatched(unmatched, 10)))
	}
	s.logger.Info("Ingested happiness data",
		zap.Int("created", created), zap.Int("updated", updated),
		zap.Int("unmatched", len(unmatched)))

	run := s.recordRun(ctx, models.RunKindHappiness, started, created, updated, len(unmatched), "")
	return run, unmatched, nil
}

// recordRun persists a finished run. Recording is best-effort: a failure to
// write the audit row never fails the batch that produced it.
func (s *ingestService) recordRun(ctx context.Context, kind string, started time.Time, created, updated, unmatched int, note string) *models.IngestionRun {
	finished := time.Now()
	run := &models.IngestionRun{
		Kind:       kind,
		StartedAt:  started,
		FinishedAt: &finished,
		Created:    created,
		Updated:    updated,
		Unmatched:  unmatched,
		Note:       note,
	}
	if err := s.runs.Record(ctx, run); err != nil {
		s.logger.Error("Failed to record ingestion run",
			zap.String("kind", kind), zap.Error(err))
	}
	return run
}
