// Package worldbank is a read-only client for the World Bank open data API.
//
// Every fetch degrades to an empty result on failure: network errors,
// non-2xx statuses, and malformed bodies are logged and swallowed at this
// boundary so a bad upstream day never aborts an ingestion batch.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/config"
	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/retry"
)

// Client provides access to the World Bank API with response caching.
type Client struct {
	cfg        *config.WorldBankConfig
	httpClient *http.Client
	cache      *responseCache
	retryCfg   *retry.Config
	userAgent  string
	logger     *zap.Logger
}

// NewClient creates a new World Bank API client.
func NewClient(cfg *config.WorldBankConfig, version string, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		cache:     newResponseCache(cfg.CatalogCacheTTL(), cfg.SeriesCacheTTL()),
		retryCfg:  retry.DefaultConfig(),
		userAgent: "happydata-engine/" + version,
		logger:    logger.Named("worldbank"),
	}
}

// Countries fetches the country catalog, filtering out aggregate
// pseudo-countries (regional and income groupings). Returns an empty slice
// on any upstream failure.
func (c *Client) Countries(ctx context.Context) []models.Country {
	records := c.get(ctx, "country", nil, false)

	countries := make([]models.Country, 0, len(records))
	for _, raw := range records {
		var wc wireCountry
		if err := json.Unmarshal(raw, &wc); err != nil {
			c.logger.Warn("Skipping malformed country record", zap.Error(err))
			continue
		}
		if wc.isAggregate() {
			continue
		}
		countries = append(countries, wc.toModel())
	}
	return countries
}

// Indicator fetches the metadata for one indicator code. Returns nil when the
// code is unknown upstream or the request fails; an unrecognized code never
// fails a batch.
func (c *Client) Indicator(ctx context.Context, indicatorID string) *models.Indicator {
	records := c.get(ctx, "indicator/"+url.PathEscape(indicatorID), nil, false)
	if len(records) == 0 {
		return nil
	}

	var wi wireIndicator
	if err := json.Unmarshal(records[0], &wi); err != nil {
		c.logger.Warn("Skipping malformed indicator record",
			zap.String("indicator", indicatorID), zap.Error(err))
		return nil
	}

	ind := wi.toModel()
	return &ind
}

// Observations fetches the time series for one (country, indicator) pair over
// the configured retrieval window. Null-valued observations are dropped during
// normalization; they must never reach storage. Returns an empty slice on
// any upstream failure.
func (c *Client) Observations(ctx context.Context, countryID, indicatorID string) []models.CountryData {
	params := url.Values{}
	params.Set("date", fmt.Sprintf("%d:%d", c.cfg.StartYear, c.cfg.EndYear))

	resource := fmt.Sprintf("country/%s/indicator/%s",
		url.PathEscape(countryID), url.PathEscape(indicatorID))
	records := c.get(ctx, resource, params, true)

	observations := make([]models.CountryData, 0, len(records))
	for _, raw := range records {
		var wo wireObservation
		if err := json.Unmarshal(raw, &wo); err != nil {
			c.logger.Warn("Skipping malformed observation record",
				zap.String("country", countryID),
				zap.String("indicator", indicatorID),
				zap.Error(err))
			continue
		}

		obs := wo.toModel()
		if obs.Value == nil {
			continue
		}
		observations = append(observations, obs)
	}
	return observations
}

// get fetches a resource through the response cache and decodes the
// 2-element envelope. All failure modes return nil.
func (c *Client) get(ctx context.Context, resource string, params url.Values, series bool) []json.RawMessage {
	if params == nil {
		params = url.Values{}
	}
	params.Set("format", "json")
	params.Set("per_page", strconv.Itoa(c.cfg.PageSize))

	cacheKey := resource + "?" + params.Encode()
	if body, ok := c.cache.get(cacheKey, series); ok {
		if records, ok := decodeEnvelope(body); ok {
			return records
		}
	}

	body, err := c.do(ctx, resource, params)
	if err != nil {
		c.logger.Error("Upstream request failed, degrading to empty result",
			zap.String("resource", resource), zap.Error(err))
		return nil
	}

	records, ok := decodeEnvelope(body)
	if !ok {
		// Not cached: the next call must reach upstream, which may have
		// recovered, instead of replaying a broken body for the full TTL.
		c.logger.Error("Malformed upstream response, degrading to empty result",
			zap.String("resource", resource))
		return nil
	}
	c.cache.set(cacheKey, body, series)
	return records
}

// do performs the HTTP GET with bounded retries for transient failures.
func (c *Client) do(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	endpoint := c.cfg.BaseURL + "/" + resource + "?" + params.Encode()

	var body []byte
	err := retry.Do(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
