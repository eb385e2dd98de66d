package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/apperrors"
	"github.com/happydata/happydata-engine/pkg/repositories"
	"github.com/happydata/happydata-engine/pkg/services"
)

// DataHandler serves the read-only query surface over the persisted datasets.
type DataHandler struct {
	data   services.DataService
	logger *zap.Logger
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(data services.DataService, logger *zap.Logger) *DataHandler {
	return &DataHandler{data: data, logger: logger}
}

// RegisterRoutes registers the data handler's routes on the given mux.
func (h *DataHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/countries", h.ListCountries)
	mux.HandleFunc("GET /api/v1/countries/{code}", h.GetCountry)
	mux.HandleFunc("GET /api/v1/indicators", h.ListIndicators)
	mux.HandleFunc("GET /api/v1/indicators/{code}", h.GetIndicator)
	mux.HandleFunc("GET /api/v1/countries/{code}/indicators/{indicator}", h.GetSeries)
	mux.HandleFunc("GET /api/v1/countries/{code}/happiness", h.GetCountryHappiness)
	mux.HandleFunc("GET /api/v1/happiness", h.ListHappiness)
	mux.HandleFunc("GET /api/v1/happiness/regional", h.GetRegionalHappiness)
	mux.HandleFunc("GET /api/v1/regions/{region}/indicators/{code}/{year}", h.GetRegionalSnapshot)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
}

// ListCountries handles GET /api/v1/countries?region=
func (h *DataHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.data.Countries(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		h.internalError(w, "Failed to list countries", err)
		return
	}
	h.writeJSON(w, countries)
}

// GetCountry handles GET /api/v1/countries/{code}
func (h *DataHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	country, err := h.data.Country(r.Context(), r.PathValue("code"))
	if err != nil {
		h.lookupError(w, err)
		return
	}
	h.writeJSON(w, country)
}

// ListIndicators handles GET /api/v1/indicators
func (h *DataHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.data.Indicators(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list indicators", err)
		return
	}
	h.writeJSON(w, indicators)
}

// GetIndicator handles GET /api/v1/indicators/{code}
func (h *DataHandler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	indicator, err := h.data.Indicator(r.Context(), r.PathValue("code"))
	if err != nil {
		h.lookupError(w, err)
		return
	}
	h.writeJSON(w, indicator)
}

// GetSeries handles GET /api/v1/countries/{code}/indicators/{indicator}.
// An empty series is a valid 200 response with an explanatory payload, not a
// 404: the pair exists, there just are no observations for it.
func (h *DataHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	country, indicator, series, err := h.data.Series(r.Context(),
		r.PathValue("code"), r.PathValue("indicator"))
	if err != nil {
		h.lookupError(w, err)
		return
	}

	if len(series) == 0 {
		h.writeJSON(w, map[string]string{
			"error":     "no data available for this country/indicator combination",
			"country":   country.Name,
			"indicator": indicator.Name,
		})
		return
	}
	h.writeJSON(w, series)
}

// GetCountryHappiness handles GET /api/v1/countries/{code}/happiness
func (h *DataHandler) GetCountryHappiness(w http.ResponseWriter, r *http.Request) {
	_, rows, err := h.data.CountryHappiness(r.Context(), r.PathValue("code"))
	if err != nil {
		h.lookupError(w, err)
		return
	}
	h.writeJSON(w, rows)
}

// ListHappiness handles GET /api/v1/happiness?year=&region=&country=
func (h *DataHandler) ListHappiness(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repositories.HappinessFilter{
		Region:  query.Get("region"),
		Country: query.Get("country"),
	}
	if rawYear := query.Get("year"); rawYear != "" {
		year, err := strconv.Atoi(rawYear)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_year", "year must be an integer")
			return
		}
		filter.Year = year
	}

	rows, err := h.data.Happiness(r.Context(), filter)
	if err != nil {
		h.internalError(w, "Failed to list happiness data", err)
		return
	}
	h.writeJSON(w, rows)
}

// GetRegionalHappiness handles GET /api/v1/happiness/regional?year=
func (h *DataHandler) GetRegionalHappiness(w http.ResponseWriter, r *http.Request) {
	var year int
	if rawYear := r.URL.Query().Get("year"); rawYear != "" {
		parsed, err := strconv.Atoi(rawYear)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_year", "year must be an integer")
			return
		}
		year = parsed
	}

	regional, err := h.data.RegionalHappiness(r.Context(), year)
	if err != nil {
		h.internalError(w, "Failed to compute regional happiness", err)
		return
	}
	h.writeJSON(w, regional)
}

// GetRegionalSnapshot handles GET /api/v1/regions/{region}/indicators/{code}/{year}
func (h *DataHandler) GetRegionalSnapshot(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_year", "year must be an integer")
		return
	}

	snapshot, err := h.data.RegionalSnapshot(r.Context(),
		r.PathValue("region"), r.PathValue("code"), year)
	if err != nil {
		h.lookupError(w, err)
		return
	}
	h.writeJSON(w, snapshot)
}

// ListRuns handles GET /api/v1/runs?limit=
func (h *DataHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.data.Runs(r.Context(), limit)
	if err != nil {
		h.internalError(w, "Failed to list ingestion runs", err)
		return
	}
	h.writeJSON(w, runs)
}

// lookupError maps the not-found sentinels to 404s so callers can tell which
// part of a compound lookup failed.
func (h *DataHandler) lookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrCountryNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "country_not_found", "country not found")
	case errors.Is(err, apperrors.ErrIndicatorNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "indicator_not_found", "indicator not found")
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "not found")
	default:
		h.internalError(w, "Lookup failed", err)
	}
}

func (h *DataHandler) internalError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, zap.Error(err))
	_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", message)
}

func (h *DataHandler) writeJSON(w http.ResponseWriter, data interface{}) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
