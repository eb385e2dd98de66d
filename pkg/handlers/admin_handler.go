package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/services"
)

// AdminHandler exposes the population batches over HTTP so operators can
// trigger a refresh without shell access. Requests run synchronously; the
// observation fan-out can take minutes.
type AdminHandler struct {
	ingest services.IngestService
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ingest services.IngestService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{ingest: ingest, logger: logger}
}

// RegisterRoutes registers the admin handler's routes on the given mux.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/admin/refresh/{kind}", h.Refresh)
	mux.HandleFunc("POST /api/v1/admin/happiness", h.IngestHappiness)
}

// Refresh handles POST /api/v1/admin/refresh/{kind} for
// kind is one of countries, indicators, or observations.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")

	var run *models.IngestionRun
	var err error
	switch kind {
	case models.RunKindCountries:
		run, err = h.ingest.RefreshCountries(r.Context())
	case models.RunKindIndicators:
		run, err = h.ingest.RefreshIndicators(r.Context())
	case models.RunKindObservations:
		run, err = h.ingest.RefreshObservations(r.Context())
	default:
		_ = ErrorResponse(w, http.StatusNotFound, "unknown_kind",
			"kind must be one of countries, indicators, observations")
		return
	}
	if err != nil {
		h.logger.Error("Refresh failed", zap.String("kind", kind), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "refresh_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, run); err != nil {
		h.logger.Error("Failed to encode refresh response", zap.Error(err))
	}
}

// happinessRequest is the body of POST /api/v1/admin/happiness.
type happinessRequest struct {
	Path string `json:"path"`
}

// happinessResponse reports an ingestion outcome including the country names
// that could not be reconciled.
type happinessResponse struct {
	Run       *models.IngestionRun `json:"run"`
	Unmatched []string             `json:"unmatched"`
}

// IngestHappiness handles POST /api/v1/admin/happiness. The workbook path is
// resolved on the server's filesystem.
func (h *AdminHandler) IngestHappiness(w http.ResponseWriter, r *http.Request) {
	var req happinessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "body must contain a path")
		return
	}

	run, unmatched, err := h.ingest.IngestHappiness(r.Context(), req.Path)
	if err != nil {
		h.logger.Error("Happiness ingestion failed", zap.String("path", req.Path), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "ingestion_failed", err.Error())
		return
	}

	response := happinessResponse{Run: run, Unmatched: unmatched}
	if response.Unmatched == nil {
		response.Unmatched = []string{}
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ingestion response", zap.Error(err))
	}
}
