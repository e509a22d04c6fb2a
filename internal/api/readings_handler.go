// Package api exposes the stored readings over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/homemetrics/backend/internal/repository"
)

// Error codes for reading queries.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// APIResponse represents the standard API response format.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError represents the error detail in an API response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TemperatureReadingsResponse lists stored temperature readings.
type TemperatureReadingsResponse struct {
	Readings []repository.TemperatureRow `json:"readings"`
	Count    int                         `json:"count"`
}

// PoolReadingsResponse lists stored pool chemistry readings.
type PoolReadingsResponse struct {
	Readings []repository.PoolRow `json:"readings"`
	Count    int                  `json:"count"`
}

// ReadingsHandler handles HTTP requests for stored readings.
type ReadingsHandler struct {
	repo   repository.ReadingRepository
	logger *slog.Logger
}

func NewReadingsHandler(repo repository.ReadingRepository, logger *slog.Logger) *ReadingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingsHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListTemperature handles GET /api/v1/readings/temperature
func (h *ReadingsHandler) ListTemperature(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	sensor := r.URL.Query().Get("sensor")

	rows, err := h.repo.LatestTemperature(r.Context(), sensor, limit)
	if err != nil {
		h.logger.Error("failed to list temperature readings", "error", err)
		h.writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to list temperature readings")
		return
	}

	h.writeSuccess(w, http.StatusOK, TemperatureReadingsResponse{
		Readings: rows,
		Count:    len(rows),
	})
}

// ListPool handles GET /api/v1/readings/pool
func (h *ReadingsHandler) ListPool(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)

	rows, err := h.repo.LatestPool(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list pool readings", "error", err)
		h.writeError(w, http.StatusInternalServerError, CodeInternalError, "Failed to list pool readings")
		return
	}

	h.writeSuccess(w, http.StatusOK, PoolReadingsResponse{
		Readings: rows,
		Count:    len(rows),
	})
}

func parseLimit(r *http.Request, fallback int) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return fallback
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		limit = 1000
	}
	return limit
}

// writeSuccess writes a successful JSON response.
func (h *ReadingsHandler) writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// writeError writes an error JSON response.
func (h *ReadingsHandler) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	})
}
