// Package handlers exposes the fleet service over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-compliance/internal/fleet"
	"github.com/ukydev/fleet-compliance/internal/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Debug("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, fleet.ErrVehicleNotFound),
		errors.Is(err, fleet.ErrRouteNotFound),
		errors.Is(err, fleet.ErrHubNotFound),
		errors.Is(err, fleet.ErrStopNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fleet.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Details: map[string]interface{}{"internal": err.Error()},
		})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// parseTime reads an optional RFC 3339 timestamp or YYYY-MM-DD date from the
// query. An absent parameter yields the zero time, which the service reads as now.
func parseTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, &models.ValidationError{Field: name, Reason: "expected RFC 3339 time or YYYY-MM-DD date"}
}

type statusRequest struct {
	Status string `json:"status"`
}
