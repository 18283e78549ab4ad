package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/store"
	"habitsAPI/services"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 16
	timezoneHeader = "X-Timezone"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

type validationResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// respondWithServiceError maps service and store errors to status codes.
// Unexpected errors are logged and reported without detail.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *habit.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, validationResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, services.ErrUnauthenticated):
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
	case errors.Is(err, services.ErrRestDay):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	default:
		logger.Error(op+" failed", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to "+op)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// requestLocation reads the caller's IANA timezone from the X-Timezone
// header. A missing or unknown name falls back to def.
func requestLocation(r *http.Request, def *time.Location) *time.Location {
	if name := r.Header.Get(timezoneHeader); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		logger.Debug("ignoring unknown timezone", "tz", name)
	}
	if def == nil {
		return time.UTC
	}
	return def
}
