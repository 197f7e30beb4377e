package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/rs/zerolog/log"
)

const maxJSONBody = 1 << 20

// Response is the envelope of every JSON response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respondJSON sends a successful response
func respondJSON(w http.ResponseWriter, statusCode int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(Response{Success: true, Message: message, Data: data}); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Success: false, Message: message})
}

// respondServiceError maps a service error onto a status code and message.
// Unexpected errors are logged and hidden behind a generic 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, humanize(err, services.ErrNotFound, "Not found"), http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		respondError(w, humanize(err, services.ErrForbidden, "Access denied"), http.StatusForbidden)
	case errors.Is(err, services.ErrConflict):
		respondError(w, humanize(err, services.ErrConflict, "Already exists"), http.StatusConflict)
	case errors.Is(err, services.ErrUnauthorized):
		respondError(w, humanize(err, services.ErrUnauthorized, "Unauthorized"), http.StatusUnauthorized)
	default:
		log.Error().
			Err(err).
			Str("user_id", middleware.GetUserID(r.Context())).
			Str("path", r.URL.Path).
			Msg(action)
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// humanize turns "match: not found" into "Match not found" and "only the sender...: forbidden"
// into "Only the sender..."
func humanize(err, sentinel error, fallback string) string {
	msg := err.Error()
	suffix := ": " + sentinel.Error()
	if !strings.HasSuffix(msg, suffix) {
		return fallback
	}
	msg = strings.TrimSuffix(msg, suffix)
	if sentinel == services.ErrNotFound {
		msg += " not found"
	}
	if msg == "" {
		return fallback
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, "Request body is required", http.StatusBadRequest)
			return false
		}
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter, returning 0 when absent or malformed
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// readUpload reads one multipart file field; a missing field yields an empty upload
func readUpload(r *http.Request, field string, maxBytes int64) (services.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return services.Upload{}, nil
		}
		return services.Upload{}, fmt.Errorf("failed to read %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return services.Upload{Filename: header.Filename, Data: data}, nil
}

// parseMultipart limits and parses a multipart body
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return false
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return false
	}
	return true
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "Server is running", map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound answers unmatched routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, "Route not found", http.StatusNotFound)
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
}
