package handlers

import (
	"net/http"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/go-chi/chi/v5"
)

// MatchHandler handles swipe and match endpoints
type MatchHandler struct {
	matches *services.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matches *services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// List handles GET /api/matches
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matches.ListMatches(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list matches")
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]any{"matches": matches})
}

// Swipe handles POST /api/matches/swipe
func (h *MatchHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	var req services.SwipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.matches.RecordSwipe(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to record swipe")
		return
	}

	message := "Swipe recorded"
	if result.IsMatch {
		message = "It's a match!"
	}
	respondJSON(w, http.StatusOK, message, result)
}

// Get handles GET /api/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	match, err := h.matches.GetMatch(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get match")
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]any{"match": match})
}

// Unmatch handles DELETE /api/matches/{id}
func (h *MatchHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.Unmatch(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to unmatch")
		return
	}
	respondJSON(w, http.StatusOK, "Unmatched successfully", nil)
}

// Block handles POST /api/matches/{id}/block
func (h *MatchHandler) Block(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.Block(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to block user")
		return
	}
	respondJSON(w, http.StatusOK, "User blocked successfully", nil)
}
