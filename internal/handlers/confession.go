package handlers

import (
	"net/http"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/go-chi/chi/v5"
)

// ConfessionHandler handles the college confession board
type ConfessionHandler struct {
	confessions *services.ConfessionService
}

// NewConfessionHandler creates a new confession handler
func NewConfessionHandler(confessions *services.ConfessionService) *ConfessionHandler {
	return &ConfessionHandler{confessions: confessions}
}

// List handles GET /api/confessions
func (h *ConfessionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := services.ConfessionQuery{
		Category: r.URL.Query().Get("category"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}

	result, err := h.confessions.List(r.Context(), middleware.GetUserID(r.Context()), q)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list confessions")
		return
	}
	respondJSON(w, http.StatusOK, "", result)
}

// Create handles POST /api/confessions
func (h *ConfessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateConfessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	confession, err := h.confessions.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create confession")
		return
	}
	respondJSON(w, http.StatusCreated, "Confession posted", map[string]any{"confession": confession})
}

// Get handles GET /api/confessions/{id}
func (h *ConfessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	confession, err := h.confessions.Get(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get confession")
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]any{"confession": confession})
}

// Delete handles DELETE /api/confessions/{id}
func (h *ConfessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.confessions.Delete(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to delete confession")
		return
	}
	respondJSON(w, http.StatusOK, "Confession deleted", nil)
}

// React handles POST /api/confessions/{id}/react
func (h *ConfessionHandler) React(w http.ResponseWriter, r *http.Request) {
	var req services.ReactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.confessions.React(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to react to confession")
		return
	}
	respondJSON(w, http.StatusOK, "", result)
}

// Comment handles POST /api/confessions/{id}/comments
func (h *ConfessionHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var req services.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.confessions.Comment(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add comment")
		return
	}
	respondJSON(w, http.StatusCreated, "Comment added", map[string]any{"comment": comment})
}

// Reply handles POST /api/confessions/{id}/comments/{commentId}/replies
func (h *ConfessionHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req services.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.confessions.Reply(
		r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "commentId"),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add reply")
		return
	}
	respondJSON(w, http.StatusCreated, "Reply added", map[string]any{"reply": reply})
}
