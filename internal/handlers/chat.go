package handlers

import (
	"net/http"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles match conversations
type ChatHandler struct {
	chat *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ListMessages handles GET /api/chat/matches/{id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	result, err := h.chat.ListMessages(
		r.Context(),
		chi.URLParam(r, "id"),
		middleware.GetUserID(r.Context()),
		queryInt(r, "page"),
		queryInt(r, "limit"),
	)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list messages")
		return
	}
	respondJSON(w, http.StatusOK, "", result)
}

// SendMessage handles POST /api/chat/matches/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req services.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.chat.SendMessage(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to send message")
		return
	}
	respondJSON(w, http.StatusCreated, "Message sent", map[string]any{"message": message})
}

// MarkRead handles PUT /api/chat/messages/{id}/read
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.MarkRead(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to mark message read")
		return
	}
	respondJSON(w, http.StatusOK, "Message marked as read", nil)
}

// DeleteMessage handles DELETE /api/chat/messages/{id}
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.DeleteMessage(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to delete message")
		return
	}
	respondJSON(w, http.StatusOK, "Message deleted", nil)
}
