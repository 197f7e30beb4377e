package handlers

import (
	"net/http"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles the notification feed
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := services.NotificationQuery{
		Type:   r.URL.Query().Get("type"),
		Unread: r.URL.Query().Get("unread") == "true",
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}

	result, err := h.notifications.List(r.Context(), middleware.GetUserID(r.Context()), q)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list notifications")
		return
	}
	respondJSON(w, http.StatusOK, "", result)
}

// MarkRead handles PUT /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to mark notification read")
		return
	}
	respondJSON(w, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead handles PUT /api/notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.notifications.MarkAllRead(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to mark notifications read")
		return
	}
	respondJSON(w, http.StatusOK, "All notifications marked as read", map[string]any{"updated": updated})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.UnreadCount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to count unread notifications")
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]any{"unreadCount": count})
}
