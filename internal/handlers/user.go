package handlers

import (
	"net/http"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/go-chi/chi/v5"
)

// UserHandler handles profile, photo and discovery endpoints
type UserHandler struct {
	profiles  *services.ProfileService
	maxUpload int64
}

// NewUserHandler creates a new user handler
func NewUserHandler(profiles *services.ProfileService, maxUpload int64) *UserHandler {
	return &UserHandler{profiles: profiles, maxUpload: maxUpload}
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get profile")
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]any{"user": user})
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update profile")
		return
	}
	respondJSON(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": user})
}

// UploadPhoto handles POST /api/users/upload-photo
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUpload+multipartOverhead) {
		return
	}

	up, err := readUpload(r, "photo", h.maxUpload)
	if err != nil {
		respondError(w, "Invalid photo upload", http.StatusBadRequest)
		return
	}

	photo, err := h.profiles.UploadPhoto(r.Context(), middleware.GetUserID(r.Context()), up)
	if err != nil {
		respondServiceError(w, r, err, "Failed to upload photo")
		return
	}
	respondJSON(w, http.StatusCreated, "Photo uploaded successfully", map[string]any{"photo": photo})
}

// DeletePhoto handles DELETE /api/users/photo/{id}
func (h *UserHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.DeletePhoto(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete photo")
		return
	}
	respondJSON(w, http.StatusOK, "Photo deleted successfully", nil)
}

// SetMainPhoto handles PUT /api/users/photo/{id}/main
func (h *UserHandler) SetMainPhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.SetMainPhoto(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to set main photo")
		return
	}
	respondJSON(w, http.StatusOK, "Main photo updated", nil)
}

// TogglePhotoLike handles POST /api/users/photo/like
func (h *UserHandler) TogglePhotoLike(w http.ResponseWriter, r *http.Request) {
	var req services.PhotoLikeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := h.profiles.TogglePhotoLike(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to toggle photo like")
		return
	}
	respondJSON(w, http.StatusOK, "", state)
}

// Discover handles GET /api/users/discover
func (h *UserHandler) Discover(w http.ResponseWriter, r *http.Request) {
	q := services.DiscoverQuery{
		MinAge:      queryInt(r, "minAge"),
		MaxAge:      queryInt(r, "maxAge"),
		SameCollege: r.URL.Query().Get("sameCollege") == "true",
		Page:        queryInt(r, "page"),
		Limit:       queryInt(r, "limit"),
	}

	result, err := h.profiles.Discover(r.Context(), middleware.GetUserID(r.Context()), q)
	if err != nil {
		respondServiceError(w, r, err, "Failed to discover users")
		return
	}
	respondJSON(w, http.StatusOK, "", result)
}

// ProfileOptions handles GET /api/users/profile-options
func (h *UserHandler) ProfileOptions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "", h.profiles.Options())
}
