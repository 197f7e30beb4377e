package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/go-chi/chi/v5"
)

// multipartOverhead leaves room for the text fields of a registration form
const multipartOverhead = 1 << 20

// AuthHandler handles account and session endpoints
type AuthHandler struct {
	auth      *services.AuthService
	maxUpload int64
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, maxUpload int64) *AuthHandler {
	return &AuthHandler{auth: auth, maxUpload: maxUpload}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, 2*h.maxUpload+multipartOverhead) {
		return
	}

	var age int
	if v := strings.TrimSpace(r.FormValue("age")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, "age must be a number", http.StatusBadRequest)
			return
		}
		age = n
	}
	req := services.RegisterRequest{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Email:        r.FormValue("email"),
		Password:     r.FormValue("password"),
		Age:          age,
		Gender:       models.Gender(r.FormValue("gender")),
		InterestedIn: models.InterestedIn(r.FormValue("interestedIn")),
	}

	selfie, err := readUpload(r, "selfie", h.maxUpload)
	if err != nil {
		respondError(w, "Invalid selfie upload", http.StatusBadRequest)
		return
	}
	collegeID, err := readUpload(r, "collegeId", h.maxUpload)
	if err != nil {
		respondError(w, "Invalid college ID upload", http.StatusBadRequest)
		return
	}

	result, err := h.auth.Register(r.Context(), req, selfie, collegeID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to register user")
		return
	}

	respondJSON(w, http.StatusCreated, "Registration successful. Please verify your email.", result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, "Login successful", result)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to log out")
		return
	}
	respondJSON(w, http.StatusOK, "Logged out successfully", nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get current user")
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]any{"user": user})
}

// VerifyEmail handles GET /api/auth/verify-email/{token}
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		respondServiceError(w, r, err, "Failed to verify email")
		return
	}
	respondJSON(w, http.StatusOK, "Email verified successfully", nil)
}

// ResendVerification handles POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.ResendVerification(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to resend verification email")
		return
	}
	respondJSON(w, http.StatusOK, "Verification email sent", nil)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req services.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req); err != nil {
		respondServiceError(w, r, err, "Failed to start password reset")
		return
	}
	respondJSON(w, http.StatusOK, "If an account exists for that email, a reset link has been sent", nil)
}

// ResetPassword handles POST /api/auth/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req services.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req); err != nil {
		respondServiceError(w, r, err, "Failed to reset password")
		return
	}
	respondJSON(w, http.StatusOK, "Password reset successfully", nil)
}

// UpdatePushToken handles PUT /api/auth/push-token
func (h *AuthHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var req services.PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.UpdatePushToken(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		respondServiceError(w, r, err, "Failed to update push token")
		return
	}
	respondJSON(w, http.StatusOK, "Push token updated", nil)
}
