package handlers

import (
	"net/http"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/observability"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the route handlers mounted by NewRouter
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Matches       *MatchHandler
	Chat          *ChatHandler
	Notifications *NotificationHandler
	Confessions   *ConfessionHandler
	WebSocket     *WebSocketHandler
}

// NewRouter builds the HTTP routing tree
func NewRouter(h Handlers, auth middleware.Authenticator, allowedOrigins string) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(observability.HTTPMetricsMiddleware)

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/health", Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.WebSocket.HandleWebSocket)

	requireAuth := middleware.AuthMiddleware(auth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Get("/verify-email/{token}", h.Auth.VerifyEmail)
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password/{token}", h.Auth.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
				r.Post("/resend-verification", h.Auth.ResendVerification)
				r.Put("/push-token", h.Auth.UpdatePushToken)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", h.Users.GetProfile)
				r.Put("/profile", h.Users.UpdateProfile)
				r.Post("/upload-photo", h.Users.UploadPhoto)
				r.Post("/photo/like", h.Users.TogglePhotoLike)
				r.Delete("/photo/{id}", h.Users.DeletePhoto)
				r.Put("/photo/{id}/main", h.Users.SetMainPhoto)
				r.Get("/discover", h.Users.Discover)
				r.Get("/profile-options", h.Users.ProfileOptions)
			})

			r.Route("/matches", func(r chi.Router) {
				r.Get("/", h.Matches.List)
				r.Post("/swipe", h.Matches.Swipe)
				r.Get("/{id}", h.Matches.Get)
				r.Delete("/{id}", h.Matches.Unmatch)
				r.Post("/{id}/block", h.Matches.Block)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Get("/matches/{id}/messages", h.Chat.ListMessages)
				r.Post("/matches/{id}/messages", h.Chat.SendMessage)
				r.Put("/messages/{id}/read", h.Chat.MarkRead)
				r.Delete("/messages/{id}", h.Chat.DeleteMessage)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notifications.List)
				r.Get("/unread-count", h.Notifications.UnreadCount)
				r.Put("/mark-all-read", h.Notifications.MarkAllRead)
				r.Put("/{id}/read", h.Notifications.MarkRead)
			})

			r.Route("/confessions", func(r chi.Router) {
				r.Get("/", h.Confessions.List)
				r.Post("/", h.Confessions.Create)
				r.Get("/{id}", h.Confessions.Get)
				r.Delete("/{id}", h.Confessions.Delete)
				r.Post("/{id}/react", h.Confessions.React)
				r.Post("/{id}/comments", h.Confessions.Comment)
				r.Post("/{id}/comments/{commentId}/replies", h.Confessions.Reply)
			})
		})
	})

	return r
}
