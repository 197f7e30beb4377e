package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shu-50/backend-CampusCrush/internal/middleware"
	"github.com/Shu-50/backend-CampusCrush/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsReadLimit = 4 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin
	},
}

// WebSocketHandler handles realtime connections
type WebSocketHandler struct {
	hub  *services.WSHub
	auth middleware.Authenticator
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, auth middleware.Authenticator) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, auth: auth}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "No token provided", http.StatusUnauthorized)
		return
	}

	userID, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		if !errors.Is(err, services.ErrUnauthorized) {
			log.Error().Err(err).Msg("Failed to authenticate WebSocket connection")
			respondError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		respondError(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn.SetReadLimit(wsReadLimit)

	client := h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, client)

	if err := client.Send(services.WSMessage{
		Type: services.WSTypeConnected,
		Data: map[string]string{"userId": userID},
	}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send connected message")
		return
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(client, userID, services.WSMessage{Type: services.WSTypeError, Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "ping":
			reply(client, userID, services.WSMessage{Type: services.WSTypePong})
		default:
			reply(client, userID, services.WSMessage{Type: services.WSTypeError, Message: "Unknown message type"})
		}
	}
}

// reply answers on the connection that asked, even if the user has reconnected since
func reply(client *services.WSClient, userID string, msg services.WSMessage) {
	if err := client.Send(msg); err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("Failed to reply on WebSocket")
	}
}
