package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/observability"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket event types sent to clients
const (
	WSTypeConnected    = "connected"
	WSTypeMessage      = "new_message"
	WSTypeNotification = "notification"
	WSTypeMessagesRead = "messages_read"
	WSTypeError        = "error"
	WSTypePong         = "pong"
)

const wsWriteTimeout = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Broadcaster delivers realtime events to connected users
type Broadcaster interface {
	SendToUser(userID string, message WSMessage) error
}

// WSClient is one registered connection. Writes to it are serialized.
type WSClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send writes a message to this connection only
func (c *WSClient) Send(message WSMessage) error {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// WSHub manages one WebSocket connection per user
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*WSClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]*WSClient),
	}
}

// Register registers a connection for a user, replacing and closing any previous one
func (h *WSHub) Register(userID string, conn *websocket.Conn) *WSClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[userID]; ok {
		existing.conn.Close()
	} else {
		observability.IncWSActive()
	}
	client := &WSClient{conn: conn}
	h.clients[userID] = client

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return client
}

// Unregister removes the user's connection if it is still client
func (h *WSHub) Unregister(userID string, client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.clients[userID]
	if !ok || current != client {
		return
	}
	current.conn.Close()
	delete(h.clients, userID)
	observability.DecWSActive()
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// SendToUser sends a message to the current connection of a user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	if err := client.Send(message); err != nil {
		h.Unregister(userID, client)
		return err
	}
	return nil
}

// CloseAll closes every connection, used on shutdown
func (h *WSHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, client := range h.clients {
		client.conn.Close()
		delete(h.clients, userID)
		observability.DecWSActive()
	}
}
