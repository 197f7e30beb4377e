package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub starts a server that registers every connection under userID and returns
// the dialing side together with the registered handle
func dialHub(t *testing.T, hub *WSHub, userID string) (*websocket.Conn, *WSClient) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	registered := make(chan *WSClient, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		registered <- hub.Register(userID, conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case client := <-registered:
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not registered")
	}
	return nil, nil
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got WSMessage
	require.NoError(t, json.Unmarshal(data, &got))
	return got
}

func TestWSHubSendToUser(t *testing.T) {
	hub := NewWSHub()
	conn, _ := dialHub(t, hub, "alice")

	require.NoError(t, hub.SendToUser("alice", WSMessage{Type: WSTypeNotification, Message: "hello"}))

	got := readWS(t, conn)
	assert.Equal(t, WSTypeNotification, got.Type)
	assert.Equal(t, "hello", got.Message)
	assert.NotZero(t, got.Timestamp)
}

func TestWSHubSendToOfflineUser(t *testing.T) {
	hub := NewWSHub()

	err := hub.SendToUser("nobody", WSMessage{Type: WSTypeNotification})

	assert.Error(t, err)
}

func TestWSHubReRegisterReplacesConnection(t *testing.T) {
	hub := NewWSHub()
	first, _ := dialHub(t, hub, "alice")
	second, _ := dialHub(t, hub, "alice")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	require.NoError(t, hub.SendToUser("alice", WSMessage{Type: WSTypePong}))
	assert.Equal(t, WSTypePong, readWS(t, second).Type)
}

func TestWSClientSendStaysOnItsConnection(t *testing.T) {
	hub := NewWSHub()
	_, stale := dialHub(t, hub, "alice")
	current, _ := dialHub(t, hub, "alice")

	err := stale.Send(WSMessage{Type: WSTypePong})
	assert.Error(t, err)

	require.NoError(t, current.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = current.ReadMessage()
	assert.Error(t, err, "a reply for the replaced socket must not reach the new one")
}

func TestWSHubUnregisterIgnoresReplacedClient(t *testing.T) {
	hub := NewWSHub()
	_, stale := dialHub(t, hub, "alice")
	current, _ := dialHub(t, hub, "alice")

	hub.Unregister("alice", stale)

	require.NoError(t, hub.SendToUser("alice", WSMessage{Type: WSTypeNotification}))
	assert.Equal(t, WSTypeNotification, readWS(t, current).Type)
}

func TestWSHubCloseAll(t *testing.T) {
	hub := NewWSHub()
	dialHub(t, hub, "alice")
	dialHub(t, hub, "bob")

	hub.CloseAll()

	assert.Error(t, hub.SendToUser("alice", WSMessage{Type: WSTypePong}))
	assert.Error(t, hub.SendToUser("bob", WSMessage{Type: WSTypePong}))
}
