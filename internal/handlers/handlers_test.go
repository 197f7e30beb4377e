package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shu-50/backend-CampusCrush/internal/config"
	"github.com/Shu-50/backend-CampusCrush/internal/mocks"
	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/services"
)

type testDeps struct {
	users         *mocks.UserRepositoryMock
	photos        *mocks.PhotoRepositoryMock
	swipes        *mocks.SwipeRepositoryMock
	matches       *mocks.MatchRepositoryMock
	messages      *mocks.MessageRepositoryMock
	notifications *mocks.NotificationRepositoryMock
	confessions   *mocks.ConfessionRepositoryMock
	store         *mocks.ObjectStoreMock
	notifier      *mocks.NotifierMock
	pusher        *mocks.PusherMock
	events        *mocks.PublisherMock
	auth          *services.AuthService
}

func setupRouter(t *testing.T) (http.Handler, *testDeps) {
	t.Helper()
	d := &testDeps{
		users:         new(mocks.UserRepositoryMock),
		photos:        new(mocks.PhotoRepositoryMock),
		swipes:        new(mocks.SwipeRepositoryMock),
		matches:       new(mocks.MatchRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		notifications: new(mocks.NotificationRepositoryMock),
		confessions:   new(mocks.ConfessionRepositoryMock),
		store:         new(mocks.ObjectStoreMock),
		notifier:      new(mocks.NotifierMock),
		pusher:        new(mocks.PusherMock),
		events:        new(mocks.PublisherMock),
	}
	upload := config.UploadConfig{MaxImageBytes: 1 << 20, MaxPhotos: 6}
	hub := services.NewWSHub()
	t.Cleanup(hub.CloseAll)

	d.auth = services.NewAuthService(d.users, d.photos, d.store, d.events,
		config.JWTConfig{Secret: "handler-secret", TTL: time.Hour}, upload, "http://localhost:3000")
	notifications := services.NewNotificationService(d.notifications, d.users, hub, d.pusher, d.events)

	router := NewRouter(Handlers{
		Auth:          NewAuthHandler(d.auth, upload.MaxImageBytes),
		Users:         NewUserHandler(services.NewProfileService(d.users, d.photos, d.store, upload), upload.MaxImageBytes),
		Matches:       NewMatchHandler(services.NewMatchService(d.users, d.photos, d.swipes, d.matches, d.messages, d.notifier, d.events)),
		Chat:          NewChatHandler(services.NewChatService(d.matches, d.messages, d.users, d.notifier, hub)),
		Notifications: NewNotificationHandler(notifications),
		Confessions:   NewConfessionHandler(services.NewConfessionService(d.users, d.confessions, d.notifier)),
		WebSocket:     NewWebSocketHandler(hub, d.auth),
	}, d.auth, "*")
	return router, d
}

// bearer issues a token for userID and makes the user known to the auth check
func (d *testDeps) bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := d.auth.GenerateJWT(userID)
	require.NoError(t, err)
	d.users.On("Exists", mock.Anything, userID).Return(true, nil)
	return token
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(router, http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, true, resp["success"])
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "OK", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestUnknownRoute(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/nope", "", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Route not found", resp["message"])
}

func TestWrongMethod(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(router, http.MethodDelete, "/health", "", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/matches", "", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", decodeEnvelope(t, rec)["message"])
}

func TestProtectedRouteWithBadToken(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/matches", "not-a-jwt", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", decodeEnvelope(t, rec)["message"])
}

func TestSwipeInvalidAction(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "alice")

	rec := doRequest(router, http.MethodPost, "/api/matches/swipe", token, `{"targetUserId":"bob","action":"wink"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "action must be one of: like pass superlike", resp["message"])
}

func TestSwipeMalformedBody(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "alice")

	rec := doRequest(router, http.MethodPost, "/api/matches/swipe", token, `{"targetUserId":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeEnvelope(t, rec)["message"])
}

func TestSendMessageNotParticipant(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "carol")
	d.matches.On("GetByID", mock.Anything, "m1").
		Return(&models.Match{ID: "m1", User1ID: "alice", User2ID: "bob", Status: models.MatchActive}, nil).Once()

	rec := doRequest(router, http.MethodPost, "/api/chat/matches/m1/messages", token, `{"content":"hi"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Match not found", decodeEnvelope(t, rec)["message"])
}

func TestDeleteMessageByNonSender(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "bob")
	d.messages.On("GetByID", mock.Anything, "x1").Return(&models.Message{ID: "x1", MatchID: "m1", SenderID: "alice"}, nil).Once()

	rec := doRequest(router, http.MethodDelete, "/api/chat/messages/x1", token, "")

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only the sender can delete a message", decodeEnvelope(t, rec)["message"])
}

func TestConfessionFromOtherCollege(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "zed")
	d.confessions.On("GetByID", mock.Anything, "c1").
		Return(&models.Confession{ID: "c1", AuthorID: "alice", College: "ABC"}, nil).Once()
	d.users.On("GetByID", mock.Anything, "zed").Return(&models.User{ID: "zed", College: "XYZ"}, nil).Once()

	rec := doRequest(router, http.MethodGet, "/api/confessions/c1", token, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnreadCount(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "alice")
	d.notifications.On("CountUnread", mock.Anything, "alice").Return(4, nil).Once()

	rec := doRequest(router, http.MethodGet, "/api/notifications/unread-count", token, "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(4), resp["data"].(map[string]any)["unreadCount"])
}

func TestRepositoryFailureIsHidden(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "alice")
	d.matches.On("ListActiveByUser", mock.Anything, "alice").Return(nil, assert.AnError).Once()

	rec := doRequest(router, http.MethodGet, "/api/matches", token, "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeEnvelope(t, rec)["message"])
}

func TestProfileOptions(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "alice")

	rec := doRequest(router, http.MethodGet, "/api/users/profile-options", token, "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Len(t, data["reactionTypes"], len(models.ReactionTypes))
}

func TestRegisterRequiresImages(t *testing.T) {
	router, _ := setupRouter(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for field, value := range map[string]string{
		"name": "Alice", "email": "alice@abc.edu", "password": "secret1",
		"age": "21", "gender": "female", "interestedIn": "male",
	} {
		require.NoError(t, form.WriteField(field, value))
	}
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "selfie image is required", decodeEnvelope(t, rec)["message"])
}

func TestForgotPasswordAlwaysSucceeds(t *testing.T) {
	router, d := setupRouter(t)
	d.users.On("GetByEmail", mock.Anything, "ghost@abc.edu").Return(nil, assert.AnError).Once()

	rec := doRequest(router, http.MethodPost, "/api/auth/forgot-password", "", `{"email":"ghost@abc.edu"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebSocketConnectAndPing(t *testing.T) {
	router, d := setupRouter(t)
	token := d.bearer(t, "alice")
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg services.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.WSTypeConnected, msg.Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.WSTypePong, msg.Type)
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(router, http.MethodGet, "/ws", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
