package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shu-50/backend-CampusCrush/internal/mocks"
	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/services"
)

type chatDeps struct {
	matches  *mocks.MatchRepositoryMock
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserRepositoryMock
	notifier *mocks.NotifierMock
	hub      *mocks.BroadcasterMock
}

func newChatService() (*services.ChatService, chatDeps) {
	d := chatDeps{
		matches:  new(mocks.MatchRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		notifier: new(mocks.NotifierMock),
		hub:      new(mocks.BroadcasterMock),
	}
	return services.NewChatService(d.matches, d.messages, d.users, d.notifier, d.hub), d
}

func activeMatch() *models.Match {
	return &models.Match{ID: "m1", User1ID: "alice", User2ID: "bob", Status: models.MatchActive}
}

func TestSendMessageNonParticipantIsNotFound(t *testing.T) {
	svc, d := newChatService()
	d.matches.On("GetByID", mock.Anything, "m1").Return(activeMatch(), nil).Once()

	_, err := svc.SendMessage(context.Background(), "m1", "carol", services.SendMessageRequest{Content: "hi"})

	assert.ErrorIs(t, err, services.ErrNotFound)
	d.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendMessageRejectsBlankAndLongContent(t *testing.T) {
	svc, d := newChatService()
	d.matches.On("GetByID", mock.Anything, "m1").Return(activeMatch(), nil)

	for _, content := range []string{"   ", strings.Repeat("a", 1001)} {
		_, err := svc.SendMessage(context.Background(), "m1", "alice", services.SendMessageRequest{Content: content})

		var verr *services.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
	d.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendMessageOnInactiveMatch(t *testing.T) {
	svc, d := newChatService()
	m := activeMatch()
	m.Status = models.MatchBlocked
	d.matches.On("GetByID", mock.Anything, "m1").Return(m, nil).Once()

	_, err := svc.SendMessage(context.Background(), "m1", "alice", services.SendMessageRequest{Content: "hi"})

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Match is not active", verr.Message)
}

func TestSendMessageDeliversAndNotifies(t *testing.T) {
	svc, d := newChatService()
	ctx := context.Background()

	d.matches.On("GetByID", mock.Anything, "m1").Return(activeMatch(), nil).Once()
	d.messages.On("Create", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		return m.Content == "hello" && m.SenderID == "alice" && m.Type == models.MessageText
	})).Return(nil).Once()
	d.matches.On("UpdateLastMessage", mock.Anything, "m1", mock.MatchedBy(func(l models.LastMessage) bool {
		return l.Content == "hello" && l.SenderID == "alice"
	})).Return(nil).Once()
	d.hub.On("SendToUser", "bob", mock.MatchedBy(func(m services.WSMessage) bool {
		return m.Type == services.WSTypeMessage
	})).Return(nil).Once()
	d.users.On("GetByID", mock.Anything, "alice").Return(&models.User{ID: "alice", Name: "Alice"}, nil).Once()
	d.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(in services.NotifyInput) bool {
		return in.RecipientID == "bob" && in.Type == models.NotificationMessage && in.Title == "New message from Alice"
	})).Return(&models.Notification{}, nil).Once()

	msg, err := svc.SendMessage(ctx, "m1", "alice", services.SendMessageRequest{Content: "  hello  "})
	require.NoError(t, err)

	assert.Equal(t, "hello", msg.Content)
	d.matches.AssertExpectations(t)
	d.messages.AssertExpectations(t)
	d.hub.AssertExpectations(t)
	d.notifier.AssertExpectations(t)
}

func TestSendMessageReplyMustShareMatch(t *testing.T) {
	svc, d := newChatService()
	other := "x1"
	d.matches.On("GetByID", mock.Anything, "m1").Return(activeMatch(), nil).Once()
	d.messages.On("GetByID", mock.Anything, "x1").Return(&models.Message{ID: "x1", MatchID: "m2"}, nil).Once()

	_, err := svc.SendMessage(context.Background(), "m1", "alice", services.SendMessageRequest{Content: "hi", ReplyTo: &other})

	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestListMessagesMarksOtherSideRead(t *testing.T) {
	svc, d := newChatService()
	messages := []*models.Message{
		{ID: "1", MatchID: "m1", SenderID: "alice", ReadBy: []string{"alice"}},
		{ID: "2", MatchID: "m1", SenderID: "bob", ReadBy: []string{"bob"}},
	}

	d.matches.On("GetByID", mock.Anything, "m1").Return(activeMatch(), nil).Once()
	d.messages.On("ListByMatch", mock.Anything, "m1", 50, 0).Return(messages, nil).Once()
	d.messages.On("MarkMatchRead", mock.Anything, "m1", "alice").Return(int64(1), nil).Once()
	d.hub.On("SendToUser", "bob", mock.MatchedBy(func(m services.WSMessage) bool {
		return m.Type == services.WSTypeMessagesRead
	})).Return(nil).Once()

	page, err := svc.ListMessages(context.Background(), "m1", "alice", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, []string{"alice"}, page.Messages[0].ReadBy)
	assert.Equal(t, []string{"bob", "alice"}, page.Messages[1].ReadBy)
	d.hub.AssertExpectations(t)
}

func TestDeleteMessageOnlyBySender(t *testing.T) {
	svc, d := newChatService()
	d.messages.On("GetByID", mock.Anything, "1").Return(&models.Message{ID: "1", MatchID: "m1", SenderID: "alice"}, nil).Once()

	err := svc.DeleteMessage(context.Background(), "1", "bob")

	assert.ErrorIs(t, err, services.ErrForbidden)
	d.messages.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteCachedLastMessageRefreshesMatch(t *testing.T) {
	svc, d := newChatService()
	sentAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := &models.Message{ID: "2", MatchID: "m1", SenderID: "alice", Content: "oops", CreatedAt: sentAt}
	match := activeMatch()
	match.LastMessage = &models.LastMessage{Content: "oops", SenderID: "alice", SentAt: sentAt}

	d.messages.On("GetByID", mock.Anything, "2").Return(msg, nil).Once()
	d.messages.On("SoftDelete", mock.Anything, "2", "alice").Return(nil).Once()
	d.matches.On("GetByID", mock.Anything, "m1").Return(match, nil).Once()
	d.matches.On("RefreshLastMessage", mock.Anything, "m1").Return(nil).Once()

	require.NoError(t, svc.DeleteMessage(context.Background(), "2", "alice"))

	d.matches.AssertExpectations(t)
}

func TestDeleteOlderMessageKeepsCache(t *testing.T) {
	svc, d := newChatService()
	sentAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := &models.Message{ID: "1", MatchID: "m1", SenderID: "alice", CreatedAt: sentAt}
	match := activeMatch()
	match.LastMessage = &models.LastMessage{Content: "later", SenderID: "bob", SentAt: sentAt.Add(time.Minute)}

	d.messages.On("GetByID", mock.Anything, "1").Return(msg, nil).Once()
	d.messages.On("SoftDelete", mock.Anything, "1", "alice").Return(nil).Once()
	d.matches.On("GetByID", mock.Anything, "m1").Return(match, nil).Once()

	require.NoError(t, svc.DeleteMessage(context.Background(), "1", "alice"))

	d.matches.AssertNotCalled(t, "RefreshLastMessage", mock.Anything, mock.Anything)
}
