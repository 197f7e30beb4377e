package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/observability"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
	maxContentLength    = 1000
)

// SendMessageRequest represents a new chat message
type SendMessageRequest struct {
	Content string             `json:"content"`
	Type    models.MessageType `json:"type" validate:"omitempty,enum"`
	ReplyTo *string            `json:"replyTo"`
}

// MessagePage is one page of a match conversation
type MessagePage struct {
	Messages []*models.Message `json:"messages"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// ChatService handles messages exchanged inside a match
type ChatService struct {
	matches  repository.MatchRepository
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier Notifier
	hub      Broadcaster
}

// NewChatService creates a new chat service
func NewChatService(
	matches repository.MatchRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	notifier Notifier,
	hub Broadcaster,
) *ChatService {
	return &ChatService{
		matches:  matches,
		messages: messages,
		users:    users,
		notifier: notifier,
		hub:      hub,
	}
}

// validContent trims content and checks its length in characters
func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return "", invalid("content must be at most %d characters", maxContentLength)
	}
	return content, nil
}

// ListMessages returns a page of the conversation and marks the other side's messages read
func (s *ChatService) ListMessages(ctx context.Context, matchID, userID string, page, limit int) (*MessagePage, error) {
	match, err := s.participantMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}

	page, limit = clampPage(page, limit, defaultMessageLimit, maxMessageLimit)
	l, offset := repository.Page(page, limit)
	messages, err := s.messages.ListByMatch(ctx, match.ID, l, offset)
	if err != nil {
		return nil, err
	}

	marked, err := s.messages.MarkMatchRead(ctx, match.ID, userID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		for _, msg := range messages {
			if msg.SenderID != userID && !containsString(msg.ReadBy, userID) {
				msg.ReadBy = append(msg.ReadBy, userID)
			}
		}
		s.broadcastRead(match, userID)
	}

	return &MessagePage{Messages: messages, Page: page, Limit: limit}, nil
}

// SendMessage posts a message on an active match
func (s *ChatService) SendMessage(ctx context.Context, matchID, userID string, req SendMessageRequest) (*models.Message, error) {
	match, err := s.participantMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchActive {
		return nil, invalid("Match is not active")
	}

	if err := Validate(req); err != nil {
		return nil, err
	}
	content, err := validContent(req.Content)
	if err != nil {
		return nil, err
	}

	if req.ReplyTo != nil && *req.ReplyTo != "" {
		parent, err := s.messages.GetByID(ctx, *req.ReplyTo)
		if err != nil {
			return nil, notFound(err, "reply target")
		}
		if parent.MatchID != match.ID {
			return nil, invalid("replyTo must reference a message in this match")
		}
	} else {
		req.ReplyTo = nil
	}

	msgType := models.MessageText
	if req.Type != "" {
		msgType = req.Type
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		MatchID:   match.ID,
		SenderID:  userID,
		Content:   content,
		Type:      msgType,
		ReplyTo:   req.ReplyTo,
		CreatedAt: time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	observability.IncMessageSent()

	if err := s.matches.UpdateLastMessage(ctx, match.ID, models.LastMessage{
		Content: content, SenderID: userID, SentAt: msg.CreatedAt,
	}); err != nil {
		log.Error().Err(err).Str("match_id", match.ID).Msg("Failed to update last message")
	}

	recipientID := match.OtherUser(userID)
	if err := s.hub.SendToUser(recipientID, WSMessage{Type: WSTypeMessage, Data: msg}); err != nil {
		log.Debug().Err(err).Str("user_id", recipientID).Msg("Realtime message not delivered")
	}

	senderName := "Someone"
	if sender, err := s.users.GetByID(ctx, userID); err == nil {
		senderName = sender.Name
	}
	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		SenderID:    userID,
		Type:        models.NotificationMessage,
		Title:       fmt.Sprintf("New message from %s", senderName),
		Message:     preview(content),
		Data:        map[string]any{"matchId": match.ID, "messageId": msg.ID},
	}); err != nil {
		log.Error().Err(err).Str("user_id", recipientID).Msg("Failed to create message notification")
	}

	return msg, nil
}

// MarkRead adds the caller to the read set of one message
func (s *ChatService) MarkRead(ctx context.Context, messageID, userID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return notFound(err, "message")
	}
	match, err := s.participantMatch(ctx, msg.MatchID, userID)
	if err != nil {
		return err
	}
	if err := s.messages.MarkRead(ctx, msg.ID, userID); err != nil {
		return err
	}
	if msg.SenderID != userID {
		s.broadcastRead(match, userID)
	}
	return nil
}

// DeleteMessage soft-deletes a message sent by the caller
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID string) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return notFound(err, "message")
	}
	if msg.SenderID != userID {
		return fmt.Errorf("only the sender can delete a message: %w", ErrForbidden)
	}
	if err := s.messages.SoftDelete(ctx, msg.ID, userID); err != nil {
		return notFound(err, "message")
	}

	match, err := s.matches.GetByID(ctx, msg.MatchID)
	if err != nil {
		log.Error().Err(err).Str("match_id", msg.MatchID).Msg("Failed to load match after message delete")
		return nil
	}
	if isCachedLast(match, msg) {
		if err := s.matches.RefreshLastMessage(ctx, match.ID); err != nil {
			log.Error().Err(err).Str("match_id", match.ID).Msg("Failed to refresh last message")
		}
	}
	return nil
}

// isCachedLast reports whether msg is the message cached on the match for list views
func isCachedLast(match *models.Match, msg *models.Message) bool {
	last := match.LastMessage
	return last != nil && last.SenderID == msg.SenderID && last.SentAt.Equal(msg.CreatedAt)
}

func (s *ChatService) broadcastRead(match *models.Match, readerID string) {
	otherID := match.OtherUser(readerID)
	event := WSMessage{
		Type: WSTypeMessagesRead,
		Data: map[string]string{"matchId": match.ID, "readerId": readerID},
	}
	if err := s.hub.SendToUser(otherID, event); err != nil {
		log.Debug().Err(err).Str("user_id", otherID).Msg("Read receipt not delivered")
	}
}

func (s *ChatService) participantMatch(ctx context.Context, matchID, userID string) (*models.Match, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, notFound(err, "match")
	}
	if !match.HasParticipant(userID) {
		return nil, fmt.Errorf("match: %w", ErrNotFound)
	}
	return match, nil
}

func preview(content string) string {
	const previewRunes = 100
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewRunes]) + "..."
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
