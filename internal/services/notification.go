package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/observability"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotifyInput describes a notification to create
type NotifyInput struct {
	RecipientID string
	SenderID    string
	Type        models.NotificationType
	Title       string
	Message     string
	Data        map[string]any
}

// Notifier creates notifications on behalf of other services
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput) (*models.Notification, error)
}

// NotificationQuery selects a page of the caller's feed
type NotificationQuery struct {
	Type   string
	Unread bool
	Page   int
	Limit  int
}

// Pagination describes the page returned by a list operation
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// NotificationPage is a page of the feed plus the live unread count
type NotificationPage struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
	Pagination    Pagination             `json:"pagination"`
}

// NotificationService handles notification feeds and delivery
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	hub           Broadcaster
	pusher        Pusher
	events        Publisher
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	hub Broadcaster,
	pusher Pusher,
	events Publisher,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		hub:           hub,
		pusher:        pusher,
		events:        events,
	}
}

// Notify stores a notification and fans it out. Only the store write can fail the call.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	n := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: in.RecipientID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Data:        in.Data,
		CreatedAt:   time.Now(),
	}
	if in.SenderID != "" {
		sender := in.SenderID
		n.SenderID = &sender
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	observability.IncNotification(string(n.Type))

	s.deliver(ctx, n)
	return n, nil
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) {
	if err := s.hub.SendToUser(n.RecipientID, WSMessage{Type: WSTypeNotification, Data: n}); err != nil {
		log.Debug().Err(err).Str("user_id", n.RecipientID).Msg("Realtime notification not delivered")
	}

	recipient, err := s.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		log.Error().Err(err).Str("user_id", n.RecipientID).Msg("Failed to load notification recipient")
	} else if recipient.PushToken != nil && *recipient.PushToken != "" {
		data := map[string]any{"notificationId": n.ID, "type": string(n.Type)}
		for k, v := range n.Data {
			data[k] = v
		}
		if err := s.pusher.Push(ctx, *recipient.PushToken, n.Title, n.Message, data); err != nil {
			observability.IncPushError()
			log.Error().Err(err).Str("user_id", n.RecipientID).Msg("Failed to send push notification")
		}
	}

	if err := s.events.Publish(ctx, EventNotificationCreated, n); err != nil {
		log.Error().Err(err).Str("notification_id", n.ID).Msg("Failed to publish notification event")
	}
}

// List returns a page of the user's notifications
func (s *NotificationService) List(ctx context.Context, userID string, q NotificationQuery) (*NotificationPage, error) {
	page, limit := clampPage(q.Page, q.Limit, defaultNotificationLimit, maxNotificationLimit)
	filter := repository.NotificationFilter{RecipientID: userID, UnreadOnly: q.Unread}
	if q.Type != "" {
		typ, err := models.Parse(q.Type, models.NotificationTypes)
		if err != nil {
			return nil, invalid("type must be one of %v", models.NotificationTypes)
		}
		filter.Type = &typ
	}
	filter.Limit, filter.Offset = repository.Page(page, limit)

	notifications, total, err := s.notifications.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{
		Notifications: notifications,
		UnreadCount:   unread,
		Pagination:    newPagination(page, limit, total),
	}, nil
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	err := s.notifications.MarkRead(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("notification: %w", ErrNotFound)
	}
	return err
}

// MarkAllRead marks every unread notification of the user read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

// UnreadCount counts the user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// clampPage normalizes 1-based page and limit values
func clampPage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
