package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user *models.User, emailToken repository.TokenHash) error {
	args := m.Called(ctx, user, emailToken)
	return args.Error(0)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	var users []*models.User
	if val := args.Get(0); val != nil {
		users = val.([]*models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetEmailToken(ctx context.Context, userID string, token repository.TokenHash) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *UserRepositoryMock) ConsumeEmailToken(ctx context.Context, hash string, now time.Time) (string, error) {
	args := m.Called(ctx, hash, now)
	return args.String(0), args.Error(1)
}

func (m *UserRepositoryMock) SetResetToken(ctx context.Context, userID string, token repository.TokenHash) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *UserRepositoryMock) ConsumeResetToken(ctx context.Context, hash, passwordHash string, now time.Time) (string, error) {
	args := m.Called(ctx, hash, passwordHash, now)
	return args.String(0), args.Error(1)
}

func (m *UserRepositoryMock) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	args := m.Called(ctx, userID, pushToken)
	return args.Error(0)
}

func (m *UserRepositoryMock) TouchLastActive(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) Discover(ctx context.Context, filter repository.DiscoverFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	var users []*models.User
	if val := args.Get(0); val != nil {
		users = val.([]*models.User)
	}
	return users, args.Error(1)
}

type PhotoRepositoryMock struct {
	mock.Mock
}

func (m *PhotoRepositoryMock) Create(ctx context.Context, photo *models.Photo, maxPhotos int) error {
	args := m.Called(ctx, photo, maxPhotos)
	return args.Error(0)
}

func (m *PhotoRepositoryMock) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *PhotoRepositoryMock) ListByUsers(ctx context.Context, userIDs []string, viewerID string) (map[string][]models.Photo, error) {
	args := m.Called(ctx, userIDs, viewerID)
	var photos map[string][]models.Photo
	if val := args.Get(0); val != nil {
		photos = val.(map[string][]models.Photo)
	}
	return photos, args.Error(1)
}

func (m *PhotoRepositoryMock) FindByURL(ctx context.Context, url string) (*models.Photo, error) {
	args := m.Called(ctx, url)
	var photo *models.Photo
	if val := args.Get(0); val != nil {
		photo = val.(*models.Photo)
	}
	return photo, args.Error(1)
}

func (m *PhotoRepositoryMock) Delete(ctx context.Context, userID, photoID string) (*models.Photo, error) {
	args := m.Called(ctx, userID, photoID)
	var photo *models.Photo
	if val := args.Get(0); val != nil {
		photo = val.(*models.Photo)
	}
	return photo, args.Error(1)
}

func (m *PhotoRepositoryMock) SetMain(ctx context.Context, userID, photoID string) error {
	args := m.Called(ctx, userID, photoID)
	return args.Error(0)
}

func (m *PhotoRepositoryMock) ToggleLike(ctx context.Context, photoID, userID string) (bool, int, error) {
	args := m.Called(ctx, photoID, userID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

type SwipeRepositoryMock struct {
	mock.Mock
}

func (m *SwipeRepositoryMock) Upsert(ctx context.Context, swipe *models.Swipe) error {
	args := m.Called(ctx, swipe)
	return args.Error(0)
}

func (m *SwipeRepositoryMock) HasPositive(ctx context.Context, swiperID, swipedID string) (bool, error) {
	args := m.Called(ctx, swiperID, swipedID)
	return args.Bool(0), args.Error(1)
}

type MatchRepositoryMock struct {
	mock.Mock
}

func (m *MatchRepositoryMock) CreateIfAbsent(ctx context.Context, match *models.Match) (bool, error) {
	args := m.Called(ctx, match)
	return args.Bool(0), args.Error(1)
}

func (m *MatchRepositoryMock) GetActiveByPair(ctx context.Context, userA, userB string) (*models.Match, error) {
	args := m.Called(ctx, userA, userB)
	var match *models.Match
	if val := args.Get(0); val != nil {
		match = val.(*models.Match)
	}
	return match, args.Error(1)
}

func (m *MatchRepositoryMock) GetByID(ctx context.Context, id string) (*models.Match, error) {
	args := m.Called(ctx, id)
	var match *models.Match
	if val := args.Get(0); val != nil {
		match = val.(*models.Match)
	}
	return match, args.Error(1)
}

func (m *MatchRepositoryMock) ListActiveByUser(ctx context.Context, userID string) ([]*models.Match, error) {
	args := m.Called(ctx, userID)
	var matches []*models.Match
	if val := args.Get(0); val != nil {
		matches = val.([]*models.Match)
	}
	return matches, args.Error(1)
}

func (m *MatchRepositoryMock) UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MatchRepositoryMock) UpdateLastMessage(ctx context.Context, id string, last models.LastMessage) error {
	args := m.Called(ctx, id, last)
	return args.Error(0)
}

func (m *MatchRepositoryMock) RefreshLastMessage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	var msg *models.Message
	if val := args.Get(0); val != nil {
		msg = val.(*models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByMatch(ctx context.Context, matchID string, limit, offset int) ([]*models.Message, error) {
	args := m.Called(ctx, matchID, limit, offset)
	var msgs []*models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]*models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkMatchRead(ctx context.Context, matchID, readerID string) (int64, error) {
	args := m.Called(ctx, matchID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, id, readerID string) error {
	args := m.Called(ctx, id, readerID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, id, senderID string) error {
	args := m.Called(ctx, id, senderID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, matchIDs []string, userID string) (map[string]int, error) {
	args := m.Called(ctx, matchIDs, userID)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) List(ctx context.Context, filter repository.NotificationFilter) ([]*models.Notification, int, error) {
	args := m.Called(ctx, filter)
	var items []*models.Notification
	if val := args.Get(0); val != nil {
		items = val.([]*models.Notification)
	}
	return items, args.Int(1), args.Error(2)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, id, recipientID string) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepositoryMock) CountUnread(ctx context.Context, recipientID string) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

type ConfessionRepositoryMock struct {
	mock.Mock
}

func (m *ConfessionRepositoryMock) Create(ctx context.Context, c *models.Confession) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ConfessionRepositoryMock) GetByID(ctx context.Context, id string) (*models.Confession, error) {
	args := m.Called(ctx, id)
	var c *models.Confession
	if val := args.Get(0); val != nil {
		c = val.(*models.Confession)
	}
	return c, args.Error(1)
}

func (m *ConfessionRepositoryMock) ListByCollege(ctx context.Context, filter repository.ConfessionFilter) ([]*models.Confession, int, error) {
	args := m.Called(ctx, filter)
	var items []*models.Confession
	if val := args.Get(0); val != nil {
		items = val.([]*models.Confession)
	}
	return items, args.Int(1), args.Error(2)
}

func (m *ConfessionRepositoryMock) Delete(ctx context.Context, id, authorID string) error {
	args := m.Called(ctx, id, authorID)
	return args.Error(0)
}

func (m *ConfessionRepositoryMock) Stats(ctx context.Context, ids []string, viewerID string) (map[string]*models.ConfessionStats, error) {
	args := m.Called(ctx, ids, viewerID)
	var stats map[string]*models.ConfessionStats
	if val := args.Get(0); val != nil {
		stats = val.(map[string]*models.ConfessionStats)
	}
	return stats, args.Error(1)
}

func (m *ConfessionRepositoryMock) GetReaction(ctx context.Context, confessionID, userID string) (*models.Reaction, error) {
	args := m.Called(ctx, confessionID, userID)
	var r *models.Reaction
	if val := args.Get(0); val != nil {
		r = val.(*models.Reaction)
	}
	return r, args.Error(1)
}

func (m *ConfessionRepositoryMock) SetReaction(ctx context.Context, reaction *models.Reaction) error {
	args := m.Called(ctx, reaction)
	return args.Error(0)
}

func (m *ConfessionRepositoryMock) RemoveReaction(ctx context.Context, confessionID, userID string) error {
	args := m.Called(ctx, confessionID, userID)
	return args.Error(0)
}

func (m *ConfessionRepositoryMock) AddComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *ConfessionRepositoryMock) GetComment(ctx context.Context, confessionID, commentID string) (*models.Comment, error) {
	args := m.Called(ctx, confessionID, commentID)
	var c *models.Comment
	if val := args.Get(0); val != nil {
		c = val.(*models.Comment)
	}
	return c, args.Error(1)
}

func (m *ConfessionRepositoryMock) ListComments(ctx context.Context, confessionID string) ([]*models.Comment, error) {
	args := m.Called(ctx, confessionID)
	var items []*models.Comment
	if val := args.Get(0); val != nil {
		items = val.([]*models.Comment)
	}
	return items, args.Error(1)
}
