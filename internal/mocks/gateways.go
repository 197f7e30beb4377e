package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/services"
)

type ObjectStoreMock struct {
	mock.Mock
}

func (m *ObjectStoreMock) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *ObjectStoreMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type PusherMock struct {
	mock.Mock
}

func (m *PusherMock) Push(ctx context.Context, deviceToken, title, body string, data map[string]any) error {
	args := m.Called(ctx, deviceToken, title, body, data)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, in services.NotifyInput) (*models.Notification, error) {
	args := m.Called(ctx, in)
	var n *models.Notification
	if val := args.Get(0); val != nil {
		n = val.(*models.Notification)
	}
	return n, args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) SendToUser(userID string, message services.WSMessage) error {
	args := m.Called(userID, message)
	return args.Error(0)
}
