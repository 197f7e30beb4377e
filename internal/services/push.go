package services

import (
	"context"
	"fmt"

	"github.com/Shu-50/backend-CampusCrush/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Pusher delivers a push notification to one device
type Pusher interface {
	Push(ctx context.Context, deviceToken, title, body string, data map[string]any) error
}

// NewPusher builds an APNs client using token auth, or a noop pusher when no key is configured
func NewPusher(cfg config.APNSConfig) (Pusher, error) {
	if cfg.KeyFile == "" {
		log.Warn().Msg("APNs key not configured, push notifications disabled")
		return noopPusher{}, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	log.Info().Bool("production", cfg.Production).Str("topic", cfg.Topic).Msg("APNs client configured")
	return &apnsPusher{client: client, topic: cfg.Topic}, nil
}

type apnsPusher struct {
	client *apns2.Client
	topic  string
}

func (p *apnsPusher) Push(ctx context.Context, deviceToken, title, body string, data map[string]any) error {
	pl := payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default")
	for k, v := range data {
		pl = pl.Custom(k, v)
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}

type noopPusher struct{}

func (noopPusher) Push(ctx context.Context, deviceToken, title, body string, data map[string]any) error {
	return nil
}
