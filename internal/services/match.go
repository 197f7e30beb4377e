package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/observability"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SwipeRequest represents a swipe on another user
type SwipeRequest struct {
	TargetUserID string             `json:"targetUserId" validate:"required"`
	Action       models.SwipeAction `json:"action" validate:"required,enum"`
}

// SwipeResult reports the recorded swipe and whether it produced a match
type SwipeResult struct {
	Swipe   *models.Swipe `json:"swipe"`
	IsMatch bool          `json:"isMatch"`
	Match   *models.Match `json:"match,omitempty"`
}

// MatchService handles swipes and the matches they produce
type MatchService struct {
	users    repository.UserRepository
	photos   repository.PhotoRepository
	swipes   repository.SwipeRepository
	matches  repository.MatchRepository
	messages repository.MessageRepository
	notifier Notifier
	events   Publisher
}

// NewMatchService creates a new match service
func NewMatchService(
	users repository.UserRepository,
	photos repository.PhotoRepository,
	swipes repository.SwipeRepository,
	matches repository.MatchRepository,
	messages repository.MessageRepository,
	notifier Notifier,
	events Publisher,
) *MatchService {
	return &MatchService{
		users:    users,
		photos:   photos,
		swipes:   swipes,
		matches:  matches,
		messages: messages,
		notifier: notifier,
		events:   events,
	}
}

// RecordSwipe stores the swipe and, when a like is reciprocated, creates the match once
func (s *MatchService) RecordSwipe(ctx context.Context, swiperID string, req SwipeRequest) (*SwipeResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.TargetUserID == swiperID {
		return nil, invalid("You cannot swipe on yourself")
	}

	target, err := s.users.GetByID(ctx, req.TargetUserID)
	if err != nil {
		return nil, notFound(err, "target user")
	}
	swiper, err := s.users.GetByID(ctx, swiperID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	now := time.Now()
	swipe := &models.Swipe{
		SwiperID:  swiperID,
		SwipedID:  target.ID,
		Action:    req.Action,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.swipes.Upsert(ctx, swipe); err != nil {
		return nil, err
	}
	observability.IncSwipe(string(swipe.Action))

	result := &SwipeResult{Swipe: swipe}
	if !swipe.Action.Positive() {
		return result, nil
	}

	reciprocal, err := s.swipes.HasPositive(ctx, target.ID, swiperID)
	if err != nil {
		return nil, err
	}
	if !reciprocal {
		s.notifyLike(ctx, swiper, target, swipe.Action)
		return result, nil
	}

	match := &models.Match{
		ID:        uuid.New().String(),
		User1ID:   swiperID,
		User2ID:   target.ID,
		MatchedAt: now,
	}
	created, err := s.matches.CreateIfAbsent(ctx, match)
	if err != nil {
		return nil, err
	}
	if !created {
		existing, err := s.matches.GetActiveByPair(ctx, swiperID, target.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing match: %w", err)
		}
		result.IsMatch = true
		result.Match = existing
		return result, nil
	}

	observability.IncMatchCreated()
	log.Info().
		Str("match_id", match.ID).
		Str("user1_id", match.User1ID).
		Str("user2_id", match.User2ID).
		Msg("Match created")

	s.notifyMatch(ctx, match, swiper, target)
	s.notifyMatch(ctx, match, target, swiper)
	if err := s.events.Publish(ctx, EventMatchCreated, MatchEvent{
		MatchID: match.ID, User1ID: match.User1ID, User2ID: match.User2ID,
	}); err != nil {
		log.Error().Err(err).Str("match_id", match.ID).Msg("Failed to publish match event")
	}

	result.IsMatch = true
	result.Match = match
	return result, nil
}

func (s *MatchService) notifyLike(ctx context.Context, swiper, target *models.User, action models.SwipeAction) {
	title := "Someone liked you!"
	message := fmt.Sprintf("%s liked your profile", swiper.Name)
	if action == models.SwipeSuperlike {
		title = "Someone super liked you!"
		message = fmt.Sprintf("%s super liked your profile", swiper.Name)
	}
	_, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: target.ID,
		SenderID:    swiper.ID,
		Type:        models.NotificationLike,
		Title:       title,
		Message:     message,
		Data:        map[string]any{"userId": swiper.ID, "action": string(action)},
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", target.ID).Msg("Failed to create like notification")
	}
}

// notifyMatch tells recipient about the match with other
func (s *MatchService) notifyMatch(ctx context.Context, match *models.Match, recipient, other *models.User) {
	_, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: recipient.ID,
		SenderID:    other.ID,
		Type:        models.NotificationMatch,
		Title:       "It's a match!",
		Message:     fmt.Sprintf("You and %s liked each other", other.Name),
		Data:        map[string]any{"matchId": match.ID, "userId": other.ID},
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", recipient.ID).Msg("Failed to create match notification")
	}
}

// ListMatches returns the caller's active matches, most recent activity first
func (s *MatchService) ListMatches(ctx context.Context, userID string) ([]models.MatchSummary, error) {
	matches, err := s.matches.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.MatchSummary{}, nil
	}

	otherIDs := make([]string, 0, len(matches))
	matchIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		otherIDs = append(otherIDs, m.OtherUser(userID))
		matchIDs = append(matchIDs, m.ID)
	}

	profiles, err := loadProfiles(ctx, s.users, s.photos, otherIDs, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, matchIDs, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.MatchSummary, 0, len(matches))
	for _, m := range matches {
		profile, ok := profiles[m.OtherUser(userID)]
		if !ok {
			continue
		}
		summaries = append(summaries, models.MatchSummary{
			Match:       *m,
			OtherUser:   profile,
			UnreadCount: unread[m.ID],
		})
	}
	return summaries, nil
}

// GetMatch returns one match the caller participates in
func (s *MatchService) GetMatch(ctx context.Context, matchID, userID string) (*models.MatchSummary, error) {
	match, err := s.participantMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}

	otherID := match.OtherUser(userID)
	profiles, err := loadProfiles(ctx, s.users, s.photos, []string{otherID}, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, []string{match.ID}, userID)
	if err != nil {
		return nil, err
	}

	return &models.MatchSummary{
		Match:       *match,
		OtherUser:   profiles[otherID],
		UnreadCount: unread[match.ID],
	}, nil
}

// Unmatch ends an active match
func (s *MatchService) Unmatch(ctx context.Context, matchID, userID string) error {
	return s.changeStatus(ctx, matchID, userID, models.MatchUnmatched)
}

// Block ends an active match and turns the blocker's swipe into a pass
func (s *MatchService) Block(ctx context.Context, matchID, userID string) error {
	return s.changeStatus(ctx, matchID, userID, models.MatchBlocked)
}

func (s *MatchService) changeStatus(ctx context.Context, matchID, userID string, status models.MatchStatus) error {
	match, err := s.participantMatch(ctx, matchID, userID)
	if err != nil {
		return err
	}
	if match.Status != models.MatchActive {
		return invalid("Match is not active")
	}
	if err := s.matches.UpdateStatus(ctx, match.ID, status); err != nil {
		return notFound(err, "match")
	}
	if status == models.MatchBlocked {
		if err := s.swipes.Upsert(ctx, &models.Swipe{
			SwiperID:  userID,
			SwipedID:  match.OtherUser(userID),
			Action:    models.SwipePass,
			UpdatedAt: time.Now(),
		}); err != nil {
			return err
		}
	}

	log.Info().Str("match_id", match.ID).Str("user_id", userID).Str("status", string(status)).Msg("Match status changed")
	return nil
}

// participantMatch loads a match and hides it from non-participants
func (s *MatchService) participantMatch(ctx context.Context, matchID, userID string) (*models.Match, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, notFound(err, "match")
	}
	if !match.HasParticipant(userID) {
		return nil, fmt.Errorf("match: %w", ErrNotFound)
	}
	return match, nil
}
