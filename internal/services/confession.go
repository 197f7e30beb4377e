package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultConfessionLimit = 20
	maxConfessionLimit     = 50
)

// CreateConfessionRequest represents a new confession
type CreateConfessionRequest struct {
	Content  string                    `json:"content"`
	Category models.ConfessionCategory `json:"category" validate:"omitempty,enum"`
}

// ReactRequest carries the reaction type to toggle
type ReactRequest struct {
	Type models.ReactionType `json:"type" validate:"required,enum"`
}

// CommentRequest represents a comment or a reply
type CommentRequest struct {
	Content string `json:"content"`
}

// ConfessionQuery selects a page of the caller's college feed
type ConfessionQuery struct {
	Category string
	Page     int
	Limit    int
}

// ConfessionPage is a page of the college feed
type ConfessionPage struct {
	Confessions []models.ConfessionView `json:"confessions"`
	Pagination  Pagination              `json:"pagination"`
}

// ReactionResult is the reaction state of a confession after a toggle
type ReactionResult struct {
	ReactionCounts map[models.ReactionType]int  `json:"reactionCounts"`
	UserReactions  map[models.ReactionType]bool `json:"userReactions"`
}

// ConfessionService handles the anonymous college confession board
type ConfessionService struct {
	users       repository.UserRepository
	confessions repository.ConfessionRepository
	notifier    Notifier
}

// NewConfessionService creates a new confession service
func NewConfessionService(
	users repository.UserRepository,
	confessions repository.ConfessionRepository,
	notifier Notifier,
) *ConfessionService {
	return &ConfessionService{
		users:       users,
		confessions: confessions,
		notifier:    notifier,
	}
}

// Create posts a confession to the author's college
func (s *ConfessionService) Create(ctx context.Context, userID string, req CreateConfessionRequest) (*models.ConfessionView, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	content, err := validContent(req.Content)
	if err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	category := models.CategoryGeneral
	if req.Category != "" {
		category = req.Category
	}

	now := time.Now()
	c := &models.Confession{
		ID:        uuid.New().String(),
		AuthorID:  author.ID,
		Content:   content,
		Category:  category,
		College:   author.College,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.confessions.Create(ctx, c); err != nil {
		return nil, err
	}

	log.Info().Str("confession_id", c.ID).Str("college", c.College).Msg("Confession created")
	view := buildView(c, userID, &models.ConfessionStats{ReactionCounts: models.EmptyReactionCounts()})
	return &view, nil
}

// List returns the caller's college feed, newest first
func (s *ConfessionService) List(ctx context.Context, userID string, q ConfessionQuery) (*ConfessionPage, error) {
	viewer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	page, limit := clampPage(q.Page, q.Limit, defaultConfessionLimit, maxConfessionLimit)
	filter := repository.ConfessionFilter{College: viewer.College}
	if q.Category != "" {
		category, err := models.Parse(q.Category, models.ConfessionCategories)
		if err != nil {
			return nil, invalid("category must be one of %v", models.ConfessionCategories)
		}
		filter.Category = &category
	}
	filter.Limit, filter.Offset = repository.Page(page, limit)

	confessions, total, err := s.confessions.ListByCollege(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(confessions))
	for _, c := range confessions {
		ids = append(ids, c.ID)
	}
	stats, err := s.confessions.Stats(ctx, ids, userID)
	if err != nil {
		return nil, err
	}

	views := make([]models.ConfessionView, 0, len(confessions))
	for _, c := range confessions {
		views = append(views, buildView(c, userID, stats[c.ID]))
	}
	return &ConfessionPage{Confessions: views, Pagination: newPagination(page, limit, total)}, nil
}

// Get returns one confession with its comments and replies
func (s *ConfessionService) Get(ctx context.Context, id, userID string) (*models.ConfessionView, error) {
	c, err := s.readable(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.confessions.Stats(ctx, []string{c.ID}, userID)
	if err != nil {
		return nil, err
	}
	comments, err := s.confessions.ListComments(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	view := buildView(c, userID, stats[c.ID])
	view.Comments = buildCommentTree(comments, c.AuthorID, userID)
	return &view, nil
}

// React toggles the caller's reaction. The same type removes it; another type replaces it.
func (s *ConfessionService) React(ctx context.Context, id, userID string, req ReactRequest) (*ReactionResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	c, err := s.readable(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	reactionType := req.Type

	added := true
	existing, err := s.confessions.GetReaction(ctx, c.ID, userID)
	switch {
	case err == nil && existing.Type == reactionType:
		added = false
		if err := s.confessions.RemoveReaction(ctx, c.ID, userID); err != nil {
			return nil, err
		}
	case err == nil || errors.Is(err, repository.ErrNotFound):
		if err := s.confessions.SetReaction(ctx, &models.Reaction{
			ConfessionID: c.ID,
			UserID:       userID,
			Type:         reactionType,
			CreatedAt:    time.Now(),
		}); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	stats, err := s.confessions.Stats(ctx, []string{c.ID}, userID)
	if err != nil {
		return nil, err
	}
	st := stats[c.ID]

	if added && c.AuthorID != userID {
		s.notify(ctx, c.AuthorID, userID, models.NotificationConfession,
			"New reaction on your confession",
			fmt.Sprintf("Someone reacted %s to your confession", reactionType),
			map[string]any{"confessionId": c.ID, "reaction": string(reactionType)})
	}

	return &ReactionResult{
		ReactionCounts: st.ReactionCounts,
		UserReactions:  models.UserReactionFlags(st.UserReaction),
	}, nil
}

// Comment adds a top-level comment
func (s *ConfessionService) Comment(ctx context.Context, id, userID string, req CommentRequest) (*models.CommentView, error) {
	content, err := validContent(req.Content)
	if err != nil {
		return nil, err
	}
	c, err := s.readable(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:           uuid.New().String(),
		ConfessionID: c.ID,
		AuthorID:     userID,
		Content:      content,
		CreatedAt:    time.Now(),
	}
	if err := s.confessions.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	if c.AuthorID != userID {
		s.notify(ctx, c.AuthorID, userID, models.NotificationComment,
			"New comment on your confession", preview(content),
			map[string]any{"confessionId": c.ID, "commentId": comment.ID})
	}

	view := commentView(comment, c.AuthorID, userID)
	return &view, nil
}

// Reply answers a comment of the same confession. Replies to replies attach to the top-level comment.
func (s *ConfessionService) Reply(ctx context.Context, id, commentID, userID string, req CommentRequest) (*models.CommentView, error) {
	content, err := validContent(req.Content)
	if err != nil {
		return nil, err
	}
	c, err := s.readable(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	parent, err := s.confessions.GetComment(ctx, c.ID, commentID)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	parentID := parent.ID
	if parent.ParentID != nil {
		parentID = *parent.ParentID
	}

	reply := &models.Comment{
		ID:           uuid.New().String(),
		ConfessionID: c.ID,
		ParentID:     &parentID,
		AuthorID:     userID,
		Content:      content,
		CreatedAt:    time.Now(),
	}
	if err := s.confessions.AddComment(ctx, reply); err != nil {
		return nil, err
	}

	if parent.AuthorID != userID {
		s.notify(ctx, parent.AuthorID, userID, models.NotificationComment,
			"New reply to your comment", preview(content),
			map[string]any{"confessionId": c.ID, "commentId": parent.ID, "replyId": reply.ID})
	}

	view := commentView(reply, c.AuthorID, userID)
	return &view, nil
}

// Delete removes a confession written by the caller
func (s *ConfessionService) Delete(ctx context.Context, id, userID string) error {
	c, err := s.confessions.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "confession")
	}
	if c.AuthorID != userID {
		return fmt.Errorf("only the author can delete a confession: %w", ErrForbidden)
	}
	if err := s.confessions.Delete(ctx, c.ID, userID); err != nil {
		return notFound(err, "confession")
	}
	return nil
}

// readable loads a confession the caller's college is allowed to see
func (s *ConfessionService) readable(ctx context.Context, id, userID string) (*models.Confession, error) {
	c, err := s.confessions.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "confession")
	}
	viewer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if viewer.College != c.College {
		return nil, fmt.Errorf("confession belongs to another college: %w", ErrForbidden)
	}
	return c, nil
}

// notify sends an anonymous notification; the sender id is never attached
func (s *ConfessionService) notify(ctx context.Context, recipientID, actorID string, typ models.NotificationType, title, message string, data map[string]any) {
	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        data,
	}); err != nil {
		log.Error().Err(err).Str("user_id", recipientID).Str("actor_id", actorID).Msg("Failed to create confession notification")
	}
}

func buildView(c *models.Confession, viewerID string, stats *models.ConfessionStats) models.ConfessionView {
	if stats == nil {
		stats = &models.ConfessionStats{ReactionCounts: models.EmptyReactionCounts()}
	}
	return models.ConfessionView{
		ID:             c.ID,
		Content:        c.Content,
		Category:       c.Category,
		College:        c.College,
		IsOwn:          c.AuthorID == viewerID,
		ReactionCounts: stats.ReactionCounts,
		UserReactions:  models.UserReactionFlags(stats.UserReaction),
		CommentCount:   stats.CommentCount,
		CreatedAt:      c.CreatedAt,
	}
}

func commentView(c *models.Comment, confessionAuthorID, viewerID string) models.CommentView {
	return models.CommentView{
		ID:        c.ID,
		Content:   c.Content,
		IsOwn:     c.AuthorID == viewerID,
		IsAuthor:  c.AuthorID == confessionAuthorID,
		CreatedAt: c.CreatedAt,
	}
}

// buildCommentTree nests replies under their comment; input is oldest first
func buildCommentTree(comments []*models.Comment, confessionAuthorID, viewerID string) []models.CommentView {
	roots := make([]models.CommentView, 0)
	index := make(map[string]int)
	for _, c := range comments {
		if c.ParentID == nil {
			index[c.ID] = len(roots)
			roots = append(roots, commentView(c, confessionAuthorID, viewerID))
		}
	}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		i, ok := index[*c.ParentID]
		if !ok {
			continue
		}
		roots[i].Replies = append(roots[i].Replies, commentView(c, confessionAuthorID, viewerID))
	}
	return roots
}
