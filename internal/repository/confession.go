package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shu-50/backend-CampusCrush/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfessionRepository handles confessions together with their reactions and comments
type ConfessionRepository interface {
	Create(ctx context.Context, c *models.Confession) error
	GetByID(ctx context.Context, id string) (*models.Confession, error)
	ListByCollege(ctx context.Context, filter ConfessionFilter) ([]*models.Confession, int, error)
	Delete(ctx context.Context, id, authorID string) error
	Stats(ctx context.Context, ids []string, viewerID string) (map[string]*models.ConfessionStats, error)
	GetReaction(ctx context.Context, confessionID, userID string) (*models.Reaction, error)
	SetReaction(ctx context.Context, reaction *models.Reaction) error
	RemoveReaction(ctx context.Context, confessionID, userID string) error
	AddComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, confessionID, commentID string) (*models.Comment, error)
	ListComments(ctx context.Context, confessionID string) ([]*models.Comment, error)
}

// ConfessionFilter selects a page of a college feed
type ConfessionFilter struct {
	College  string
	Category *models.ConfessionCategory
	Limit    int
	Offset   int
}

// ConfessionRepo is a pgx-backed ConfessionRepository
type ConfessionRepo struct {
	db *pgxpool.Pool
}

// NewConfessionRepository creates a new confession repository
func NewConfessionRepository(db *pgxpool.Pool) *ConfessionRepo {
	return &ConfessionRepo{db: db}
}

const confessionColumns = `id, author_id, content, category, college, created_at, updated_at`

func scanConfession(row pgx.Row) (*models.Confession, error) {
	var c models.Confession
	if err := row.Scan(&c.ID, &c.AuthorID, &c.Content, &c.Category, &c.College, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a confession
func (r *ConfessionRepo) Create(ctx context.Context, c *models.Confession) error {
	query := `
		INSERT INTO confessions (id, author_id, content, category, college, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.AuthorID, c.Content, c.Category, c.College, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create confession: %w", err)
	}
	return nil
}

// GetByID retrieves a confession by ID
func (r *ConfessionRepo) GetByID(ctx context.Context, id string) (*models.Confession, error) {
	c, err := scanConfession(r.db.QueryRow(ctx, `SELECT `+confessionColumns+` FROM confessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get confession: %w", err)
	}
	return c, nil
}

// ListByCollege returns one page of a college feed, newest first, and the total count
func (r *ConfessionRepo) ListByCollege(ctx context.Context, filter ConfessionFilter) ([]*models.Confession, int, error) {
	var category *string
	if filter.Category != nil {
		s := string(*filter.Category)
		category = &s
	}
	where := `WHERE college = $1 AND ($2::text IS NULL OR category = $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM confessions `+where,
		filter.College, category).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count confessions: %w", err)
	}

	query := `SELECT ` + confessionColumns + ` FROM confessions ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, filter.College, category, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list confessions: %w", err)
	}
	defer rows.Close()

	confessions := make([]*models.Confession, 0)
	for rows.Next() {
		c, err := scanConfession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan confession: %w", err)
		}
		confessions = append(confessions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating confessions: %w", err)
	}
	return confessions, total, nil
}

// Delete removes a confession written by authorID; reactions and comments cascade
func (r *ConfessionRepo) Delete(ctx context.Context, id, authorID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM confessions WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete confession: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates reaction counts, the viewer's reaction and comment counts per confession
func (r *ConfessionRepo) Stats(ctx context.Context, ids []string, viewerID string) (map[string]*models.ConfessionStats, error) {
	stats := make(map[string]*models.ConfessionStats, len(ids))
	for _, id := range ids {
		stats[id] = &models.ConfessionStats{ReactionCounts: models.EmptyReactionCounts()}
	}
	if len(ids) == 0 {
		return stats, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT confession_id, type, COUNT(*), BOOL_OR(user_id = $2)
		FROM confession_reactions
		WHERE confession_id = ANY($1)
		GROUP BY confession_id, type
	`, ids, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reactions: %w", err)
	}
	for rows.Next() {
		var (
			id     string
			typ    models.ReactionType
			count  int
			viewer bool
		)
		if err := rows.Scan(&id, &typ, &count, &viewer); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan reaction count: %w", err)
		}
		s := stats[id]
		s.ReactionCounts[typ] = count
		if viewer {
			held := typ
			s.UserReaction = &held
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reaction counts: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT confession_id, COUNT(*) FROM confession_comments
		WHERE confession_id = ANY($1)
		GROUP BY confession_id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan comment count: %w", err)
		}
		stats[id].CommentCount = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment counts: %w", err)
	}
	return stats, nil
}

// GetReaction returns the reaction userID holds on a confession
func (r *ConfessionRepo) GetReaction(ctx context.Context, confessionID, userID string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.QueryRow(ctx, `
		SELECT confession_id, user_id, type, created_at FROM confession_reactions
		WHERE confession_id = $1 AND user_id = $2
	`, confessionID, userID).Scan(&reaction.ConfessionID, &reaction.UserID, &reaction.Type, &reaction.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	return &reaction, nil
}

// SetReaction stores the user's reaction, replacing any other type they held
func (r *ConfessionRepo) SetReaction(ctx context.Context, reaction *models.Reaction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO confession_reactions (confession_id, user_id, type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (confession_id, user_id)
		DO UPDATE SET type = EXCLUDED.type, created_at = EXCLUDED.created_at
	`, reaction.ConfessionID, reaction.UserID, reaction.Type, reaction.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to set reaction: %w", err)
	}
	return nil
}

// RemoveReaction deletes the user's reaction on a confession
func (r *ConfessionRepo) RemoveReaction(ctx context.Context, confessionID, userID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM confession_reactions WHERE confession_id = $1 AND user_id = $2`, confessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	return nil
}

// AddComment inserts a comment or a reply
func (r *ConfessionRepo) AddComment(ctx context.Context, comment *models.Comment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO confession_comments (id, confession_id, parent_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, comment.ID, comment.ConfessionID, comment.ParentID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// GetComment retrieves a comment that belongs to the given confession
func (r *ConfessionRepo) GetComment(ctx context.Context, confessionID, commentID string) (*models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRow(ctx, `
		SELECT id, confession_id, parent_id, author_id, content, created_at
		FROM confession_comments WHERE id = $1 AND confession_id = $2
	`, commentID, confessionID).Scan(&c.ID, &c.ConfessionID, &c.ParentID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListComments returns every comment and reply of a confession, oldest first
func (r *ConfessionRepo) ListComments(ctx context.Context, confessionID string) ([]*models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, confession_id, parent_id, author_id, content, created_at
		FROM confession_comments WHERE confession_id = $1
		ORDER BY created_at ASC, id ASC
	`, confessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ConfessionID, &c.ParentID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}
