package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository handles database operations for matches
type MatchRepository interface {
	CreateIfAbsent(ctx context.Context, match *models.Match) (bool, error)
	GetActiveByPair(ctx context.Context, userA, userB string) (*models.Match, error)
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*models.Match, error)
	UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error
	UpdateLastMessage(ctx context.Context, id string, last models.LastMessage) error
	RefreshLastMessage(ctx context.Context, id string) error
}

// MatchRepo is a pgx-backed MatchRepository
type MatchRepo struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{db: db}
}

// OrderPair returns the two ids with the smaller one first
func OrderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

const matchColumns = `id, user1_id, user2_id, status, matched_at, last_activity,
	last_message_content, last_message_sender, last_message_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var (
		m       models.Match
		content *string
		sender  *string
		sentAt  *time.Time
	)
	err := row.Scan(&m.ID, &m.User1ID, &m.User2ID, &m.Status, &m.MatchedAt, &m.LastActivity,
		&content, &sender, &sentAt)
	if err != nil {
		return nil, err
	}
	if content != nil && sender != nil && sentAt != nil {
		m.LastMessage = &models.LastMessage{Content: *content, SenderID: *sender, SentAt: *sentAt}
	}
	return &m, nil
}

// CreateIfAbsent inserts an active match unless the pair already has one.
// It reports whether this call created the row.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, match *models.Match) (bool, error) {
	match.User1ID, match.User2ID = OrderPair(match.User1ID, match.User2ID)
	query := `
		INSERT INTO matches (id, user1_id, user2_id, status, matched_at, last_activity)
		VALUES ($1, $2, $3, 'active', $4, $4)
		ON CONFLICT (user1_id, user2_id) WHERE status = 'active' DO NOTHING
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query, match.ID, match.User1ID, match.User2ID, match.MatchedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create match: %w", err)
	}
	match.Status = models.MatchActive
	match.LastActivity = match.MatchedAt
	return true, nil
}

// GetActiveByPair retrieves the active match between two users in either order
func (r *MatchRepo) GetActiveByPair(ctx context.Context, userA, userB string) (*models.Match, error) {
	u1, u2 := OrderPair(userA, userB)
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE user1_id = $1 AND user2_id = $2 AND status = 'active'`
	match, err := scanMatch(r.db.QueryRow(ctx, query, u1, u2))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match by pair: %w", err)
	}
	return match, nil
}

// GetByID retrieves a match by ID
func (r *MatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	match, err := scanMatch(r.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// ListActiveByUser lists a user's active matches, most recent activity first
func (r *MatchRepo) ListActiveByUser(ctx context.Context, userID string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE (user1_id = $1 OR user2_id = $1) AND status = 'active'
		ORDER BY last_activity DESC, id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// UpdateStatus changes the status of a match
func (r *MatchRepo) UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error {
	result, err := r.db.Exec(ctx,
		`UPDATE matches SET status = $2, last_activity = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastMessage caches the latest message and bumps last activity
func (r *MatchRepo) UpdateLastMessage(ctx context.Context, id string, last models.LastMessage) error {
	query := `
		UPDATE matches SET last_message_content = $2, last_message_sender = $3,
			last_message_at = $4, last_activity = $4
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id, last.Content, last.SenderID, last.SentAt); err != nil {
		return fmt.Errorf("failed to update last message: %w", err)
	}
	return nil
}

// RefreshLastMessage rebuilds the cached last message from the newest visible message,
// clearing it when none is left. Last activity is not moved back.
func (r *MatchRepo) RefreshLastMessage(ctx context.Context, id string) error {
	query := `
		UPDATE matches SET (last_message_content, last_message_sender, last_message_at) = (
			SELECT content, sender_id, created_at FROM messages
			WHERE match_id = $1 AND NOT is_deleted
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to refresh last message: %w", err)
	}
	return nil
}
