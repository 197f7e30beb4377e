package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shu-50/backend-CampusCrush/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for chat messages
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByMatch(ctx context.Context, matchID string, limit, offset int) ([]*models.Message, error)
	MarkMatchRead(ctx context.Context, matchID, readerID string) (int64, error)
	MarkRead(ctx context.Context, id, readerID string) error
	SoftDelete(ctx context.Context, id, senderID string) error
	CountUnread(ctx context.Context, matchIDs []string, userID string) (map[string]int, error)
}

// MessageRepo is a pgx-backed MessageRepository
type MessageRepo struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, match_id, sender_id, content, type, read_by, reply_to, is_deleted, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.Type, &m.ReadBy,
		&m.ReplyTo, &m.IsDeleted, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}
	return &m, nil
}

// Create inserts a message. The sender is always part of the read set.
func (r *MessageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ReadBy = []string{msg.SenderID}
	query := `
		INSERT INTO messages (id, match_id, sender_id, content, type, read_by, reply_to, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.MatchID, msg.SenderID, msg.Content, msg.Type, msg.ReadBy, msg.ReplyTo, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	msg, err := scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// ListByMatch returns one page of non-deleted messages, oldest first
func (r *MessageRepo) ListByMatch(ctx context.Context, matchID string, limit, offset int) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE match_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, matchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// MarkMatchRead adds readerID to the read set of every message in the match sent by the other side
func (r *MessageRepo) MarkMatchRead(ctx context.Context, matchID, readerID string) (int64, error) {
	query := `
		UPDATE messages SET read_by = array_append(read_by, $2)
		WHERE match_id = $1 AND sender_id <> $2 AND NOT ($2 = ANY(read_by))
	`
	result, err := r.db.Exec(ctx, query, matchID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected(), nil
}

// MarkRead adds readerID to the read set of a single message
func (r *MessageRepo) MarkRead(ctx context.Context, id, readerID string) error {
	query := `
		UPDATE messages SET read_by = array_append(read_by, $2)
		WHERE id = $1 AND NOT ($2 = ANY(read_by))
	`
	if _, err := r.db.Exec(ctx, query, id, readerID); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// SoftDelete hides a message sent by senderID
func (r *MessageRepo) SoftDelete(ctx context.Context, id, senderID string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE messages SET is_deleted = TRUE WHERE id = $1 AND sender_id = $2`, id, senderID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread counts, per match, the visible messages userID has not read
func (r *MessageRepo) CountUnread(ctx context.Context, matchIDs []string, userID string) (map[string]int, error) {
	counts := make(map[string]int, len(matchIDs))
	if len(matchIDs) == 0 {
		return counts, nil
	}
	query := `
		SELECT match_id, COUNT(*) FROM messages
		WHERE match_id = ANY($1) AND sender_id <> $2 AND NOT is_deleted AND NOT ($2 = ANY(read_by))
		GROUP BY match_id
	`
	rows, err := r.db.Query(ctx, query, matchIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			matchID string
			count   int
		)
		if err := rows.Scan(&matchID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan unread count: %w", err)
		}
		counts[matchID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unread counts: %w", err)
	}
	return counts, nil
}
