package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shu-50/backend-CampusCrush/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository abstracts profile photo persistence and the per-photo liker set
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo, maxPhotos int) error
	CountByUser(ctx context.Context, userID string) (int, error)
	ListByUsers(ctx context.Context, userIDs []string, viewerID string) (map[string][]models.Photo, error)
	FindByURL(ctx context.Context, url string) (*models.Photo, error)
	Delete(ctx context.Context, userID, photoID string) (*models.Photo, error)
	SetMain(ctx context.Context, userID, photoID string) error
	ToggleLike(ctx context.Context, photoID, userID string) (bool, int, error)
}

// PhotoRepo is a pgx-backed PhotoRepository
type PhotoRepo struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{db: db}
}

// Create inserts a photo unless the user already owns maxPhotos. The owner row is locked
// so concurrent uploads are counted one at a time. A user's first photo becomes main.
func (r *PhotoRepo) Create(ctx context.Context, photo *models.Photo, maxPhotos int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, photo.UserID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to lock photo owner: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_photos WHERE user_id = $1`, photo.UserID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count photos: %w", err)
	}
	if count >= maxPhotos {
		return ErrLimitReached
	}

	photo.IsMain = count == 0
	_, err = tx.Exec(ctx, `
		INSERT INTO user_photos (id, user_id, url, storage_key, is_main, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, photo.ID, photo.UserID, photo.URL, photo.StorageKey, photo.IsMain, photo.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit photo: %w", err)
	}
	return nil
}

// CountByUser counts a user's photos
func (r *PhotoRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_photos WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

// ListByUsers returns photos grouped by owner, main photo first, with like state for viewerID
func (r *PhotoRepo) ListByUsers(ctx context.Context, userIDs []string, viewerID string) (map[string][]models.Photo, error) {
	result := make(map[string][]models.Photo, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT p.id, p.user_id, p.url, p.storage_key, p.is_main, p.created_at,
			(SELECT COUNT(*) FROM photo_likes l WHERE l.photo_id = p.id),
			EXISTS(SELECT 1 FROM photo_likes l WHERE l.photo_id = p.id AND l.user_id = $2)
		FROM user_photos p
		WHERE p.user_id = ANY($1)
		ORDER BY p.user_id, p.is_main DESC, p.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, userIDs, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.URL, &p.StorageKey, &p.IsMain, &p.CreatedAt,
			&p.LikeCount, &p.IsLikedByCurrentUser,
		); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		result[p.UserID] = append(result[p.UserID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return result, nil
}

// FindByURL locates a photo by its public URL
func (r *PhotoRepo) FindByURL(ctx context.Context, url string) (*models.Photo, error) {
	query := `SELECT id, user_id, url, storage_key, is_main, created_at FROM user_photos WHERE url = $1`
	var p models.Photo
	err := r.db.QueryRow(ctx, query, url).Scan(&p.ID, &p.UserID, &p.URL, &p.StorageKey, &p.IsMain, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &p, nil
}

// Delete removes an owned photo and promotes the oldest remaining one when main was removed
func (r *PhotoRepo) Delete(ctx context.Context, userID, photoID string) (*models.Photo, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var p models.Photo
	err = tx.QueryRow(ctx, `
		DELETE FROM user_photos WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, url, storage_key, is_main, created_at
	`, photoID, userID).Scan(&p.ID, &p.UserID, &p.URL, &p.StorageKey, &p.IsMain, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete photo: %w", err)
	}

	if p.IsMain {
		_, err = tx.Exec(ctx, `
			UPDATE user_photos SET is_main = TRUE
			WHERE id = (
				SELECT id FROM user_photos WHERE user_id = $1
				ORDER BY created_at ASC, id ASC LIMIT 1
			)
		`, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to promote main photo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit photo delete: %w", err)
	}
	return &p, nil
}

// SetMain makes photoID the only main photo of userID
func (r *PhotoRepo) SetMain(ctx context.Context, userID, photoID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var owned bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_photos WHERE id = $1 AND user_id = $2)`,
		photoID, userID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("failed to check photo owner: %w", err)
	}
	if !owned {
		return ErrNotFound
	}

	// Demote first so the one-main-per-user index never sees two mains
	if _, err := tx.Exec(ctx,
		`UPDATE user_photos SET is_main = FALSE WHERE user_id = $1 AND is_main AND id <> $2`,
		userID, photoID); err != nil {
		return fmt.Errorf("failed to clear main photo: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE user_photos SET is_main = TRUE WHERE id = $1`, photoID); err != nil {
		return fmt.Errorf("failed to set main photo: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit main photo: %w", err)
	}
	return nil
}

// ToggleLike flips userID's membership in the photo's liker set and returns the new
// membership and the size of the set
func (r *PhotoRepo) ToggleLike(ctx context.Context, photoID, userID string) (bool, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	removed, err := tx.Exec(ctx,
		`DELETE FROM photo_likes WHERE photo_id = $1 AND user_id = $2`, photoID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to remove photo like: %w", err)
	}

	liked := removed.RowsAffected() == 0
	if liked {
		if _, err := tx.Exec(ctx,
			`INSERT INTO photo_likes (photo_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			photoID, userID); err != nil {
			return false, 0, fmt.Errorf("failed to add photo like: %w", err)
		}
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM photo_likes WHERE photo_id = $1`, photoID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("failed to count photo likes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to commit photo like: %w", err)
	}
	return liked, count, nil
}
