package repository

import (
	"context"
	"fmt"

	"github.com/Shu-50/backend-CampusCrush/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SwipeRepository stores one directional action per ordered user pair
type SwipeRepository interface {
	Upsert(ctx context.Context, swipe *models.Swipe) error
	HasPositive(ctx context.Context, swiperID, swipedID string) (bool, error)
}

// SwipeRepo is a pgx-backed SwipeRepository
type SwipeRepo struct {
	db *pgxpool.Pool
}

// NewSwipeRepository creates a new swipe repository
func NewSwipeRepository(db *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{db: db}
}

// Upsert records the swipe, replacing the action of an earlier swipe on the same target
func (r *SwipeRepo) Upsert(ctx context.Context, swipe *models.Swipe) error {
	query := `
		INSERT INTO swipes (swiper_id, swiped_id, action, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (swiper_id, swiped_id)
		DO UPDATE SET action = EXCLUDED.action, updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, swipe.SwiperID, swipe.SwipedID, swipe.Action, swipe.UpdatedAt).
		Scan(&swipe.CreatedAt, &swipe.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert swipe: %w", err)
	}
	return nil
}

// HasPositive reports whether swiperID liked or superliked swipedID
func (r *SwipeRepo) HasPositive(ctx context.Context, swiperID, swipedID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM swipes
			WHERE swiper_id = $1 AND swiped_id = $2 AND action IN ($3, $4)
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, swiperID, swipedID, models.SwipeLike, models.SwipeSuperlike).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reciprocal swipe: %w", err)
	}
	return exists, nil
}
