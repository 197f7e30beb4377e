package db

import (
	"context"
	"fmt"

	"github.com/Shu-50/backend-CampusCrush/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// RepairReport counts the rows touched by each repair step
type RepairReport struct {
	CategoriesBackfilled int64
	MatchesRetired       int64
	MainPhotosFixed      int64
}

// Repair runs idempotent data fixes. Running it twice in a row changes nothing the second time.
func Repair(ctx context.Context, pool *pgxpool.Pool) (*RepairReport, error) {
	var report RepairReport

	categories := make([]string, 0, len(models.ConfessionCategories))
	for _, c := range models.ConfessionCategories {
		categories = append(categories, string(c))
	}
	tag, err := pool.Exec(ctx,
		`UPDATE confessions SET category = 'general', updated_at = NOW()
		 WHERE category IS NULL OR NOT (category = ANY($1))`, categories)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill confession categories: %w", err)
	}
	report.CategoriesBackfilled = tag.RowsAffected()

	retired, err := retireDuplicateMatches(ctx, pool)
	if err != nil {
		return nil, err
	}
	report.MatchesRetired = retired

	fixed, err := fixMainPhotos(ctx, pool)
	if err != nil {
		return nil, err
	}
	report.MainPhotosFixed = fixed

	log.Info().
		Int64("categories_backfilled", report.CategoriesBackfilled).
		Int64("matches_retired", report.MatchesRetired).
		Int64("main_photos_fixed", report.MainPhotosFixed).
		Msg("Data repair finished")

	return &report, nil
}

// retireDuplicateMatches keeps the oldest active match per pair and marks the rest unmatched
func retireDuplicateMatches(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	tag, err := pool.Exec(ctx, `
		UPDATE matches SET status = 'unmatched'
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY user1_id, user2_id ORDER BY matched_at ASC, id ASC
				) AS rn
				FROM matches WHERE status = 'active'
			) ranked WHERE rn > 1
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to retire duplicate matches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// fixMainPhotos leaves exactly one main photo for each user that has photos
func fixMainPhotos(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// users with more than one main photo keep the oldest
	demoted, err := tx.Exec(ctx, `
		UPDATE user_photos SET is_main = FALSE
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY user_id ORDER BY created_at ASC, id ASC
				) AS rn
				FROM user_photos WHERE is_main
			) ranked WHERE rn > 1
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to demote extra main photos: %w", err)
	}

	// users with photos but no main photo get their oldest one promoted
	promoted, err := tx.Exec(ctx, `
		UPDATE user_photos SET is_main = TRUE
		WHERE id IN (
			SELECT DISTINCT ON (user_id) id FROM user_photos p
			WHERE NOT EXISTS (
				SELECT 1 FROM user_photos m WHERE m.user_id = p.user_id AND m.is_main
			)
			ORDER BY user_id, created_at ASC, id ASC
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to promote main photos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit main photo repair: %w", err)
	}
	return demoted.RowsAffected() + promoted.RowsAffected(), nil
}
