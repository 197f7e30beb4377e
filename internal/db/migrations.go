package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order and must stay idempotent
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		age INT NOT NULL,
		gender TEXT NOT NULL,
		interested_in TEXT NOT NULL DEFAULT 'everyone',
		looking_for TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		course TEXT NOT NULL DEFAULT '',
		year INT NOT NULL DEFAULT 0,
		interests TEXT[] NOT NULL DEFAULT '{}',
		college TEXT NOT NULL,
		selfie_url TEXT NOT NULL,
		selfie_key TEXT NOT NULL,
		college_id_url TEXT NOT NULL,
		college_id_key TEXT NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		email_token_hash TEXT,
		email_token_expires TIMESTAMPTZ,
		reset_token_hash TEXT,
		reset_token_expires TIMESTAMPTZ,
		push_token TEXT,
		last_active TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_users_college ON users (college);`,
	`CREATE TABLE IF NOT EXISTS user_photos (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		url TEXT NOT NULL UNIQUE,
		storage_key TEXT NOT NULL,
		is_main BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_user_photos_user ON user_photos (user_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS photo_likes (
		photo_id TEXT NOT NULL REFERENCES user_photos(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (photo_id, user_id)
	);`,
	`CREATE TABLE IF NOT EXISTS swipes (
		swiper_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		swiped_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (swiper_id, swiped_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_swipes_swiped ON swipes (swiped_id, swiper_id);`,
	`CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		user1_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user2_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'active',
		matched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_message_content TEXT,
		last_message_sender TEXT,
		last_message_at TIMESTAMPTZ,
		CHECK (user1_id < user2_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user1 ON matches (user1_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches (user2_id, status);`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		match_id TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		sender_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'text',
		read_by TEXT[] NOT NULL DEFAULT '{}',
		reply_to TEXT REFERENCES messages(id) ON DELETE SET NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_match ON messages (match_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		sender_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		data JSONB NOT NULL DEFAULT '{}',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, is_read, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS confessions (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		college TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_confessions_college ON confessions (college, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS confession_reactions (
		confession_id TEXT NOT NULL REFERENCES confessions(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (confession_id, user_id)
	);`,
	`CREATE TABLE IF NOT EXISTS confession_comments (
		id TEXT PRIMARY KEY,
		confession_id TEXT NOT NULL REFERENCES confessions(id) ON DELETE CASCADE,
		parent_id TEXT REFERENCES confession_comments(id) ON DELETE CASCADE,
		author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_confession_comments_confession ON confession_comments (confession_id, created_at);`,
}

// activeMatchIndex enforces one active match per pair. It is created after repair
// has retired legacy duplicates, otherwise the index build would fail.
const activeMatchIndex = `CREATE UNIQUE INDEX IF NOT EXISTS uq_matches_active_pair
	ON matches (user1_id, user2_id) WHERE status = 'active';`

// mainPhotoIndex enforces at most one main photo per user. Extra mains are demoted first.
const mainPhotoIndex = `CREATE UNIQUE INDEX IF NOT EXISTS uq_user_photos_main
	ON user_photos (user_id) WHERE is_main;`

// Migrate applies the schema
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i, err)
		}
	}
	if _, err := retireDuplicateMatches(ctx, pool); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, activeMatchIndex); err != nil {
		return fmt.Errorf("failed to create active match index: %w", err)
	}
	if _, err := fixMainPhotos(ctx, pool); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, mainPhotoIndex); err != nil {
		return fmt.Errorf("failed to create main photo index: %w", err)
	}

	log.Info().Int("statements", len(migrations)+2).Msg("Database migrations applied")
	return nil
}
