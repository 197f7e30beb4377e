package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shu-50/backend-CampusCrush/internal/db"
	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"
)

// testPool connects to DATABASE_URL and applies the schema. These tests need a real
// Postgres because the constraints they exercise live in SQL.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

// createUser inserts a throwaway user; deleting it cascades to everything it owns
func createUser(t *testing.T, pool *pgxpool.Pool, college string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now()
	user := &models.User{
		ID:           id,
		Email:        id + "@" + college + ".edu",
		PasswordHash: "hash",
		Name:         "Test",
		Age:          21,
		Gender:       models.GenderFemale,
		InterestedIn: models.InterestedInEveryone,
		College:      college,
		SelfieURL:    "https://cdn/selfie/" + id,
		SelfieKey:    "selfie/" + id,
		CollegeIDURL: "https://cdn/college-id/" + id,
		CollegeIDKey: "college-id/" + id,
		LastActive:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repository.NewUserRepository(pool).Create(context.Background(), user, repository.TokenHash{}))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func TestSwipeUpsertKeepsOneRecordPerDirection(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	swipes := repository.NewSwipeRepository(pool)
	alice := createUser(t, pool, "abc")
	bob := createUser(t, pool, "abc")

	swipe := func(from, to string, action models.SwipeAction) {
		now := time.Now()
		require.NoError(t, swipes.Upsert(ctx, &models.Swipe{
			SwiperID: from, SwipedID: to, Action: action, CreatedAt: now, UpdatedAt: now,
		}))
	}

	swipe(alice, bob, models.SwipePass)
	swipe(alice, bob, models.SwipeLike)

	assert.Equal(t, 1, countRows(t, pool,
		`SELECT COUNT(*) FROM swipes WHERE swiper_id = $1 AND swiped_id = $2`, alice, bob))
	liked, err := swipes.HasPositive(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, liked)

	reverse, err := swipes.HasPositive(ctx, bob, alice)
	require.NoError(t, err)
	assert.False(t, reverse)

	swipe(bob, alice, models.SwipeSuperlike)
	assert.Equal(t, 2, countRows(t, pool,
		`SELECT COUNT(*) FROM swipes WHERE swiper_id = ANY($1) AND swiped_id = ANY($1)`, []string{alice, bob}))

	swipe(alice, bob, models.SwipePass)
	liked, err = swipes.HasPositive(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestCreateIfAbsentRacingReciprocalSwipesYieldOneMatch(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	matches := repository.NewMatchRepository(pool)
	alice := createUser(t, pool, "abc")
	bob := createUser(t, pool, "abc")

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := alice, bob
			if i%2 == 1 {
				from, to = bob, alice
			}
			ok, err := matches.CreateIfAbsent(ctx, &models.Match{
				ID: uuid.NewString(), User1ID: from, User2ID: to, MatchedAt: time.Now(),
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	u1, u2 := repository.OrderPair(alice, bob)
	assert.Equal(t, 1, countRows(t, pool,
		`SELECT COUNT(*) FROM matches WHERE user1_id = $1 AND user2_id = $2 AND status = 'active'`, u1, u2))

	active, err := matches.GetActiveByPair(ctx, bob, alice)
	require.NoError(t, err)
	require.NoError(t, matches.UpdateStatus(ctx, active.ID, models.MatchUnmatched))

	again, err := matches.CreateIfAbsent(ctx, &models.Match{
		ID: uuid.NewString(), User1ID: alice, User2ID: bob, MatchedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, again, "an unmatched pair can match again")
}

func TestMarkAllReadOnlyTouchesRecipient(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	notifications := repository.NewNotificationRepository(pool)
	alice := createUser(t, pool, "abc")
	bob := createUser(t, pool, "abc")

	for _, recipient := range []string{alice, alice, bob} {
		require.NoError(t, notifications.Create(ctx, &models.Notification{
			ID:          uuid.NewString(),
			RecipientID: recipient,
			Type:        models.NotificationMatch,
			Title:       "It's a match!",
			Message:     "You have a new match",
			CreatedAt:   time.Now(),
		}))
	}

	updated, err := notifications.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	aliceUnread, err := notifications.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, aliceUnread)

	bobUnread, err := notifications.CountUnread(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, bobUnread)
}

func TestReactionReplaceAndViewerFlag(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	confessions := repository.NewConfessionRepository(pool)
	author := createUser(t, pool, "abc")
	reader := createUser(t, pool, "abc")

	now := time.Now()
	c := &models.Confession{
		ID: uuid.NewString(), AuthorID: author, Content: "hello", Category: models.CategoryGeneral,
		College: "abc", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, confessions.Create(ctx, c))

	react := func(user string, typ models.ReactionType) {
		require.NoError(t, confessions.SetReaction(ctx, &models.Reaction{
			ConfessionID: c.ID, UserID: user, Type: typ, CreatedAt: time.Now(),
		}))
	}
	react(reader, models.ReactionLike)
	react(reader, models.ReactionLove)
	react(author, models.ReactionLove)

	stats, err := confessions.Stats(ctx, []string{c.ID}, reader)
	require.NoError(t, err)
	s := stats[c.ID]
	assert.Equal(t, 0, s.ReactionCounts[models.ReactionLike])
	assert.Equal(t, 2, s.ReactionCounts[models.ReactionLove])
	require.NotNil(t, s.UserReaction)
	assert.Equal(t, models.ReactionLove, *s.UserReaction)
	assert.Equal(t, 0, s.CommentCount)

	require.NoError(t, confessions.RemoveReaction(ctx, c.ID, reader))

	stats, err = confessions.Stats(ctx, []string{c.ID}, reader)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[c.ID].ReactionCounts[models.ReactionLove])
	assert.Nil(t, stats[c.ID].UserReaction)
}

func newPhoto(userID string) *models.Photo {
	id := uuid.NewString()
	return &models.Photo{
		ID: id, UserID: userID, URL: "https://cdn/photos/" + id, StorageKey: "photos/" + id,
		CreatedAt: time.Now(),
	}
}

func mainPhotos(t *testing.T, pool *pgxpool.Pool, userID string) []string {
	t.Helper()
	rows, err := pool.Query(context.Background(),
		`SELECT id FROM user_photos WHERE user_id = $1 AND is_main`, userID)
	require.NoError(t, err)
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestPhotoMainFlagFollowsCreateDeleteAndSetMain(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	photos := repository.NewPhotoRepository(pool)
	alice := createUser(t, pool, "abc")

	first, second, third := newPhoto(alice), newPhoto(alice), newPhoto(alice)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	third.CreatedAt = first.CreatedAt.Add(2 * time.Second)
	require.NoError(t, photos.Create(ctx, first, 6))
	require.NoError(t, photos.Create(ctx, second, 6))
	require.NoError(t, photos.Create(ctx, third, 6))

	assert.True(t, first.IsMain)
	assert.False(t, second.IsMain)
	assert.Equal(t, []string{first.ID}, mainPhotos(t, pool, alice))

	require.NoError(t, photos.SetMain(ctx, alice, third.ID))
	assert.Equal(t, []string{third.ID}, mainPhotos(t, pool, alice))

	deleted, err := photos.Delete(ctx, alice, third.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsMain)
	assert.Equal(t, []string{first.ID}, mainPhotos(t, pool, alice), "oldest remaining photo is promoted")
}

func TestPhotoCreateEnforcesLimitUnderConcurrency(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	photos := repository.NewPhotoRepository(pool)
	alice := createUser(t, pool, "abc")

	const limit, attempts = 2, 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		refused  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := photos.Create(ctx, newPhoto(alice), limit)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, repository.ErrLimitReached):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, accepted)
	assert.Equal(t, attempts-limit, refused)
	assert.Len(t, mainPhotos(t, pool, alice), 1)
}

func TestRefreshLastMessageSkipsDeletedMessages(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	matches := repository.NewMatchRepository(pool)
	messages := repository.NewMessageRepository(pool)
	alice := createUser(t, pool, "abc")
	bob := createUser(t, pool, "abc")

	match := &models.Match{ID: uuid.NewString(), User1ID: alice, User2ID: bob, MatchedAt: time.Now()}
	_, err := matches.CreateIfAbsent(ctx, match)
	require.NoError(t, err)

	send := func(sender, content string, at time.Time) *models.Message {
		msg := &models.Message{
			ID: uuid.NewString(), MatchID: match.ID, SenderID: sender, Content: content,
			Type: models.MessageText, CreatedAt: at,
		}
		require.NoError(t, messages.Create(ctx, msg))
		require.NoError(t, matches.UpdateLastMessage(ctx, match.ID, models.LastMessage{
			Content: content, SenderID: sender, SentAt: at,
		}))
		return msg
	}
	base := time.Now().Truncate(time.Millisecond)
	first := send(alice, "hi", base)
	second := send(bob, "oops", base.Add(time.Second))

	require.NoError(t, messages.SoftDelete(ctx, second.ID, bob))
	require.NoError(t, matches.RefreshLastMessage(ctx, match.ID))

	got, err := matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "hi", got.LastMessage.Content)
	assert.Equal(t, alice, got.LastMessage.SenderID)

	require.NoError(t, messages.SoftDelete(ctx, first.ID, alice))
	require.NoError(t, matches.RefreshLastMessage(ctx, match.ID))

	got, err = matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastMessage)
}
