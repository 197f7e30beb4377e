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

// UserRepository abstracts account persistence
type UserRepository interface {
	Create(ctx context.Context, user *models.User, emailToken TokenHash) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	SetEmailToken(ctx context.Context, userID string, token TokenHash) error
	ConsumeEmailToken(ctx context.Context, hash string, now time.Time) (string, error)
	SetResetToken(ctx context.Context, userID string, token TokenHash) error
	ConsumeResetToken(ctx context.Context, hash, passwordHash string, now time.Time) (string, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	TouchLastActive(ctx context.Context, userID string) error
	Discover(ctx context.Context, filter DiscoverFilter) ([]*models.User, error)
}

// TokenHash is a stored single-use token digest and its expiry
type TokenHash struct {
	Hash      string
	ExpiresAt time.Time
}

// DiscoverFilter selects candidate profiles for a viewer
type DiscoverFilter struct {
	ViewerID string
	Genders  []models.Gender
	College  string
	MinAge   int
	MaxAge   int
	Limit    int
	Offset   int
}

// UserRepo is a pgx-backed UserRepository
type UserRepo struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, password_hash, name, age, gender, interested_in, looking_for,
	bio, course, year, interests, college, selfie_url, selfie_key, college_id_url, college_id_key,
	is_verified, is_email_verified, push_token, last_active, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Age, &u.Gender, &u.InterestedIn, &u.LookingFor,
		&u.Bio, &u.Course, &u.Year, &u.Interests, &u.College, &u.SelfieURL, &u.SelfieKey,
		&u.CollegeIDURL, &u.CollegeIDKey, &u.IsVerified, &u.IsEmailVerified, &u.PushToken,
		&u.LastActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new user together with its pending email verification token
func (r *UserRepo) Create(ctx context.Context, user *models.User, emailToken TokenHash) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, age, gender, interested_in, looking_for,
			bio, course, year, interests, college, selfie_url, selfie_key, college_id_url, college_id_key,
			is_verified, is_email_verified, email_token_hash, email_token_expires,
			last_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24)
	`
	interests := user.Interests
	if interests == nil {
		interests = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Age, user.Gender, user.InterestedIn,
		user.LookingFor, user.Bio, user.Course, user.Year, interests, user.College,
		user.SelfieURL, user.SelfieKey, user.CollegeIDURL, user.CollegeIDKey,
		user.IsVerified, user.IsEmailVerified, emailToken.Hash, emailToken.ExpiresAt,
		user.LastActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByIDs retrieves every user whose id is listed; unknown ids are skipped
func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Exists checks whether a user id is registered
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Update writes the editable profile fields
func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET name = $2, age = $3, gender = $4, interested_in = $5, looking_for = $6,
			bio = $7, course = $8, year = $9, interests = $10, updated_at = $11
		WHERE id = $1
	`
	interests := user.Interests
	if interests == nil {
		interests = []string{}
	}
	result, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Age, user.Gender, user.InterestedIn, user.LookingFor,
		user.Bio, user.Course, user.Year, interests, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEmailToken stores a fresh verification token, replacing any previous one
func (r *UserRepo) SetEmailToken(ctx context.Context, userID string, token TokenHash) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET email_token_hash = $2, email_token_expires = $3 WHERE id = $1`,
		userID, token.Hash, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to set email token: %w", err)
	}
	return nil
}

// ConsumeEmailToken marks the owner verified and clears the token in one statement
func (r *UserRepo) ConsumeEmailToken(ctx context.Context, hash string, now time.Time) (string, error) {
	query := `
		UPDATE users SET is_email_verified = TRUE, email_token_hash = NULL,
			email_token_expires = NULL, updated_at = $2
		WHERE email_token_hash = $1 AND email_token_expires > $2
		RETURNING id
	`
	var id string
	if err := r.db.QueryRow(ctx, query, hash, now).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to consume email token: %w", err)
	}
	return id, nil
}

// SetResetToken stores a fresh password reset token
func (r *UserRepo) SetResetToken(ctx context.Context, userID string, token TokenHash) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET reset_token_hash = $2, reset_token_expires = $3 WHERE id = $1`,
		userID, token.Hash, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken replaces the password and clears the token in one statement
func (r *UserRepo) ConsumeResetToken(ctx context.Context, hash, passwordHash string, now time.Time) (string, error) {
	query := `
		UPDATE users SET password_hash = $2, reset_token_hash = NULL,
			reset_token_expires = NULL, updated_at = $3
		WHERE reset_token_hash = $1 AND reset_token_expires > $3
		RETURNING id
	`
	var id string
	if err := r.db.QueryRow(ctx, query, hash, passwordHash, now).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}
	return id, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepo) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// TouchLastActive records that the user was just seen
func (r *UserRepo) TouchLastActive(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_active = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to touch last active: %w", err)
	}
	return nil
}

// Discover lists candidates the viewer has not swiped yet, most recently active first
func (r *UserRepo) Discover(ctx context.Context, filter DiscoverFilter) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users u
		WHERE u.id <> $1
		  AND NOT EXISTS (SELECT 1 FROM swipes s WHERE s.swiper_id = $1 AND s.swiped_id = u.id)
		  AND ($2::text[] IS NULL OR u.gender = ANY($2))
		  AND ($3 = '' OR u.college = $3)
		  AND ($4 = 0 OR u.age >= $4)
		  AND ($5 = 0 OR u.age <= $5)
		ORDER BY u.last_active DESC, u.id
		LIMIT $6 OFFSET $7
	`
	var genders []string
	if filter.Genders != nil {
		genders = make([]string, 0, len(filter.Genders))
		for _, g := range filter.Genders {
			genders = append(genders, string(g))
		}
	}
	rows, err := r.db.Query(ctx, query,
		filter.ViewerID, genders, filter.College, filter.MinAge, filter.MaxAge, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to discover users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
