package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/config"
	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	tokenBytes           = 32
)

// Claims is the JWT payload issued to users
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RegisterRequest holds the text fields of the registration form
type RegisterRequest struct {
	Name         string              `json:"name" validate:"required,max=50"`
	Email        string              `json:"email" validate:"required,email"`
	Password     string              `json:"password" validate:"required,min=6"`
	Age          int                 `json:"age" validate:"required,min=18,max=100"`
	Gender       models.Gender       `json:"gender" validate:"required,enum"`
	InterestedIn models.InterestedIn `json:"interestedIn" validate:"required,enum"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest carries the new password
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// ForgotPasswordRequest carries the account email
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PushTokenRequest registers a device token
type PushTokenRequest struct {
	Token string `json:"token" validate:"required,max=200"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService handles accounts, credentials and tokens
type AuthService struct {
	users     repository.UserRepository
	photos    repository.PhotoRepository
	store     ObjectStore
	events    Publisher
	jwtSecret string
	jwtTTL    time.Duration
	maxImage  int64
	clientURL string
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repository.UserRepository,
	photos repository.PhotoRepository,
	store ObjectStore,
	events Publisher,
	jwtCfg config.JWTConfig,
	uploadCfg config.UploadConfig,
	clientURL string,
) *AuthService {
	return &AuthService{
		users:     users,
		photos:    photos,
		store:     store,
		events:    events,
		jwtSecret: jwtCfg.Secret,
		jwtTTL:    jwtCfg.TTL,
		maxImage:  uploadCfg.MaxImageBytes,
		clientURL: strings.TrimRight(clientURL, "/"),
	}
}

// CollegeFromEmail derives the college code from the email domain: a@abc.edu.in is ABC
func CollegeFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	label := strings.SplitN(email[at+1:], ".", 2)[0]
	return strings.ToUpper(strings.TrimSpace(label))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateJWT generates a JWT token for a user
func (s *AuthService) GenerateJWT(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *AuthService) ValidateJWT(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}
	return claims.UserID, nil
}

// Authenticate resolves a bearer token to the id of an existing user
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (string, error) {
	userID, err := s.ValidateJWT(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	return userID, nil
}

// Register creates an account from the form fields and the two verification images.
// The images are uploaded first and removed again if the account cannot be written.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, selfie, collegeID Upload) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := Validate(req); err != nil {
		return nil, err
	}
	college := CollegeFromEmail(req.Email)
	if college == "" {
		return nil, invalid("email must include a college domain")
	}

	selfieType, selfieExt, err := sniffImage("selfie", selfie, s.maxImage)
	if err != nil {
		return nil, err
	}
	idType, idExt, err := sniffImage("collegeId", collegeID, s.maxImage)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("user with this email already exists: %w", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.New().String()

	selfieKey := objectKey("verification/selfie", userID, selfieExt)
	selfieURL, err := s.store.Put(ctx, selfieKey, selfieType, selfie.Data)
	if err != nil {
		return nil, err
	}
	idKey := objectKey("verification/college-id", userID, idExt)
	idURL, err := s.store.Put(ctx, idKey, idType, collegeID.Data)
	if err != nil {
		s.cleanup(ctx, selfieKey)
		return nil, err
	}

	rawToken, emailToken, err := newToken(verificationTokenTTL)
	if err != nil {
		s.cleanup(ctx, selfieKey, idKey)
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Age:          req.Age,
		Gender:       req.Gender,
		InterestedIn: req.InterestedIn,
		Interests:    []string{},
		College:      college,
		SelfieURL:    selfieURL,
		SelfieKey:    selfieKey,
		CollegeIDURL: idURL,
		CollegeIDKey: idKey,
		Photos:       []models.Photo{},
		LastActive:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user, emailToken); err != nil {
		s.cleanup(ctx, selfieKey, idKey)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("user with this email already exists: %w", ErrConflict)
		}
		return nil, err
	}

	s.sendEmail(ctx, EventEmailVerification, user, rawToken, "/verify-email/")

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("college", college).Msg("User registered")
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to remove orphaned upload")
		}
	}
}

// Login checks credentials and issues a token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	if err := s.users.TouchLastActive(ctx, user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update last active")
	}
	if err := s.attachPhotos(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Me returns the caller's full profile
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if err := s.attachPhotos(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) attachPhotos(ctx context.Context, user *models.User) error {
	photos, err := s.photos.ListByUsers(ctx, []string{user.ID}, user.ID)
	if err != nil {
		return err
	}
	user.Photos = photos[user.ID]
	if user.Photos == nil {
		user.Photos = []models.Photo{}
	}
	return nil
}

// VerifyEmail consumes a verification token
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	userID, err := s.users.ConsumeEmailToken(ctx, hashToken(rawToken), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("Invalid or expired verification token")
		}
		return err
	}
	log.Info().Str("user_id", userID).Msg("Email verified")
	return nil
}

// ResendVerification issues a fresh verification token
func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, "user")
	}
	if user.IsEmailVerified {
		return invalid("Email is already verified")
	}

	rawToken, token, err := newToken(verificationTokenTTL)
	if err != nil {
		return err
	}
	if err := s.users.SetEmailToken(ctx, user.ID, token); err != nil {
		return err
	}
	s.sendEmail(ctx, EventEmailVerification, user, rawToken, "/verify-email/")
	return nil
}

// ForgotPassword issues a reset token when the email is known. It never reports whether it is.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := Validate(req); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to look up user for password reset")
		}
		return nil
	}

	rawToken, token, err := newToken(resetTokenTTL)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create reset token")
		return nil
	}
	if err := s.users.SetResetToken(ctx, user.ID, token); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to store reset token")
		return nil
	}
	s.sendEmail(ctx, EventEmailPasswordReset, user, rawToken, "/reset-password/")
	return nil
}

// ResetPassword consumes a reset token and replaces the password
func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, req ResetPasswordRequest) error {
	if err := Validate(req); err != nil {
		return err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.users.ConsumeResetToken(ctx, hashToken(rawToken), string(passwordHash), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("Invalid or expired reset token")
		}
		return err
	}
	log.Info().Str("user_id", userID).Msg("Password reset")
	return nil
}

// Logout forgets the device push token
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.UpdatePushToken(ctx, userID, nil)
}

// UpdatePushToken registers the device token used for push notifications
func (s *AuthService) UpdatePushToken(ctx context.Context, userID string, req PushTokenRequest) error {
	req.Token = strings.TrimSpace(req.Token)
	if err := Validate(req); err != nil {
		return err
	}
	return s.users.UpdatePushToken(ctx, userID, &req.Token)
}

func (s *AuthService) sendEmail(ctx context.Context, routingKey string, user *models.User, rawToken, path string) {
	event := EmailEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Token:  rawToken,
		Link:   s.clientURL + path + rawToken,
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Str("routing_key", routingKey).Msg("Failed to publish email event")
	}
}

// newToken returns a random hex token and its stored digest
func newToken(ttl time.Duration) (string, repository.TokenHash, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", repository.TokenHash{}, fmt.Errorf("failed to generate token: %w", err)
	}
	raw := hex.EncodeToString(buf)
	return raw, repository.TokenHash{Hash: hashToken(raw), ExpiresAt: time.Now().Add(ttl)}, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
