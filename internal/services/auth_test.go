package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shu-50/backend-CampusCrush/internal/config"
	"github.com/Shu-50/backend-CampusCrush/internal/mocks"
	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"
	"github.com/Shu-50/backend-CampusCrush/internal/services"
)

type authDeps struct {
	users  *mocks.UserRepositoryMock
	photos *mocks.PhotoRepositoryMock
	store  *mocks.ObjectStoreMock
	events *mocks.PublisherMock
}

func newAuthService(ttl time.Duration) (*services.AuthService, authDeps) {
	d := authDeps{
		users:  new(mocks.UserRepositoryMock),
		photos: new(mocks.PhotoRepositoryMock),
		store:  new(mocks.ObjectStoreMock),
		events: new(mocks.PublisherMock),
	}
	svc := services.NewAuthService(d.users, d.photos, d.store, d.events,
		config.JWTConfig{Secret: "test-secret", TTL: ttl},
		config.UploadConfig{MaxImageBytes: 5 << 20, MaxPhotos: 6},
		"http://localhost:3000/")
	return svc, d
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestCollegeFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"a@abc.edu.in", "ABC"},
		{"student@mit.edu", "MIT"},
		{"x@Xyz.ac.uk", "XYZ"},
		{"no-at-sign", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, services.CollegeFromEmail(tt.email), tt.email)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	svc, _ := newAuthService(time.Hour)

	token, err := svc.GenerateJWT("user-1")
	require.NoError(t, err)

	userID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestValidateJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	expired, _ := newAuthService(-time.Minute)
	token, err := expired.GenerateJWT("user-1")
	require.NoError(t, err)
	_, err = expired.ValidateJWT(token)
	assert.Error(t, err)

	other := services.NewAuthService(nil, nil, nil, nil,
		config.JWTConfig{Secret: "other-secret", TTL: time.Hour}, config.UploadConfig{}, "")
	foreign, err := other.GenerateJWT("user-1")
	require.NoError(t, err)

	svc, _ := newAuthService(time.Hour)
	_, err = svc.ValidateJWT(foreign)
	assert.Error(t, err)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	token, err := svc.GenerateJWT("gone")
	require.NoError(t, err)
	d.users.On("Exists", mock.Anything, "gone").Return(false, nil).Once()

	_, err = svc.Authenticate(context.Background(), token)

	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	d.users.On("GetByEmail", mock.Anything, "alice@abc.edu").
		Return(&models.User{ID: "alice", PasswordHash: string(hash)}, nil).Once()

	_, err = svc.Login(context.Background(), services.LoginRequest{Email: " Alice@ABC.edu ", Password: "wrong"})

	assert.ErrorIs(t, err, services.ErrUnauthorized)
	d.users.AssertNotCalled(t, "TouchLastActive", mock.Anything, mock.Anything)
}

func TestLoginSuccess(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	d.users.On("GetByEmail", mock.Anything, "alice@abc.edu").
		Return(&models.User{ID: "alice", PasswordHash: string(hash)}, nil).Once()
	d.users.On("TouchLastActive", mock.Anything, "alice").Return(nil).Once()
	d.photos.On("ListByUsers", mock.Anything, []string{"alice"}, "alice").Return(map[string][]models.Photo{}, nil).Once()

	result, err := svc.Login(context.Background(), services.LoginRequest{Email: "alice@abc.edu", Password: "correct-horse"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.NotNil(t, result.User.Photos)
	d.users.AssertExpectations(t)
}

func TestVerifyEmailInvalidToken(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	d.users.On("ConsumeEmailToken", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return("", repository.ErrNotFound).Once()

	err := svc.VerifyEmail(context.Background(), "bogus")

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid or expired verification token", verr.Message)
}

func TestVerifyEmailStoresOnlyDigest(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	d.users.On("ConsumeEmailToken", mock.Anything, mock.MatchedBy(func(hash string) bool {
		return hash != "raw-token" && len(hash) == 64
	}), mock.Anything).Return("alice", nil).Once()

	require.NoError(t, svc.VerifyEmail(context.Background(), "raw-token"))
	d.users.AssertExpectations(t)
}

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	d.users.On("GetByEmail", mock.Anything, "nobody@abc.edu").Return(nil, repository.ErrNotFound).Once()

	err := svc.ForgotPassword(context.Background(), services.ForgotPasswordRequest{Email: "nobody@abc.edu"})

	assert.NoError(t, err)
	d.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPasswordPublishesResetLink(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	d.users.On("GetByEmail", mock.Anything, "alice@abc.edu").
		Return(&models.User{ID: "alice", Email: "alice@abc.edu", Name: "Alice"}, nil).Once()
	d.users.On("SetResetToken", mock.Anything, "alice", mock.MatchedBy(func(tok repository.TokenHash) bool {
		return len(tok.Hash) == 64 && time.Until(tok.ExpiresAt) > 50*time.Minute
	})).Return(nil).Once()
	d.events.On("Publish", mock.Anything, services.EventEmailPasswordReset, mock.MatchedBy(func(e services.EmailEvent) bool {
		return e.Link == "http://localhost:3000/reset-password/"+e.Token && len(e.Token) == 64
	})).Return(nil).Once()

	require.NoError(t, svc.ForgotPassword(context.Background(), services.ForgotPasswordRequest{Email: "alice@abc.edu"}))
	d.users.AssertExpectations(t)
	d.events.AssertExpectations(t)
}

func TestRegisterDuplicateEmailSkipsUpload(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	d.users.On("GetByEmail", mock.Anything, "alice@abc.edu").Return(&models.User{ID: "alice"}, nil).Once()

	_, err := svc.Register(context.Background(), services.RegisterRequest{
		Name: "Alice", Email: "alice@abc.edu", Password: "secret1", Age: 20, Gender: "female", InterestedIn: "male",
	}, services.Upload{Data: pngHeader}, services.Upload{Data: pngHeader})

	assert.ErrorIs(t, err, services.ErrConflict)
	d.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterRemovesUploadsWhenRecordFails(t *testing.T) {
	svc, d := newAuthService(time.Hour)
	d.users.On("GetByEmail", mock.Anything, "alice@abc.edu").Return(nil, repository.ErrNotFound).Once()
	d.store.On("Put", mock.Anything, mock.AnythingOfType("string"), "image/png", pngHeader).Return("https://cdn/x.png", nil).Twice()
	d.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User"), mock.Anything).Return(assert.AnError).Once()
	d.store.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil).Twice()

	_, err := svc.Register(context.Background(), services.RegisterRequest{
		Name: "Alice", Email: "alice@abc.edu", Password: "secret1", Age: 20, Gender: "female", InterestedIn: "male",
	}, services.Upload{Data: pngHeader}, services.Upload{Data: pngHeader})

	assert.Error(t, err)
	d.store.AssertExpectations(t)
}

func TestRegisterRejectsNonImage(t *testing.T) {
	svc, _ := newAuthService(time.Hour)

	_, err := svc.Register(context.Background(), services.RegisterRequest{
		Name: "Alice", Email: "alice@abc.edu", Password: "secret1", Age: 20, Gender: "female", InterestedIn: "male",
	}, services.Upload{Data: []byte("plain text, not a picture")}, services.Upload{Data: pngHeader})

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "selfie must be an image", verr.Message)
}
