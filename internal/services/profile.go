package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shu-50/backend-CampusCrush/internal/config"
	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultDiscoverLimit = 20
	maxDiscoverLimit     = 50
)

// UpdateProfileRequest holds the editable profile fields; nil fields are left unchanged
type UpdateProfileRequest struct {
	Name         *string              `json:"name" validate:"omitempty,max=50"`
	Age          *int                 `json:"age" validate:"omitempty,min=18,max=100"`
	Bio          *string              `json:"bio" validate:"omitempty,max=500"`
	Gender       *models.Gender       `json:"gender" validate:"omitempty,enum"`
	InterestedIn *models.InterestedIn `json:"interestedIn" validate:"omitempty,enum"`
	LookingFor   *models.LookingFor   `json:"lookingFor" validate:"omitempty,enum"`
	Course       *string              `json:"course" validate:"omitempty,max=100"`
	Year         *int                 `json:"year" validate:"omitempty,min=1,max=6"`
	Interests    []string             `json:"interests" validate:"omitempty,max=10,dive,max=30"`
}

// PhotoLikeRequest identifies a photo by its URL
type PhotoLikeRequest struct {
	PhotoURL string `json:"photoUrl" validate:"required"`
}

// DiscoverQuery narrows the discovery feed
type DiscoverQuery struct {
	MinAge      int
	MaxAge      int
	SameCollege bool
	Page        int
	Limit       int
}

// DiscoverPage is one page of candidate profiles
type DiscoverPage struct {
	Users []models.PublicProfile `json:"users"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// ProfileOptions lists the values accepted by the profile pickers
type ProfileOptions struct {
	Genders              []models.Gender             `json:"genders"`
	InterestedIn         []models.InterestedIn       `json:"interestedIn"`
	LookingFor           []models.LookingFor         `json:"lookingFor"`
	Years                []int                       `json:"years"`
	ConfessionCategories []models.ConfessionCategory `json:"confessionCategories"`
	ReactionTypes        []models.ReactionType       `json:"reactionTypes"`
}

// ProfileService handles profiles, profile photos and discovery
type ProfileService struct {
	users     repository.UserRepository
	photos    repository.PhotoRepository
	store     ObjectStore
	maxImage  int64
	maxPhotos int
}

// NewProfileService creates a new profile service
func NewProfileService(
	users repository.UserRepository,
	photos repository.PhotoRepository,
	store ObjectStore,
	uploadCfg config.UploadConfig,
) *ProfileService {
	return &ProfileService{
		users:     users,
		photos:    photos,
		store:     store,
		maxImage:  uploadCfg.MaxImageBytes,
		maxPhotos: uploadCfg.MaxPhotos,
	}
}

// GetProfile returns the caller's profile with photos
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if err := s.attachPhotos(ctx, userID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name cannot be empty")
		}
		user.Name = name
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.InterestedIn != nil {
		user.InterestedIn = *req.InterestedIn
	}
	if req.LookingFor != nil {
		user.LookingFor = *req.LookingFor
	}
	if req.Course != nil {
		user.Course = strings.TrimSpace(*req.Course)
	}
	if req.Year != nil {
		user.Year = *req.Year
	}
	if req.Interests != nil {
		interests := make([]string, 0, len(req.Interests))
		for _, interest := range req.Interests {
			if trimmed := strings.TrimSpace(interest); trimmed != "" {
				interests = append(interests, trimmed)
			}
		}
		user.Interests = interests
	}
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFound(err, "user")
	}
	if err := s.attachPhotos(ctx, userID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadPhoto stores a new profile photo. The first photo becomes main.
// The early count avoids an upload that would be refused; Create enforces the cap.
func (s *ProfileService) UploadPhoto(ctx context.Context, userID string, up Upload) (*models.Photo, error) {
	count, err := s.photos.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxPhotos {
		return nil, invalid("Maximum %d photos allowed", s.maxPhotos)
	}

	contentType, ext, err := sniffImage("photo", up, s.maxImage)
	if err != nil {
		return nil, err
	}

	key := objectKey("photos", userID, ext)
	url, err := s.store.Put(ctx, key, contentType, up.Data)
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		ID:         uuid.New().String(),
		UserID:     userID,
		URL:        url,
		StorageKey: key,
		CreatedAt:  time.Now(),
	}
	if err := s.photos.Create(ctx, photo, s.maxPhotos); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			log.Error().Err(derr).Str("key", key).Msg("Failed to remove orphaned upload")
		}
		if errors.Is(err, repository.ErrLimitReached) {
			return nil, invalid("Maximum %d photos allowed", s.maxPhotos)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(err, "user")
		}
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("photo_id", photo.ID).Msg("Photo uploaded")
	return photo, nil
}

// DeletePhoto removes one of the caller's photos and its stored object
func (s *ProfileService) DeletePhoto(ctx context.Context, userID, photoID string) error {
	photo, err := s.photos.Delete(ctx, userID, photoID)
	if err != nil {
		return notFound(err, "photo")
	}
	if err := s.store.Delete(ctx, photo.StorageKey); err != nil {
		log.Error().Err(err).Str("key", photo.StorageKey).Msg("Failed to delete photo object")
	}
	return nil
}

// SetMainPhoto makes one of the caller's photos the main one
func (s *ProfileService) SetMainPhoto(ctx context.Context, userID, photoID string) error {
	if err := s.photos.SetMain(ctx, userID, photoID); err != nil {
		return notFound(err, "photo")
	}
	return nil
}

// TogglePhotoLike flips the caller's like on the photo with the given URL
func (s *ProfileService) TogglePhotoLike(ctx context.Context, userID string, req PhotoLikeRequest) (*models.PhotoLikeState, error) {
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)
	if err := Validate(req); err != nil {
		return nil, err
	}

	photo, err := s.photos.FindByURL(ctx, req.PhotoURL)
	if err != nil {
		return nil, notFound(err, "photo")
	}

	liked, count, err := s.photos.ToggleLike(ctx, photo.ID, userID)
	if err != nil {
		return nil, err
	}
	return &models.PhotoLikeState{
		PhotoID:              photo.ID,
		PhotoURL:             photo.URL,
		IsLikedByCurrentUser: liked,
		LikeCount:            count,
	}, nil
}

// Discover lists profiles the caller has not swiped yet and whose gender fits the caller's preference
func (s *ProfileService) Discover(ctx context.Context, userID string, q DiscoverQuery) (*DiscoverPage, error) {
	if q.MinAge < 0 || q.MaxAge < 0 || (q.MaxAge > 0 && q.MinAge > q.MaxAge) {
		return nil, invalid("invalid age range")
	}

	viewer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	page, limit := clampPage(q.Page, q.Limit, defaultDiscoverLimit, maxDiscoverLimit)
	filter := repository.DiscoverFilter{
		ViewerID: userID,
		Genders:  acceptedGenders(viewer.InterestedIn),
		MinAge:   q.MinAge,
		MaxAge:   q.MaxAge,
	}
	if q.SameCollege {
		filter.College = viewer.College
	}
	filter.Limit, filter.Offset = repository.Page(page, limit)

	candidates, err := s.users.Discover(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	photos, err := s.photos.ListByUsers(ctx, ids, userID)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.PublicProfile, 0, len(candidates))
	for _, c := range candidates {
		c.Photos = photos[c.ID]
		profiles = append(profiles, c.Public())
	}
	return &DiscoverPage{Users: profiles, Page: page, Limit: limit}, nil
}

// acceptedGenders returns nil when every gender is acceptable
func acceptedGenders(pref models.InterestedIn) []models.Gender {
	if pref == models.InterestedInEveryone || pref == "" {
		return nil
	}
	genders := make([]models.Gender, 0, 1)
	for _, g := range models.Genders {
		if pref.Accepts(g) {
			genders = append(genders, g)
		}
	}
	return genders
}

// Options returns the enumerations used by the client pickers
func (s *ProfileService) Options() ProfileOptions {
	return ProfileOptions{
		Genders:              models.Genders,
		InterestedIn:         models.InterestedInOptions,
		LookingFor:           models.LookingForOptions,
		Years:                []int{1, 2, 3, 4, 5, 6},
		ConfessionCategories: models.ConfessionCategories,
		ReactionTypes:        models.ReactionTypes,
	}
}

func (s *ProfileService) attachPhotos(ctx context.Context, viewerID string, user *models.User) error {
	photos, err := s.photos.ListByUsers(ctx, []string{user.ID}, viewerID)
	if err != nil {
		return fmt.Errorf("failed to load photos: %w", err)
	}
	user.Photos = photos[user.ID]
	if user.Photos == nil {
		user.Photos = []models.Photo{}
	}
	return nil
}

// loadProfiles fetches public profiles with photos for the given ids, keyed by id
func loadProfiles(ctx context.Context, users repository.UserRepository, photos repository.PhotoRepository, ids []string, viewerID string) (map[string]models.PublicProfile, error) {
	list, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser, err := photos.ListByUsers(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]models.PublicProfile, len(list))
	for _, u := range list {
		u.Photos = byUser[u.ID]
		profiles[u.ID] = u.Public()
	}
	return profiles, nil
}
