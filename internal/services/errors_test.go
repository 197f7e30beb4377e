package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shu-50/backend-CampusCrush/internal/models"
	"github.com/Shu-50/backend-CampusCrush/internal/repository"
)

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name string
		req  any
		want string
	}{
		{"missing email", LoginRequest{Password: "x"}, "email is required"},
		{"bad email", LoginRequest{Email: "nope", Password: "x"}, "email must be a valid email"},
		{"short password", ResetPasswordRequest{Password: "abc"}, "password must be at least 6 characters"},
		{"bad action", SwipeRequest{TargetUserID: "b", Action: "wink"}, "action must be one of: like pass superlike"},
		{"too many interests", UpdateProfileRequest{Interests: make([]string, 11)}, "interests must be at most 10 items"},
		{"bad gender pointer", UpdateProfileRequest{Gender: ptr(models.Gender("robot"))}, "gender must be one of: male female other"},
		{"bad reaction", ReactRequest{Type: "meh"}, "type must be one of: like love laugh wow sad angry"},
		{"bad category", CreateConfessionRequest{Category: "gossip"}, "category must be one of: general crush academic funny rant advice"},
		{"bad message type", SendMessageRequest{Type: "video"}, "type must be one of: text image emoji"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Message)
		})
	}
}

func TestValidateAcceptsDeclaredEnumValues(t *testing.T) {
	looking := models.LookingForNotSure
	assert.NoError(t, Validate(UpdateProfileRequest{LookingFor: &looking}))
	assert.NoError(t, Validate(SwipeRequest{TargetUserID: "b", Action: models.SwipeSuperlike}))
	assert.NoError(t, Validate(SendMessageRequest{}))
}

func ptr[T any](v T) *T { return &v }

func TestNotFoundWrapping(t *testing.T) {
	err := notFound(repository.ErrNotFound, "match")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "match: not found", err.Error())

	other := errors.New("connection reset")
	err = notFound(other, "match")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, other)
}

func TestValidContent(t *testing.T) {
	got, err := validContent("  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	_, err = validContent(" \n\t ")
	assert.Error(t, err)

	_, err = validContent(strings.Repeat("é", 1000))
	assert.NoError(t, err)

	_, err = validContent(strings.Repeat("é", 1001))
	assert.Error(t, err)
}

func TestPreviewTruncatesByRune(t *testing.T) {
	long := strings.Repeat("ü", 150)
	assert.Equal(t, strings.Repeat("ü", 100)+"...", preview(long))
	assert.Equal(t, "short", preview("short"))
}

func TestNewTokenStoresDigest(t *testing.T) {
	raw, tok, err := newToken(resetTokenTTL)
	require.NoError(t, err)

	assert.Len(t, raw, 2*tokenBytes)
	assert.Equal(t, hashToken(raw), tok.Hash)
	assert.NotEqual(t, raw, tok.Hash)
}

func TestBuildCommentTreeNestsReplies(t *testing.T) {
	top := "k1"
	comments := []*models.Comment{
		{ID: "k1", AuthorID: "alice"},
		{ID: "k2", AuthorID: "bob"},
		{ID: "r1", ParentID: &top, AuthorID: "bob"},
	}

	tree := buildCommentTree(comments, "alice", "bob")

	require.Len(t, tree, 2)
	assert.True(t, tree[0].IsAuthor)
	require.Len(t, tree[0].Replies, 1)
	assert.True(t, tree[0].Replies[0].IsOwn)
	assert.Empty(t, tree[1].Replies)
}

func TestSniffImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	contentType, ext, err := sniffImage("photo", Upload{Data: png}, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	_, _, err = sniffImage("photo", Upload{}, 1<<20)
	assert.Error(t, err)

	_, _, err = sniffImage("photo", Upload{Data: png}, 4)
	assert.Error(t, err)
}
