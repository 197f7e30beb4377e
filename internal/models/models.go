package models

import "time"

// User represents a registered student account
type User struct {
	ID              string       `json:"id"`
	Email           string       `json:"email"`
	PasswordHash    string       `json:"-"`
	Name            string       `json:"name"`
	Age             int          `json:"age"`
	Gender          Gender       `json:"gender"`
	InterestedIn    InterestedIn `json:"interestedIn"`
	LookingFor      LookingFor   `json:"lookingFor,omitempty"`
	Bio             string       `json:"bio"`
	Course          string       `json:"course"`
	Year            int          `json:"year,omitempty"`
	Interests       []string     `json:"interests"`
	College         string       `json:"college"`
	SelfieURL       string       `json:"selfieUrl"`
	SelfieKey       string       `json:"-"`
	CollegeIDURL    string       `json:"collegeIdUrl"`
	CollegeIDKey    string       `json:"-"`
	IsVerified      bool         `json:"isVerified"`
	IsEmailVerified bool         `json:"isEmailVerified"`
	PushToken       *string      `json:"-"`
	Photos          []Photo      `json:"photos"`
	LastActive      time.Time    `json:"lastActive"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// PublicProfile is the view of a user shown to other users
type PublicProfile struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Age        int        `json:"age"`
	Gender     Gender     `json:"gender"`
	LookingFor LookingFor `json:"lookingFor,omitempty"`
	Bio        string     `json:"bio"`
	Course     string     `json:"course"`
	Year       int        `json:"year,omitempty"`
	Interests  []string   `json:"interests"`
	College    string     `json:"college"`
	IsVerified bool       `json:"isVerified"`
	Photos     []Photo    `json:"photos"`
	LastActive time.Time  `json:"lastActive"`
}

// Public strips private fields from a user
func (u *User) Public() PublicProfile {
	photos := u.Photos
	if photos == nil {
		photos = []Photo{}
	}
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Age:        u.Age,
		Gender:     u.Gender,
		LookingFor: u.LookingFor,
		Bio:        u.Bio,
		Course:     u.Course,
		Year:       u.Year,
		Interests:  interests,
		College:    u.College,
		IsVerified: u.IsVerified,
		Photos:     photos,
		LastActive: u.LastActive,
	}
}

// Photo represents a profile photo owned by a user.
// LikeCount is derived from the liker set on every read and is never stored.
type Photo struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	URL                  string    `json:"url"`
	StorageKey           string    `json:"-"`
	IsMain               bool      `json:"isMain"`
	LikeCount            int       `json:"likeCount"`
	IsLikedByCurrentUser bool      `json:"isLikedByCurrentUser"`
	CreatedAt            time.Time `json:"createdAt"`
}

// PhotoLikeState is the result of toggling a photo like
type PhotoLikeState struct {
	PhotoID              string `json:"photoId"`
	PhotoURL             string `json:"photoUrl"`
	IsLikedByCurrentUser bool   `json:"isLikedByCurrentUser"`
	LikeCount            int    `json:"likeCount"`
}

// Swipe is one user's directional action toward another
type Swipe struct {
	SwiperID  string      `json:"swiperId"`
	SwipedID  string      `json:"swipedId"`
	Action    SwipeAction `json:"action"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Match is a mutual like between two users. User1ID < User2ID always holds.
type Match struct {
	ID           string       `json:"id"`
	User1ID      string       `json:"user1Id"`
	User2ID      string       `json:"user2Id"`
	Status       MatchStatus  `json:"status"`
	MatchedAt    time.Time    `json:"matchedAt"`
	LastActivity time.Time    `json:"lastActivity"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
}

// HasParticipant reports whether userID is one side of the match
func (m *Match) HasParticipant(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// OtherUser returns the participant that is not userID
func (m *Match) OtherUser(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// LastMessage caches the latest message of a match for list views
type LastMessage struct {
	Content  string    `json:"content"`
	SenderID string    `json:"senderId"`
	SentAt   time.Time `json:"sentAt"`
}

// MatchSummary is a match as seen by one of its participants
type MatchSummary struct {
	Match
	OtherUser   PublicProfile `json:"otherUser"`
	UnreadCount int           `json:"unreadCount"`
}

// Message is a chat message scoped to a match
type Message struct {
	ID        string      `json:"id"`
	MatchID   string      `json:"matchId"`
	SenderID  string      `json:"senderId"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	ReadBy    []string    `json:"readBy"`
	ReplyTo   *string     `json:"replyTo,omitempty"`
	IsDeleted bool        `json:"isDeleted"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Notification is an entry in a recipient's feed
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	SenderID    *string          `json:"senderId,omitempty"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data"`
	IsRead      bool             `json:"isRead"`
	ReadAt      *time.Time       `json:"readAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Confession is an anonymous post scoped to a college
type Confession struct {
	ID        string             `json:"id"`
	AuthorID  string             `json:"-"`
	Content   string             `json:"content"`
	Category  ConfessionCategory `json:"category"`
	College   string             `json:"college"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Reaction is a single user's reaction on a confession
type Reaction struct {
	ConfessionID string       `json:"confessionId"`
	UserID       string       `json:"userId"`
	Type         ReactionType `json:"type"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Comment is a comment on a confession, or a reply when ParentID is set
type Comment struct {
	ID           string    `json:"id"`
	ConfessionID string    `json:"confessionId"`
	ParentID     *string   `json:"parentId,omitempty"`
	AuthorID     string    `json:"-"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConfessionStats aggregates reactions and comments for one confession
type ConfessionStats struct {
	ReactionCounts map[ReactionType]int
	UserReaction   *ReactionType
	CommentCount   int
}

// ConfessionView is a confession as returned to a reader
type ConfessionView struct {
	ID             string                `json:"id"`
	Content        string                `json:"content"`
	Category       ConfessionCategory    `json:"category"`
	College        string                `json:"college"`
	IsOwn          bool                  `json:"isOwn"`
	ReactionCounts map[ReactionType]int  `json:"reactionCounts"`
	UserReactions  map[ReactionType]bool `json:"userReactions"`
	CommentCount   int                   `json:"commentCount"`
	Comments       []CommentView         `json:"comments,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// CommentView is a comment as returned to a reader
type CommentView struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	IsOwn     bool          `json:"isOwn"`
	IsAuthor  bool          `json:"isAuthor"`
	Replies   []CommentView `json:"replies,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}
