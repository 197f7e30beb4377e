package models

import (
	"fmt"
	"strings"
)

// Enum is a closed set of string values accepted from clients
type Enum interface {
	Valid() bool
	// Choices lists the accepted values separated by spaces
	Choices() string
}

// Gender is a user's self-declared gender
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

func (g Gender) Valid() bool     { return contains(Genders, g) }
func (g Gender) Choices() string { return join(Genders) }

// InterestedIn is the gender a user wants to see in discovery
type InterestedIn string

const (
	InterestedInMale     InterestedIn = "male"
	InterestedInFemale   InterestedIn = "female"
	InterestedInEveryone InterestedIn = "everyone"
)

var InterestedInOptions = []InterestedIn{InterestedInMale, InterestedInFemale, InterestedInEveryone}

func (i InterestedIn) Valid() bool     { return contains(InterestedInOptions, i) }
func (i InterestedIn) Choices() string { return join(InterestedInOptions) }

// Accepts reports whether a candidate of gender g fits this preference
func (i InterestedIn) Accepts(g Gender) bool {
	switch i {
	case InterestedInEveryone, "":
		return true
	case InterestedInMale:
		return g == GenderMale
	case InterestedInFemale:
		return g == GenderFemale
	}
	return false
}

// LookingFor is the kind of relationship a user is after
type LookingFor string

const (
	LookingForRelationship LookingFor = "relationship"
	LookingForCasual       LookingFor = "casual"
	LookingForFriendship   LookingFor = "friendship"
	LookingForNotSure      LookingFor = "not-sure"
)

var LookingForOptions = []LookingFor{LookingForRelationship, LookingForCasual, LookingForFriendship, LookingForNotSure}

func (l LookingFor) Valid() bool     { return contains(LookingForOptions, l) }
func (l LookingFor) Choices() string { return join(LookingForOptions) }

// SwipeAction is the direction of a swipe
type SwipeAction string

const (
	SwipeLike      SwipeAction = "like"
	SwipePass      SwipeAction = "pass"
	SwipeSuperlike SwipeAction = "superlike"
)

var SwipeActions = []SwipeAction{SwipeLike, SwipePass, SwipeSuperlike}

func (a SwipeAction) Valid() bool     { return contains(SwipeActions, a) }
func (a SwipeAction) Choices() string { return join(SwipeActions) }

// Positive reports whether the action counts toward a match
func (a SwipeAction) Positive() bool {
	return a == SwipeLike || a == SwipeSuperlike
}

// MatchStatus is the lifecycle state of a match
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchUnmatched MatchStatus = "unmatched"
	MatchBlocked   MatchStatus = "blocked"
)

// MessageType is the kind of content a chat message carries
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageEmoji MessageType = "emoji"
)

var MessageTypes = []MessageType{MessageText, MessageImage, MessageEmoji}

func (t MessageType) Valid() bool     { return contains(MessageTypes, t) }
func (t MessageType) Choices() string { return join(MessageTypes) }

// NotificationType tells clients what a notification is about
type NotificationType string

const (
	NotificationMatch      NotificationType = "match"
	NotificationLike       NotificationType = "like"
	NotificationMessage    NotificationType = "message"
	NotificationConfession NotificationType = "confession"
	NotificationComment    NotificationType = "comment"
)

var NotificationTypes = []NotificationType{
	NotificationMatch, NotificationLike, NotificationMessage, NotificationConfession, NotificationComment,
}

// ConfessionCategory groups confessions on the board
type ConfessionCategory string

const (
	CategoryGeneral  ConfessionCategory = "general"
	CategoryCrush    ConfessionCategory = "crush"
	CategoryAcademic ConfessionCategory = "academic"
	CategoryFunny    ConfessionCategory = "funny"
	CategoryRant     ConfessionCategory = "rant"
	CategoryAdvice   ConfessionCategory = "advice"
)

var ConfessionCategories = []ConfessionCategory{
	CategoryGeneral, CategoryCrush, CategoryAcademic, CategoryFunny, CategoryRant, CategoryAdvice,
}

func (c ConfessionCategory) Valid() bool     { return contains(ConfessionCategories, c) }
func (c ConfessionCategory) Choices() string { return join(ConfessionCategories) }

// ReactionType is an emoji reaction on a confession
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionLaugh ReactionType = "laugh"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

var ReactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry}

func (r ReactionType) Valid() bool     { return contains(ReactionTypes, r) }
func (r ReactionType) Choices() string { return join(ReactionTypes) }

// EmptyReactionCounts returns a zero count for every reaction type
func EmptyReactionCounts() map[ReactionType]int {
	counts := make(map[ReactionType]int, len(ReactionTypes))
	for _, t := range ReactionTypes {
		counts[t] = 0
	}
	return counts
}

// UserReactionFlags expands a single held reaction into a flag per type
func UserReactionFlags(held *ReactionType) map[ReactionType]bool {
	flags := make(map[ReactionType]bool, len(ReactionTypes))
	for _, t := range ReactionTypes {
		flags[t] = held != nil && *held == t
	}
	return flags
}

// Parse converts raw input into one of the allowed values of T
func Parse[T ~string](raw string, allowed []T) (T, error) {
	v := T(raw)
	if !contains(allowed, v) {
		return "", fmt.Errorf("invalid value %q, must be one of %v", raw, allowed)
	}
	return v, nil
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func join[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, " ")
}
