package domain

import "time"

// VoteDirection is the polarity of a vote.
type VoteDirection int8

const (
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

// Vote records one user's standing vote on one piece of content.
// At most one vote exists per (voter, target); switching direction
// replaces the record instead of adding a second one. The uniqueness
// itself is enforced by the store.
type Vote struct {
	VoterID   int64
	Target    ContentRef
	Direction VoteDirection
	CreatedAt time.Time
}

// Bookmark marks a question or comment as saved by a user.
// At most one bookmark exists per (user, target); toggling twice
// returns to the un-bookmarked state.
type Bookmark struct {
	UserID    int64
	Target    ContentRef
	CreatedAt time.Time
}
