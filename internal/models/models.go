package models

import "time"

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Valid reports whether t is one of the two known directions.
func (t VoteType) Valid() bool { return t == VoteUp || t == VoteDown }

// User is a registered account. Username is private; only AnonymousName is
// ever shown to other users, and it never changes after signup.
type User struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username      string    `gorm:"uniqueIndex;not null" json:"username"`
	AnonymousName string    `gorm:"not null" json:"anonymousName"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Post is a single anonymous post. Upvotes/Downvotes/Impressions are
// denormalized counters kept in lockstep with the votes table. Version
// increases on every counter transaction so clients can drop stale
// feed events.
type Post struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuthorID    string    `gorm:"type:varchar(36);index;not null" json:"-"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	FakeRegion  string    `gorm:"not null" json:"fakeRegion"`
	Upvotes     int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes   int       `gorm:"not null;default:0" json:"downvotes"`
	Impressions int       `gorm:"not null;default:0" json:"impressions"`
	Version     int64     `gorm:"not null;default:0" json:"version"`
	Hidden      bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Votes       []Vote    `gorm:"foreignKey:PostID" json:"-"`
}

// Vote is one user's current vote on one post. The unique index on
// (post_id, user_id) enforces at most one active vote per pair.
type Vote struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_vote_post_user" json:"postId"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_vote_post_user" json:"-"`
	VoteType  VoteType  `gorm:"not null" json:"voteType"`
	CreatedAt time.Time `json:"createdAt"`
}
