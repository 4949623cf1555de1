package db

import (
	"fmt"
	"time"
)

// User table. Profile attributes plus discovery preferences; identity for
// every core call is an explicit user id, never ambient session state.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:64;not null"`
	Age          int    `gorm:"not null"`
	Bio          string `gorm:"type:text"`
	PhotoURLs    string `gorm:"type:text"` // comma-joined photo references, first one is the avatar
	Gender       string `gorm:"size:16;not null"`
	GoldMember   bool   `gorm:"default:false"`

	// Discovery preferences
	MaxDistance int  `gorm:"default:50"`
	AgeMin      int  `gorm:"default:18"`
	AgeMax      int  `gorm:"default:30"`
	ShowMen     bool `gorm:"default:true"`
	ShowWomen   bool `gorm:"default:true"`

	Active      bool `gorm:"default:true"`
	LastLoginAt time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Swipe represents an actor's like/pass decision on a recipient.
//
// Composite PK: (ActorID, RecipientID)
//   - At most one decision per ordered pair; writes go through a conditional
//     insert, so the row is immutable once committed (reject-duplicate policy).
//
// Indexes:
//   - idx_recipient_liked_created_actor(recipient_id, liked, created_at DESC, actor_id)
//     Optimizes "who liked me" lists with pagination.
//   - idx_actor_recipient_liked(actor_id, recipient_id, liked)
//     Optimizes O(1) lookup for mutual like checks.
type Swipe struct {
	ActorID     uint64    `gorm:"primaryKey;index:idx_actor_recipient_liked,priority:1"`
	RecipientID uint64    `gorm:"primaryKey;index:idx_recipient_liked_created_actor,priority:1;index:idx_actor_recipient_liked,priority:2"`
	Liked       bool      `gorm:"not null;type:tinyint(1);index:idx_recipient_liked_created_actor,priority:2;index:idx_actor_recipient_liked,priority:3"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_recipient_liked_created_actor,priority:3,sort:desc"`
}

// Match represents a confirmed mutual like between two users.
//
// PairKey is the canonical order-independent key for the pair; the unique
// index on it is what makes concurrent double-creation safe. UserAID is
// always the numerically smaller id.
type Match struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PairKey     string    `gorm:"uniqueIndex;size:48;not null"`
	UserAID     uint64    `gorm:"not null;index"`
	UserBID     uint64    `gorm:"not null;index"`
	LastMessage string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Channel is the 1:1 message channel of a match. A separate row so a crash
// between match and channel writes is observable and repairable: SendMessage
// lazy-creates it when missing.
type Channel struct {
	MatchID   string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Message is an append-only chat entry within a match's channel.
// Stored ascending by creation time; display order is the caller's concern.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MatchID   string    `gorm:"size:36;not null;index:idx_match_created,priority:1" json:"match_id"`
	SenderID  uint64    `gorm:"not null" json:"sender_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_match_created,priority:2" json:"created_at"`
}

// CanonicalPair orders two user ids deterministically and derives the pair
// key used for match uniqueness. Must be applied before any write so every
// caller computes the same key regardless of argument order.
func CanonicalPair(a, b uint64) (lo, hi uint64, key string) {
	if a > b {
		a, b = b, a
	}
	return a, b, fmt.Sprintf("%d:%d", a, b)
}
