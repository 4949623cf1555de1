package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/emberdate/ember-backend/internal/db"
)

// MessageRepository provides data access methods for the append-only message
// log of a match channel.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Append stores a message in a match channel.
func (r *MessageRepository) Append(
	ctx context.Context,
	matchID string,
	senderID uint64,
	text string,
) (db.Message, error) {
	msg := db.Message{
		MatchID:  matchID,
		SenderID: senderID,
		Text:     text,
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return db.Message{}, err
	}
	return msg, nil
}

// List returns a channel's messages in causal order (created_at ASC).
// Display order (newest first) is the caller's concern.
func (r *MessageRepository) List(ctx context.Context, matchID string) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}
