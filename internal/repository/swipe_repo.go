package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to likes/passes between users.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Create records a decision made by actor -> recipient, at most once per
// ordered pair.
//
// Behavior:
//   - The insert is conditional (ON CONFLICT DO NOTHING on the composite PK),
//     so concurrent attempts on the same pair cannot race a check-then-write:
//     the database arbitrates and exactly one row ever lands.
//   - If the pair already has a decision, returns ErrAlreadyDecided
//     (reject-duplicate policy; re-swiping is not a supported workflow).
//
// Example:
//
//	repo.Create(ctx, 1, 2, true) // user 1 liked user 2
func (r *SwipeRepository) Create(
	ctx context.Context,
	actorID, recipientID uint64,
	liked bool,
) error {
	swipe := db.Swipe{
		ActorID:     actorID,
		RecipientID: recipientID,
		Liked:       liked,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "recipient_id"}},
			DoNothing: true,
		}).
		Create(&swipe)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrAlreadyDecided
	}
	return nil
}

// Get returns the decision for an ordered pair, or ErrNotFound.
func (r *SwipeRepository) Get(
	ctx context.Context,
	actorID, recipientID uint64,
) (db.Swipe, error) {
	var swipe db.Swipe
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND recipient_id = ?", actorID, recipientID).
		First(&swipe).Error
	if err != nil {
		return db.Swipe{}, apperr.Map(err)
	}
	return swipe, nil
}

// HasLiked checks whether an actor has liked a recipient.
//
// Behavior:
//   - Returns true if there exists a swipe row where actor_id = X,
//     recipient_id = Y, and liked = true.
//   - Used for the mutual-like probe in RecordSwipe.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *SwipeRepository) HasLiked(
	ctx context.Context,
	actorID, recipientID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.actor_id = ? AND s.recipient_id = ? AND s.liked = true", actorID, recipientID).
		Count(&count).Error
	return count > 0, err
}

// GetLikers returns all users who liked the given recipient.
//
// Behavior:
//   - Only swipes where recipient_id = X and liked = true are returned.
//   - Excludes users that the recipient explicitly passed (liked = false).
//   - Ordered by created_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, 42, nil, 20) // list first 20 people who liked user 42
func (r *SwipeRepository) GetLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.recipient_id = ? AND s.liked = true", recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.recipient_id = s.actor_id
				  AND s2.liked = false
			)`, recipientID).
		Order("s.created_at DESC, s.actor_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ActorID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// GetNewLikers returns users who liked the recipient but have not been liked
// back.
//
// Behavior:
//   - Only swipes where recipient_id = X and liked = true are considered.
//   - Excludes mutual likes (recipient already liked them back).
//   - Excludes users the recipient explicitly passed.
//   - Ordered by created_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetNewLikers(ctx, 42, nil, 20) // list first 20 one-way likes for user 42
func (r *SwipeRepository) GetNewLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	// subquery to exclude mutual likes
	subQuery := r.db.
		Table("swipes").
		Select("1").
		Where("actor_id = s.recipient_id AND recipient_id = s.actor_id AND liked = true")

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.recipient_id = ? AND s.liked = true AND NOT EXISTS (?)", recipientID, subQuery).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.recipient_id = s.actor_id
				  AND s2.liked = false
			)`, recipientID).
		Order("s.created_at DESC, s.actor_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ActorID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(s.created_at < ? OR (s.created_at = ? AND s.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountLikers returns how many users liked the given recipient.
//
// Behavior:
//   - Counts only swipes where recipient_id = X and liked = true.
//   - Excludes users that recipient explicitly passed.
//   - Used in conjunction with Redis cache (DB is fallback).
//
// Example:
//
//	repo.CountLikers(ctx, 42) // -> 123
func (r *SwipeRepository) CountLikers(
	ctx context.Context,
	recipientID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.recipient_id = ? AND s.liked = true", recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s2
				WHERE s2.actor_id = ?
				  AND s2.recipient_id = s.actor_id
				  AND s2.liked = false
			)`, recipientID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
