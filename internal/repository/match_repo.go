package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
)

// MatchRepository provides data access methods for Match and Channel rows.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent materializes the match for an unordered pair, at most once.
//
// Behavior:
//   - The pair is canonicalized before any write; every caller computes the
//     same pair_key regardless of argument order.
//   - The insert is conditional on the pair_key unique index. Losers of a
//     concurrent race write zero rows and read the winner's match back, so
//     every caller receives the identical match.
//   - The new match starts with the default conversation-opener preview.
//
// Example:
//
//	match, created, err := repo.CreateIfAbsent(ctx, 7, 3) // same row as (3, 7)
func (r *MatchRepository) CreateIfAbsent(
	ctx context.Context,
	userA, userB uint64,
) (db.Match, bool, error) {
	lo, hi, key := db.CanonicalPair(userA, userB)

	match := db.Match{
		ID:          uuid.NewString(),
		PairKey:     key,
		UserAID:     lo,
		UserBID:     hi,
		LastMessage: "Start the conversation!",
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return db.Match{}, false, res.Error
	}
	if res.RowsAffected > 0 {
		return match, true, nil
	}

	// Someone else just created it; return theirs.
	existing, err := r.GetByPair(ctx, userA, userB)
	return existing, false, err
}

// EnsureChannel creates the match's message channel if it does not exist.
// Called right after match creation and again lazily on first message send,
// which closes the crash window between the two writes.
func (r *MatchRepository) EnsureChannel(ctx context.Context, matchID string) error {
	channel := db.Channel{MatchID: matchID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&channel).Error
}

// HasChannel reports whether the match's channel row exists.
func (r *MatchRepository) HasChannel(ctx context.Context, matchID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Channel{}).
		Where("match_id = ?", matchID).
		Count(&count).Error
	return count > 0, err
}

// Get returns a match by id, or ErrNotFound.
func (r *MatchRepository) Get(ctx context.Context, id string) (db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&match).Error
	if err != nil {
		return db.Match{}, apperr.Map(err)
	}
	return match, nil
}

// GetByPair returns the match for an unordered pair, or ErrNotFound.
func (r *MatchRepository) GetByPair(ctx context.Context, userA, userB uint64) (db.Match, error) {
	_, _, key := db.CanonicalPair(userA, userB)
	var match db.Match
	err := r.db.WithContext(ctx).Where("pair_key = ?", key).First(&match).Error
	if err != nil {
		return db.Match{}, apperr.Map(err)
	}
	return match, nil
}

// ListForUser returns all matches a user participates in, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	return matches, err
}

// UpdateLastMessage refreshes the denormalized list-display preview.
func (r *MatchRepository) UpdateLastMessage(ctx context.Context, matchID, preview string) error {
	return r.db.WithContext(ctx).Model(&db.Match{}).
		Where("id = ?", matchID).
		Update("last_message", preview).Error
}
