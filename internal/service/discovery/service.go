package discovery

import (
	"context"
	"strconv"
	"time"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/repository"
	"github.com/emberdate/ember-backend/internal/service/match"
)

// Outcome is the result of a committed swipe: either no match yet, or the
// id of the (possibly pre-existing) match for the pair.
type Outcome struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
}

// Liker is one entry of the liked-you listing.
type Liker struct {
	ActorID       uint64 `json:"actor_id"`
	UnixTimestamp int64  `json:"unix_timestamp"`
}

// Service is the discovery surface: candidate pool reads and the swipe
// decision engine. It is stateless beyond the swipe write; all uniqueness
// arbitration lives in the store.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	swipes  *repository.SwipeRepository
	matcher *match.Service
}

// NewService creates a discovery service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via user and swipe repositories)
//   - RedisCache for like counters from AppContext
//   - the match materializer for mutual-like resolution
func NewService(appCtx *app.AppContext, matcher *match.Service) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		matcher: matcher,
	}
}

// GetCandidates returns the profiles a user has not yet decided on,
// excluding their own. Read-only.
//
// Behavior:
//   - Fails with ErrNotFound when the user does not exist.
//   - Additional scopes plug in filtering/ranking; pass
//     repository.PreferencesOf(viewer) to honor discovery preferences.
//   - No ordering guarantee.
func (s *Service) GetCandidates(
	ctx context.Context,
	userID uint64,
	scopes ...repository.CandidateScope,
) ([]db.User, error) {
	s.appCtx.Logger.Debug("GetCandidates called", "user_id", userID)

	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	candidates, err := s.users.GetCandidates(ctx, userID, scopes...)
	if err != nil {
		return nil, apperr.Map(err)
	}

	s.appCtx.Logger.Debug("GetCandidates result", "user_id", userID, "count", len(candidates))
	return candidates, nil
}

// Viewer loads a user profile for building preference scopes and handler
// responses.
func (s *Service) Viewer(ctx context.Context, userID uint64) (db.User, error) {
	return s.users.Get(ctx, userID)
}

// RecordSwipe commits a like/pass decision and reports whether it completed
// a mutual like.
//
// Behavior:
//   - Self-swipes fail with ErrInvalidArgument; unknown ids with ErrNotFound.
//   - The swipe write is conditional: a pair that already has a decision
//     fails with ErrAlreadyDecided (reject-duplicate policy), which also
//     makes retrying a transient failure from the top safe.
//   - A pass ends the call; a like probes the reciprocal swipe and, when
//     present, delegates to the match materializer. Both users may race this
//     path on each other; deduplication is entirely the materializer's job.
//   - On like, the recipient's cached like count is bumped with a TTL refresh.
func (s *Service) RecordSwipe(
	ctx context.Context,
	actorID, recipientID uint64,
	liked bool,
) (Outcome, error) {
	s.appCtx.Logger.Debug("RecordSwipe called", "actor", actorID, "recipient", recipientID, "liked", liked)

	if actorID == recipientID {
		return Outcome{}, apperr.InvalidArgument("cannot swipe on yourself")
	}
	if _, err := s.users.Get(ctx, actorID); err != nil {
		return Outcome{}, err
	}
	if _, err := s.users.Get(ctx, recipientID); err != nil {
		return Outcome{}, err
	}

	if err := s.swipes.Create(ctx, actorID, recipientID, liked); err != nil {
		return Outcome{}, apperr.Map(err)
	}

	if !liked {
		return Outcome{}, nil
	}

	// update cache: only bump an existing counter; an absent/expired key is
	// re-seeded from the DB so the cached count cannot start below the truth
	if _, ok, cacheErr := s.appCtx.RedisCache.GetLikeCount(ctx, recipientID); cacheErr == nil && ok {
		key := s.appCtx.RedisCache.KeyForLikeCount(recipientID)
		if _, err := s.appCtx.RedisCache.Incr(ctx, key); err == nil {
			_ = s.appCtx.RedisCache.Client.Expire(ctx, key, time.Hour).Err()
		}
	} else if cacheErr == nil {
		if count, dbErr := s.swipes.CountLikers(ctx, recipientID); dbErr == nil {
			_ = s.appCtx.RedisCache.UpdateLikeCount(ctx, recipientID, count)
		}
	}

	mutual, err := s.swipes.HasLiked(ctx, recipientID, actorID)
	if err != nil {
		return Outcome{}, apperr.Map(err)
	}
	if !mutual {
		return Outcome{}, nil
	}

	matchID, err := s.matcher.CreateMatch(ctx, actorID, recipientID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Matched: true, MatchID: matchID}, nil
}

// CountLikedYou returns how many users liked the recipient.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. If cache miss, falls back to DB via repository.CountLikers.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountLikedYou(ctx context.Context, userID uint64) (int64, error) {
	s.appCtx.Logger.Debug("CountLikedYou called", "user_id", userID)

	if _, err := s.users.Get(ctx, userID); err != nil {
		return 0, err
	}

	if count, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err == nil && ok {
		return count, nil
	}

	// fallback: DB
	count, err := s.swipes.CountLikers(ctx, userID)
	if err != nil {
		return 0, apperr.Map(err)
	}

	_ = s.appCtx.RedisCache.UpdateLikeCount(ctx, userID, count)

	return count, nil
}

// ListLikedYou returns the users who liked the recipient, newest first, with
// cursor-based pagination.
func (s *Service) ListLikedYou(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]Liker, *string, error) {
	s.appCtx.Logger.Debug("ListLikedYou called", "user_id", userID, "token", getString(paginationToken))

	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, nil, err
	}

	swipes, nextToken, err := s.swipes.GetLikers(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, nil, apperr.Map(err)
	}

	likers := make([]Liker, 0, len(swipes))
	for _, sw := range swipes {
		likers = append(likers, Liker{
			ActorID:       sw.ActorID,
			UnixTimestamp: sw.CreatedAt.UnixMilli(),
		})
	}

	s.appCtx.Logger.Debug("ListLikedYou result", "liker_count", len(likers))
	return likers, nextToken, nil
}

// ListNewLikedYou returns the users who liked the recipient but have not been
// liked back, newest first, with cursor-based pagination. Mutual likes and
// passed users are excluded.
func (s *Service) ListNewLikedYou(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]Liker, *string, error) {
	s.appCtx.Logger.Debug("ListNewLikedYou called", "user_id", userID, "token", getString(paginationToken))

	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, nil, err
	}

	swipes, nextToken, err := s.swipes.GetNewLikers(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, nil, apperr.Map(err)
	}

	likers := make([]Liker, 0, len(swipes))
	for _, sw := range swipes {
		likers = append(likers, Liker{
			ActorID:       sw.ActorID,
			UnixTimestamp: sw.CreatedAt.UnixMilli(),
		})
	}

	s.appCtx.Logger.Debug("ListNewLikedYou result", "liker_count", len(likers))
	return likers, nextToken, nil
}

func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseUserID converts a string user id from the transport layer.
func ParseUserID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("user id must be a valid uint64")
	}
	return id, nil
}
