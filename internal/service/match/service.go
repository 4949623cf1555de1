package match

import (
	"context"
	"time"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/repository"
)

// Service is the match materializer: the single component allowed to create
// match records. Callable concurrently and repeatedly for the same pair; all
// callers receive the same match id.
type Service struct {
	appCtx  *app.AppContext
	matches *repository.MatchRepository
	users   *repository.UserRepository
}

// NewService creates a match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		matches: repository.NewMatchRepository(appCtx.DB),
		users:   repository.NewUserRepository(appCtx.DB),
	}
}

// CreateMatch materializes the match for an unordered pair and returns its id.
//
// Behavior:
//   - Idempotent: the conditional create on the canonical pair key guarantees
//     at most one match per pair; racing callers get the winner's id back.
//   - The channel row is written right after the match row. If that write is
//     lost (crash, transient error), SendMessage lazy-creates it, so the
//     failure is logged and swallowed rather than surfaced.
func (s *Service) CreateMatch(ctx context.Context, userA, userB uint64) (string, error) {
	if userA == userB {
		return "", apperr.InvalidArgument("cannot match a user with themselves")
	}

	m, created, err := s.matches.CreateIfAbsent(ctx, userA, userB)
	if err != nil {
		return "", apperr.Map(err)
	}
	if created {
		s.appCtx.Logger.Info("match created", "match_id", m.ID, "user_a", m.UserAID, "user_b", m.UserBID)
	}

	if err := s.matches.EnsureChannel(ctx, m.ID); err != nil {
		s.appCtx.Logger.Warn("channel creation deferred to first message", "match_id", m.ID, "err", err)
	}

	return m.ID, nil
}

// Summary is the list-display view of a match: the other participant
// hydrated, plus the denormalized last-message preview.
type Summary struct {
	MatchID     string    `json:"match_id"`
	OtherUserID uint64    `json:"other_user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURLs   string    `json:"photo_urls"`
	LastMessage string    `json:"last_message"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListMatches returns all matches of a user, newest first, each with the
// other user's profile hydrated for list display.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]Summary, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Map(err)
	}

	summaries := make([]Summary, 0, len(matches))
	for _, m := range matches {
		otherID := m.UserAID
		if otherID == userID {
			otherID = m.UserBID
		}

		summary := Summary{
			MatchID:     m.ID,
			OtherUserID: otherID,
			LastMessage: m.LastMessage,
			CreatedAt:   m.CreatedAt,
		}
		if other, err := s.users.Get(ctx, otherID); err == nil {
			summary.DisplayName = other.DisplayName
			summary.PhotoURLs = other.PhotoURLs
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetByPair looks up the match for an unordered pair of users.
func (s *Service) GetByPair(ctx context.Context, userA, userB uint64) (db.Match, error) {
	return s.matches.GetByPair(ctx, userA, userB)
}
