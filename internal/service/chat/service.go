package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/repository"
	"github.com/emberdate/ember-backend/internal/ws"
)

const previewMaxLen = 255

// Service handles the message channel of a match: append-only history plus
// best-effort push to websocket subscribers.
type Service struct {
	appCtx   *app.AppContext
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
}

// NewService creates a chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// SendMessage appends a message to a match's channel.
//
// Behavior:
//   - The sender must be a participant of the match (ErrInvalidArgument).
//   - The channel row is lazy-created if the post-match write was lost.
//   - The match's last-message preview is refreshed for list display.
//   - Subscribers of the channel are notified through the hub; push failures
//     never fail the send.
func (s *Service) SendMessage(
	ctx context.Context,
	matchID string,
	senderID uint64,
	text string,
) (db.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return db.Message{}, apperr.InvalidArgument("message text must not be empty")
	}

	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return db.Message{}, err
	}
	if senderID != m.UserAID && senderID != m.UserBID {
		return db.Message{}, apperr.InvalidArgument("sender is not part of this match")
	}

	if err := s.matches.EnsureChannel(ctx, matchID); err != nil {
		return db.Message{}, apperr.Map(err)
	}

	msg, err := s.messages.Append(ctx, matchID, senderID, text)
	if err != nil {
		return db.Message{}, apperr.Map(err)
	}

	preview := truncatePreview(text)
	if err := s.matches.UpdateLastMessage(ctx, matchID, preview); err != nil {
		s.appCtx.Logger.Warn("failed to update match preview", "match_id", matchID, "err", err)
	}

	if s.appCtx.Hub != nil {
		s.appCtx.Hub.Broadcast(ws.Event{
			Type:     "message",
			MatchID:  matchID,
			SenderID: senderID,
			Text:     msg.Text,
			SentAt:   msg.CreatedAt,
		})
	}

	return msg, nil
}

// truncatePreview caps the preview at previewMaxLen bytes without splitting a
// multi-byte rune.
func truncatePreview(text string) string {
	if len(text) <= previewMaxLen {
		return text
	}
	cut := previewMaxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// ListMessages returns a channel's history in causal order (oldest first).
func (s *Service) ListMessages(ctx context.Context, matchID string) ([]db.Message, error) {
	if _, err := s.matches.Get(ctx, matchID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.List(ctx, matchID)
	if err != nil {
		return nil, apperr.Map(err)
	}
	return msgs, nil
}

// GetMatch loads a match, used by the subscription endpoint to validate the
// channel before upgrading.
func (s *Service) GetMatch(ctx context.Context, matchID string) (db.Match, error) {
	return s.matches.Get(ctx, matchID)
}
