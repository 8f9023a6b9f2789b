package game

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"crossline/internal/matchmaking"
	"crossline/internal/ratings"
	"crossline/internal/util"
	"crossline/pkg/gamedto"
)

// EnqueueMatch puts the caller in the pairing queue. The returned ticket is
// a correlation id only; cancellation goes by handle.
func (s *Service) EnqueueMatch(ctx context.Context, meta Meta) (string, error) {
	if s.queue == nil {
		return "", ErrMatchmakingOff
	}
	handle := strings.TrimSpace(meta.Handle)
	if handle == "" {
		return "", ErrHandleRequired
	}
	name := util.CleanName(meta.Name)
	rating := ratings.DefaultRating
	if s.ratings != nil {
		rating = s.ratings.Rating(ctx, name)
	}

	ticket, err := s.queue.Enqueue(handle, name, rating, func(m matchmaking.Match) {
		s.store.SetPlayerRating(m.GameID, handle, rating)
		if s.bc == nil {
			return
		}
		notice := gamedto.MatchNotice{
			GameID:       m.GameID,
			PlayerNumber: m.PlayerNumber,
			OpponentName: m.OpponentName,
			Ranked:       m.Ranked,
			Message: s.text("match.found", map[string]any{
				"GameID":   m.GameID,
				"Number":   m.PlayerNumber,
				"Opponent": m.OpponentName,
			}),
		}
		s.bc.Notify(handle, gamedto.Event{
			Kind:    gamedto.EventMatchFound,
			GameID:  m.GameID,
			Message: notice.Message,
			Match:   &notice,
		})
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("match_enqueue_accepted",
		zap.String("handle", handle),
		zap.Int("rating", rating))
	return ticket, nil
}

// CancelMatch removes the caller from the queue. False means the handle was
// not queued, which callers treat as already matched.
func (s *Service) CancelMatch(ctx context.Context, meta Meta) bool {
	if s.queue == nil {
		return false
	}
	handle := strings.TrimSpace(meta.Handle)
	if handle == "" {
		return false
	}
	return s.queue.Dequeue(handle)
}
