// Package ai is the boundary to move advisors. An advisor sees an immutable
// snapshot and proposes one action; the dispatcher runs the call off the
// request path and drops any answer superseded by a newer request for the
// same game.
package ai

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"crossline/internal/board"
)

// An Advisor proposes one action for the player to move in the snapshot.
// Placements come back with From set to -1. A nil move with a nil error
// means the advisor has nothing to play.
type Advisor interface {
	SuggestAction(ctx context.Context, snapshot *board.GameState, difficulty int) (*board.Move, error)
}

// RandomAdvisor plays a random legal action. From difficulty 3 up it takes
// an immediately winning action when one exists.
type RandomAdvisor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomAdvisor(seed int64) *RandomAdvisor {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomAdvisor{rng: rand.New(rand.NewSource(seed))}
}

func (a *RandomAdvisor) SuggestAction(ctx context.Context, snapshot *board.GameState, difficulty int) (*board.Move, error) {
	if snapshot == nil || snapshot.Winner != 0 {
		return nil, nil
	}
	actions := legalActions(snapshot)
	if len(actions) == 0 {
		return nil, nil
	}
	if difficulty >= 3 {
		for i := range actions {
			if winsOutright(snapshot, actions[i]) {
				mv := actions[i]
				return &mv, nil
			}
		}
	}
	a.mu.Lock()
	pick := actions[a.rng.Intn(len(actions))]
	a.mu.Unlock()
	return &pick, nil
}

func legalActions(s *board.GameState) []board.Move {
	if s.Phase == board.PhasePlacement {
		placements := board.LegalPlacements(s)
		out := make([]board.Move, 0, len(placements))
		for _, idx := range placements {
			out = append(out, board.Move{From: -1, To: idx})
		}
		return out
	}
	return board.LegalMoves(s)
}

// winsOutright plays the action on a copy and reports whether it decides the
// game for the mover.
func winsOutright(s *board.GameState, mv board.Move) bool {
	mover := s.Current
	var (
		next *board.GameState
		err  error
	)
	if mv.From < 0 {
		next, err = board.PlacePawn(s, mv.To)
	} else {
		next, err = board.HighlightValidMoves(s, mv.From)
		if err == nil {
			next, err = board.MovePawn(next, mv.From, mv.To)
		}
	}
	return err == nil && next.Winner == mover
}
