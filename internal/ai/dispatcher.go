package ai

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"crossline/internal/board"
)

// Dispatcher serializes advisor traffic per game. Every Request supersedes
// the previous one for that game; an answer is delivered only while its
// ticket is still the newest, so a slow advisor can never replay a move into
// a session that has already moved on. Tickets are unique across the
// dispatcher's lifetime, which keeps a reused game id from matching a stale
// in-flight request.
type Dispatcher struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]uint64

	advisor Advisor
	delay   time.Duration
	log     *zap.Logger
}

func NewDispatcher(advisor Advisor, delay time.Duration, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		latest:  make(map[string]uint64),
		advisor: advisor,
		delay:   delay,
		log:     log,
	}
}

// Request asks the advisor for an action on its own goroutine. deliver runs
// at most once, and never after a newer request or a Cancel for the game.
func (d *Dispatcher) Request(ctx context.Context, gameID string, snapshot *board.GameState, difficulty int, deliver func(*board.Move)) {
	if d == nil || d.advisor == nil || deliver == nil {
		return
	}
	d.mu.Lock()
	d.next++
	ticket := d.next
	d.latest[gameID] = ticket
	d.mu.Unlock()

	go func() {
		mv, err := d.advisor.SuggestAction(ctx, snapshot, difficulty)
		if err != nil {
			d.log.Warn("advisor_failed",
				zap.String("game_id", gameID),
				zap.Error(err))
			return
		}
		if mv == nil {
			return
		}
		if d.delay > 0 {
			select {
			case <-time.After(d.delay):
			case <-ctx.Done():
				return
			}
		}
		d.mu.Lock()
		current := d.latest[gameID]
		d.mu.Unlock()
		if current != ticket {
			d.log.Debug("advisor_superseded", zap.String("game_id", gameID))
			return
		}
		deliver(mv)
	}()
}

// Cancel invalidates any in-flight request for the game and drops its entry.
func (d *Dispatcher) Cancel(gameID string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.latest, gameID)
}
