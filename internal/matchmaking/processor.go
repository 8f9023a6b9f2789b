// Package matchmaking pairs queued players into fresh ranked sessions. The
// queue is drained by a periodic tick owned by the caller; the processor
// itself only knows how to run one pass.
package matchmaking

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crossline/internal/session"
)

// SessionCreator is the slice of the session store that pairing needs.
type SessionCreator interface {
	CreateGame(handle, name string, opts session.Options) (string, error)
	AddPlayerToGame(id, handle, name string) (*session.JoinResult, error)
	DeleteGame(id string)
}

type Processor struct {
	mu sync.Mutex
	// queue stays ordered by wait time: enqueue appends, failed pairs go
	// back to the front.
	queue []*Entry

	store SessionCreator
	log   *zap.Logger
}

func NewProcessor(store SessionCreator, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{store: store, log: log}
}

// Enqueue adds a waiting player and returns the ticket for this wait. A
// handle holds at most one place in line.
func (p *Processor) Enqueue(handle, name string, rating int, notify func(Match)) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.queue {
		if e.Handle == handle {
			return "", ErrAlreadyQueued
		}
	}
	e := &Entry{
		Ticket:     uuid.NewString(),
		Handle:     handle,
		Name:       name,
		Rating:     rating,
		EnqueuedAt: time.Now(),
		Notify:     notify,
	}
	p.queue = append(p.queue, e)
	p.log.Info("match_enqueue",
		zap.String("handle", handle),
		zap.Int("queued", len(p.queue)))
	return e.Ticket, nil
}

// Dequeue removes a waiting player and reports whether anything was removed.
func (p *Processor) Dequeue(handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.queue {
		if e.Handle == handle {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			p.log.Info("match_dequeue",
				zap.String("handle", handle),
				zap.Int("queued", len(p.queue)))
			return true
		}
	}
	return false
}

func (p *Processor) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// ProcessQueue runs one pairing pass: while at least two players wait, the
// two longest-waiting are paired. A failed pairing puts both back at the
// front in their original order and ends the pass, so nobody falls out of
// line because a create or join went wrong. Notifications run outside the
// queue lock.
func (p *Processor) ProcessQueue() {
	for {
		first, second, ok := p.popPair()
		if !ok {
			return
		}
		m1, m2, err := p.pair(first, second)
		if err != nil {
			p.log.Warn("match_pair_failed",
				zap.String("first", first.Handle),
				zap.String("second", second.Handle),
				zap.Error(err))
			p.requeueFront(first, second)
			return
		}
		if first.Notify != nil {
			first.Notify(m1)
		}
		if second.Notify != nil {
			second.Notify(m2)
		}
	}
}

func (p *Processor) popPair() (*Entry, *Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) < 2 {
		return nil, nil, false
	}
	first, second := p.queue[0], p.queue[1]
	p.queue = append([]*Entry(nil), p.queue[2:]...)
	return first, second, true
}

func (p *Processor) pair(first, second *Entry) (Match, Match, error) {
	id, err := p.store.CreateGame(first.Handle, first.Name, session.Options{
		Matchmaking: true,
		Ranked:      true,
	})
	if err != nil {
		return Match{}, Match{}, err
	}
	res, err := p.store.AddPlayerToGame(id, second.Handle, second.Name)
	if err != nil {
		// the half-built session would never see a disconnect, so it
		// has to go now rather than wait for the idle sweep
		p.store.DeleteGame(id)
		return Match{}, Match{}, err
	}
	p.log.Info("match_paired",
		zap.String("game_id", id),
		zap.String("player1", first.Handle),
		zap.String("player2", second.Handle))
	m1 := Match{GameID: id, PlayerNumber: 1, OpponentName: second.Name, Ranked: true}
	m2 := Match{GameID: id, PlayerNumber: res.PlayerNumber, OpponentName: first.Name, Ranked: true}
	return m1, m2, nil
}

func (p *Processor) requeueFront(first, second *Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append([]*Entry{first, second}, p.queue...)
}
