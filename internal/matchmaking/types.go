package matchmaking

import (
	"errors"
	"time"
)

// Entry is one player holding a place in the queue.
type Entry struct {
	Ticket     string
	Handle     string
	Name       string
	Rating     int
	EnqueuedAt time.Time
	Notify     func(Match)
}

// Match is delivered to both players of a successful pairing.
type Match struct {
	GameID       string
	PlayerNumber int8
	OpponentName string
	Ranked       bool
}

var (
	ErrAlreadyQueued = errors.New("handle already queued")
)
