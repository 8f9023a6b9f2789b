package session

import (
	"errors"
	"time"

	"crossline/internal/board"
)

var (
	ErrGameNotFound   = errors.New("game not found or expired")
	ErrGameExists     = errors.New("game id already in use")
	ErrGameFull       = errors.New("game already has two players")
	ErrNameTaken      = errors.New("name in use by a connected player")
	ErrPlayerNotFound = errors.New("player not in this game")
	ErrStoreClosed    = errors.New("session store closed")
)

// Options configure a new game. GameID is normally left empty and generated;
// supplying one (tests, rematches with a shared code) pins it after
// normalization to uppercase.
type Options struct {
	GameID         string
	PawnsPerPlayer int
	WinLength      int
	Matchmaking    bool
	Ranked         bool
	Public         bool
	// Difficulty seats an advisor on slot 2 when positive. Zero means PvP.
	Difficulty int
}

type Player struct {
	Handle    string
	Name      string
	Number    int8
	Connected bool
	Creator   bool
	Rating    int
}

// Session is one live game. The store owns every session; callers only ever
// see deep copies.
type Session struct {
	ID               string
	State            *board.GameState
	Players          []*Player
	Seq              int64
	Options          Options
	CreatedAt        time.Time
	LastActivity     time.Time
	CleanupScheduled bool
}

// PlayerByHandle returns the seat bound to handle, nil when the handle never
// joined this game.
func (s *Session) PlayerByHandle(handle string) *Player {
	for _, p := range s.Players {
		if p.Handle == handle {
			return p
		}
	}
	return nil
}

func (s *Session) connectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

type JoinResult struct {
	PlayerNumber int8
	Rejoined     bool
	Players      []*Player
}

type Status struct {
	Exists              bool
	HasActivePlayers    bool
	ScheduledForCleanup bool
}
