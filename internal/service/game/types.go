package game

import (
	"errors"

	"crossline/internal/board"
	"crossline/internal/domain"
	"crossline/pkg/gamedto"
)

var (
	ErrHandleRequired  = errors.New("connection handle required")
	ErrNotYourTurn     = errors.New("not this player's turn")
	ErrProfileNotFound = errors.New("player profile not found")
	ErrMatchmakingOff  = errors.New("matchmaking not configured")
)

// errStaleAdvice marks an advisor reply that arrived after the session moved
// on. Rejections are logged, never surfaced to a player.
var errStaleAdvice = errors.New("advisor reply is stale")

// Meta identifies the caller of one intent: which game, which connection,
// and the display name the connection advertises.
type Meta struct {
	GameID string
	Handle string
	Name   string
}

type CreateOptions struct {
	GameID     string
	Ranked     bool
	Public     bool
	Difficulty int
}

// GameView is the request/response side of a session: callers get the full
// rule state while the broadcast stream carries encoded frames.
type GameView struct {
	GameID  string
	Seq     int64
	Players []gamedto.PlayerInfo
	State   *board.GameState
	Ranked  bool
	Message string
}

type JoinView struct {
	View         *GameView
	PlayerNumber int8
	Rejoined     bool
}

// MoveOutcome reports one accepted board action. Record is set when this
// action decided the game.
type MoveOutcome struct {
	View     *GameView
	Finished bool
	Winner   int8
	WinLine  []int
	Record   *domain.MatchRecord
}

// Broadcaster is the transport's fan-out surface. Broadcast delivers a frame
// to everyone watching a game; Notify reaches a single connection.
type Broadcaster interface {
	Broadcast(gameID string, snap gamedto.Snapshot)
	Notify(handle string, ev gamedto.Event)
}
