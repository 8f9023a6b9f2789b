// Package session owns the live games: creation, joining and reconnection,
// sequence accounting, and idle expiry. One mutex serializes every mutation,
// including the ones fired by cleanup timers, so a reconnect and an expiring
// timer can never interleave on the same session.
package session

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"crossline/internal/board"
)

const (
	DefaultTTL           = 24 * time.Hour
	DefaultSweepInterval = 30 * time.Minute

	idAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	idLength   = 8
)

type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Board         board.Config
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	c.Board = c.Board.WithDefaults()
	return c
}

type pendingCleanup struct {
	timer *time.Timer
	gen   uint64
}

type Store struct {
	mu       sync.RWMutex
	games    map[string]*Session
	cleanups map[string]pendingCleanup
	gen      uint64
	closed   bool

	cfg    Config
	log    *zap.Logger
	now    func() time.Time
	ticker *time.Ticker
	done   chan struct{}
}

func NewStore(cfg Config, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	s := &Store{
		games:    make(map[string]*Session),
		cleanups: make(map[string]pendingCleanup),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		ticker:   time.NewTicker(cfg.SweepInterval),
		done:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// CreateGame opens a session with the caller seated as player 1.
func (s *Store) CreateGame(handle, name string, opts Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	id := strings.ToUpper(strings.TrimSpace(opts.GameID))
	if id == "" {
		var err error
		if id, err = s.freeIDLocked(); err != nil {
			return "", err
		}
	} else if _, taken := s.games[id]; taken {
		return "", ErrGameExists
	}
	opts.GameID = id

	bcfg := s.cfg.Board
	if opts.PawnsPerPlayer > 0 {
		bcfg.PawnsPerPlayer = opts.PawnsPerPlayer
	}
	if opts.WinLength > 1 {
		bcfg.WinLength = opts.WinLength
	}
	bcfg.Ranked, bcfg.Public = opts.Ranked, opts.Public

	now := s.now()
	s.games[id] = &Session{
		ID:    id,
		State: board.NewGameState(bcfg),
		Players: []*Player{
			{Handle: handle, Name: name, Number: 1, Connected: true, Creator: true},
		},
		Options:      opts,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.log.Info("session_create",
		zap.String("game_id", id),
		zap.String("handle", handle),
		zap.Bool("matchmaking", opts.Matchmaking),
		zap.Bool("ranked", opts.Ranked))
	return id, nil
}

// GetGame returns a deep copy of the session.
func (s *Store) GetGame(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return cloneSession(sess), nil
}

// Apply runs one state transaction: fn sees a copy of the session, and the
// state it returns replaces the stored one under the same lock acquisition,
// bumping the sequence counter. Returning a nil state leaves the session
// untouched (a read inside the serialization point). The returned session is
// a copy reflecting the outcome.
func (s *Store) Apply(id string, fn func(*Session) (*board.GameState, error)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	next, err := fn(cloneSession(sess))
	if err != nil {
		return nil, err
	}
	if next != nil {
		sess.State = next
		s.bumpLocked(sess)
	}
	return cloneSession(sess), nil
}

// UpdateGameState replaces a session's state with one that arrived from
// outside. The session's rule config is pinned and the state passes through
// board.Normalize before anything trusts it.
func (s *Store) UpdateGameState(id string, st *board.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		s.log.Warn("state_update_unknown_game", zap.String("game_id", id))
		return ErrGameNotFound
	}
	pinned := board.Clone(st)
	if pinned != nil {
		pinned.Config = sess.State.Config
	}
	sess.State = board.Normalize(pinned, sess.State.Config)
	s.bumpLocked(sess)
	return nil
}

// AddPlayerToGame joins or reconnects a player. Priority: reconnect by
// handle, reconnect by name on a disconnected seat, then a fresh seat if one
// is open. Name conflicts with a connected player and full games are
// rejected.
func (s *Store) AddPlayerToGame(id, handle, name string) (*JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	if p := sess.PlayerByHandle(handle); p != nil {
		p.Connected = true
		if name != "" {
			p.Name = name
		}
		s.touchLocked(sess)
		s.log.Info("session_rejoin",
			zap.String("game_id", id),
			zap.String("handle", handle),
			zap.Int8("player", p.Number))
		return &JoinResult{PlayerNumber: p.Number, Rejoined: true, Players: clonePlayers(sess.Players)}, nil
	}

	for _, p := range sess.Players {
		if !p.Connected && p.Name == name {
			p.Handle = handle
			p.Connected = true
			s.touchLocked(sess)
			s.log.Info("session_rejoin_by_name",
				zap.String("game_id", id),
				zap.String("handle", handle),
				zap.Int8("player", p.Number))
			return &JoinResult{PlayerNumber: p.Number, Rejoined: true, Players: clonePlayers(sess.Players)}, nil
		}
	}

	for _, p := range sess.Players {
		if p.Connected && p.Name == name {
			return nil, ErrNameTaken
		}
	}
	if sess.connectedCount() >= 2 || len(sess.Players) >= 2 {
		return nil, ErrGameFull
	}

	number := int8(1)
	for _, p := range sess.Players {
		if p.Number == 1 {
			number = 2
		}
	}
	sess.Players = append(sess.Players, &Player{Handle: handle, Name: name, Number: number, Connected: true})
	s.touchLocked(sess)
	s.log.Info("session_join",
		zap.String("game_id", id),
		zap.String("handle", handle),
		zap.Int8("player", number))
	return &JoinResult{PlayerNumber: number, Players: clonePlayers(sess.Players)}, nil
}

// RemovePlayerFromGame marks a player disconnected. The seat survives for
// reconnection; once no one is left connected, deletion is scheduled after
// the idle TTL.
func (s *Store) RemovePlayerFromGame(id, handle string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	p := sess.PlayerByHandle(handle)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	p.Connected = false
	sess.LastActivity = s.now()
	if sess.connectedCount() == 0 {
		s.scheduleCleanupLocked(sess)
	}
	cp := *p
	return &cp, nil
}

// SetPlayerRating records a hydrated rating on a seat. Not a state mutation;
// the sequence counter stays put.
func (s *Store) SetPlayerRating(id, handle string, rating int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return false
	}
	p := sess.PlayerByHandle(handle)
	if p == nil {
		return false
	}
	p.Rating = rating
	return true
}

func (s *Store) GetGameStatus(id string) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.games[id]
	if !ok {
		return Status{}
	}
	return Status{
		Exists:              true,
		HasActivePlayers:    sess.connectedCount() > 0,
		ScheduledForCleanup: sess.CleanupScheduled,
	}
}

// DeleteGame removes a session and cancels its cleanup timer. Idempotent.
func (s *Store) DeleteGame(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id, "manual")
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Close cancels every pending timer, stops the sweeper, and empties the map.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.ticker.Stop()
	close(s.done)
	for id, pending := range s.cleanups {
		pending.timer.Stop()
		delete(s.cleanups, id)
	}
	s.games = make(map[string]*Session)
	s.log.Info("session_store_closed")
}

// bumpLocked is the shared tail of every accepted state mutation.
func (s *Store) bumpLocked(sess *Session) {
	sess.Seq++
	s.touchLocked(sess)
}

func (s *Store) touchLocked(sess *Session) {
	sess.LastActivity = s.now()
	s.cancelCleanupLocked(sess)
}

func (s *Store) scheduleCleanupLocked(sess *Session) {
	if pending, ok := s.cleanups[sess.ID]; ok {
		pending.timer.Stop()
	}
	s.gen++
	gen := s.gen
	id := sess.ID
	s.cleanups[id] = pendingCleanup{
		timer: time.AfterFunc(s.cfg.TTL, func() { s.expire(id, gen) }),
		gen:   gen,
	}
	sess.CleanupScheduled = true
	s.log.Info("cleanup_scheduled",
		zap.String("game_id", id),
		zap.Duration("ttl", s.cfg.TTL))
}

func (s *Store) cancelCleanupLocked(sess *Session) {
	if pending, ok := s.cleanups[sess.ID]; ok {
		pending.timer.Stop()
		delete(s.cleanups, sess.ID)
		s.log.Debug("cleanup_cancelled", zap.String("game_id", sess.ID))
	}
	sess.CleanupScheduled = false
}

// expire is the cleanup timer callback. The generation check makes a timer
// that fired while being superseded a no-op.
func (s *Store) expire(id string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.cleanups[id]
	if !ok || pending.gen != gen {
		return
	}
	s.deleteLocked(id, "idle_ttl")
}

func (s *Store) deleteLocked(id, reason string) {
	if pending, ok := s.cleanups[id]; ok {
		pending.timer.Stop()
		delete(s.cleanups, id)
	}
	if _, ok := s.games[id]; !ok {
		return
	}
	delete(s.games, id)
	s.log.Info("session_delete",
		zap.String("game_id", id),
		zap.String("reason", reason))
}

func (s *Store) sweepLoop() {
	for {
		select {
		case <-s.ticker.C:
			s.sweepOnce()
		case <-s.done:
			return
		}
	}
}

// sweepOnce force-deletes anything idle past twice the TTL. Safety net for
// sessions whose cleanup was never scheduled or whose timer was lost.
func (s *Store) sweepOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	cutoff := s.now().Add(-2 * s.cfg.TTL)
	removed := 0
	for id, sess := range s.games {
		if sess.LastActivity.Before(cutoff) {
			s.deleteLocked(id, "sweep")
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("session_sweep", zap.Int("removed", removed))
	}
}

func (s *Store) freeIDLocked() (string, error) {
	for {
		id, err := newGameID()
		if err != nil {
			return "", err
		}
		if _, taken := s.games[id]; !taken {
			return id, nil
		}
	}
}

func newGameID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b), nil
}

func cloneSession(sess *Session) *Session {
	out := *sess
	out.State = board.Clone(sess.State)
	out.Players = clonePlayers(sess.Players)
	return &out
}

func clonePlayers(in []*Player) []*Player {
	out := make([]*Player, len(in))
	for i, p := range in {
		cp := *p
		out[i] = &cp
	}
	return out
}
