// Package game turns transport intents into store transactions. Every board
// action runs inside the session store's serialization point, every accepted
// mutation is encoded once and broadcast, and finished matches flow into the
// archive and the ratings ledger.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"crossline/internal/ai"
	"crossline/internal/archive"
	"crossline/internal/board"
	"crossline/internal/cache"
	"crossline/internal/domain"
	"crossline/internal/matchmaking"
	"crossline/internal/msgcat"
	"crossline/internal/ratings"
	"crossline/internal/session"
	"crossline/internal/util"
	"crossline/internal/wire"
	"crossline/pkg/gamedto"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50

	// Practice sessions seat the advisor on slot 2 under a reserved handle.
	aiSeat         int8 = 2
	aiHandlePrefix      = "bot:"
	botName             = "Crossbot"
)

type Config struct {
	HistoryLimit int
}

// Deps carries the service's collaborators. Store and Codec are required;
// everything else degrades to a no-op when absent.
type Deps struct {
	Store       *session.Store
	Codec       *wire.Codec
	Queue       *matchmaking.Processor
	Dispatcher  *ai.Dispatcher
	Ratings     *ratings.Service
	Archive     archive.Repository
	Cache       *cache.Cache
	Catalog     *msgcat.Catalog
	Broadcaster Broadcaster
}

type Service struct {
	store      *session.Store
	codec      *wire.Codec
	queue      *matchmaking.Processor
	dispatcher *ai.Dispatcher
	ratings    *ratings.Service
	repo       archive.Repository
	cache      *cache.Cache
	cat        *msgcat.Catalog
	bc         Broadcaster
	cfg        Config
	logger     *zap.Logger
}

func NewService(deps Deps, cfg Config, logger *zap.Logger) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Codec == nil {
		return nil, fmt.Errorf("state codec is required")
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      deps.Store,
		codec:      deps.Codec,
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		ratings:    deps.Ratings,
		repo:       deps.Archive,
		cache:      deps.Cache,
		cat:        deps.Catalog,
		bc:         deps.Broadcaster,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Stats reports the live session count and the matchmaking queue depth.
func (s *Service) Stats() (sessions, queued int) {
	sessions = s.store.Len()
	if s.queue != nil {
		queued = s.queue.Len()
	}
	return sessions, queued
}

// Create opens a session with the caller seated as player 1. A positive
// difficulty seats the advisor on slot 2 and forces the game unranked.
func (s *Service) Create(ctx context.Context, meta Meta, opts CreateOptions) (*JoinView, error) {
	handle := strings.TrimSpace(meta.Handle)
	if handle == "" {
		return nil, ErrHandleRequired
	}
	name := util.CleanName(meta.Name)
	if opts.Difficulty < 0 {
		opts.Difficulty = 0
	}
	if opts.Difficulty > 0 {
		opts.Ranked = false
	}

	id, err := s.store.CreateGame(handle, name, session.Options{
		GameID:     opts.GameID,
		Ranked:     opts.Ranked,
		Public:     opts.Public,
		Difficulty: opts.Difficulty,
	})
	if err != nil {
		return nil, err
	}
	if opts.Difficulty > 0 {
		if _, err := s.store.AddPlayerToGame(id, aiHandle(id), botName); err != nil {
			s.store.DeleteGame(id)
			return nil, fmt.Errorf("seat advisor: %w", err)
		}
	}
	s.hydrateRating(ctx, id, handle, name)

	sess, err := s.store.GetGame(id)
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, sess)
	view := s.view(sess, s.text("game.created", map[string]any{"GameID": id}))
	return &JoinView{View: view, PlayerNumber: 1}, nil
}

// Join seats or reconnects the caller, then pushes a fresh frame so the
// arriving client starts from the live position.
func (s *Service) Join(ctx context.Context, meta Meta) (*JoinView, error) {
	handle := strings.TrimSpace(meta.Handle)
	if handle == "" {
		return nil, ErrHandleRequired
	}
	name := util.CleanName(meta.Name)
	id := normalizeID(meta.GameID)

	res, err := s.store.AddPlayerToGame(id, handle, name)
	if err != nil {
		return nil, err
	}
	s.hydrateRating(ctx, id, handle, name)

	sess, err := s.store.GetGame(id)
	if err != nil {
		return nil, err
	}
	if s.reseatAdvisor(sess) {
		if fresh, err := s.store.GetGame(id); err == nil {
			sess = fresh
		}
	}
	s.broadcast(ctx, sess)

	key := "game.joined"
	if res.Rejoined {
		key = "game.rejoined"
	}
	view := s.view(sess, s.text(key, map[string]any{"Name": name, "Number": res.PlayerNumber}))
	s.maybeDispatchAI(sess)
	return &JoinView{View: view, PlayerNumber: res.PlayerNumber, Rejoined: res.Rejoined}, nil
}

// Leave disconnects the caller. The seat survives for a reconnect until the
// idle cleanup claims the session.
func (s *Service) Leave(ctx context.Context, meta Meta) error {
	handle := strings.TrimSpace(meta.Handle)
	if handle == "" {
		return ErrHandleRequired
	}
	id := normalizeID(meta.GameID)
	p, err := s.store.RemovePlayerFromGame(id, handle)
	if err != nil {
		return err
	}
	sess, err := s.store.GetGame(id)
	if err != nil {
		// The session raced away underneath us; the leave still took.
		return nil
	}
	if sess.Options.Difficulty > 0 && !hasConnectedHuman(sess) {
		if s.dispatcher != nil {
			s.dispatcher.Cancel(id)
		}
		// Unseat the advisor too, otherwise its connected flag keeps the
		// session from ever scheduling its cleanup.
		if _, err := s.store.RemovePlayerFromGame(id, aiHandle(id)); err != nil && !errors.Is(err, session.ErrPlayerNotFound) {
			s.logger.Warn("advisor_unseat_failed", zap.Error(err), zap.String("game_id", id))
		}
	}
	if s.bc != nil {
		msg := s.text("game.left", map[string]any{"Name": p.Name})
		for _, other := range sess.Players {
			if other.Handle == handle || !other.Connected || isAIHandle(other.Handle) {
				continue
			}
			s.bc.Notify(other.Handle, gamedto.Event{Kind: gamedto.EventOpponentLeft, GameID: id, Message: msg})
		}
	}
	s.logger.Info("session_leave",
		zap.String("game_id", id),
		zap.String("handle", handle),
		zap.Int8("player", p.Number))
	return nil
}

// Status reads the current position without touching it.
func (s *Service) Status(ctx context.Context, meta Meta) (*GameView, error) {
	sess, err := s.store.GetGame(normalizeID(meta.GameID))
	if err != nil {
		return nil, err
	}
	msg := ""
	if sess.State.Winner != 0 {
		if p := seat(sess, sess.State.Winner); p != nil {
			msg = s.text("game.win", map[string]any{"Name": p.Name})
		}
	} else if p := seat(sess, sess.State.Current); p != nil {
		msg = s.text("game.turn", map[string]any{"Name": p.Name})
	}
	return s.view(sess, msg), nil
}

// Resync hands a reconnecting client the newest encoded frame, preferring the
// cached copy when it still matches the live sequence.
func (s *Service) Resync(ctx context.Context, meta Meta) (gamedto.Snapshot, error) {
	id := normalizeID(meta.GameID)
	sess, err := s.store.GetGame(id)
	if err != nil {
		return gamedto.Snapshot{}, err
	}
	if data, err := s.cache.LoadSnapshot(ctx, id); err == nil && len(data) > 0 {
		if _, seq, at := s.codec.DecodeSnapshot(data); seq == sess.Seq {
			return gamedto.Snapshot{GameID: id, Seq: seq, At: at, Data: data}, nil
		}
	}
	return s.makeSnapshot(ctx, sess), nil
}

// History lists the caller's recently finished matches, newest first.
func (s *Service) History(ctx context.Context, meta Meta, limit int) ([]*domain.MatchRecord, error) {
	if s.repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.RecentMatches(ctx, util.CleanName(meta.Name), limit)
}

func (s *Service) Profile(ctx context.Context, meta Meta) (*domain.PlayerProfile, error) {
	if s.ratings == nil {
		return nil, ErrProfileNotFound
	}
	p, err := s.ratings.Profile(ctx, util.CleanName(meta.Name))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// MapError folds any service failure into the one error shape the transport
// hands to clients, with catalog text where a key exists.
func (s *Service) MapError(err error, meta Meta) gamedto.DomainError {
	code, key, retry := gamedto.CodeInternal, "", false
	switch {
	case errors.Is(err, session.ErrGameNotFound):
		code, key = gamedto.CodeNotFound, "game.not_found"
	case errors.Is(err, session.ErrGameFull):
		code, key = gamedto.CodeFull, "game.full"
	case errors.Is(err, session.ErrNameTaken):
		code, key = gamedto.CodeNameTaken, "game.name_taken"
	case errors.Is(err, session.ErrPlayerNotFound):
		code = gamedto.CodeValidation
	case errors.Is(err, ErrNotYourTurn):
		code, key, retry = gamedto.CodeNotYourTurn, "rules.not_your_turn", true
	case errors.Is(err, matchmaking.ErrAlreadyQueued):
		code, key = gamedto.CodeQueueBusy, "match.already_queued"
	case errors.Is(err, board.ErrGameOver):
		code, key = gamedto.CodeValidation, "rules.game_over"
	case errors.Is(err, board.ErrWrongPhase):
		code, key, retry = gamedto.CodeValidation, "rules.wrong_phase", true
	case errors.Is(err, board.ErrOutOfRange):
		code, key, retry = gamedto.CodeValidation, "rules.out_of_range", true
	case errors.Is(err, board.ErrSquareOccupied):
		code, key, retry = gamedto.CodeValidation, "rules.occupied", true
	case errors.Is(err, board.ErrWrongColor):
		code, key, retry = gamedto.CodeValidation, "rules.wrong_color", true
	case errors.Is(err, board.ErrRestrictedZone):
		code, key, retry = gamedto.CodeValidation, "rules.restricted", true
	case errors.Is(err, board.ErrNoSelection):
		code, key, retry = gamedto.CodeValidation, "rules.no_selection", true
	case errors.Is(err, board.ErrInvalidTarget):
		code, key, retry = gamedto.CodeValidation, "rules.invalid_target", true
	}
	msg := err.Error()
	if key != "" {
		data := map[string]any{
			"GameID": normalizeID(meta.GameID),
			"Name":   util.CleanName(meta.Name),
		}
		msg = s.textOr(key, data, msg)
	}
	return gamedto.DomainError{Code: code, Message: msg, Retryable: retry}
}

func (s *Service) hydrateRating(ctx context.Context, id, handle, name string) {
	if s.ratings == nil {
		return
	}
	s.store.SetPlayerRating(id, handle, s.ratings.Rating(ctx, name))
}

// reseatAdvisor reconnects the advisor seat after a human reconnect pulled
// the session back from a scheduled cleanup.
func (s *Service) reseatAdvisor(sess *session.Session) bool {
	if sess.Options.Difficulty <= 0 {
		return false
	}
	bot := sess.PlayerByHandle(aiHandle(sess.ID))
	if bot == nil || bot.Connected {
		return false
	}
	if _, err := s.store.AddPlayerToGame(sess.ID, aiHandle(sess.ID), botName); err != nil {
		s.logger.Warn("advisor_reseat_failed", zap.Error(err), zap.String("game_id", sess.ID))
		return false
	}
	return true
}

func (s *Service) makeSnapshot(ctx context.Context, sess *session.Session) gamedto.Snapshot {
	now := time.Now()
	data := s.codec.EncodeSnapshot(sess.Seq, now, sess.State)
	if err := s.cache.SaveSnapshot(ctx, sess.ID, data); err != nil {
		s.logger.Warn("snapshot_cache_failed", zap.Error(err), zap.String("game_id", sess.ID))
	}
	return gamedto.Snapshot{GameID: sess.ID, Seq: sess.Seq, At: now, Data: data}
}

func (s *Service) broadcast(ctx context.Context, sess *session.Session) gamedto.Snapshot {
	snap := s.makeSnapshot(ctx, sess)
	if s.bc != nil {
		s.bc.Broadcast(sess.ID, snap)
	}
	return snap
}

func (s *Service) view(sess *session.Session, message string) *GameView {
	return &GameView{
		GameID:  sess.ID,
		Seq:     sess.Seq,
		Players: playerInfos(sess),
		State:   sess.State,
		Ranked:  sess.Options.Ranked,
		Message: message,
	}
}

func (s *Service) text(key string, data map[string]any) string {
	return s.textOr(key, data, "")
}

func (s *Service) textOr(key string, data map[string]any, fallback string) string {
	if s.cat == nil {
		return fallback
	}
	return s.cat.RenderOr(key, data, fallback)
}

func playerInfos(sess *session.Session) []gamedto.PlayerInfo {
	out := make([]gamedto.PlayerInfo, 0, len(sess.Players))
	for _, p := range sess.Players {
		out = append(out, gamedto.PlayerInfo{
			Name:      p.Name,
			Number:    p.Number,
			Connected: p.Connected,
			Rating:    p.Rating,
		})
	}
	return out
}

func seat(sess *session.Session, number int8) *session.Player {
	for _, p := range sess.Players {
		if p.Number == number {
			return p
		}
	}
	return nil
}

func hasConnectedHuman(sess *session.Session) bool {
	for _, p := range sess.Players {
		if p.Connected && !isAIHandle(p.Handle) {
			return true
		}
	}
	return false
}

func aiHandle(gameID string) string { return aiHandlePrefix + gameID }

func isAIHandle(handle string) bool { return strings.HasPrefix(handle, aiHandlePrefix) }

func normalizeID(id string) string { return strings.ToUpper(strings.TrimSpace(id)) }
