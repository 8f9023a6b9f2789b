package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"crossline/internal/archive"
	"crossline/internal/board"
	"crossline/internal/domain"
	"crossline/internal/ratings"
	"crossline/internal/session"
	"crossline/pkg/gamedto"
)

// Place seats a pawn during the placement phase.
func (s *Service) Place(ctx context.Context, meta Meta, idx int) (*MoveOutcome, error) {
	return s.boardAction(ctx, meta, true, func(st *board.GameState) (*board.GameState, error) {
		return board.PlacePawn(st, idx)
	})
}

// Select picks one of the caller's pawns and highlights its targets.
func (s *Service) Select(ctx context.Context, meta Meta, idx int) (*MoveOutcome, error) {
	return s.boardAction(ctx, meta, true, func(st *board.GameState) (*board.GameState, error) {
		return board.HighlightValidMoves(st, idx)
	})
}

// Deselect clears any selection. Allowed regardless of turn; clearing
// highlights never changes whose move it is.
func (s *Service) Deselect(ctx context.Context, meta Meta) (*MoveOutcome, error) {
	return s.boardAction(ctx, meta, false, func(st *board.GameState) (*board.GameState, error) {
		return board.ClearHighlights(st), nil
	})
}

// Move relocates the selected pawn to a highlighted target.
func (s *Service) Move(ctx context.Context, meta Meta, from, to int) (*MoveOutcome, error) {
	return s.boardAction(ctx, meta, true, func(st *board.GameState) (*board.GameState, error) {
		return board.MovePawn(st, from, to)
	})
}

// boardAction is the shared transaction wrapper: resolve the caller's seat,
// enforce the turn, run the rule function, then broadcast and follow up on
// whatever the accepted state implies.
func (s *Service) boardAction(ctx context.Context, meta Meta, turnChecked bool, fn func(*board.GameState) (*board.GameState, error)) (*MoveOutcome, error) {
	handle := strings.TrimSpace(meta.Handle)
	if handle == "" {
		return nil, ErrHandleRequired
	}
	id := normalizeID(meta.GameID)

	var won bool
	sess, err := s.store.Apply(id, func(cur *session.Session) (*board.GameState, error) {
		p := cur.PlayerByHandle(handle)
		if p == nil {
			return nil, session.ErrPlayerNotFound
		}
		// A decided game answers with ErrGameOver from the rule function no
		// matter whose turn the board froze on.
		if turnChecked && cur.State.Winner == 0 && p.Number != cur.State.Current {
			return nil, ErrNotYourTurn
		}
		next, err := fn(cur.State)
		if err != nil {
			return nil, err
		}
		won = next != nil && cur.State.Winner == 0 && next.Winner != 0
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, sess, won), nil
}

// afterMutation runs the post-accept pipeline shared by human and advisor
// actions: broadcast the new frame, finalize a decided game, or hand the
// turn to the advisor.
func (s *Service) afterMutation(ctx context.Context, sess *session.Session, won bool) *MoveOutcome {
	s.broadcast(ctx, sess)
	out := &MoveOutcome{View: s.view(sess, ""), Winner: sess.State.Winner}
	if sess.State.Winner != 0 {
		out.Finished = true
		out.WinLine = append([]int(nil), sess.State.WinLine...)
	}
	if won {
		out.Record = s.finalize(ctx, sess)
		if p := seat(sess, sess.State.Winner); p != nil {
			out.View.Message = s.text("game.win", map[string]any{"Name": p.Name})
		}
	} else {
		s.maybeDispatchAI(sess)
	}
	return out
}

// finalize settles a freshly decided game: ranked rating movement first so
// the record carries the deltas, then the archive write, then the good-bye
// notices. Nothing here can fail the move that won the game.
func (s *Service) finalize(ctx context.Context, sess *session.Session) *domain.MatchRecord {
	p1, p2 := seat(sess, 1), seat(sess, 2)
	now := time.Now()
	rec := &domain.MatchRecord{
		GameID:    sess.ID,
		Winner:    sess.State.Winner,
		Result:    "win",
		WinLine:   append([]int(nil), sess.State.WinLine...),
		Moves:     int(sess.Seq),
		Ranked:    sess.Options.Ranked,
		StartedAt: sess.CreatedAt,
		EndedAt:   now,
		Duration:  now.Sub(sess.CreatedAt),
	}
	if p1 != nil {
		rec.Player1, rec.Rating1 = p1.Name, p1.Rating
	}
	if p2 != nil {
		rec.Player2, rec.Rating2 = p2.Name, p2.Rating
	}

	if rec.Ranked && s.ratings != nil && p1 != nil && p2 != nil {
		d1, d2, err := s.ratings.ApplyResult(ctx, ratings.Result{
			Player1: rec.Player1,
			Player2: rec.Player2,
			Winner:  rec.Winner,
			EndedAt: now,
		})
		if err != nil {
			s.logger.Warn("rating_apply_failed", zap.Error(err), zap.String("game_id", sess.ID))
		} else {
			rec.Delta1, rec.Delta2 = d1, d2
		}
	}
	if s.repo != nil {
		id, err := s.repo.SaveMatch(ctx, rec)
		switch {
		case errors.Is(err, archive.ErrDuplicateMatch):
			s.logger.Warn("match_already_recorded", zap.String("game_id", sess.ID))
		case err != nil:
			s.logger.Warn("match_archive_failed", zap.Error(err), zap.String("game_id", sess.ID))
		default:
			rec.ID = id
		}
	}
	s.notifyGameOver(sess, rec)
	s.logger.Info("match_finished",
		zap.String("game_id", sess.ID),
		zap.Int8("winner", rec.Winner),
		zap.Bool("ranked", rec.Ranked),
		zap.Int("moves", rec.Moves))
	return rec
}

func (s *Service) notifyGameOver(sess *session.Session, rec *domain.MatchRecord) {
	if s.bc == nil {
		return
	}
	win := ""
	if p := seat(sess, sess.State.Winner); p != nil {
		win = s.text("game.win", map[string]any{"Name": p.Name})
	}
	for _, p := range sess.Players {
		if !p.Connected || isAIHandle(p.Handle) {
			continue
		}
		msg := win
		if rec.Ranked {
			rating := rec.Rating1 + rec.Delta1
			if p.Number == 2 {
				rating = rec.Rating2 + rec.Delta2
			}
			if line := s.text("rating.update", map[string]any{"Name": p.Name, "Rating": rating}); line != "" {
				if msg != "" {
					msg += " "
				}
				msg += line
			}
		}
		s.bc.Notify(p.Handle, gamedto.Event{Kind: gamedto.EventGameOver, GameID: sess.ID, Message: msg})
	}
}

// maybeDispatchAI hands the position to the advisor when a practice session
// leaves it on turn. The session copy doubles as the immutable snapshot.
func (s *Service) maybeDispatchAI(sess *session.Session) {
	if s.dispatcher == nil || sess.Options.Difficulty <= 0 {
		return
	}
	if sess.State.Winner != 0 || sess.State.Current != aiSeat {
		return
	}
	id, snapSeq := sess.ID, sess.Seq
	s.dispatcher.Request(context.Background(), id, sess.State, sess.Options.Difficulty, func(mv *board.Move) {
		s.applyAdvisorMove(context.Background(), id, snapSeq, mv)
	})
}

// applyAdvisorMove re-enters the store with an advisor reply. The sequence
// check pins the reply to the exact position it was computed for; anything
// else is stale and dropped.
func (s *Service) applyAdvisorMove(ctx context.Context, id string, snapSeq int64, mv *board.Move) {
	var won bool
	sess, err := s.store.Apply(id, func(cur *session.Session) (*board.GameState, error) {
		if cur.Seq != snapSeq {
			return nil, errStaleAdvice
		}
		if cur.State.Winner != 0 || cur.State.Current != aiSeat {
			return nil, errStaleAdvice
		}
		next, err := advisorApply(cur.State, mv)
		if err != nil {
			return nil, err
		}
		won = next.Winner != 0
		return next, nil
	})
	if err != nil {
		s.logger.Debug("advisor_move_rejected", zap.Error(err), zap.String("game_id", id))
		return
	}
	s.afterMutation(ctx, sess, won)
}

func advisorApply(st *board.GameState, mv *board.Move) (*board.GameState, error) {
	if mv.From < 0 {
		return board.PlacePawn(st, mv.To)
	}
	sel, err := board.HighlightValidMoves(st, mv.From)
	if err != nil {
		return nil, err
	}
	return board.MovePawn(sel, mv.From, mv.To)
}
