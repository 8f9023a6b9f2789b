// Package wire implements the binary snapshot format exchanged with clients.
//
// A buffer opens with a one-byte schema version followed by self-describing
// fields: one byte field id, one byte kind, then a fixed payload determined
// by the kind. Readers skip fields whose id they do not recognize and stop at
// the first kind they cannot measure, so newer writers stay readable. Any
// field missing from a buffer takes its documented default; a truncated or
// malformed buffer yields the defaults for everything it failed to carry and
// never an error.
package wire

import (
	"encoding/binary"
	"time"

	"crossline/internal/board"
)

const SchemaVersion = 1

// Field ids. Defaults apply when the field is absent.
const (
	fieldCurrent    = 1  // i8, default 1
	fieldPhase      = 2  // i8, default placement
	fieldRemaining1 = 3  // i32, default pawns-per-player
	fieldRemaining2 = 4  // i32, default pawns-per-player
	fieldPlaced1    = 5  // i32, default 0
	fieldPlaced2    = 6  // i32, default 0
	fieldSelected   = 7  // i32, default -1
	fieldWinner     = 8  // i8, default 0
	fieldLastMove   = 9  // pair, default none
	fieldWinLine    = 10 // vec, default none
	fieldBoard      = 11 // squares, default fresh board
	fieldConfig     = 12 // config record
	fieldSequence   = 13 // i64, default 0
	fieldTimestamp  = 14 // i64 unix millis, default 0
)

const (
	kindI8 = iota
	kindI32
	kindI64
	kindPair
	kindVec
	kindSquares
	kindConfig
)

// maxVecLen bounds decoded vector lengths so a corrupt count cannot force a
// huge allocation.
const maxVecLen = 4096

// Codec carries the rule configuration whose values stand in for absent
// fields on decode.
type Codec struct {
	defaults board.Config
}

func NewCodec(defaults board.Config) *Codec {
	return &Codec{defaults: defaults.WithDefaults()}
}

// EncodeState serializes a game state without the snapshot envelope fields.
func (c *Codec) EncodeState(s *board.GameState) []byte {
	w := newWriter()
	c.writeState(w, s)
	return w.b
}

// EncodeSnapshot serializes a game state together with its session sequence
// number and a millisecond timestamp.
func (c *Codec) EncodeSnapshot(seq int64, at time.Time, s *board.GameState) []byte {
	w := newWriter()
	c.writeState(w, s)
	w.field(fieldSequence, kindI64)
	w.i64(seq)
	w.field(fieldTimestamp, kindI64)
	w.i64(at.UnixMilli())
	return w.b
}

// DecodeState rebuilds a game state from buf. Derived marks and highlights
// are left empty for the rule engine to regenerate.
func (c *Codec) DecodeState(buf []byte) *board.GameState {
	st, _, _ := c.DecodeSnapshot(buf)
	return st
}

// DecodeSnapshot rebuilds a game state plus the envelope sequence number and
// timestamp. A missing timestamp decodes as the zero time.
func (c *Codec) DecodeSnapshot(buf []byte) (*board.GameState, int64, time.Time) {
	d := c.parse(buf)

	cfg := c.defaults
	if d.seen[fieldConfig] {
		cfg = board.Config{
			Size:           int(d.cfgSize),
			PawnsPerPlayer: int(d.cfgPawns),
			WinLength:      int(d.cfgWinLen),
			Ranked:         d.cfgFlags&1 != 0,
			Public:         d.cfgFlags&2 != 0,
		}
		cfg = mergeDefaults(cfg, c.defaults)
	}

	st := board.NewGameState(cfg)
	if d.seen[fieldCurrent] {
		st.Current = d.current
	}
	if d.seen[fieldPhase] {
		st.Phase = board.Phase(d.phase)
	}
	st.Remaining[1], st.Remaining[2] = cfg.PawnsPerPlayer, cfg.PawnsPerPlayer
	if d.seen[fieldRemaining1] {
		st.Remaining[1] = int(d.remaining[0])
	}
	if d.seen[fieldRemaining2] {
		st.Remaining[2] = int(d.remaining[1])
	}
	if d.seen[fieldPlaced1] {
		st.Placed[1] = int(d.placed[0])
	}
	if d.seen[fieldPlaced2] {
		st.Placed[2] = int(d.placed[1])
	}
	if d.seen[fieldSelected] {
		st.Selected = int(d.selected)
	}
	if d.seen[fieldWinner] {
		st.Winner = d.winner
	}
	if d.seen[fieldLastMove] {
		st.LastMove = &board.Move{From: int(d.lastMove[0]), To: int(d.lastMove[1])}
	}
	if d.seen[fieldWinLine] {
		st.WinLine = make([]int, len(d.winLine))
		for i, v := range d.winLine {
			st.WinLine[i] = int(v)
		}
	}
	if d.seen[fieldBoard] {
		for _, rec := range d.squares {
			idx := int(rec.index)
			if idx < 0 || idx >= len(st.Board) {
				continue
			}
			sq := &st.Board[idx]
			sq.Highlight = board.Highlight(rec.highlight)
			if rec.occupied && (rec.owner == 1 || rec.owner == 2) {
				sq.Pawn = &board.Pawn{
					ID:    int(rec.pawnID),
					Owner: rec.owner,
					Color: board.PlayerColor(rec.owner),
				}
			}
		}
	}

	var at time.Time
	if d.seen[fieldTimestamp] {
		at = time.UnixMilli(d.timestamp)
	}
	return st, d.sequence, at
}

func (c *Codec) writeState(w *writer, s *board.GameState) {
	w.field(fieldCurrent, kindI8)
	w.i8(s.Current)
	w.field(fieldPhase, kindI8)
	w.i8(int8(s.Phase))
	w.field(fieldRemaining1, kindI32)
	w.i32(int32(s.Remaining[1]))
	w.field(fieldRemaining2, kindI32)
	w.i32(int32(s.Remaining[2]))
	w.field(fieldPlaced1, kindI32)
	w.i32(int32(s.Placed[1]))
	w.field(fieldPlaced2, kindI32)
	w.i32(int32(s.Placed[2]))
	w.field(fieldSelected, kindI32)
	w.i32(int32(s.Selected))
	w.field(fieldWinner, kindI8)
	w.i8(s.Winner)

	if s.LastMove != nil {
		w.field(fieldLastMove, kindPair)
		w.i32(int32(s.LastMove.From))
		w.i32(int32(s.LastMove.To))
	}
	if len(s.WinLine) > 0 {
		w.field(fieldWinLine, kindVec)
		w.i32(int32(len(s.WinLine)))
		for _, idx := range s.WinLine {
			w.i32(int32(idx))
		}
	}

	w.field(fieldBoard, kindSquares)
	w.i32(int32(len(s.Board)))
	for i := range s.Board {
		sq := &s.Board[i]
		w.i32(int32(sq.Index))
		w.i32(int32(sq.Row))
		w.i32(int32(sq.Col))
		w.i8(int8(sq.Color))
		if sq.Pawn != nil {
			w.i8(1)
			w.i32(int32(sq.Pawn.ID))
			w.i8(sq.Pawn.Owner)
			w.i8(int8(sq.Pawn.Color))
		} else {
			w.i8(0)
		}
		w.i8(int8(sq.Highlight))
	}

	cfg := s.Config.WithDefaults()
	w.field(fieldConfig, kindConfig)
	w.i32(int32(cfg.Size))
	w.i32(int32(cfg.PawnsPerPlayer))
	w.i32(int32(cfg.WinLength))
	var flags int8
	if cfg.Ranked {
		flags |= 1
	}
	if cfg.Public {
		flags |= 2
	}
	w.i8(flags)
}

func mergeDefaults(c, fallback board.Config) board.Config {
	if c.Size <= 1 {
		c.Size = fallback.Size
	}
	if c.PawnsPerPlayer <= 0 {
		c.PawnsPerPlayer = fallback.PawnsPerPlayer
	}
	if c.WinLength <= 1 {
		c.WinLength = fallback.WinLength
	}
	return c
}
