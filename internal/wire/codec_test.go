package wire

import (
	"testing"
	"time"

	"crossline/internal/board"
)

func newTestCodec() *Codec {
	return NewCodec(board.Config{PawnsPerPlayer: 6})
}

func place(t *testing.T, s *board.GameState, idx int) *board.GameState {
	t.Helper()
	next, err := board.PlacePawn(s, idx)
	if err != nil {
		t.Fatalf("PlacePawn(%d): %v", idx, err)
	}
	return next
}

// sameState compares every field the codec promises to preserve. Highlights
// and derived mark sets are transient and deliberately excluded.
func sameState(t *testing.T, got, want *board.GameState) {
	t.Helper()
	if got.Current != want.Current || got.Phase != want.Phase || got.Winner != want.Winner {
		t.Fatalf("current/phase/winner = %d/%v/%d, want %d/%v/%d",
			got.Current, got.Phase, got.Winner, want.Current, want.Phase, want.Winner)
	}
	if got.Selected != want.Selected {
		t.Fatalf("selected = %d, want %d", got.Selected, want.Selected)
	}
	for p := 1; p <= 2; p++ {
		if got.Remaining[p] != want.Remaining[p] || got.Placed[p] != want.Placed[p] {
			t.Fatalf("player %d counters = %d/%d, want %d/%d",
				p, got.Remaining[p], got.Placed[p], want.Remaining[p], want.Placed[p])
		}
	}
	if (got.LastMove == nil) != (want.LastMove == nil) {
		t.Fatalf("last move presence mismatch: %+v vs %+v", got.LastMove, want.LastMove)
	}
	if got.LastMove != nil && *got.LastMove != *want.LastMove {
		t.Fatalf("last move = %+v, want %+v", got.LastMove, want.LastMove)
	}
	if len(got.WinLine) != len(want.WinLine) {
		t.Fatalf("win line = %v, want %v", got.WinLine, want.WinLine)
	}
	for i := range want.WinLine {
		if got.WinLine[i] != want.WinLine[i] {
			t.Fatalf("win line = %v, want %v", got.WinLine, want.WinLine)
		}
	}
	if got.Config != want.Config {
		t.Fatalf("config = %+v, want %+v", got.Config, want.Config)
	}
	if len(got.Board) != len(want.Board) {
		t.Fatalf("board length = %d, want %d", len(got.Board), len(want.Board))
	}
	for i := range want.Board {
		g, w := got.Board[i].Pawn, want.Board[i].Pawn
		if (g == nil) != (w == nil) {
			t.Fatalf("square %d occupancy mismatch", i)
		}
		if g != nil && (g.ID != w.ID || g.Owner != w.Owner || g.Color != w.Color) {
			t.Fatalf("square %d pawn = %+v, want %+v", i, g, w)
		}
	}
}

func TestRoundTripStates(t *testing.T) {
	c := newTestCodec()

	fresh := board.NewGameState(board.Config{PawnsPerPlayer: 6, Ranked: true})

	mid := board.NewGameState(board.Config{PawnsPerPlayer: 6})
	for _, idx := range []int{0, 33, 18, 35} {
		mid = place(t, mid, idx)
	}

	won := board.NewGameState(board.Config{PawnsPerPlayer: 4})
	for _, idx := range []int{0, 40, 9, 42, 18, 44, 27} {
		won = place(t, won, idx)
	}
	if won.Winner != 1 {
		t.Fatalf("fixture: expected a finished game")
	}

	moved := board.NewGameState(board.Config{PawnsPerPlayer: 2})
	for _, idx := range []int{0, 33, 18, 35} {
		moved = place(t, moved, idx)
	}
	selected, err := board.HighlightValidMoves(moved, 0)
	if err != nil {
		t.Fatalf("HighlightValidMoves: %v", err)
	}

	cases := []struct {
		name string
		st   *board.GameState
	}{
		{"fresh", fresh},
		{"mid_placement", mid},
		{"won_with_line", won},
		{"movement_with_select", selected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sameState(t, c.DecodeState(c.EncodeState(tc.st)), tc.st)
		})
	}
}

func TestSnapshotEnvelope(t *testing.T) {
	c := newTestCodec()
	st := board.NewGameState(board.Config{PawnsPerPlayer: 6})
	at := time.UnixMilli(1_700_000_123_456)

	buf := c.EncodeSnapshot(42, at, st)
	out, seq, ts := c.DecodeSnapshot(buf)
	if seq != 42 {
		t.Fatalf("seq = %d, want 42", seq)
	}
	if !ts.Equal(at) {
		t.Fatalf("timestamp = %v, want %v", ts, at)
	}
	sameState(t, out, st)
}

func TestDecodeEmptyBuffer(t *testing.T) {
	c := newTestCodec()
	for _, buf := range [][]byte{nil, {}, {SchemaVersion}} {
		st := c.DecodeState(buf)
		if st.Current != 1 || st.Phase != board.PhasePlacement || st.Winner != 0 {
			t.Fatalf("defaults not applied: %d/%v/%d", st.Current, st.Phase, st.Winner)
		}
		if st.Selected != -1 {
			t.Fatalf("selected default = %d, want -1", st.Selected)
		}
		if st.Remaining[1] != 6 || st.Remaining[2] != 6 {
			t.Fatalf("remaining defaults = %d/%d, want 6/6", st.Remaining[1], st.Remaining[2])
		}
		if len(st.Board) != 64 {
			t.Fatalf("board default length = %d", len(st.Board))
		}
	}
}

func TestDecodeTruncatedBuffers(t *testing.T) {
	c := newTestCodec()
	st := board.NewGameState(board.Config{PawnsPerPlayer: 6})
	st = place(t, st, 0)
	buf := c.EncodeState(st)

	// every possible truncation decodes without panicking
	for i := 0; i <= len(buf); i++ {
		out := c.DecodeState(buf[:i])
		if out == nil || len(out.Board) != 64 {
			t.Fatalf("truncation at %d produced an unusable state", i)
		}
	}

	// cutting inside the first i32 payload drops that field back to default
	cut := 1 + 3 + 3 + 2 + 2 // version, current, phase, remaining[1] header + half payload
	out := c.DecodeState(buf[:cut])
	if out.Remaining[1] != 6 {
		t.Fatalf("partial field applied: remaining = %d, want default 6", out.Remaining[1])
	}
}

func TestUnknownFieldSkipped(t *testing.T) {
	c := newTestCodec()
	buf := []byte{
		SchemaVersion,
		99, kindI32, 0, 0, 0, 7, // unknown field, measurable kind
		fieldCurrent, kindI8, 2,
	}
	st := c.DecodeState(buf)
	if st.Current != 2 {
		t.Fatalf("field after unknown slot lost: current = %d", st.Current)
	}
}

func TestUnknownKindStopsCleanly(t *testing.T) {
	c := newTestCodec()
	buf := []byte{
		SchemaVersion,
		fieldCurrent, kindI8, 2,
		77, 200, 0xde, 0xad, // unmeasurable kind: ignore the remainder
		fieldWinner, kindI8, 1,
	}
	st := c.DecodeState(buf)
	if st.Current != 2 {
		t.Fatalf("fields before unknown kind lost: current = %d", st.Current)
	}
	if st.Winner != 0 {
		t.Fatalf("decoder kept reading past unknown kind: winner = %d", st.Winner)
	}
}

func TestHostileVectorCount(t *testing.T) {
	c := newTestCodec()
	buf := []byte{
		SchemaVersion,
		fieldWinLine, kindVec, 0xff, 0xff, 0xff, 0xff, // count -1
	}
	st := c.DecodeState(buf)
	if st.WinLine != nil {
		t.Fatalf("negative vector count accepted: %v", st.WinLine)
	}

	buf = []byte{
		SchemaVersion,
		fieldWinLine, kindVec, 0x7f, 0xff, 0xff, 0xff, // absurd count
	}
	if st := c.DecodeState(buf); st.WinLine != nil {
		t.Fatalf("oversized vector count accepted")
	}
}
