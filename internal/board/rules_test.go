package board

import (
	"errors"
	"testing"
)

func newState(t *testing.T, pawns int) *GameState {
	t.Helper()
	return NewGameState(Config{PawnsPerPlayer: pawns})
}

func place(t *testing.T, s *GameState, idx int) *GameState {
	t.Helper()
	next, err := PlacePawn(s, idx)
	if err != nil {
		t.Fatalf("PlacePawn(%d): %v", idx, err)
	}
	return next
}

func TestPlacementBookkeeping(t *testing.T) {
	s := newState(t, 6)

	// alternate 6 placements each; the two camps never touch
	p1 := []int{0, 2, 4, 6, 16, 18}
	p2 := []int{33, 35, 37, 39, 49, 51}
	for i := 0; i < 6; i++ {
		if s.Current != 1 {
			t.Fatalf("turn %d: expected player 1, got %d", i, s.Current)
		}
		s = place(t, s, p1[i])
		s = place(t, s, p2[i])
		for p := int8(1); p <= 2; p++ {
			if got := s.Placed[p] + s.Remaining[p]; got != 6 {
				t.Fatalf("player %d: placed+remaining = %d, want 6", p, got)
			}
		}
		if i < 5 && s.Phase != PhasePlacement {
			t.Fatalf("phase flipped early after round %d", i)
		}
	}
	if s.Phase != PhaseMovement {
		t.Fatalf("expected movement phase after final placement, got %v", s.Phase)
	}
	if s.Remaining[1] != 0 || s.Remaining[2] != 0 {
		t.Fatalf("leftover pawns: %d/%d", s.Remaining[1], s.Remaining[2])
	}
}

func TestPlacementValidation(t *testing.T) {
	s := newState(t, 6)

	if _, err := PlacePawn(s, -1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative index: %v", err)
	}
	if _, err := PlacePawn(s, len(s.Board)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("index past end: %v", err)
	}
	// square (0,1) is light, player 1 plays dark
	if _, err := PlacePawn(s, 1); !errors.Is(err, ErrWrongColor) {
		t.Fatalf("wrong color: %v", err)
	}

	s = place(t, s, 0)
	if _, err := PlacePawn(s, 0); !errors.Is(err, ErrSquareOccupied) {
		t.Fatalf("occupied: %v", err)
	}

	// failed calls must leave the input untouched
	if s.Placed[2] != 0 || s.Board[1].Pawn != nil {
		t.Fatalf("state mutated by rejected placement")
	}
}

func TestRestrictedZonePlacement(t *testing.T) {
	// horizontal: player 2 pawns on (1,0) and (1,2) flank the dark (1,1)
	s := newState(t, 6)
	s = place(t, s, 63)
	s = place(t, s, 8)
	s = place(t, s, 45)
	s = place(t, s, 10)
	before := s
	if _, err := PlacePawn(s, 9); !errors.Is(err, ErrRestrictedZone) {
		t.Fatalf("horizontal sandwich: %v", err)
	}
	if before.Board[9].Pawn != nil || before.Placed[1] != 2 {
		t.Fatalf("rejected placement mutated state")
	}

	// vertical: player 2 pawns on (0,1) and (2,1) flank the same square
	s = newState(t, 6)
	s = place(t, s, 63)
	s = place(t, s, 1)
	s = place(t, s, 45)
	s = place(t, s, 17)
	if _, err := PlacePawn(s, 9); !errors.Is(err, ErrRestrictedZone) {
		t.Fatalf("vertical sandwich: %v", err)
	}

	// one flank alone restricts nothing
	s = newState(t, 6)
	s = place(t, s, 63)
	s = place(t, s, 8)
	if _, err := PlacePawn(s, 9); err != nil {
		t.Fatalf("single-side flank should be legal: %v", err)
	}
}

func TestBlockingMarks(t *testing.T) {
	s := newState(t, 6)
	s = place(t, s, 9)  // p1 (1,1)
	s = place(t, s, 8)  // p2 (1,0)
	s = place(t, s, 63) // p1 elsewhere
	s = place(t, s, 10) // p2 (1,2) completes the sandwich

	if _, ok := s.Blocked[9]; !ok {
		t.Fatalf("center pawn not blocked: %v", s.Blocked)
	}
	for _, idx := range []int{8, 10} {
		if _, ok := s.Blocking[idx]; !ok {
			t.Fatalf("end pawn %d not marked blocking: %v", idx, s.Blocking)
		}
	}
}

func TestDeadZoneMarks(t *testing.T) {
	s := newState(t, 6)
	s = place(t, s, 9)  // p1 (1,1)
	s = place(t, s, 40) // p2 far away
	s = place(t, s, 11) // p1 (1,3) flanks the light (1,2)

	if forbidden, ok := s.DeadZones[10]; !ok || forbidden != 2 {
		t.Fatalf("expected dead zone at 10 against player 2, got %v", s.DeadZones)
	}
	for _, idx := range []int{9, 11} {
		if _, ok := s.DeadZoneMakers[idx]; !ok {
			t.Fatalf("end pawn %d not marked as dead-zone maker", idx)
		}
	}
	if s.Board[10].Highlight != HighlightDeadZone {
		t.Fatalf("dead-zone square not tagged: %v", s.Board[10].Highlight)
	}
}

// drives a two-pawn game into the movement phase
func movementState(t *testing.T) *GameState {
	t.Helper()
	s := newState(t, 2)
	s = place(t, s, 0)
	s = place(t, s, 33)
	s = place(t, s, 18)
	s = place(t, s, 35)
	if s.Phase != PhaseMovement {
		t.Fatalf("fixture not in movement phase")
	}
	return s
}

func TestHighlightAndMove(t *testing.T) {
	s := movementState(t)

	sel, err := HighlightValidMoves(s, 0)
	if err != nil {
		t.Fatalf("HighlightValidMoves: %v", err)
	}
	if sel.Selected != 0 {
		t.Fatalf("selected = %d, want 0", sel.Selected)
	}
	if sel.Board[0].Highlight != HighlightSelected {
		t.Fatalf("source square not tagged selected")
	}
	// 32 dark squares, two occupied by player 1
	if len(sel.ValidMoves) != 30 {
		t.Fatalf("valid moves = %d, want 30", len(sel.ValidMoves))
	}
	for _, idx := range sel.ValidMoves {
		if sq := sel.Board[idx]; sq.Pawn != nil || sq.Color != ColorDark {
			t.Fatalf("illegal target %d in valid moves", idx)
		}
	}

	id := sel.Board[0].Pawn.ID
	moved, err := MovePawn(sel, 0, 36)
	if err != nil {
		t.Fatalf("MovePawn: %v", err)
	}
	if moved.Board[0].Pawn != nil || moved.Board[36].Pawn == nil {
		t.Fatalf("pawn did not relocate")
	}
	if moved.Board[36].Pawn.ID != id {
		t.Fatalf("pawn identity changed on move")
	}
	if moved.Selected != -1 || len(moved.ValidMoves) != 0 {
		t.Fatalf("selection survived the move")
	}
	if moved.LastMove == nil || moved.LastMove.From != 0 || moved.LastMove.To != 36 {
		t.Fatalf("last move = %+v", moved.LastMove)
	}
	if moved.Current != 2 {
		t.Fatalf("turn did not pass, current = %d", moved.Current)
	}
}

func TestHighlightSoftFailures(t *testing.T) {
	s := movementState(t)

	// empty square, opponent pawn: both deselect without error
	for _, idx := range []int{36, 33} {
		out, err := HighlightValidMoves(s, idx)
		if err != nil {
			t.Fatalf("highlight %d: %v", idx, err)
		}
		if out.Selected != -1 || len(out.ValidMoves) != 0 {
			t.Fatalf("highlight %d: expected deselected state", idx)
		}
	}

	// clicking the selected pawn again toggles the selection off
	sel, err := HighlightValidMoves(s, 0)
	if err != nil {
		t.Fatalf("HighlightValidMoves: %v", err)
	}
	toggled, err := HighlightValidMoves(sel, 0)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Selected != -1 {
		t.Fatalf("reselect did not clear selection")
	}

	// wrong phase is a hard error
	if _, err := HighlightValidMoves(newState(t, 2), 0); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("placement-phase highlight: %v", err)
	}
}

func TestMoveValidation(t *testing.T) {
	s := movementState(t)

	if _, err := MovePawn(s, 0, 36); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("move without selection: %v", err)
	}

	sel, err := HighlightValidMoves(s, 0)
	if err != nil {
		t.Fatalf("HighlightValidMoves: %v", err)
	}
	// occupied target, off-color target, own square: none were highlighted
	for _, to := range []int{33, 1, 0} {
		if _, err := MovePawn(sel, 0, to); !errors.Is(err, ErrInvalidTarget) {
			t.Fatalf("move to %d: %v", to, err)
		}
	}
	if _, err := MovePawn(sel, 18, 36); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("move from unselected source: %v", err)
	}
}

func TestBlockedPawnCannotMove(t *testing.T) {
	s := newState(t, 2)
	s = place(t, s, 9)  // p1 (1,1)
	s = place(t, s, 8)  // p2 (1,0)
	s = place(t, s, 45) // p1 elsewhere
	s = place(t, s, 10) // p2 completes the sandwich; movement phase begins
	if s.Phase != PhaseMovement {
		t.Fatalf("fixture not in movement phase")
	}

	// selection refuses a blocked pawn
	out, err := HighlightValidMoves(s, 9)
	if err != nil {
		t.Fatalf("HighlightValidMoves: %v", err)
	}
	if out.Selected != -1 {
		t.Fatalf("blocked pawn was selectable")
	}

	// even a forged selection cannot move it
	forged := Clone(s)
	forged.Selected = 9
	forged.ValidMoves = []int{27}
	if _, err := MovePawn(forged, 9, 27); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("blocked pawn moved: %v", err)
	}
}

func TestDiagonalWin(t *testing.T) {
	s := newState(t, 4)
	moves := []int{0, 40, 9, 42, 18, 44, 27}
	for _, idx := range moves {
		s = place(t, s, idx)
	}

	if s.Winner != 1 {
		t.Fatalf("winner = %d, want 1", s.Winner)
	}
	want := []int{0, 9, 18, 27}
	if len(s.WinLine) != len(want) {
		t.Fatalf("win line = %v, want %v", s.WinLine, want)
	}
	for i, idx := range want {
		if s.WinLine[i] != idx {
			t.Fatalf("win line = %v, want %v", s.WinLine, want)
		}
	}
	// the turn stays with the winner and the game accepts nothing further
	if s.Current != 1 {
		t.Fatalf("turn passed after win")
	}
	if _, err := PlacePawn(s, 2); !errors.Is(err, ErrGameOver) {
		t.Fatalf("placement after win: %v", err)
	}
}

func TestBlockedPawnBreaksWinLine(t *testing.T) {
	s := newState(t, 4)
	// diagonal 0-9-18-27 for p1, but p2 sandwiches the pawn on 9
	moves := []int{0, 8, 9, 10, 18, 40, 27}
	for _, idx := range moves {
		s = place(t, s, idx)
	}
	if s.Winner != 0 {
		t.Fatalf("marked pawn counted toward a win: line %v", s.WinLine)
	}
	if s.Current != 2 {
		t.Fatalf("turn should have passed, current = %d", s.Current)
	}
}

func TestDeadZoneMakerBreaksWinLine(t *testing.T) {
	s := newState(t, 5)
	// p1 pawns on 9 and 11 flank the light square 10, marking both as makers;
	// the diagonal 0-9-18-27 then completes without a win
	moves := []int{9, 40, 11, 42, 0, 44, 18, 46, 27}
	for _, idx := range moves {
		s = place(t, s, idx)
	}
	if _, ok := s.DeadZoneMakers[9]; !ok {
		t.Fatalf("fixture broken: 9 is not a dead-zone maker")
	}
	if s.Winner != 0 {
		t.Fatalf("dead-zone maker counted toward a win: line %v", s.WinLine)
	}
}

func TestDeadZoneSquareExcludedFromOwnersWin(t *testing.T) {
	s := newState(t, 4)
	moves := []int{0, 40, 9, 42, 18, 44}
	for _, idx := range moves {
		s = place(t, s, idx)
	}
	// craft the final position by hand to probe the dead-zone guard directly
	probe := Clone(s)
	probe.Board[27].Pawn = &Pawn{ID: 99, Owner: 1, Color: ColorDark}
	recomputeMarks(probe)

	probe.DeadZones[18] = 1
	if line := findWin(probe, 1); line != nil {
		t.Fatalf("dead zone against player 1 ignored: %v", line)
	}
	probe.DeadZones[18] = 2
	if line := findWin(probe, 1); line == nil {
		t.Fatalf("dead zone against player 2 should not block player 1")
	}
}

func TestClearHighlights(t *testing.T) {
	s := movementState(t)
	sel, err := HighlightValidMoves(s, 0)
	if err != nil {
		t.Fatalf("HighlightValidMoves: %v", err)
	}
	out := ClearHighlights(sel)
	if out.Selected != -1 || len(out.ValidMoves) != 0 {
		t.Fatalf("selection not cleared")
	}
	for i := range out.Board {
		if h := out.Board[i].Highlight; h == HighlightSelected || h == HighlightValidMove {
			t.Fatalf("square %d kept highlight %v", i, h)
		}
	}
}
