package board

import "errors"

var (
	ErrGameOver       = errors.New("game already decided")
	ErrWrongPhase     = errors.New("action not allowed in this phase")
	ErrOutOfRange     = errors.New("square index out of range")
	ErrSquareOccupied = errors.New("square already occupied")
	ErrWrongColor     = errors.New("square does not match player color")
	ErrRestrictedZone = errors.New("square is sandwiched by opponent pawns")
	ErrNoSelection    = errors.New("no matching selection")
	ErrInvalidTarget  = errors.New("target is not a highlighted move")
)

// PlacePawn seats a pawn of the current player on an empty square of their
// color during the placement phase. Placing into a square flanked on both
// sides (horizontally or vertically) by opponent pawns is rejected outright,
// since the pawn would start its life blocked.
func PlacePawn(s *GameState, idx int) (*GameState, error) {
	if s.Winner != 0 {
		return nil, ErrGameOver
	}
	if s.Phase != PhasePlacement {
		return nil, ErrWrongPhase
	}
	sq := s.SquareAt(idx)
	if sq == nil {
		return nil, ErrOutOfRange
	}
	if sq.Pawn != nil {
		return nil, ErrSquareOccupied
	}
	mover := s.Current
	if sq.Color != PlayerColor(mover) {
		return nil, ErrWrongColor
	}
	if s.sandwiched(mover, idx) {
		return nil, ErrRestrictedZone
	}

	next := Clone(s)
	id := next.Placed[1] + next.Placed[2] + 1
	next.Board[idx].Pawn = &Pawn{ID: id, Owner: mover, Color: sq.Color}
	next.Remaining[mover]--
	next.Placed[mover]++
	if next.Remaining[1] == 0 && next.Remaining[2] == 0 {
		next.Phase = PhaseMovement
	}
	next.LastMove = &Move{From: -1, To: idx}
	finishTurn(next, mover)
	return next, nil
}

// HighlightValidMoves selects a movable pawn and marks every legal
// destination. Movement is a teleport: any empty square of the mover's color
// qualifies, adjacency plays no role. Selection misses (empty square,
// opponent pawn, blocked pawn, or clicking the selected pawn again) are not
// errors; they return a copy with the selection dropped.
func HighlightValidMoves(s *GameState, idx int) (*GameState, error) {
	if s.Winner != 0 {
		return nil, ErrGameOver
	}
	if s.Phase != PhaseMovement {
		return nil, ErrWrongPhase
	}
	if s.SquareAt(idx) == nil {
		return nil, ErrOutOfRange
	}

	next := Clone(s)
	resetHighlights(next)
	sq := &next.Board[idx]
	if sq.Pawn == nil || sq.Pawn.Owner != s.Current || s.isBlocked(idx) || s.Selected == idx {
		return next, nil
	}

	next.Selected = idx
	sq.Highlight = HighlightSelected
	color := PlayerColor(s.Current)
	for i := range next.Board {
		t := &next.Board[i]
		if t.Pawn == nil && t.Color == color {
			t.Highlight = HighlightValidMove
			next.ValidMoves = append(next.ValidMoves, i)
		}
	}
	return next, nil
}

// MovePawn relocates the selected pawn to one of its highlighted targets.
func MovePawn(s *GameState, from, to int) (*GameState, error) {
	if s.Winner != 0 {
		return nil, ErrGameOver
	}
	if s.Phase != PhaseMovement {
		return nil, ErrWrongPhase
	}
	if s.SquareAt(from) == nil || s.SquareAt(to) == nil {
		return nil, ErrOutOfRange
	}
	if s.Selected != from {
		return nil, ErrNoSelection
	}
	mover := s.Current
	src := s.Board[from]
	if src.Pawn == nil || src.Pawn.Owner != mover || s.isBlocked(from) {
		return nil, ErrNoSelection
	}
	if !s.isValidTarget(to) {
		return nil, ErrInvalidTarget
	}

	next := Clone(s)
	next.Board[to].Pawn = next.Board[from].Pawn
	next.Board[from].Pawn = nil
	next.LastMove = &Move{From: from, To: to}
	finishTurn(next, mover)
	return next, nil
}

// ClearHighlights drops the selection and all highlight tags. Always succeeds.
func ClearHighlights(s *GameState) *GameState {
	next := Clone(s)
	resetHighlights(next)
	return next
}

// finishTurn runs the shared tail of every accepted placement or move:
// rebuild derived marks, drop transient selection state, scan for a win, and
// hand the turn over unless the mover just won.
func finishTurn(s *GameState, mover int8) {
	recomputeMarks(s)
	resetHighlights(s)
	if line := findWin(s, mover); line != nil {
		s.Winner = mover
		s.WinLine = line
		return
	}
	s.Current = Opponent(mover)
}

func (s *GameState) isValidTarget(to int) bool {
	for _, idx := range s.ValidMoves {
		if idx == to {
			return true
		}
	}
	return false
}

// sandwiched reports whether idx sits between two opponent pawns along a row
// or column, which makes it a restricted placement for mover.
func (s *GameState) sandwiched(mover int8, idx int) bool {
	n := s.Config.Size
	row, col := idx/n, idx%n
	opp := Opponent(mover)
	if col > 0 && col < n-1 && s.pawnOwner(idx-1) == opp && s.pawnOwner(idx+1) == opp {
		return true
	}
	if row > 0 && row < n-1 && s.pawnOwner(idx-n) == opp && s.pawnOwner(idx+n) == opp {
		return true
	}
	return false
}

// resetHighlights clears selection state and re-tags empty dead-zone squares
// so they stay visible between selections.
func resetHighlights(s *GameState) {
	s.Selected = -1
	s.ValidMoves = nil
	for i := range s.Board {
		s.Board[i].Highlight = HighlightNone
	}
	for idx := range s.DeadZones {
		if idx >= 0 && idx < len(s.Board) && s.Board[idx].Pawn == nil {
			s.Board[idx].Highlight = HighlightDeadZone
		}
	}
}
