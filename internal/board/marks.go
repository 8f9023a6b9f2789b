package board

// recomputeMarks rebuilds the blocked/blocking/dead-zone sets from scratch by
// walking every horizontal and vertical triple of adjacent squares. Patterns:
//
//	opponent | pawn  | opponent  -> center blocked, ends blocking
//	player   | empty | player    -> dead zone at center against the opponent
//
// The center of a triple always sits on the opposite color from its ends, so
// a dead zone lands on the flanked player's own color.
func recomputeMarks(s *GameState) {
	s.Blocked = make(map[int]struct{})
	s.Blocking = make(map[int]struct{})
	s.DeadZoneMakers = make(map[int]struct{})
	s.DeadZones = make(map[int]int8)

	n := s.Config.Size
	for idx := range s.Board {
		row, col := idx/n, idx%n
		if col > 0 && col < n-1 {
			markTriple(s, idx-1, idx, idx+1)
		}
		if row > 0 && row < n-1 {
			markTriple(s, idx-n, idx, idx+n)
		}
	}
}

func markTriple(s *GameState, a, center, b int) {
	ends := s.pawnOwner(a)
	if ends == 0 || ends != s.pawnOwner(b) {
		return
	}
	mid := s.pawnOwner(center)
	switch {
	case mid != 0 && mid != ends:
		s.Blocked[center] = struct{}{}
		s.Blocking[a] = struct{}{}
		s.Blocking[b] = struct{}{}
	case mid == 0:
		s.DeadZones[center] = Opponent(ends)
		s.DeadZoneMakers[a] = struct{}{}
		s.DeadZoneMakers[b] = struct{}{}
	}
}

// winDirections are the two scanned diagonals: down-right, then down-left.
var winDirections = [2][2]int{{1, 1}, {1, -1}}

// findWin scans squares in index order for the first diagonal run of
// Config.WinLength pawns that all belong to mover, carry no mark, and cross
// no dead zone registered against mover. When several runs complete on the
// same action, whichever the scan reaches first is reported.
func findWin(s *GameState, mover int8) []int {
	n := s.Config.Size
	k := s.Config.WinLength
	for idx := range s.Board {
		row, col := idx/n, idx%n
		for _, dir := range winDirections {
			endRow := row + (k-1)*dir[0]
			endCol := col + (k-1)*dir[1]
			if endRow >= n || endCol < 0 || endCol >= n {
				continue
			}
			line := runFrom(s, mover, row, col, dir, k)
			if line != nil {
				return line
			}
		}
	}
	return nil
}

func runFrom(s *GameState, mover int8, row, col int, dir [2]int, k int) []int {
	n := s.Config.Size
	line := make([]int, 0, k)
	for i := 0; i < k; i++ {
		idx := (row+i*dir[0])*n + (col+i*dir[1])
		sq := s.Board[idx]
		if sq.Pawn == nil || sq.Pawn.Owner != mover {
			return nil
		}
		if s.isMarked(idx) {
			return nil
		}
		if forbidden, ok := s.DeadZones[idx]; ok && forbidden == mover {
			return nil
		}
		line = append(line, idx)
	}
	return line
}
