package board

// Normalize resolves a state that arrived from outside (decoded buffer,
// client submission) into one that honors every invariant. Defaults come from
// cfg, positions and colors are rederived from indices, counters follow the
// actual board contents, and all marks and highlights are rebuilt rather than
// trusted. Applied once, at the store's write boundary.
func Normalize(s *GameState, cfg Config) *GameState {
	cfg = cfg.WithDefaults()
	if s == nil {
		return NewGameState(cfg)
	}

	out := Clone(s)
	out.Config = mergeConfig(out.Config, cfg)
	n := out.Config.Size
	if len(out.Board) != n*n {
		// A board of the wrong shape cannot be repaired; start the game over.
		fresh := NewGameState(out.Config)
		fresh.Current = normalizePlayer(out.Current)
		return fresh
	}

	for i := range out.Board {
		sq := &out.Board[i]
		sq.Index = i
		sq.Row, sq.Col = i/n, i%n
		sq.Color = ColorAt(sq.Row, sq.Col)
		if p := sq.Pawn; p != nil {
			if p.Owner != 1 && p.Owner != 2 {
				sq.Pawn = nil
				continue
			}
			p.Color = PlayerColor(p.Owner)
		}
	}

	out.Placed[1], out.Placed[2] = 0, 0
	for i := range out.Board {
		if p := out.Board[i].Pawn; p != nil {
			out.Placed[p.Owner]++
		}
	}
	for p := 1; p <= 2; p++ {
		out.Remaining[p] = out.Config.PawnsPerPlayer - out.Placed[p]
		if out.Remaining[p] < 0 {
			out.Remaining[p] = 0
		}
	}

	out.Current = normalizePlayer(out.Current)
	if out.Winner != 1 && out.Winner != 2 {
		out.Winner = 0
	}
	if out.Remaining[1] == 0 && out.Remaining[2] == 0 {
		out.Phase = PhaseMovement
	} else {
		out.Phase = PhasePlacement
	}
	if mv := out.LastMove; mv != nil {
		if mv.To < 0 || mv.To >= n*n || mv.From < -1 || mv.From >= n*n {
			out.LastMove = nil
		}
	}
	for _, idx := range out.WinLine {
		if idx < 0 || idx >= n*n {
			out.WinLine = nil
			break
		}
	}

	recomputeMarks(out)
	selected := out.Selected
	out.Selected = -1
	resetHighlights(out)
	if out.Winner == 0 && out.Phase == PhaseMovement && selected >= 0 && selected < n*n {
		if withSelection, err := HighlightValidMoves(out, selected); err == nil {
			return withSelection
		}
	}
	return out
}

func mergeConfig(c, fallback Config) Config {
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

func normalizePlayer(p int8) int8 {
	if p != 1 && p != 2 {
		return 1
	}
	return p
}

// LegalPlacements lists every square the current player could place on right
// now. Empty when the game is over or not in the placement phase.
func LegalPlacements(s *GameState) []int {
	if s.Winner != 0 || s.Phase != PhasePlacement {
		return nil
	}
	color := PlayerColor(s.Current)
	var out []int
	for i := range s.Board {
		if s.Board[i].Pawn == nil && s.Board[i].Color == color && !s.sandwiched(s.Current, i) {
			out = append(out, i)
		}
	}
	return out
}

// LegalMoves lists every pawn relocation open to the current player.
func LegalMoves(s *GameState) []Move {
	if s.Winner != 0 || s.Phase != PhaseMovement {
		return nil
	}
	color := PlayerColor(s.Current)
	var sources, targets []int
	for i := range s.Board {
		sq := &s.Board[i]
		if sq.Pawn != nil && sq.Pawn.Owner == s.Current && !s.isBlocked(i) {
			sources = append(sources, i)
		} else if sq.Pawn == nil && sq.Color == color {
			targets = append(targets, i)
		}
	}
	out := make([]Move, 0, len(sources)*len(targets))
	for _, from := range sources {
		for _, to := range targets {
			out = append(out, Move{From: from, To: to})
		}
	}
	return out
}
