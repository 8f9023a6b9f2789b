package board

// Default rule parameters. Config values of zero fall back to these.
const (
	DefaultSize           = 8
	DefaultPawnsPerPlayer = 6
	DefaultWinLength      = 4
)

type Color int8

const (
	ColorDark  Color = 1 // (row+col) even, owned by player 1
	ColorLight Color = 2 // (row+col) odd, owned by player 2
)

func (c Color) String() string {
	switch c {
	case ColorDark:
		return "dark"
	case ColorLight:
		return "light"
	default:
		return "none"
	}
}

// ColorAt derives a square's color from its position parity.
func ColorAt(row, col int) Color {
	if (row+col)%2 == 0 {
		return ColorDark
	}
	return ColorLight
}

// PlayerColor maps a player number to the square color that player plays on.
func PlayerColor(player int8) Color {
	if player == 1 {
		return ColorDark
	}
	return ColorLight
}

func Opponent(player int8) int8 {
	if player == 1 {
		return 2
	}
	return 1
}

type Phase int8

const (
	PhasePlacement Phase = iota
	PhaseMovement
)

func (p Phase) String() string {
	if p == PhaseMovement {
		return "movement"
	}
	return "placement"
}

type Highlight int8

const (
	HighlightNone Highlight = iota
	HighlightSelected
	HighlightValidMove
	HighlightDeadZone
)

type Pawn struct {
	ID    int
	Owner int8
	Color Color
}

type Square struct {
	Index     int
	Row       int
	Col       int
	Color     Color
	Pawn      *Pawn
	Highlight Highlight
}

// Move is a from/to pair of square indices. Placements use From = -1.
type Move struct {
	From int
	To   int
}

type Config struct {
	Size           int
	PawnsPerPlayer int
	WinLength      int
	Ranked         bool
	Public         bool
}

// WithDefaults fills zero-valued rule parameters with the package defaults.
func (c Config) WithDefaults() Config {
	if c.Size <= 1 {
		c.Size = DefaultSize
	}
	if c.PawnsPerPlayer <= 0 {
		c.PawnsPerPlayer = DefaultPawnsPerPlayer
	}
	if c.WinLength <= 1 {
		c.WinLength = DefaultWinLength
	}
	return c
}

// GameState is one immutable position of a game. Rule functions never modify
// a state in place; they return an adjusted deep copy.
type GameState struct {
	Board   []Square
	Current int8
	Phase   Phase
	// Per-player counters indexed by player number; slot 0 unused.
	Remaining [3]int
	Placed    [3]int
	Selected  int // square index of the selected pawn, -1 when none
	Winner    int8
	LastMove  *Move
	WinLine   []int
	// Derived marks, rebuilt after every accepted placement or move.
	Blocked        map[int]struct{}
	Blocking       map[int]struct{}
	DeadZoneMakers map[int]struct{}
	DeadZones      map[int]int8 // square index -> player forbidden to win through it
	ValidMoves     []int
	Config         Config
}

func NewGameState(cfg Config) *GameState {
	cfg = cfg.WithDefaults()
	n := cfg.Size
	s := &GameState{
		Board:          make([]Square, n*n),
		Current:        1,
		Phase:          PhasePlacement,
		Selected:       -1,
		Blocked:        make(map[int]struct{}),
		Blocking:       make(map[int]struct{}),
		DeadZoneMakers: make(map[int]struct{}),
		DeadZones:      make(map[int]int8),
		Config:         cfg,
	}
	s.Remaining[1], s.Remaining[2] = cfg.PawnsPerPlayer, cfg.PawnsPerPlayer
	for i := range s.Board {
		row, col := i/n, i%n
		s.Board[i] = Square{Index: i, Row: row, Col: col, Color: ColorAt(row, col)}
	}
	return s
}

// Clone deep-copies a state, including pawns and derived marks.
func Clone(s *GameState) *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Board = make([]Square, len(s.Board))
	copy(out.Board, s.Board)
	for i := range out.Board {
		if p := out.Board[i].Pawn; p != nil {
			cp := *p
			out.Board[i].Pawn = &cp
		}
	}
	if s.LastMove != nil {
		mv := *s.LastMove
		out.LastMove = &mv
	}
	out.WinLine = append([]int(nil), s.WinLine...)
	out.ValidMoves = append([]int(nil), s.ValidMoves...)
	out.Blocked = copySet(s.Blocked)
	out.Blocking = copySet(s.Blocking)
	out.DeadZoneMakers = copySet(s.DeadZoneMakers)
	out.DeadZones = make(map[int]int8, len(s.DeadZones))
	for k, v := range s.DeadZones {
		out.DeadZones[k] = v
	}
	return &out
}

func copySet(in map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// SquareAt returns the square at idx, or nil when idx is off the board.
func (s *GameState) SquareAt(idx int) *Square {
	if idx < 0 || idx >= len(s.Board) {
		return nil
	}
	return &s.Board[idx]
}

// pawnOwner reports the owner of the pawn on idx, 0 for an empty square.
func (s *GameState) pawnOwner(idx int) int8 {
	if idx < 0 || idx >= len(s.Board) || s.Board[idx].Pawn == nil {
		return 0
	}
	return s.Board[idx].Pawn.Owner
}

func (s *GameState) isBlocked(idx int) bool {
	_, ok := s.Blocked[idx]
	return ok
}

// isMarked reports whether the pawn on idx carries any win-disqualifying mark.
func (s *GameState) isMarked(idx int) bool {
	if _, ok := s.Blocked[idx]; ok {
		return true
	}
	if _, ok := s.Blocking[idx]; ok {
		return true
	}
	_, ok := s.DeadZoneMakers[idx]
	return ok
}
