// crossline-dump decodes a base64 snapshot buffer and prints its contents,
// including an ASCII rendering of the board.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"crossline/internal/board"
	"crossline/internal/wire"
)

func main() {
	stateOnly := flag.Bool("state", false, "treat the input as a bare state buffer without the snapshot header")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: crossline-dump [-state] [base64]")
		fmt.Fprintln(os.Stderr, "reads the buffer from the argument, or from stdin when absent")
		flag.PrintDefaults()
	}
	flag.Parse()

	raw, err := readInput(flag.Arg(0))
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	buf, err := decodeBase64(raw)
	if err != nil {
		log.Fatalf("decode base64: %v", err)
	}

	codec := wire.NewCodec(board.Config{})
	var (
		state *board.GameState
		seq   int64
		at    time.Time
	)
	if *stateOnly {
		state = codec.DecodeState(buf)
	} else {
		state, seq, at = codec.DecodeSnapshot(buf)
	}
	if state == nil {
		log.Fatal("buffer does not decode to a game state")
	}

	if !*stateOnly {
		fmt.Printf("seq:       %d\n", seq)
		fmt.Printf("at:        %s\n", at.UTC().Format(time.RFC3339))
	}
	fmt.Printf("phase:     %s\n", state.Phase)
	fmt.Printf("current:   player %d\n", state.Current)
	if state.Winner != 0 {
		fmt.Printf("winner:    player %d  line=%v\n", state.Winner, state.WinLine)
	} else {
		fmt.Printf("winner:    none\n")
	}
	fmt.Printf("remaining: p1=%d p2=%d\n", state.Remaining[1], state.Remaining[2])
	fmt.Printf("placed:    p1=%d p2=%d\n", state.Placed[1], state.Placed[2])
	if state.Selected >= 0 {
		fmt.Printf("selected:  %d\n", state.Selected)
	}
	if state.LastMove != nil {
		if state.LastMove.From < 0 {
			fmt.Printf("last move: place %d\n", state.LastMove.To)
		} else {
			fmt.Printf("last move: %d -> %d\n", state.LastMove.From, state.LastMove.To)
		}
	}
	if len(state.Blocked) > 0 {
		fmt.Printf("blocked:   %v\n", sortedKeys(state.Blocked))
	}
	if len(state.DeadZones) > 0 {
		fmt.Printf("deadzones: %s\n", deadZoneList(state.DeadZones))
	}

	printBoard(state)
}

func readInput(arg string) (string, error) {
	if strings.TrimSpace(arg) != "" {
		return arg, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// printBoard draws the grid with X for player 1 pawns, O for player 2,
// * for dead-zone squares, and . for empty dark squares.
func printBoard(s *board.GameState) {
	size := s.Config.Size
	if size <= 0 || len(s.Board) != size*size {
		return
	}
	fmt.Println("board:")
	fmt.Print("    ")
	for c := 0; c < size; c++ {
		fmt.Printf(" %d", c)
	}
	fmt.Println()
	for r := 0; r < size; r++ {
		fmt.Printf("  %d ", r)
		for c := 0; c < size; c++ {
			fmt.Printf(" %c", squareRune(s, s.Board[r*size+c]))
		}
		fmt.Println()
	}
}

func squareRune(s *board.GameState, sq board.Square) rune {
	if sq.Pawn != nil {
		switch sq.Pawn.Owner {
		case 1:
			return 'X'
		case 2:
			return 'O'
		}
		return '?'
	}
	if _, ok := s.DeadZones[sq.Index]; ok {
		return '*'
	}
	if sq.Color == board.ColorDark {
		return '.'
	}
	return ' '
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func deadZoneList(m map[int]int8) string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d(vs p%d)", k, m[k]))
	}
	return strings.Join(parts, " ")
}
