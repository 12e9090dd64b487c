package tictactoe

import (
	"encoding/json"
	"fmt"
	"strings"

	"parlor/game"
)

// Name is the registry key for the 3x3 marking game.
const Name = "tictactoe"

const (
	boardSize   = 3
	playerCount = 2
)

// State is one position of the marking game. Board cells hold seat
// symbols, or "" while open.
type State struct {
	MatchID  string                       `json:"id"`
	Seats    []game.Player                `json:"players"`
	Current  int                          `json:"currentPlayerIndex"`
	Turn     int                          `json:"turnNumber"`
	Stage    game.Phase                   `json:"phase"`
	Board    [boardSize][boardSize]string `json:"board"`
	History  []game.Move                  `json:"moves"`
	WinnerID string                       `json:"winnerId,omitempty"`
	WinLine  [][2]int                     `json:"winLine,omitempty"`
	Drawn    bool                         `json:"drawn,omitempty"`
}

func (s *State) Game() string            { return Name }
func (s *State) ID() string              { return s.MatchID }
func (s *State) Players() []game.Player  { return s.Seats }
func (s *State) CurrentPlayerIndex() int { return s.Current }
func (s *State) TurnNumber() int         { return s.Turn }
func (s *State) Phase() game.Phase       { return s.Stage }
func (s *State) Complete() bool          { return s.Stage == game.PhaseFinished }

// Symbol maps a seat index to its board mark.
func Symbol(seat int) string {
	if seat%2 == 0 {
		return "X"
	}
	return "O"
}

// copy deep-copies the state for copy-on-write updates. The board is
// an array, so assignment already copies it.
func (s *State) copy() *State {
	next := *s
	next.Seats = game.ClonePlayers(s.Seats)
	next.History = game.CloneMoves(s.History)
	if s.WinLine != nil {
		next.WinLine = append([][2]int(nil), s.WinLine...)
	}
	return &next
}

// lines enumerates every winning triple as board coordinates.
var lines = [8][boardSize][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// winningLine returns the symbol and cells of a completed line, if any.
func (s *State) winningLine() (string, [][2]int) {
	for _, line := range lines {
		a := s.Board[line[0][0]][line[0][1]]
		if a == "" {
			continue
		}
		if a == s.Board[line[1][0]][line[1][1]] && a == s.Board[line[2][0]][line[2][1]] {
			cells := make([][2]int, len(line))
			copy(cells, line[:])
			return a, cells
		}
	}
	return "", nil
}

// full reports whether every cell is marked.
func (s *State) full() bool {
	for r := range s.Board {
		for c := range s.Board[r] {
			if s.Board[r][c] == "" {
				return false
			}
		}
	}
	return true
}

// Render draws the board for terminal play.
func (s *State) Render() string {
	var b strings.Builder
	b.WriteString("   0   1   2\n")
	for r := 0; r < boardSize; r++ {
		fmt.Fprintf(&b, "%d ", r)
		for c := 0; c < boardSize; c++ {
			mark := s.Board[r][c]
			if mark == "" {
				mark = "."
			}
			fmt.Fprintf(&b, " %s ", mark)
			if c < boardSize-1 {
				b.WriteString("|")
			}
		}
		b.WriteString("\n")
		if r < boardSize-1 {
			b.WriteString("  ---+---+---\n")
		}
	}
	return b.String()
}

func decodeState(data []byte) (game.State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, game.NewError(game.CodeInvalidGameState, "decode %s state: %v", Name, err)
	}
	if len(s.Seats) != playerCount {
		return nil, game.NewError(game.CodeInvalidGameState,
			"%s state carries %d players, want %d", Name, len(s.Seats), playerCount)
	}
	if s.Current < 0 || s.Current >= len(s.Seats) {
		return nil, game.NewError(game.CodeInvalidGameState,
			"current player index %d out of range", s.Current)
	}
	return &s, nil
}
