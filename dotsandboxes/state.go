package dotsandboxes

import (
	"encoding/json"
	"fmt"
	"strings"

	"parlor/game"
)

// Name is the registry key for the line-and-territory game.
const Name = "dotsandboxes"

const (
	defaultDots = 5
	minDots     = 2
	maxDots     = 32
	playerCount = 2
	unowned     = -1
)

// State is one position of the territory game. The board is a DotsW by
// DotsH lattice of dots. H[r][c] marks the edge running right from dot
// (r, c), V[r][c] the edge running down from it. Boxes holds the seat
// index that closed each box, or -1.
type State struct {
	MatchID   string        `json:"id"`
	Seats     []game.Player `json:"players"`
	Current   int           `json:"currentPlayerIndex"`
	Turn      int           `json:"turnNumber"`
	Stage     game.Phase    `json:"phase"`
	DotsW     int           `json:"dotsWidth"`
	DotsH     int           `json:"dotsHeight"`
	H         [][]bool      `json:"horizontal"`
	V         [][]bool      `json:"vertical"`
	Boxes     [][]int       `json:"boxes"`
	History   []game.Move   `json:"moves"`
	LastBoxes int           `json:"lastBoxes,omitempty"`
	WinnerID  string        `json:"winnerId,omitempty"`
	Drawn     bool          `json:"drawn,omitempty"`
}

func (s *State) Game() string            { return Name }
func (s *State) ID() string              { return s.MatchID }
func (s *State) Players() []game.Player  { return s.Seats }
func (s *State) CurrentPlayerIndex() int { return s.Current }
func (s *State) TurnNumber() int         { return s.Turn }
func (s *State) Phase() game.Phase       { return s.Stage }
func (s *State) Complete() bool          { return s.Stage == game.PhaseFinished }

func (s *State) boxRows() int { return s.DotsH - 1 }
func (s *State) boxCols() int { return s.DotsW - 1 }

func (s *State) copy() *State {
	next := *s
	next.Seats = game.ClonePlayers(s.Seats)
	next.History = game.CloneMoves(s.History)
	next.H = cloneBools(s.H)
	next.V = cloneBools(s.V)
	next.Boxes = cloneInts(s.Boxes)
	return &next
}

func cloneBools(grid [][]bool) [][]bool {
	out := make([][]bool, len(grid))
	for i, row := range grid {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

func cloneInts(grid [][]int) [][]int {
	out := make([][]int, len(grid))
	for i, row := range grid {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// sides counts the drawn edges around box (r, c).
func (s *State) sides(r, c int) int {
	n := 0
	if s.H[r][c] {
		n++
	}
	if s.H[r+1][c] {
		n++
	}
	if s.V[r][c] {
		n++
	}
	if s.V[r][c+1] {
		n++
	}
	return n
}

func (s *State) totalBoxes() int { return s.boxRows() * s.boxCols() }

func (s *State) claimedBoxes() int {
	n := 0
	for _, row := range s.Boxes {
		for _, owner := range row {
			if owner != unowned {
				n++
			}
		}
	}
	return n
}

func (s *State) allLinesDrawn() bool {
	for _, row := range s.H {
		for _, drawn := range row {
			if !drawn {
				return false
			}
		}
	}
	for _, row := range s.V {
		for _, drawn := range row {
			if !drawn {
				return false
			}
		}
	}
	return true
}

// Render draws the lattice for terminal play.
func (s *State) Render() string {
	marks := []string{"A", "B"}
	var b strings.Builder
	for r := 0; r < s.DotsH; r++ {
		for c := 0; c < s.DotsW; c++ {
			b.WriteString("+")
			if c < s.DotsW-1 {
				if s.H[r][c] {
					b.WriteString("---")
				} else {
					b.WriteString("   ")
				}
			}
		}
		b.WriteString("\n")
		if r < s.DotsH-1 {
			for c := 0; c < s.DotsW; c++ {
				if s.V[r][c] {
					b.WriteString("|")
				} else {
					b.WriteString(" ")
				}
				if c < s.DotsW-1 {
					owner := s.Boxes[r][c]
					if owner == unowned {
						b.WriteString("   ")
					} else {
						fmt.Fprintf(&b, " %s ", marks[owner%len(marks)])
					}
				}
			}
			b.WriteString("\n")
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
	if s.DotsW < minDots || s.DotsH < minDots {
		return nil, game.NewError(game.CodeInvalidGameState,
			"%dx%d lattice is too small", s.DotsW, s.DotsH)
	}
	if len(s.H) != s.DotsH || len(s.V) != s.DotsH-1 || len(s.Boxes) != s.boxRows() {
		return nil, game.NewError(game.CodeInvalidGameState, "edge grids do not match the lattice size")
	}
	for _, row := range s.H {
		if len(row) != s.DotsW-1 {
			return nil, game.NewError(game.CodeInvalidGameState, "edge grids do not match the lattice size")
		}
	}
	for _, row := range s.V {
		if len(row) != s.DotsW {
			return nil, game.NewError(game.CodeInvalidGameState, "edge grids do not match the lattice size")
		}
	}
	for _, row := range s.Boxes {
		if len(row) != s.boxCols() {
			return nil, game.NewError(game.CodeInvalidGameState, "box grid does not match the lattice size")
		}
	}
	return &s, nil
}
