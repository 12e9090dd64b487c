package sprouts

import (
	"encoding/json"
	"fmt"
	"strings"

	"parlor/game"
)

// Name is the registry key for the planar curve game.
const Name = "sprouts"

const (
	maxDegree      = 3
	defaultPoints  = 3
	maxStartPoints = 12
	playerCount    = 2
	sheetRadius    = 10.0
	clearance      = 0.4
)

// Point is a spot on the sheet. Connections lists the point IDs its
// curve ends reach, one entry per end, so a self-loop anchor lists the
// loop's midpoint twice.
type Point struct {
	ID          int        `json:"id"`
	Pos         game.Coord `json:"pos"`
	Connections []int      `json:"connections"`
}

func (p Point) Degree() int    { return len(p.Connections) }
func (p Point) FreeSlots() int { return maxDegree - len(p.Connections) }

// Curve is one drawn arc. From and To index Points; Path is the full
// polyline including both endpoint positions.
type Curve struct {
	ID   int          `json:"id"`
	From int          `json:"from"`
	To   int          `json:"to"`
	Path []game.Coord `json:"path"`
}

// State is one position of the curve game. Points and Curves are
// append-only, so IDs double as slice indexes. MovesLeft caches the
// size of the current player's move list.
type State struct {
	MatchID   string        `json:"id"`
	Seats     []game.Player `json:"players"`
	Current   int           `json:"currentPlayerIndex"`
	Turn      int           `json:"turnNumber"`
	Stage     game.Phase    `json:"phase"`
	Points    []Point       `json:"points"`
	Curves    []Curve       `json:"curves"`
	History   []game.Move   `json:"moves"`
	MovesLeft int           `json:"movesLeft"`
	WinnerID  string        `json:"winnerId,omitempty"`
}

func (s *State) Game() string            { return Name }
func (s *State) ID() string              { return s.MatchID }
func (s *State) Players() []game.Player  { return s.Seats }
func (s *State) CurrentPlayerIndex() int { return s.Current }
func (s *State) TurnNumber() int         { return s.Turn }
func (s *State) Phase() game.Phase       { return s.Stage }
func (s *State) Complete() bool          { return s.Stage == game.PhaseFinished }

func (s *State) copy() *State {
	next := *s
	next.Seats = game.ClonePlayers(s.Seats)
	next.History = game.CloneMoves(s.History)
	next.Points = make([]Point, len(s.Points))
	for i, p := range s.Points {
		p.Connections = append([]int(nil), p.Connections...)
		next.Points[i] = p
	}
	next.Curves = make([]Curve, len(s.Curves))
	for i, c := range s.Curves {
		c.Path = append([]game.Coord(nil), c.Path...)
		next.Curves[i] = c
	}
	return &next
}

// liberties is the total free curve ends across the sheet.
func (s *State) liberties() int {
	n := 0
	for _, p := range s.Points {
		n += p.FreeSlots()
	}
	return n
}

// Render lists the sheet for terminal play.
func (s *State) Render() string {
	var b strings.Builder
	for _, p := range s.Points {
		fmt.Fprintf(&b, "point %2d at (%6.2f, %6.2f)  degree %d\n",
			p.ID, p.Pos.X, p.Pos.Y, p.Degree())
	}
	if len(s.Curves) > 0 {
		b.WriteString("curves:")
		for _, c := range s.Curves {
			fmt.Fprintf(&b, " %d-%d", c.From, c.To)
		}
		b.WriteString("\n")
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
	for i, p := range s.Points {
		if p.ID != i {
			return nil, game.NewError(game.CodeInvalidGameState, "point %d carries id %d", i, p.ID)
		}
		if p.Degree() > maxDegree {
			return nil, game.NewError(game.CodeInvalidGameState,
				"point %d has %d curve ends, max is %d", i, p.Degree(), maxDegree)
		}
		for _, c := range p.Connections {
			if c < 0 || c >= len(s.Points) {
				return nil, game.NewError(game.CodeInvalidGameState,
					"point %d connects to unknown point %d", i, c)
			}
		}
	}
	for i, c := range s.Curves {
		if c.ID != i {
			return nil, game.NewError(game.CodeInvalidGameState, "curve %d carries id %d", i, c.ID)
		}
		if c.From < 0 || c.From >= len(s.Points) || c.To < 0 || c.To >= len(s.Points) {
			return nil, game.NewError(game.CodeInvalidGameState,
				"curve %d joins unknown points %d-%d", i, c.From, c.To)
		}
		if len(c.Path) < 2 {
			return nil, game.NewError(game.CodeInvalidGameState, "curve %d has no path", i)
		}
	}
	if s.Stage == game.PhasePlaying {
		s.MovesLeft = len((&Engine{}).LegalMoves(&s))
	}
	return &s, nil
}
