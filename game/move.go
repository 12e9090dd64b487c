package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Move types understood by the engines.
const (
	MovePlace      = "place"
	MoveHorizontal = "horizontal"
	MoveVertical   = "vertical"
	MoveCurve      = "curve"
)

// Coord is a position in the abstract plane used by the curve game.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CellData addresses one cell of a square grid.
type CellData struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// LineData addresses one edge of the dot lattice. A horizontal edge
// runs right from dot (Row, Col), a vertical edge runs down from it.
type LineData struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CurveData describes a curve drawn between two points, with optional
// interior waypoints.
type CurveData struct {
	From int     `json:"from"`
	To   int     `json:"to"`
	Via  []Coord `json:"via,omitempty"`
}

// Move is one action by one player. Exactly one payload field is set,
// matching Type.
type Move struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	PlayerID string     `json:"playerId"`
	At       time.Time  `json:"at"`
	Cell     *CellData  `json:"cell,omitempty"`
	Line     *LineData  `json:"line,omitempty"`
	Curve    *CurveData `json:"curve,omitempty"`
}

// NewCellMove marks the cell at (row, col).
func NewCellMove(playerID string, row, col int) Move {
	return Move{
		ID:       uuid.NewString(),
		Type:     MovePlace,
		PlayerID: playerID,
		At:       time.Now().UTC(),
		Cell:     &CellData{Row: row, Col: col},
	}
}

// NewLineMove draws the edge of the given orientation anchored at dot
// (row, col).
func NewLineMove(playerID, orientation string, row, col int) Move {
	return Move{
		ID:       uuid.NewString(),
		Type:     orientation,
		PlayerID: playerID,
		At:       time.Now().UTC(),
		Line:     &LineData{Row: row, Col: col},
	}
}

// NewCurveMove draws a curve from point from to point to, routed
// through the given waypoints.
func NewCurveMove(playerID string, from, to int, via ...Coord) Move {
	m := Move{
		ID:       uuid.NewString(),
		Type:     MoveCurve,
		PlayerID: playerID,
		At:       time.Now().UTC(),
		Curve:    &CurveData{From: from, To: to},
	}
	if len(via) > 0 {
		m.Curve.Via = append([]Coord(nil), via...)
	}
	return m
}

// SamePlay reports whether two moves describe the same play, ignoring
// identity and timing metadata.
func (m Move) SamePlay(other Move) bool {
	if m.Type != other.Type {
		return false
	}
	switch m.Type {
	case MovePlace:
		return m.Cell != nil && other.Cell != nil && *m.Cell == *other.Cell
	case MoveHorizontal, MoveVertical:
		return m.Line != nil && other.Line != nil && *m.Line == *other.Line
	case MoveCurve:
		return sameCurve(m.Curve, other.Curve)
	}
	return false
}

func sameCurve(a, b *CurveData) bool {
	if a == nil || b == nil {
		return false
	}
	if a.From != b.From || a.To != b.To || len(a.Via) != len(b.Via) {
		return false
	}
	for i := range a.Via {
		if a.Via[i] != b.Via[i] {
			return false
		}
	}
	return true
}

// Clone deep-copies the move so shared histories stay isolated.
func (m Move) Clone() Move {
	out := m
	if m.Cell != nil {
		c := *m.Cell
		out.Cell = &c
	}
	if m.Line != nil {
		l := *m.Line
		out.Line = &l
	}
	if m.Curve != nil {
		c := CurveData{From: m.Curve.From, To: m.Curve.To}
		if m.Curve.Via != nil {
			c.Via = append([]Coord(nil), m.Curve.Via...)
		}
		out.Curve = &c
	}
	return out
}

// CloneMoves deep-copies a move history.
func CloneMoves(moves []Move) []Move {
	if moves == nil {
		return nil
	}
	out := make([]Move, len(moves))
	for i, m := range moves {
		out[i] = m.Clone()
	}
	return out
}

// String renders a compact form for logs and prompts.
func (m Move) String() string {
	switch {
	case m.Cell != nil:
		return fmt.Sprintf("%s(%d,%d)", m.Type, m.Cell.Row, m.Cell.Col)
	case m.Line != nil:
		return fmt.Sprintf("%s(%d,%d)", m.Type, m.Line.Row, m.Line.Col)
	case m.Curve != nil:
		return fmt.Sprintf("%s(%d-%d)", m.Type, m.Curve.From, m.Curve.To)
	}
	return m.Type
}
