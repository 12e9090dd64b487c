package sprouts

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"parlor/game"
	"parlor/registry"
)

// Heuristic weighs the features of a non-terminal sheet.
type Heuristic struct {
	// Parity favors the side on track to make the last move.
	Parity float64 `yaml:"parity"`
	// Mobility favors having more ways to draw.
	Mobility float64 `yaml:"mobility"`
}

var DefaultHeuristic = Heuristic{Parity: 0.6, Mobility: 0.1}

// bowFactors are the detours tried per point pair, straight line first.
var bowFactors = []float64{0, 0.25, -0.25, 0.5, -0.5, 1, -1, 2, -2}

// loopRadii are the self-loop sizes probed per direction.
var loopRadii = []float64{2, 1}

// Engine implements the planar curve game rules.
type Engine struct {
	Heuristic Heuristic
}

func init() {
	registry.Register(Name, func() game.Engine {
		return &Engine{Heuristic: DefaultHeuristic}
	})
	game.RegisterDecoder(Name, decodeState)
}

func (e *Engine) Name() string { return Name }

func (e *Engine) NewGame(players []game.Player, setup game.Setup) (game.State, error) {
	if len(players) != playerCount {
		return nil, game.NewError(game.CodeInvalidGameState,
			"%s needs %d players, got %d", Name, playerCount, len(players))
	}
	n := setup.StartingPoints
	if n == 0 {
		n = defaultPoints
	}
	if n < 1 || n > maxStartPoints {
		return nil, game.NewError(game.CodeInvalidGameState,
			"starting points must be between 1 and %d, got %d", maxStartPoints, n)
	}

	seats := game.ClonePlayers(players)
	for i := range seats {
		seats[i].Score = 0
		if seats[i].Color == "" {
			seats[i].Color = game.DefaultColor(i)
		}
	}

	st := &State{
		MatchID: uuid.NewString(),
		Seats:   seats,
		Stage:   game.PhasePlaying,
		Points:  make([]Point, n),
	}
	for i := range st.Points {
		angle := 2 * math.Pi * float64(i) / float64(n)
		st.Points[i] = Point{
			ID:  i,
			Pos: game.Coord{X: sheetRadius * math.Cos(angle), Y: sheetRadius * math.Sin(angle)},
		}
	}
	st.MovesLeft = len(e.LegalMoves(st))
	return st, nil
}

func stateOf(s game.State) (*State, error) {
	st, ok := s.(*State)
	if !ok {
		return nil, game.NewError(game.CodeEngineError, "foreign state type %T", s)
	}
	return st, nil
}

// resolve validates a curve move end to end and returns its polyline.
func (e *Engine) resolve(st *State, m game.Move) ([]game.Coord, error) {
	if st.Stage != game.PhasePlaying {
		return nil, game.NewError(game.CodeInvalidGameState, "the game is already over")
	}
	mover, err := game.CurrentPlayer(st)
	if err != nil {
		return nil, err
	}
	if m.PlayerID != mover.ID {
		return nil, game.NewError(game.CodeNotYourTurn, "it is %s's turn", mover.Name)
	}
	if m.Type != game.MoveCurve || m.Curve == nil {
		return nil, game.NewError(game.CodeInvalidMove, "expected a %q move with endpoints", game.MoveCurve)
	}
	from, to := m.Curve.From, m.Curve.To
	if from < 0 || from >= len(st.Points) || to < 0 || to >= len(st.Points) {
		return nil, game.NewError(game.CodeInvalidMove, "no such points %d-%d", from, to)
	}
	if from == to {
		if st.Points[from].FreeSlots() < 2 {
			return nil, game.NewError(game.CodeInvalidMove,
				"point %d needs two free curve ends for a loop", from)
		}
	} else {
		if st.Points[from].FreeSlots() < 1 {
			return nil, game.NewError(game.CodeInvalidMove,
				"point %d already has %d curve ends", from, maxDegree)
		}
		if st.Points[to].FreeSlots() < 1 {
			return nil, game.NewError(game.CodeInvalidMove,
				"point %d already has %d curve ends", to, maxDegree)
		}
	}

	path := []game.Coord{st.Points[from].Pos}
	for _, p := range m.Curve.Via {
		path = appendPt(path, p)
	}
	path = appendPt(path, st.Points[to].Pos)
	if len(path) < 2 || pathLength(path) < 4*pathTrim {
		return nil, game.NewError(game.CodeInvalidMove, "the curve has no length")
	}
	if pathSelfIntersects(path) {
		return nil, game.NewError(game.CodeInvalidMove, "the curve crosses itself")
	}

	// Curves stay clear of every spot except where they terminate, so
	// the segments leaving an endpoint are exempt for that endpoint.
	for _, p := range st.Points {
		for i := 1; i < len(path); i++ {
			if p.ID == from && i == 1 {
				continue
			}
			if p.ID == to && i == len(path)-1 {
				continue
			}
			if distPointSeg(p.Pos, path[i-1], path[i]) < clearance {
				return nil, game.NewError(game.CodeInvalidMove,
					"the curve passes too close to point %d", p.ID)
			}
		}
	}

	trimmed := trimPath(path, pathTrim)
	for _, c := range st.Curves {
		if pathsTouch(trimmed, trimPath(c.Path, pathTrim)) {
			return nil, game.NewError(game.CodeInvalidMove, "the curve crosses curve %d", c.ID)
		}
	}
	return path, nil
}

func (e *Engine) ValidateMove(s game.State, m game.Move) error {
	st, err := stateOf(s)
	if err != nil {
		return err
	}
	_, err = e.resolve(st, m)
	return err
}

// ApplyMove draws the curve, splits it at its midpoint into two arcs
// joined by a fresh point, and hands the turn over. A player left with
// no way to draw loses on the spot.
func (e *Engine) ApplyMove(s game.State, m game.Move) (game.State, error) {
	st, err := stateOf(s)
	if err != nil {
		return nil, err
	}
	path, err := e.resolve(st, m)
	if err != nil {
		return nil, err
	}
	next := st.copy()
	mover := next.Current
	from, to := m.Curve.From, m.Curve.To

	firstHalf, secondHalf, midPos := splitPath(path, pathLength(path)/2)
	mid := Point{ID: len(next.Points), Pos: midPos, Connections: []int{from, to}}
	next.Points = append(next.Points, mid)
	next.Points[from].Connections = append(next.Points[from].Connections, mid.ID)
	next.Points[to].Connections = append(next.Points[to].Connections, mid.ID)

	next.Curves = append(next.Curves,
		Curve{ID: len(next.Curves), From: from, To: mid.ID, Path: firstHalf})
	next.Curves = append(next.Curves,
		Curve{ID: len(next.Curves), From: mid.ID, To: to, Path: secondHalf})

	next.History = append(next.History, m.Clone())
	next.Turn++
	next.Current = game.NextActiveIndex(next.Seats, mover)
	next.MovesLeft = len(e.LegalMoves(next))
	if next.MovesLeft == 0 {
		next.Stage = game.PhaseFinished
		next.WinnerID = next.Seats[mover].ID
		next.Seats[mover].Score++
	}
	return next, nil
}

// Pass hands the turn over without drawing. A player passed into a dead
// sheet loses just as if they had run out of moves themselves.
func (e *Engine) Pass(s game.State) (game.State, error) {
	st, err := stateOf(s)
	if err != nil {
		return nil, err
	}
	if st.Stage != game.PhasePlaying {
		return nil, game.NewError(game.CodeInvalidGameState, "the game is already over")
	}
	next := st.copy()
	passer := next.Current
	next.Turn++
	next.Current = game.NextActiveIndex(next.Seats, passer)
	next.MovesLeft = len(e.LegalMoves(next))
	if next.MovesLeft == 0 {
		next.Stage = game.PhaseFinished
		next.WinnerID = next.Seats[passer].ID
		next.Seats[passer].Score++
	}
	return next, nil
}

func (e *Engine) IsTerminal(s game.State) (*game.TerminalResult, error) {
	st, err := stateOf(s)
	if err != nil {
		return nil, err
	}
	if st.Stage == game.PhaseFinished {
		seat := game.SeatOf(st.Seats, st.WinnerID)
		if seat < 0 {
			return nil, game.NewError(game.CodeEngineError, "finished state carries no winner")
		}
		winner := st.Seats[seat]
		return &game.TerminalResult{
			Winner: &winner,
			Reason: fmt.Sprintf("%s has no legal moves", st.Seats[1-seat].Name),
		}, nil
	}
	if st.MovesLeft > 0 {
		return nil, nil
	}
	if len(e.LegalMoves(st)) > 0 {
		return nil, nil
	}
	loser := st.Current
	winner := st.Seats[game.NextActiveIndex(st.Seats, loser)]
	return &game.TerminalResult{
		Winner: &winner,
		Reason: fmt.Sprintf("%s has no legal moves", st.Seats[loser].Name),
	}, nil
}

// LegalMoves offers one routing per playable point pair plus one
// self-loop per point with two free ends. Routing probes a fixed ladder
// of detours, so the list is deterministic for a given sheet.
func (e *Engine) LegalMoves(s game.State) []game.Move {
	st, ok := s.(*State)
	if !ok || st.Stage != game.PhasePlaying {
		return nil
	}
	mover, err := game.CurrentPlayer(st)
	if err != nil {
		return nil
	}
	var moves []game.Move
	for i := range st.Points {
		if st.Points[i].FreeSlots() >= 2 {
			if m, ok := e.findLoop(st, mover.ID, i); ok {
				moves = append(moves, m)
			}
		}
		if st.Points[i].FreeSlots() < 1 {
			continue
		}
		for j := i + 1; j < len(st.Points); j++ {
			if st.Points[j].FreeSlots() < 1 {
				continue
			}
			if m, ok := e.findLink(st, mover.ID, i, j); ok {
				moves = append(moves, m)
			}
		}
	}
	return moves
}

// findLink tries the detour ladder between two points and returns the
// first legal routing.
func (e *Engine) findLink(st *State, playerID string, i, j int) (game.Move, bool) {
	a, b := st.Points[i].Pos, st.Points[j].Pos
	for _, f := range bowFactors {
		var m game.Move
		if f == 0 {
			m = game.NewCurveMove(playerID, i, j)
		} else {
			m = game.NewCurveMove(playerID, i, j, bowPoint(a, b, f))
		}
		if _, err := e.resolve(st, m); err == nil {
			return m, true
		}
	}
	return game.Move{}, false
}

// findLoop probes the loop directions and returns the first legal
// self-loop at a point.
func (e *Engine) findLoop(st *State, playerID string, i int) (game.Move, bool) {
	p := st.Points[i].Pos
	for _, r := range loopRadii {
		for _, d := range loopDirs {
			m := game.NewCurveMove(playerID, i, i, loopVia(p, d, r)...)
			if _, err := e.resolve(st, m); err == nil {
				return m, true
			}
		}
	}
	return game.Move{}, false
}

// Evaluate leans on end parity: every curve spends two free ends and
// opens one, so the count of free ends bounds the moves left.
func (e *Engine) Evaluate(s game.State, playerID string) float64 {
	st, ok := s.(*State)
	if !ok {
		return 0
	}
	seat := game.SeatOf(st.Seats, playerID)
	if seat < 0 {
		return 0
	}
	if st.Stage == game.PhaseFinished {
		if st.WinnerID == playerID {
			return 1
		}
		return -1
	}
	if st.MovesLeft == 0 {
		if st.Current == seat {
			return -1
		}
		return 1
	}

	moverSign := 1.0
	if st.Current != seat {
		moverSign = -1
	}
	score := -e.Heuristic.Parity
	if (st.liberties()-1)%2 == 1 {
		score = e.Heuristic.Parity
	}
	score += e.Heuristic.Mobility * math.Min(1, float64(st.MovesLeft)/10)
	return game.BoundScore(moverSign * score)
}

func (e *Engine) Annotations(s game.State) game.Annotation {
	st, ok := s.(*State)
	if !ok {
		return game.Annotation{}
	}
	a := game.Annotation{}
	if n := len(st.History); n > 0 {
		last := st.History[n-1].Clone()
		a.LastMove = &last
	}
	switch {
	case st.WinnerID != "":
		if seat := game.SeatOf(st.Seats, st.WinnerID); seat >= 0 {
			a.Summary = fmt.Sprintf("%s wins, %s cannot draw", st.Seats[seat].Name, st.Seats[1-seat].Name)
		}
	default:
		if mover, err := game.CurrentPlayer(st); err == nil {
			a.Summary = fmt.Sprintf("%s to draw, %d moves available", mover.Name, st.MovesLeft)
		}
	}
	return a
}
