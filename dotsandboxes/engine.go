package dotsandboxes

import (
	"fmt"

	"github.com/google/uuid"

	"parlor/game"
	"parlor/registry"
)

// Heuristic weighs the positional features of a non-terminal position.
type Heuristic struct {
	// Box weighs the claimed-box differential.
	Box float64 `yaml:"box"`
	// Capture weighs boxes the side to move can close right now.
	Capture float64 `yaml:"capture"`
	// Safe weighs edges that hand the rival nothing.
	Safe float64 `yaml:"safe"`
	// Chain penalizes the longest chain the side to move may be forced
	// to open.
	Chain float64 `yaml:"chain"`
}

var DefaultHeuristic = Heuristic{Box: 0.5, Capture: 0.3, Safe: 0.1, Chain: 0.3}

// Engine implements the line-and-territory game rules.
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
	w, h := setup.DotsWidth, setup.DotsHeight
	if w == 0 {
		w = defaultDots
	}
	if h == 0 {
		h = defaultDots
	}
	if w < minDots || w > maxDots || h < minDots || h > maxDots {
		return nil, game.NewError(game.CodeInvalidGameState,
			"lattice must be between %dx%d and %dx%d dots, got %dx%d",
			minDots, minDots, maxDots, maxDots, w, h)
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
		DotsW:   w,
		DotsH:   h,
		H:       make([][]bool, h),
		V:       make([][]bool, h-1),
		Boxes:   make([][]int, h-1),
	}
	for r := range st.H {
		st.H[r] = make([]bool, w-1)
	}
	for r := range st.V {
		st.V[r] = make([]bool, w)
	}
	for r := range st.Boxes {
		st.Boxes[r] = make([]int, w-1)
		for c := range st.Boxes[r] {
			st.Boxes[r][c] = unowned
		}
	}
	return st, nil
}

func stateOf(s game.State) (*State, error) {
	st, ok := s.(*State)
	if !ok {
		return nil, game.NewError(game.CodeEngineError, "foreign state type %T", s)
	}
	return st, nil
}

func (e *Engine) ValidateMove(s game.State, m game.Move) error {
	st, err := stateOf(s)
	if err != nil {
		return err
	}
	if st.Stage != game.PhasePlaying {
		return game.NewError(game.CodeInvalidGameState, "the game is already over")
	}
	mover, err := game.CurrentPlayer(st)
	if err != nil {
		return err
	}
	if m.PlayerID != mover.ID {
		return game.NewError(game.CodeNotYourTurn, "it is %s's turn", mover.Name)
	}
	if m.Line == nil || (m.Type != game.MoveHorizontal && m.Type != game.MoveVertical) {
		return game.NewError(game.CodeInvalidMove, "expected a %q or %q move with a line",
			game.MoveHorizontal, game.MoveVertical)
	}
	r, c := m.Line.Row, m.Line.Col
	switch m.Type {
	case game.MoveHorizontal:
		if r < 0 || r >= st.DotsH || c < 0 || c >= st.DotsW-1 {
			return game.NewError(game.CodeInvalidMove, "horizontal edge (%d,%d) is off the lattice", r, c)
		}
		if st.H[r][c] {
			return game.NewError(game.CodeInvalidMove, "horizontal edge (%d,%d) is already drawn", r, c)
		}
	case game.MoveVertical:
		if r < 0 || r >= st.DotsH-1 || c < 0 || c >= st.DotsW {
			return game.NewError(game.CodeInvalidMove, "vertical edge (%d,%d) is off the lattice", r, c)
		}
		if st.V[r][c] {
			return game.NewError(game.CodeInvalidMove, "vertical edge (%d,%d) is already drawn", r, c)
		}
	}
	return nil
}

// adjacentBoxes lists the box coordinates an edge borders.
func adjacentBoxes(st *State, m game.Move) [][2]int {
	r, c := m.Line.Row, m.Line.Col
	var boxes [][2]int
	if m.Type == game.MoveHorizontal {
		if r > 0 {
			boxes = append(boxes, [2]int{r - 1, c})
		}
		if r < st.DotsH-1 {
			boxes = append(boxes, [2]int{r, c})
		}
	} else {
		if c > 0 {
			boxes = append(boxes, [2]int{r, c - 1})
		}
		if c < st.DotsW-1 {
			boxes = append(boxes, [2]int{r, c})
		}
	}
	return boxes
}

// ApplyMove draws the edge. Closing at least one box keeps the turn,
// otherwise play passes on. The game ends when the last edge is drawn.
func (e *Engine) ApplyMove(s game.State, m game.Move) (game.State, error) {
	if err := e.ValidateMove(s, m); err != nil {
		return nil, err
	}
	next := s.(*State).copy()
	mover := next.Current

	if m.Type == game.MoveHorizontal {
		next.H[m.Line.Row][m.Line.Col] = true
	} else {
		next.V[m.Line.Row][m.Line.Col] = true
	}

	closed := 0
	for _, b := range adjacentBoxes(next, m) {
		if next.sides(b[0], b[1]) == 4 && next.Boxes[b[0]][b[1]] == unowned {
			next.Boxes[b[0]][b[1]] = mover
			next.Seats[mover].Score++
			closed++
		}
	}
	next.LastBoxes = closed
	next.History = append(next.History, m.Clone())
	next.Turn++

	if next.allLinesDrawn() {
		next.Stage = game.PhaseFinished
		a, b := next.Seats[0].Score, next.Seats[1].Score
		switch {
		case a > b:
			next.WinnerID = next.Seats[0].ID
		case b > a:
			next.WinnerID = next.Seats[1].ID
		default:
			next.Drawn = true
		}
		return next, nil
	}
	if closed == 0 {
		next.Current = game.NextActiveIndex(next.Seats, mover)
	}
	return next, nil
}

// Pass concedes the turn without drawing an edge.
func (e *Engine) Pass(s game.State) (game.State, error) {
	st, err := stateOf(s)
	if err != nil {
		return nil, err
	}
	if st.Stage != game.PhasePlaying {
		return nil, game.NewError(game.CodeInvalidGameState, "the game is already over")
	}
	next := st.copy()
	next.Turn++
	next.LastBoxes = 0
	next.Current = game.NextActiveIndex(next.Seats, next.Current)
	return next, nil
}

func (e *Engine) IsTerminal(s game.State) (*game.TerminalResult, error) {
	st, err := stateOf(s)
	if err != nil {
		return nil, err
	}
	if !st.allLinesDrawn() {
		if st.Stage == game.PhaseFinished {
			return nil, game.NewError(game.CodeInvalidGameState,
				"state is marked finished but edges remain")
		}
		return nil, nil
	}
	if st.claimedBoxes() != st.totalBoxes() {
		return nil, game.NewError(game.CodeEngineError,
			"all edges drawn but %d of %d boxes claimed", st.claimedBoxes(), st.totalBoxes())
	}
	a, b := st.Seats[0].Score, st.Seats[1].Score
	switch {
	case a > b:
		winner := st.Seats[0]
		return &game.TerminalResult{Winner: &winner, Reason: fmt.Sprintf("%s closed %d of %d boxes", winner.Name, a, st.totalBoxes())}, nil
	case b > a:
		winner := st.Seats[1]
		return &game.TerminalResult{Winner: &winner, Reason: fmt.Sprintf("%s closed %d of %d boxes", winner.Name, b, st.totalBoxes())}, nil
	default:
		return &game.TerminalResult{Draw: true, Reason: fmt.Sprintf("both closed %d boxes", a)}, nil
	}
}

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
	for r := range st.H {
		for c, drawn := range st.H[r] {
			if !drawn {
				moves = append(moves, game.NewLineMove(mover.ID, game.MoveHorizontal, r, c))
			}
		}
	}
	for r := range st.V {
		for c, drawn := range st.V[r] {
			if !drawn {
				moves = append(moves, game.NewLineMove(mover.ID, game.MoveVertical, r, c))
			}
		}
	}
	return moves
}

// Evaluate blends the box differential with capture chances, safe
// edges, and the longest chain hanging over the side to move.
func (e *Engine) Evaluate(s game.State, playerID string) float64 {
	st, ok := s.(*State)
	if !ok {
		return 0
	}
	seat := game.SeatOf(st.Seats, playerID)
	if seat < 0 {
		return 0
	}
	a, b := st.Seats[0].Score, st.Seats[1].Score
	if st.Stage == game.PhaseFinished || st.allLinesDrawn() {
		mine, theirs := a, b
		if seat == 1 {
			mine, theirs = b, a
		}
		switch {
		case mine > theirs:
			return 1
		case theirs > mine:
			return -1
		default:
			return 0
		}
	}

	mine, theirs := float64(a), float64(b)
	if seat == 1 {
		mine, theirs = theirs, mine
	}
	score := e.Heuristic.Box * game.Normalize(mine, theirs)

	moverSign := 1.0
	if st.Current != seat {
		moverSign = -1
	}
	total := float64(st.totalBoxes())
	score += moverSign * e.Heuristic.Capture * float64(st.capturableBoxes()) / total
	score += moverSign * e.Heuristic.Safe * st.safeEdgeFraction()
	score -= moverSign * e.Heuristic.Chain * float64(st.longestChain()) / total

	return game.BoundScore(score)
}

// capturableBoxes counts boxes one edge away from closing.
func (s *State) capturableBoxes() int {
	n := 0
	for r := 0; r < s.boxRows(); r++ {
		for c := 0; c < s.boxCols(); c++ {
			if s.Boxes[r][c] == unowned && s.sides(r, c) == 3 {
				n++
			}
		}
	}
	return n
}

// safeEdgeFraction is the share of open edges that do not set up a
// capture for the rival.
func (s *State) safeEdgeFraction() float64 {
	open, safe := 0, 0
	check := func(boxes [][2]int) {
		open++
		for _, b := range boxes {
			if s.sides(b[0], b[1]) == 2 {
				return
			}
		}
		safe++
	}
	for r := range s.H {
		for c, drawn := range s.H[r] {
			if drawn {
				continue
			}
			m := game.Move{Type: game.MoveHorizontal, Line: &game.LineData{Row: r, Col: c}}
			check(adjacentBoxes(s, m))
		}
	}
	for r := range s.V {
		for c, drawn := range s.V[r] {
			if drawn {
				continue
			}
			m := game.Move{Type: game.MoveVertical, Line: &game.LineData{Row: r, Col: c}}
			check(adjacentBoxes(s, m))
		}
	}
	if open == 0 {
		return 0
	}
	return float64(safe) / float64(open)
}

// longestChain measures the largest run of two-sided boxes linked
// through open shared edges.
func (s *State) longestChain() int {
	rows, cols := s.boxRows(), s.boxCols()
	visited := make([][]bool, rows)
	for r := range visited {
		visited[r] = make([]bool, cols)
	}
	chained := func(r, c int) bool {
		return s.Boxes[r][c] == unowned && s.sides(r, c) == 2
	}

	best := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if visited[r][c] || !chained(r, c) {
				continue
			}
			size := 0
			queue := [][2]int{{r, c}}
			visited[r][c] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				size++
				for _, nb := range s.chainNeighbors(cur[0], cur[1]) {
					if !visited[nb[0]][nb[1]] && chained(nb[0], nb[1]) {
						visited[nb[0]][nb[1]] = true
						queue = append(queue, nb)
					}
				}
			}
			if size > best {
				best = size
			}
		}
	}
	return best
}

// chainNeighbors lists boxes sharing an open edge with box (r, c).
func (s *State) chainNeighbors(r, c int) [][2]int {
	var out [][2]int
	if r > 0 && !s.H[r][c] {
		out = append(out, [2]int{r - 1, c})
	}
	if r < s.boxRows()-1 && !s.H[r+1][c] {
		out = append(out, [2]int{r + 1, c})
	}
	if c > 0 && !s.V[r][c] {
		out = append(out, [2]int{r, c - 1})
	}
	if c < s.boxCols()-1 && !s.V[r][c+1] {
		out = append(out, [2]int{r, c + 1})
	}
	return out
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
	scoreline := fmt.Sprintf("%s %d - %d %s",
		st.Seats[0].Name, st.Seats[0].Score, st.Seats[1].Score, st.Seats[1].Name)
	switch {
	case st.WinnerID != "":
		if seat := game.SeatOf(st.Seats, st.WinnerID); seat >= 0 {
			a.Summary = fmt.Sprintf("%s wins, %s", st.Seats[seat].Name, scoreline)
		}
	case st.Drawn:
		a.Summary = "draw, " + scoreline
	default:
		if mover, err := game.CurrentPlayer(st); err == nil {
			a.Summary = fmt.Sprintf("%s, %s to draw an edge", scoreline, mover.Name)
		}
	}
	return a
}
