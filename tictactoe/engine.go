package tictactoe

import (
	"fmt"

	"github.com/google/uuid"

	"parlor/game"
	"parlor/registry"
)

// Heuristic weighs the open-line features of a non-terminal position.
// A line is open for a seat when only that seat has marked it.
type Heuristic struct {
	OneInLine float64 `yaml:"oneInLine"`
	TwoInLine float64 `yaml:"twoInLine"`
}

var DefaultHeuristic = Heuristic{OneInLine: 1, TwoInLine: 10}

// Engine implements the 3x3 marking game rules.
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

func (e *Engine) NewGame(players []game.Player, _ game.Setup) (game.State, error) {
	if len(players) != playerCount {
		return nil, game.NewError(game.CodeInvalidGameState,
			"%s needs %d players, got %d", Name, playerCount, len(players))
	}
	seats := game.ClonePlayers(players)
	for i := range seats {
		seats[i].Score = 0
		if seats[i].Color == "" {
			seats[i].Color = game.DefaultColor(i)
		}
	}
	return &State{
		MatchID: uuid.NewString(),
		Seats:   seats,
		Stage:   game.PhasePlaying,
	}, nil
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
	if m.Type != game.MovePlace || m.Cell == nil {
		return game.NewError(game.CodeInvalidMove, "expected a %q move with a cell", game.MovePlace)
	}
	r, c := m.Cell.Row, m.Cell.Col
	if r < 0 || r >= boardSize || c < 0 || c >= boardSize {
		return game.NewError(game.CodeInvalidMove, "cell (%d,%d) is off the board", r, c)
	}
	if st.Board[r][c] != "" {
		return game.NewError(game.CodeInvalidMove, "cell (%d,%d) is already marked", r, c)
	}
	return nil
}

func (e *Engine) ApplyMove(s game.State, m game.Move) (game.State, error) {
	if err := e.ValidateMove(s, m); err != nil {
		return nil, err
	}
	next := s.(*State).copy()
	mover := next.Current

	next.Board[m.Cell.Row][m.Cell.Col] = Symbol(mover)
	next.History = append(next.History, m.Clone())
	next.Turn++

	if symbol, cells := next.winningLine(); symbol != "" {
		if symbol != Symbol(mover) {
			return nil, game.NewError(game.CodeEngineError,
				"line completed by symbol %q but %q moved", symbol, Symbol(mover))
		}
		next.Stage = game.PhaseFinished
		next.WinnerID = next.Seats[mover].ID
		next.WinLine = cells
		next.Seats[mover].Score++
		return next, nil
	}
	if next.full() {
		next.Stage = game.PhaseFinished
		next.Drawn = true
		return next, nil
	}
	next.Current = game.NextActiveIndex(next.Seats, mover)
	return next, nil
}

// Pass concedes the turn without marking a cell.
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
	next.Current = game.NextActiveIndex(next.Seats, next.Current)
	return next, nil
}

// IsTerminal recomputes the outcome from the board rather than trusting
// the stored phase.
func (e *Engine) IsTerminal(s game.State) (*game.TerminalResult, error) {
	st, err := stateOf(s)
	if err != nil {
		return nil, err
	}
	symbol, _ := st.winningLine()
	if symbol == "" && !st.full() {
		if st.Stage == game.PhaseFinished {
			return nil, game.NewError(game.CodeInvalidGameState,
				"state is marked finished but the board is still open")
		}
		return nil, nil
	}
	if symbol != "" {
		seat := 0
		if symbol == Symbol(1) {
			seat = 1
		}
		winner := st.Seats[seat]
		return &game.TerminalResult{
			Winner: &winner,
			Reason: fmt.Sprintf("%s made three in a row", winner.Name),
		}, nil
	}
	return &game.TerminalResult{Draw: true, Reason: "the board is full"}, nil
}

func (e *Engine) LegalMoves(s game.State) []game.Move {
	st, ok := s.(*State)
	if !ok || st.Stage != game.PhasePlaying {
		return nil
	}
	if symbol, _ := st.winningLine(); symbol != "" {
		return nil
	}
	mover, err := game.CurrentPlayer(st)
	if err != nil {
		return nil
	}
	var moves []game.Move
	for r := 0; r < boardSize; r++ {
		for c := 0; c < boardSize; c++ {
			if st.Board[r][c] == "" {
				moves = append(moves, game.NewCellMove(mover.ID, r, c))
			}
		}
	}
	return moves
}

// Evaluate tallies open lines for both seats: a line counts for a seat
// while the rival has no mark in it, weighted by how close it is to
// completion.
func (e *Engine) Evaluate(s game.State, playerID string) float64 {
	st, ok := s.(*State)
	if !ok {
		return 0
	}
	seat := game.SeatOf(st.Seats, playerID)
	if seat < 0 {
		return 0
	}
	if symbol, _ := st.winningLine(); symbol != "" {
		if symbol == Symbol(seat) {
			return 1
		}
		return -1
	}
	if st.full() {
		return 0
	}

	my := Symbol(seat)
	var mine, theirs float64
	for _, line := range lines {
		mineMarks, theirMarks := 0, 0
		for _, cell := range line {
			switch v := st.Board[cell[0]][cell[1]]; {
			case v == "":
			case v == my:
				mineMarks++
			default:
				theirMarks++
			}
		}
		switch {
		case theirMarks == 0 && mineMarks > 0:
			mine += e.lineWeight(mineMarks)
		case mineMarks == 0 && theirMarks > 0:
			theirs += e.lineWeight(theirMarks)
		}
	}
	return game.BoundScore(game.Normalize(mine, theirs))
}

func (e *Engine) lineWeight(marks int) float64 {
	if marks >= 2 {
		return e.Heuristic.TwoInLine
	}
	return e.Heuristic.OneInLine
}

func (e *Engine) Annotations(s game.State) game.Annotation {
	st, ok := s.(*State)
	if !ok {
		return game.Annotation{}
	}
	a := game.Annotation{WinningCells: st.WinLine}
	if n := len(st.History); n > 0 {
		last := st.History[n-1].Clone()
		a.LastMove = &last
	}
	switch {
	case st.WinnerID != "":
		if seat := game.SeatOf(st.Seats, st.WinnerID); seat >= 0 {
			a.Summary = fmt.Sprintf("%s wins", st.Seats[seat].Name)
		}
	case st.Drawn:
		a.Summary = "draw"
	default:
		if mover, err := game.CurrentPlayer(st); err == nil {
			a.Summary = fmt.Sprintf("%s to move (%s)", mover.Name, Symbol(st.Current))
		}
	}
	return a
}
