// Package arena pits computer players against each other: single
// matches for self-play, series for comparing difficulty levels, and
// CSV output for looking at the results afterwards.
package arena

import (
	"context"
	"fmt"
	"time"

	"parlor/game"
	"parlor/gamemaster"
	"parlor/searcher"
)

const defaultMaxMoves = 200

// Agent picks a move when its turn comes up.
type Agent interface {
	Name() string
	Level() int
	ChooseMove(ctx context.Context, eng game.Engine, s game.State) (game.Move, searcher.Stats, error)
}

// SearchAgent plays at a fixed difficulty through a shared searcher.
type SearchAgent struct {
	Searcher   *searcher.Searcher
	Difficulty int
}

func (a SearchAgent) Name() string { return fmt.Sprintf("level-%d", a.Difficulty) }
func (a SearchAgent) Level() int   { return a.Difficulty }

func (a SearchAgent) ChooseMove(ctx context.Context, eng game.Engine, s game.State) (game.Move, searcher.Stats, error) {
	mover, err := game.CurrentPlayer(s)
	if err != nil {
		return game.Move{}, searcher.Stats{}, err
	}
	return a.Searcher.GetMove(ctx, eng, s, a.Difficulty, mover.ID)
}

// Match is one game between two agents, seated in play order.
type Match struct {
	Engine game.Engine
	Agents [2]Agent
	Setup  game.Setup
	// MaxMoves aborts runaway games. Zero means the default of 200.
	MaxMoves int
	Master   gamemaster.Options
}

// MoveStat pairs one applied move with the search that chose it.
type MoveStat struct {
	Seat  int
	Turn  int
	Move  game.Move
	Stats searcher.Stats
}

// Outcome describes a finished match.
type Outcome struct {
	Result game.TerminalResult
	// Players and Levels mirror the agents by seat.
	Players [2]string
	Levels  [2]int
	// Winner is the winning agent's name, empty on a draw.
	Winner string
	// WinnerSeat is 0 or 1, or -1 on a draw.
	WinnerSeat int
	Moves      int
	Duration   time.Duration
	MoveStats  []MoveStat
}

// Run plays the match to its end.
func (m Match) Run(ctx context.Context) (Outcome, error) {
	if m.Engine == nil || m.Agents[0] == nil || m.Agents[1] == nil {
		return Outcome{}, game.NewError(game.CodeInvalidGameState, "a match needs an engine and two agents")
	}
	maxMoves := m.MaxMoves
	if maxMoves <= 0 {
		maxMoves = defaultMaxMoves
	}

	players := []game.Player{
		game.NewAIPlayer(m.Agents[0].Name(), m.Agents[0].Level()),
		game.NewAIPlayer(m.Agents[1].Name(), m.Agents[1].Level()),
	}
	state, err := m.Engine.NewGame(players, m.Setup)
	if err != nil {
		return Outcome{}, err
	}
	master, err := gamemaster.NewMaster(m.Engine, state, m.Master)
	if err != nil {
		return Outcome{}, err
	}
	defer master.Close()
	if err := master.Start(); err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	outcome := Outcome{
		Players:    [2]string{m.Agents[0].Name(), m.Agents[1].Name()},
		Levels:     [2]int{m.Agents[0].Level(), m.Agents[1].Level()},
		WinnerSeat: -1,
	}
	for master.Phase() != gamemaster.PhaseEnded {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if outcome.Moves >= maxMoves {
			return Outcome{}, game.NewError(game.CodeEngineError, "match ran past %d moves", maxMoves)
		}
		info, err := master.TurnInfo(false)
		if err != nil {
			return Outcome{}, err
		}
		seat := game.SeatOf(master.State().Players(), info.Player.ID)
		if seat < 0 || seat > 1 {
			return Outcome{}, game.NewError(game.CodeEngineError, "no seat for player %q", info.Player.Name)
		}

		mv, stats, err := m.Agents[seat].ChooseMove(ctx, m.Engine, master.State())
		if err != nil {
			// A stuck seat concedes rather than aborting the match.
			if game.IsCode(err, game.CodeAINoMoves) {
				if rerr := master.Resign(info.Player.ID); rerr != nil {
					return Outcome{}, rerr
				}
				continue
			}
			return Outcome{}, err
		}
		if _, err := master.SubmitMove(mv); err != nil {
			return Outcome{}, err
		}
		outcome.Moves++
		outcome.MoveStats = append(outcome.MoveStats, MoveStat{Seat: seat, Turn: info.Turn, Move: mv, Stats: stats})
	}
	outcome.Duration = time.Since(start)

	result := master.Result()
	if result == nil {
		return Outcome{}, game.NewError(game.CodeEngineError, "match ended without a result")
	}
	outcome.Result = *result
	if result.Winner != nil {
		outcome.Winner = result.Winner.Name
		outcome.WinnerSeat = game.SeatOf(master.State().Players(), result.Winner.ID)
	}
	return outcome, nil
}
