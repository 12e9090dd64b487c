package gamemaster

import (
	"time"

	"parlor/game"
)

// Event is a turn-flow notification delivered to observers. The
// concrete types below are the complete set.
type Event interface {
	masterEvent()
}

// TurnStarted fires when a player's move window opens. Deadline is
// zero when no turn timer is configured.
type TurnStarted struct {
	Player   game.Player
	Turn     int
	Deadline time.Time
}

// MoveApplied fires after a move passes validation and lands. State is
// the position the move produced.
type MoveApplied struct {
	Move  game.Move
	State game.State
}

// TurnSkipped fires when a turn ends without a move, whether the
// player skipped, a moderator forced it, or an inactive seat was
// passed over.
type TurnSkipped struct {
	Player game.Player
	Turn   int
	Forced bool
}

// TurnTimedOut fires when the turn timer expires before a move.
type TurnTimedOut struct {
	Player game.Player
	Turn   int
}

// UndoApplied fires after an undo restores an earlier state.
type UndoApplied struct {
	State game.State
}

// GameEnded fires once when play reaches a terminal result.
type GameEnded struct {
	Result game.TerminalResult
}

func (TurnStarted) masterEvent()  {}
func (MoveApplied) masterEvent()  {}
func (TurnSkipped) masterEvent()  {}
func (TurnTimedOut) masterEvent() {}
func (UndoApplied) masterEvent()  {}
func (GameEnded) masterEvent()    {}
