package game

// Phase marks where a match is in its lifecycle.
type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// State is a snapshot of one match. States are immutable - engines never
// modify a state in place, they return a new copy with the move applied.
type State interface {
	// Game names the rule engine that produced this state.
	Game() string
	// ID identifies the match the state belongs to.
	ID() string
	Players() []Player
	CurrentPlayerIndex() int
	TurnNumber() int
	Phase() Phase
	Complete() bool
}

// TerminalResult describes how a finished match ended. Winner is nil on
// a draw.
type TerminalResult struct {
	Winner *Player `json:"winner,omitempty"`
	Draw   bool    `json:"draw,omitempty"`
	Reason string  `json:"reason"`
}

// Annotation carries presentation hints derived from a state: the most
// recent move, the cells that decided the game, and a short status line.
type Annotation struct {
	LastMove     *Move    `json:"lastMove,omitempty"`
	WinningCells [][2]int `json:"winningCells,omitempty"`
	Summary      string   `json:"summary"`
}

// Setup holds the per-game options accepted by NewGame. Zero values
// select each engine's defaults.
type Setup struct {
	DotsWidth      int
	DotsHeight     int
	StartingPoints int
}

// Engine implements the rules of one game. Engines hold no match state
// of their own, so a single Engine value can serve any number of
// concurrent matches.
type Engine interface {
	Name() string

	// NewGame deals a fresh match for the given seats.
	NewGame(players []Player, setup Setup) (State, error)

	// ValidateMove reports nil when m is legal in s, or an *Error
	// explaining the violation.
	ValidateMove(s State, m Move) error

	// ApplyMove validates m and returns the successor state. s is left
	// untouched.
	ApplyMove(s State, m Move) (State, error)

	// Pass hands the turn to the next active seat without a move.
	Pass(s State) (State, error)

	// IsTerminal returns the outcome of a finished match, or nil while
	// play continues.
	IsTerminal(s State) (*TerminalResult, error)

	// LegalMoves enumerates the moves available to the seat to move.
	// Finished states yield nil.
	LegalMoves(s State) []Move

	// Evaluate scores s from playerID's perspective: 1 is a win, -1 a
	// loss, 0 balanced. Non-terminal scores stay inside (-1, 1).
	Evaluate(s State, playerID string) float64

	// Annotations derives display hints for s.
	Annotations(s State) Annotation
}

// heuristicCap keeps non-terminal evaluations strictly inside the
// terminal scores so search always prefers a real win.
const heuristicCap = 0.95

// Normalize scores value relative to otherValue to between -1 and 1.
func Normalize(value, otherValue float64) float64 {
	total := value + otherValue
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}

// BoundScore clamps a heuristic score to the non-terminal range.
func BoundScore(v float64) float64 {
	if v > heuristicCap {
		return heuristicCap
	}
	if v < -heuristicCap {
		return -heuristicCap
	}
	return v
}
