// Package gamemaster runs the turn flow around a rules engine: whose
// move it is, submission and undo, turn timers, and observer
// notifications. Engines stay pure; everything stateful lives here.
package gamemaster

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"parlor/game"
)

// TurnPhase is where the flow currently stands. PreTurn and PostTurn
// are transient; a master at rest sits in Move or Ended.
type TurnPhase string

const (
	PhasePreTurn  TurnPhase = "pre-turn"
	PhaseMove     TurnPhase = "move"
	PhasePostTurn TurnPhase = "post-turn"
	PhaseEnded    TurnPhase = "ended"
)

// Options tunes a Master. The zero value plays without timers, undo,
// or inactive-seat skipping.
type Options struct {
	// UndoDepth caps how many moves can be unwound. Zero disables undo.
	UndoDepth int
	// TurnTimeout bounds each move window; on expiry the turn passes
	// without a move. Zero disables the timer.
	TurnTimeout time.Duration
	// SkipInactive passes over players marked inactive instead of
	// opening a move window for them.
	SkipInactive bool
}

// Observer receives flow events. Callbacks run outside the master's
// lock, on the goroutine that triggered the event, so they may call
// back into the master but must not block for long.
type Observer func(Event)

// Master drives one match from the first turn to its result. All
// methods are safe for concurrent use.
type Master struct {
	mu        sync.Mutex
	eng       game.Engine
	state     game.State
	phase     TurnPhase
	undo      []game.State
	opts      Options
	observers []Observer
	result    *game.TerminalResult
	timer     *time.Timer
	timerGen  int
	deadline  time.Time
	started   bool
	closed    bool
}

// NewMaster wraps an initial state. Subscribe observers, then call
// Start to open the first turn.
func NewMaster(eng game.Engine, state game.State, opts Options) (*Master, error) {
	if eng == nil || state == nil {
		return nil, game.NewError(game.CodeInvalidGameState, "gamemaster needs an engine and a state")
	}
	if state.Game() != eng.Name() {
		return nil, game.NewError(game.CodeInvalidGameState,
			"state belongs to %s, not %s", state.Game(), eng.Name())
	}
	return &Master{eng: eng, state: state, phase: PhasePreTurn, opts: opts}, nil
}

// Subscribe registers an observer for all subsequent events.
func (m *Master) Subscribe(fn Observer) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Start opens the first turn and fires the first TurnStarted event. A
// master starts once.
func (m *Master) Start() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return game.NewError(game.CodeInvalidGameState, "the game master is closed")
	}
	if m.started {
		m.mu.Unlock()
		return game.NewError(game.CodeInvalidGameState, "already started")
	}
	m.started = true
	events := m.startTurnLocked()
	observers := m.observersLocked()
	m.mu.Unlock()
	fanout(observers, events)
	return nil
}

// SubmitMove validates and applies a move during an open move window.
// It returns the state the flow settled on, which can be further along
// than the move's own successor when inactive seats get skipped.
func (m *Master) SubmitMove(mv game.Move) (game.State, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, game.NewError(game.CodeInvalidGameState, "the game master is closed")
	}
	if m.phase != PhaseMove {
		m.mu.Unlock()
		return nil, game.NewError(game.CodeInvalidGameState, "no move window is open (phase %s)", m.phase)
	}
	if err := m.eng.ValidateMove(m.state, mv); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	next, err := m.eng.ApplyMove(m.state, mv)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.pushUndoLocked(m.state)
	m.phase = PhasePostTurn
	m.state = next
	events := []Event{MoveApplied{Move: mv, State: next}}
	events = append(events, m.startTurnLocked()...)
	state := m.state
	observers := m.observersLocked()
	m.mu.Unlock()
	fanout(observers, events)
	return state, nil
}

// Undo rewinds to the state before the last applied move and reopens
// its turn. It works even after the game has ended.
func (m *Master) Undo() (game.State, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, game.NewError(game.CodeInvalidGameState, "the game master is closed")
	}
	if m.opts.UndoDepth <= 0 {
		m.mu.Unlock()
		return nil, game.NewError(game.CodeInvalidGameState, "undo is disabled")
	}
	if len(m.undo) == 0 {
		m.mu.Unlock()
		return nil, game.NewError(game.CodeInvalidGameState, "nothing to undo")
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.state = prev
	m.result = nil
	events := []Event{UndoApplied{State: prev}}
	events = append(events, m.startTurnLocked()...)
	state := m.state
	observers := m.observersLocked()
	m.mu.Unlock()
	fanout(observers, events)
	return state, nil
}

// SkipTurn lets the current player give up their move window.
func (m *Master) SkipTurn(playerID string) error {
	return m.skip(playerID, false)
}

// ForceEndTurn ends the open move window from outside, regardless of
// who is on the clock.
func (m *Master) ForceEndTurn() error {
	return m.skip("", true)
}

func (m *Master) skip(playerID string, forced bool) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return game.NewError(game.CodeInvalidGameState, "the game master is closed")
	}
	if m.phase != PhaseMove {
		m.mu.Unlock()
		return game.NewError(game.CodeInvalidGameState, "no turn to end (phase %s)", m.phase)
	}
	mover, err := game.CurrentPlayer(m.state)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !forced && mover.ID != playerID {
		m.mu.Unlock()
		return game.NewError(game.CodeNotYourTurn, "it is %s's turn", mover.Name)
	}
	events := []Event{TurnSkipped{Player: mover, Turn: m.state.TurnNumber(), Forced: forced}}
	events = append(events, m.advanceLocked()...)
	observers := m.observersLocked()
	m.mu.Unlock()
	fanout(observers, events)
	return nil
}

// Resign ends the game in the opponent's favor.
func (m *Master) Resign(playerID string) error {
	m.mu.Lock()
	if m.closed || m.phase == PhaseEnded {
		m.mu.Unlock()
		return game.NewError(game.CodeInvalidGameState, "the game is not in progress")
	}
	players := m.state.Players()
	seat := game.SeatOf(players, playerID)
	if seat < 0 {
		m.mu.Unlock()
		return game.NewError(game.CodeInvalidGameState, "unknown player %q", playerID)
	}
	var winner *game.Player
	for i := range players {
		if i != seat {
			w := players[i]
			winner = &w
			break
		}
	}
	result := &game.TerminalResult{Winner: winner, Reason: fmt.Sprintf("%s resigned", players[seat].Name)}
	events := m.endLocked(result)
	observers := m.observersLocked()
	m.mu.Unlock()
	fanout(observers, events)
	return nil
}

// TurnInfo is a snapshot of the flow position.
type TurnInfo struct {
	Phase    TurnPhase
	Player   game.Player
	Turn     int
	Deadline time.Time
	CanUndo  bool
	Moves    []game.Move
}

// TurnInfo reports whose move it is and, with includeMoves, the legal
// moves, which costs a generation pass on the engine.
func (m *Master) TurnInfo(includeMoves bool) (TurnInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := TurnInfo{
		Phase:    m.phase,
		Turn:     m.state.TurnNumber(),
		Deadline: m.deadline,
		CanUndo:  m.opts.UndoDepth > 0 && len(m.undo) > 0,
	}
	if m.phase == PhaseEnded {
		return info, nil
	}
	mover, err := game.CurrentPlayer(m.state)
	if err != nil {
		return info, err
	}
	info.Player = mover
	if includeMoves {
		info.Moves = m.eng.LegalMoves(m.state)
	}
	return info, nil
}

// State returns the current position.
func (m *Master) State() game.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Result returns the terminal result, or nil while play continues.
func (m *Master) Result() *game.TerminalResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// Phase returns the flow phase.
func (m *Master) Phase() TurnPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// UndoCount reports how many moves can currently be unwound.
func (m *Master) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo)
}

// Close stops the timer and drops observers. All further calls are
// rejected. Close is idempotent.
func (m *Master) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.stopTimerLocked()
	m.observers = nil
}

// startTurnLocked settles the flow after any state change: it ends the
// game on a terminal position, passes over inactive seats, and
// otherwise opens a move window with the timer armed.
func (m *Master) startTurnLocked() []Event {
	var events []Event
	m.phase = PhasePreTurn
	m.stopTimerLocked()

	result, err := m.eng.IsTerminal(m.state)
	if err != nil {
		log.Error().Err(err).Str("game", m.eng.Name()).Msg("terminal check failed")
		m.phase = PhaseEnded
		return events
	}
	if result != nil {
		return append(events, m.endLocked(result)...)
	}

	if m.opts.SkipInactive {
		// Bounded by the seat count so a table of inactive players
		// cannot spin forever.
		for i := 0; i < len(m.state.Players()); i++ {
			mover, err := game.CurrentPlayer(m.state)
			if err != nil || mover.Active {
				break
			}
			next, err := m.eng.Pass(m.state)
			if err != nil {
				break
			}
			events = append(events, TurnSkipped{Player: mover, Turn: m.state.TurnNumber()})
			m.state = next
			if result, err := m.eng.IsTerminal(next); err == nil && result != nil {
				return append(events, m.endLocked(result)...)
			}
		}
	}

	mover, err := game.CurrentPlayer(m.state)
	if err != nil {
		log.Error().Err(err).Str("game", m.eng.Name()).Msg("no current player")
		m.phase = PhaseEnded
		return events
	}
	m.phase = PhaseMove
	m.armTimerLocked()
	return append(events, TurnStarted{Player: mover, Turn: m.state.TurnNumber(), Deadline: m.deadline})
}

// advanceLocked hands the turn on without a move.
func (m *Master) advanceLocked() []Event {
	next, err := m.eng.Pass(m.state)
	if err != nil {
		log.Error().Err(err).Str("game", m.eng.Name()).Msg("pass failed")
		return nil
	}
	m.phase = PhasePostTurn
	m.state = next
	return m.startTurnLocked()
}

func (m *Master) endLocked(result *game.TerminalResult) []Event {
	m.stopTimerLocked()
	m.phase = PhaseEnded
	m.result = result
	return []Event{GameEnded{Result: *result}}
}

func (m *Master) pushUndoLocked(prev game.State) {
	if m.opts.UndoDepth <= 0 {
		return
	}
	if len(m.undo) == m.opts.UndoDepth {
		copy(m.undo, m.undo[1:])
		m.undo = m.undo[:len(m.undo)-1]
	}
	m.undo = append(m.undo, prev)
}

func (m *Master) armTimerLocked() {
	if m.opts.TurnTimeout <= 0 {
		m.deadline = time.Time{}
		return
	}
	m.timerGen++
	gen := m.timerGen
	m.deadline = time.Now().Add(m.opts.TurnTimeout)
	m.timer = time.AfterFunc(m.opts.TurnTimeout, func() { m.expire(gen) })
}

func (m *Master) stopTimerLocked() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.deadline = time.Time{}
}

// expire runs on the timer goroutine. The generation check drops shots
// that lost the race against a move, an undo, or Close.
func (m *Master) expire(gen int) {
	m.mu.Lock()
	if m.closed || gen != m.timerGen || m.phase != PhaseMove {
		m.mu.Unlock()
		return
	}
	mover, err := game.CurrentPlayer(m.state)
	if err != nil {
		m.mu.Unlock()
		return
	}
	log.Warn().Str("game", m.eng.Name()).Str("player", mover.Name).
		Int("turn", m.state.TurnNumber()).Msg("turn timer expired")
	events := []Event{TurnTimedOut{Player: mover, Turn: m.state.TurnNumber()}}
	events = append(events, m.advanceLocked()...)
	observers := m.observersLocked()
	m.mu.Unlock()
	fanout(observers, events)
}

func (m *Master) observersLocked() []Observer {
	return append([]Observer(nil), m.observers...)
}

func fanout(observers []Observer, events []Event) {
	for _, e := range events {
		for _, fn := range observers {
			fn(e)
		}
	}
}
