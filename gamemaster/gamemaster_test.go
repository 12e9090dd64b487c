package gamemaster

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"parlor/game"
	"parlor/tictactoe"
)

func newTTTMaster(t *testing.T, opts Options) (*Master, *tictactoe.Engine) {
	t.Helper()
	eng := &tictactoe.Engine{Heuristic: tictactoe.DefaultHeuristic}
	s, err := eng.NewGame([]game.Player{game.NewPlayer("ada"), game.NewPlayer("bob")}, game.Setup{})
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	m, err := NewMaster(eng, s, opts)
	if err != nil {
		t.Fatalf("NewMaster failed: %v", err)
	}
	return m, eng
}

func submitCell(t *testing.T, m *Master, row, col int) game.State {
	t.Helper()
	info, err := m.TurnInfo(false)
	if err != nil {
		t.Fatalf("TurnInfo failed: %v", err)
	}
	next, err := m.SubmitMove(game.NewCellMove(info.Player.ID, row, col))
	if err != nil {
		t.Fatalf("SubmitMove (%d,%d) failed: %v", row, col, err)
	}
	return next
}

func TestFullGameFlow(t *testing.T) {
	m, _ := newTTTMaster(t, Options{})
	defer m.Close()

	var started []TurnStarted
	var applied []MoveApplied
	var ended []GameEnded
	m.Subscribe(func(e Event) {
		switch ev := e.(type) {
		case TurnStarted:
			started = append(started, ev)
		case MoveApplied:
			applied = append(applied, ev)
		case GameEnded:
			ended = append(ended, ev)
		}
	})

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(started) != 1 || started[0].Player.Name != "ada" || started[0].Turn != 0 {
		t.Fatalf("expected ada's turn 0 to open, got %+v", started)
	}
	if got := m.Phase(); got != PhaseMove {
		t.Fatalf("expected phase %s, got %s", PhaseMove, got)
	}

	// Ada runs the top row while bob answers in the middle.
	for _, cell := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}} {
		submitCell(t, m, cell[0], cell[1])
	}

	if len(applied) != 5 {
		t.Errorf("expected 5 MoveApplied events, got %d", len(applied))
	}
	if len(ended) != 1 {
		t.Fatalf("expected 1 GameEnded event, got %d", len(ended))
	}
	if ended[0].Result.Winner == nil || ended[0].Result.Winner.Name != "ada" {
		t.Errorf("expected ada to win, got %+v", ended[0].Result)
	}
	if got := m.Phase(); got != PhaseEnded {
		t.Errorf("expected phase %s, got %s", PhaseEnded, got)
	}
	if res := m.Result(); res == nil || res.Winner == nil || res.Winner.Name != "ada" {
		t.Errorf("expected result for ada, got %+v", res)
	}

	info, err := m.TurnInfo(false)
	if err != nil {
		t.Fatalf("TurnInfo after end failed: %v", err)
	}
	if info.Phase != PhaseEnded {
		t.Errorf("expected ended info, got %+v", info)
	}
	_, err = m.SubmitMove(game.NewCellMove(started[0].Player.ID, 2, 2))
	if !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE after the game ended, got %v", err)
	}
}

func TestEngineErrorsPassThrough(t *testing.T) {
	m, _ := newTTTMaster(t, Options{})
	defer m.Close()
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	bob := m.State().Players()[1]
	_, err := m.SubmitMove(game.NewCellMove(bob.ID, 0, 0))
	if !game.IsCode(err, game.CodeNotYourTurn) {
		t.Errorf("expected NOT_YOUR_TURN, got %v", err)
	}

	ada := m.State().Players()[0]
	_, err = m.SubmitMove(game.NewCellMove(ada.ID, 4, 4))
	if !game.IsCode(err, game.CodeInvalidMove) {
		t.Errorf("expected INVALID_MOVE, got %v", err)
	}
}

func TestUndoRestores(t *testing.T) {
	m, _ := newTTTMaster(t, Options{UndoDepth: 3})
	defer m.Close()
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first := m.State()
	firstBlob, err := game.Serialize(first)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if info, err := m.TurnInfo(false); err != nil || info.CanUndo {
		t.Fatalf("expected no undo before the first move, got CanUndo=%v err=%v", info.CanUndo, err)
	}
	submitCell(t, m, 0, 0)
	second := m.State()
	secondBlob, err := game.Serialize(second)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	submitCell(t, m, 1, 1)

	if got := m.UndoCount(); got != 2 {
		t.Fatalf("expected 2 undoable moves, got %d", got)
	}
	if info, err := m.TurnInfo(false); err != nil || !info.CanUndo {
		t.Fatalf("expected CanUndo after two moves, got CanUndo=%v err=%v", info.CanUndo, err)
	}

	restored, err := m.Undo()
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	blob, err := game.Serialize(restored)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !bytes.Equal(blob, secondBlob) {
		t.Errorf("undo did not restore the pre-move state")
	}

	restored, err = m.Undo()
	if err != nil {
		t.Fatalf("second Undo failed: %v", err)
	}
	blob, err = game.Serialize(restored)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !bytes.Equal(blob, firstBlob) {
		t.Errorf("second undo did not reach the opening state")
	}

	_, err = m.Undo()
	if !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE on exhausted undo, got %v", err)
	}
}

func TestUndoDisabledAndBounded(t *testing.T) {
	m, _ := newTTTMaster(t, Options{})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	submitCell(t, m, 0, 0)
	if _, err := m.Undo(); !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE with undo disabled, got %v", err)
	}
	m.Close()

	m, _ = newTTTMaster(t, Options{UndoDepth: 1})
	defer m.Close()
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	submitCell(t, m, 0, 0)
	submitCell(t, m, 1, 1)
	submitCell(t, m, 2, 2)
	if got := m.UndoCount(); got != 1 {
		t.Fatalf("expected the undo stack capped at 1, got %d", got)
	}
	if _, err := m.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if _, err := m.Undo(); !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE past the cap, got %v", err)
	}
}

func TestUndoReopensFinishedGame(t *testing.T) {
	m, _ := newTTTMaster(t, Options{UndoDepth: 5})
	defer m.Close()
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for _, cell := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}} {
		submitCell(t, m, cell[0], cell[1])
	}
	if m.Phase() != PhaseEnded {
		t.Fatalf("expected the game to end, phase %s", m.Phase())
	}

	if _, err := m.Undo(); err != nil {
		t.Fatalf("Undo after the end failed: %v", err)
	}
	if m.Phase() != PhaseMove {
		t.Errorf("expected play to reopen, phase %s", m.Phase())
	}
	if m.Result() != nil {
		t.Errorf("expected the result to clear, got %+v", m.Result())
	}
	// The winning move is available again.
	submitCell(t, m, 0, 2)
	if m.Phase() != PhaseEnded {
		t.Errorf("expected the replayed win to end the game, phase %s", m.Phase())
	}
}

func TestSkipAndForceEnd(t *testing.T) {
	m, _ := newTTTMaster(t, Options{})
	defer m.Close()

	var skipped []TurnSkipped
	m.Subscribe(func(e Event) {
		if ev, ok := e.(TurnSkipped); ok {
			skipped = append(skipped, ev)
		}
	})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	players := m.State().Players()
	if err := m.SkipTurn(players[1].ID); !game.IsCode(err, game.CodeNotYourTurn) {
		t.Errorf("expected NOT_YOUR_TURN skipping out of turn, got %v", err)
	}
	if err := m.SkipTurn(players[0].ID); err != nil {
		t.Fatalf("SkipTurn failed: %v", err)
	}
	if idx := m.State().CurrentPlayerIndex(); idx != 1 {
		t.Errorf("expected seat 1 on the clock after the skip, got %d", idx)
	}

	if err := m.ForceEndTurn(); err != nil {
		t.Fatalf("ForceEndTurn failed: %v", err)
	}
	if idx := m.State().CurrentPlayerIndex(); idx != 0 {
		t.Errorf("expected the turn back with seat 0, got %d", idx)
	}

	if len(skipped) != 2 {
		t.Fatalf("expected 2 TurnSkipped events, got %d", len(skipped))
	}
	if skipped[0].Forced || !skipped[1].Forced {
		t.Errorf("expected a voluntary then a forced skip, got %+v", skipped)
	}
}

func TestTurnTimerPassesTurn(t *testing.T) {
	m, _ := newTTTMaster(t, Options{TurnTimeout: 40 * time.Millisecond})
	defer m.Close()

	events := make(chan Event, 64)
	m.Subscribe(func(e Event) { events <- e })
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	var timedOut *TurnTimedOut
	for timedOut == nil {
		select {
		case e := <-events:
			if ev, ok := e.(TurnTimedOut); ok {
				timedOut = &ev
			}
		case <-deadline:
			t.Fatal("no TurnTimedOut within 2s")
		}
	}
	if timedOut.Player.Name != "ada" {
		t.Errorf("expected ada to time out, got %s", timedOut.Player.Name)
	}

	select {
	case e := <-events:
		startedEv, ok := e.(TurnStarted)
		if !ok {
			t.Fatalf("expected TurnStarted after the timeout, got %T", e)
		}
		if startedEv.Player.Name != "bob" {
			t.Errorf("expected bob's window to open, got %s", startedEv.Player.Name)
		}
		if startedEv.Deadline.IsZero() {
			t.Errorf("expected a deadline on the new window")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no TurnStarted after the timeout")
	}
}

func TestMoveDisarmsTimer(t *testing.T) {
	m, _ := newTTTMaster(t, Options{TurnTimeout: 30 * time.Minute})
	defer m.Close()
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	info, err := m.TurnInfo(false)
	if err != nil {
		t.Fatalf("TurnInfo failed: %v", err)
	}
	if info.Deadline.IsZero() {
		t.Fatal("expected an armed deadline")
	}
	submitCell(t, m, 0, 0)
	next, err := m.TurnInfo(false)
	if err != nil {
		t.Fatalf("TurnInfo failed: %v", err)
	}
	if next.Deadline.IsZero() || next.Deadline.Before(info.Deadline) {
		t.Errorf("expected a fresh deadline for the next turn")
	}
}

func TestResign(t *testing.T) {
	m, _ := newTTTMaster(t, Options{})
	defer m.Close()

	var ended []GameEnded
	m.Subscribe(func(e Event) {
		if ev, ok := e.(GameEnded); ok {
			ended = append(ended, ev)
		}
	})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ada := m.State().Players()[0]
	if err := m.Resign(ada.ID); err != nil {
		t.Fatalf("Resign failed: %v", err)
	}
	if len(ended) != 1 {
		t.Fatalf("expected 1 GameEnded event, got %d", len(ended))
	}
	res := ended[0].Result
	if res.Winner == nil || res.Winner.Name != "bob" {
		t.Errorf("expected bob to win by resignation, got %+v", res)
	}
	if !strings.Contains(res.Reason, "resigned") {
		t.Errorf("expected a resignation reason, got %q", res.Reason)
	}
	if err := m.Resign(ada.ID); !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE resigning twice, got %v", err)
	}
}

func TestSkipInactiveSeats(t *testing.T) {
	eng := &tictactoe.Engine{Heuristic: tictactoe.DefaultHeuristic}
	ada := game.NewPlayer("ada")
	bob := game.NewPlayer("bob")
	bob.Active = false
	// Hand the opening turn to the inactive seat so the master has to
	// pass it along.
	st := &tictactoe.State{
		MatchID: "skip-test",
		Seats:   []game.Player{ada, bob},
		Current: 1,
		Stage:   game.PhasePlaying,
	}

	m, err := NewMaster(eng, st, Options{SkipInactive: true})
	if err != nil {
		t.Fatalf("NewMaster failed: %v", err)
	}
	defer m.Close()

	var skipped []TurnSkipped
	var started []TurnStarted
	m.Subscribe(func(e Event) {
		switch ev := e.(type) {
		case TurnSkipped:
			skipped = append(skipped, ev)
		case TurnStarted:
			started = append(started, ev)
		}
	})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if len(skipped) != 1 || skipped[0].Player.Name != "bob" {
		t.Fatalf("expected bob's seat to be passed over, got %+v", skipped)
	}
	if len(started) != 1 || started[0].Player.Name != "ada" {
		t.Fatalf("expected ada's window to open, got %+v", started)
	}
	if idx := m.State().CurrentPlayerIndex(); idx != 0 {
		t.Errorf("expected seat 0 on the clock, got %d", idx)
	}
}

func TestClosedMasterRejectsEverything(t *testing.T) {
	m, _ := newTTTMaster(t, Options{UndoDepth: 1})
	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ada := m.State().Players()[0]
	m.Close()
	m.Close()

	if _, err := m.SubmitMove(game.NewCellMove(ada.ID, 0, 0)); !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE after Close, got %v", err)
	}
	if _, err := m.Undo(); !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE after Close, got %v", err)
	}
	if err := m.SkipTurn(ada.ID); !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE after Close, got %v", err)
	}
}
