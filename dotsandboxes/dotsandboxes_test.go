package dotsandboxes

import (
	"bytes"
	"testing"

	"golang.org/x/exp/rand"

	"parlor/game"
)

func newTestGame(t *testing.T, w, h int) (*Engine, *State) {
	t.Helper()
	eng := &Engine{Heuristic: DefaultHeuristic}
	players := []game.Player{game.NewPlayer("ada"), game.NewPlayer("bob")}
	s, err := eng.NewGame(players, game.Setup{DotsWidth: w, DotsHeight: h})
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	return eng, s.(*State)
}

func draw(t *testing.T, eng *Engine, s game.State, orientation string, r, c int) game.State {
	t.Helper()
	st := s.(*State)
	m := game.NewLineMove(st.Seats[st.Current].ID, orientation, r, c)
	next, err := eng.ApplyMove(s, m)
	if err != nil {
		t.Fatalf("ApplyMove(%s %d,%d) failed: %v", orientation, r, c, err)
	}
	return next
}

func TestNewGameDefaults(t *testing.T) {
	_, st := newTestGame(t, 0, 0)
	if st.DotsW != defaultDots || st.DotsH != defaultDots {
		t.Errorf("expected %dx%d lattice, got %dx%d", defaultDots, defaultDots, st.DotsW, st.DotsH)
	}

	eng := &Engine{Heuristic: DefaultHeuristic}
	players := []game.Player{game.NewPlayer("a"), game.NewPlayer("b")}
	if _, err := eng.NewGame(players, game.Setup{DotsWidth: 1, DotsHeight: 3}); !game.IsCode(err, game.CodeInvalidGameState) {
		t.Errorf("expected INVALID_GAME_STATE for a 1-dot column, got %v", err)
	}
}

func TestClosingBoxKeepsTurn(t *testing.T) {
	eng, start := newTestGame(t, 3, 3)
	second := start.Seats[1].ID

	s := draw(t, eng, start, game.MoveHorizontal, 0, 0)
	s = draw(t, eng, s, game.MoveHorizontal, 1, 0)
	s = draw(t, eng, s, game.MoveVertical, 0, 0)

	st := s.(*State)
	if st.Seats[st.Current].ID != second {
		t.Fatalf("expected seat 1 to move fourth")
	}

	s = draw(t, eng, s, game.MoveVertical, 0, 1)
	st = s.(*State)

	if st.Boxes[0][0] != 1 {
		t.Errorf("expected seat 1 to own box (0,0), got %d", st.Boxes[0][0])
	}
	if st.Seats[1].Score != 1 {
		t.Errorf("expected seat 1 score 1, got %d", st.Seats[1].Score)
	}
	if st.LastBoxes != 1 {
		t.Errorf("expected 1 box closed by the move, got %d", st.LastBoxes)
	}
	if st.Seats[st.Current].ID != second {
		t.Error("expected the closing player to keep the turn")
	}

	// An edge that closes nothing hands the turn over.
	s = draw(t, eng, s, game.MoveHorizontal, 2, 1)
	st = s.(*State)
	if st.Seats[st.Current].ID == second {
		t.Error("expected the turn to pass after a non-closing edge")
	}
}

// Every applied edge either advances the turn or pays out at least one
// box to the mover, never neither and never both.
func TestTurnAdvanceOrScore(t *testing.T) {
	eng, start := newTestGame(t, 4, 4)
	rng := rand.New(rand.NewSource(7))

	var s game.State = start
	for {
		moves := eng.LegalMoves(s)
		if moves == nil {
			break
		}
		before := s.(*State)
		mover := before.Current
		score := before.Seats[mover].Score

		next, err := eng.ApplyMove(s, moves[rng.Intn(len(moves))])
		if err != nil {
			t.Fatalf("ApplyMove failed: %v", err)
		}
		after := next.(*State)

		advanced := after.Current != mover
		scored := after.Seats[mover].Score > score
		finished := after.Stage == game.PhaseFinished
		if !finished && advanced == scored {
			t.Fatalf("turn %d: advanced=%v scored=%v", before.Turn, advanced, scored)
		}
		if finished && !scored {
			t.Fatalf("final edge closed no box")
		}
		s = next
	}

	st := s.(*State)
	if st.Stage != game.PhaseFinished {
		t.Fatal("expected the game to finish when edges ran out")
	}
	if got := st.Seats[0].Score + st.Seats[1].Score; got != st.totalBoxes() {
		t.Errorf("scores sum to %d, want %d boxes", got, st.totalBoxes())
	}

	res, err := eng.IsTerminal(s)
	if err != nil {
		t.Fatalf("IsTerminal failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a terminal result")
	}
	// 9 boxes cannot split evenly, so someone must win.
	if res.Winner == nil {
		t.Fatalf("expected a winner on an odd box count, got %+v", res)
	}
	wantSeat := 0
	if st.Seats[1].Score > st.Seats[0].Score {
		wantSeat = 1
	}
	if res.Winner.ID != st.Seats[wantSeat].ID {
		t.Errorf("winner %q does not hold the higher score", res.Winner.Name)
	}
}

func TestValidateMoveRejections(t *testing.T) {
	eng, start := newTestGame(t, 3, 3)
	s := draw(t, eng, start, game.MoveHorizontal, 0, 0)
	st := s.(*State)
	mover := st.Seats[st.Current].ID

	dup := game.NewLineMove(mover, game.MoveHorizontal, 0, 0)
	if err := eng.ValidateMove(s, dup); !game.IsCode(err, game.CodeInvalidMove) {
		t.Errorf("expected INVALID_MOVE for a drawn edge, got %v", err)
	}

	off := game.NewLineMove(mover, game.MoveVertical, 2, 0)
	if err := eng.ValidateMove(s, off); !game.IsCode(err, game.CodeInvalidMove) {
		t.Errorf("expected INVALID_MOVE for an off-lattice edge, got %v", err)
	}

	stale := game.NewLineMove(start.Seats[0].ID, game.MoveHorizontal, 2, 0)
	if err := eng.ValidateMove(s, stale); !game.IsCode(err, game.CodeNotYourTurn) {
		t.Errorf("expected NOT_YOUR_TURN, got %v", err)
	}

	cell := game.NewCellMove(mover, 0, 0)
	if err := eng.ValidateMove(s, cell); !game.IsCode(err, game.CodeInvalidMove) {
		t.Errorf("expected INVALID_MOVE for a cell move, got %v", err)
	}
}

func TestApplyMoveLeavesInputUntouched(t *testing.T) {
	eng, start := newTestGame(t, 3, 3)

	before, err := game.Serialize(start)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if _, err := eng.ApplyMove(start, game.NewLineMove(start.Seats[0].ID, game.MoveVertical, 1, 2)); err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}
	after, err := game.Serialize(start)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("ApplyMove mutated its input state")
	}
}

func TestSerializeRoundTripResumes(t *testing.T) {
	eng, start := newTestGame(t, 3, 3)
	s := draw(t, eng, start, game.MoveHorizontal, 0, 0)
	s = draw(t, eng, s, game.MoveVertical, 1, 1)

	blob, err := game.Serialize(s)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	restored, err := game.Deserialize(blob)
	if err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}
	again, err := game.Serialize(restored)
	if err != nil {
		t.Fatalf("reserialize failed: %v", err)
	}
	if !bytes.Equal(blob, again) {
		t.Error("state changed across a serialize round trip")
	}

	rs := restored.(*State)
	if _, err := eng.ApplyMove(restored, game.NewLineMove(rs.Seats[rs.Current].ID, game.MoveHorizontal, 2, 1)); err != nil {
		t.Fatalf("ApplyMove on restored state failed: %v", err)
	}
}

func TestEvaluateTracksBoxLead(t *testing.T) {
	eng, start := newTestGame(t, 3, 3)

	// Hand seat 0 a closed box.
	s := draw(t, eng, start, game.MoveHorizontal, 0, 0) // ada
	s = draw(t, eng, s, game.MoveHorizontal, 2, 1)      // bob, elsewhere
	s = draw(t, eng, s, game.MoveHorizontal, 1, 0)      // ada
	s = draw(t, eng, s, game.MoveVertical, 1, 2)        // bob, elsewhere
	s = draw(t, eng, s, game.MoveVertical, 0, 0)        // ada sets up the box
	s = draw(t, eng, s, game.MoveVertical, 1, 0)        // bob declines it
	s = draw(t, eng, s, game.MoveVertical, 0, 1)        // ada closes box (0,0)

	st := s.(*State)
	if st.Seats[0].Score != 1 {
		t.Fatalf("expected seat 0 to hold one box, got %+v", []int{st.Seats[0].Score, st.Seats[1].Score})
	}

	lead := eng.Evaluate(s, st.Seats[0].ID)
	trail := eng.Evaluate(s, st.Seats[1].ID)
	if lead <= 0 {
		t.Errorf("expected a positive score for the box leader, got %v", lead)
	}
	if trail != -lead {
		t.Errorf("expected mirrored scores, got %v and %v", lead, trail)
	}
}
