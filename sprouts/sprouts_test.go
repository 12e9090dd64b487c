package sprouts

import (
	"bytes"
	"testing"

	"golang.org/x/exp/rand"

	"parlor/game"
)

func newTestGame(t *testing.T, points int) (*Engine, *State) {
	t.Helper()
	eng := &Engine{Heuristic: DefaultHeuristic}
	players := []game.Player{game.NewPlayer("ada"), game.NewPlayer("bob")}
	s, err := eng.NewGame(players, game.Setup{StartingPoints: points})
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	return eng, s.(*State)
}

func TestFirstCurveSplitsAtMidpoint(t *testing.T) {
	eng, start := newTestGame(t, 3)

	m := game.NewCurveMove(start.Seats[0].ID, 0, 1)
	s, err := eng.ApplyMove(start, m)
	if err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}
	st := s.(*State)

	if len(st.Points) != 4 {
		t.Fatalf("expected 4 points after the first curve, got %d", len(st.Points))
	}
	if len(st.Curves) != 2 {
		t.Fatalf("expected the curve split into 2 arcs, got %d", len(st.Curves))
	}
	if got := st.Points[3].Degree(); got != 2 {
		t.Errorf("expected the new point at degree 2, got %d", got)
	}
	if st.Points[0].Degree() != 1 || st.Points[1].Degree() != 1 {
		t.Errorf("expected both endpoints at degree 1, got %d and %d",
			st.Points[0].Degree(), st.Points[1].Degree())
	}
	if st.Points[2].Degree() != 0 {
		t.Errorf("expected the untouched point at degree 0, got %d", st.Points[2].Degree())
	}
	if st.Curves[0].From != 0 || st.Curves[0].To != 3 || st.Curves[1].From != 3 || st.Curves[1].To != 1 {
		t.Errorf("unexpected arc endpoints: %+v", st.Curves)
	}
	if st.Current != 1 || st.Turn != 1 {
		t.Errorf("expected seat 1 to move on turn 1, got seat %d turn %d", st.Current, st.Turn)
	}
	if st.MovesLeft == 0 {
		t.Error("expected moves to remain after one curve")
	}
}

func TestSelfLoopSpendsTwoEnds(t *testing.T) {
	eng, start := newTestGame(t, 3)

	var loop game.Move
	found := false
	for _, m := range eng.LegalMoves(start) {
		if m.Curve.From == 0 && m.Curve.To == 0 {
			loop, found = m, true
			break
		}
	}
	if !found {
		t.Fatal("expected a self-loop at point 0 on an empty sheet")
	}

	s, err := eng.ApplyMove(start, loop)
	if err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}
	st := s.(*State)
	if got := st.Points[0].Degree(); got != 2 {
		t.Errorf("expected the anchor at degree 2, got %d", got)
	}
	if got := st.Points[3].Degree(); got != 2 {
		t.Errorf("expected the loop midpoint at degree 2, got %d", got)
	}
}

func TestDegreeCapRejectsFourthEnd(t *testing.T) {
	eng, _ := newTestGame(t, 3)
	players := []game.Player{game.NewPlayer("ada"), game.NewPlayer("bob")}

	st := &State{
		MatchID: "hand-built",
		Seats:   players,
		Stage:   game.PhasePlaying,
		Points: []Point{
			{ID: 0, Pos: game.Coord{X: -5}, Connections: []int{1, 1, 1}},
			{ID: 1, Pos: game.Coord{X: 5}, Connections: []int{0}},
		},
	}

	m := game.NewCurveMove(players[0].ID, 0, 1)
	if err := eng.ValidateMove(st, m); !game.IsCode(err, game.CodeInvalidMove) {
		t.Errorf("expected INVALID_MOVE for a saturated endpoint, got %v", err)
	}

	loop := game.NewCurveMove(players[0].ID, 1, 1,
		game.Coord{X: 6, Y: 1}, game.Coord{X: 7, Y: 0}, game.Coord{X: 6, Y: -1})
	if err := eng.ValidateMove(st, loop); err != nil {
		t.Errorf("expected a loop on a degree-1 point to pass, got %v", err)
	}
}

func TestCrossingRejected(t *testing.T) {
	eng, _ := newTestGame(t, 3)
	players := []game.Player{game.NewPlayer("ada"), game.NewPlayer("bob")}

	start := &State{
		MatchID: "cross",
		Seats:   players,
		Stage:   game.PhasePlaying,
		Points: []Point{
			{ID: 0, Pos: game.Coord{X: -5, Y: 0}},
			{ID: 1, Pos: game.Coord{X: 5, Y: 0}},
			{ID: 2, Pos: game.Coord{X: 0, Y: -5}},
			{ID: 3, Pos: game.Coord{X: 0, Y: 5}},
		},
	}

	s, err := eng.ApplyMove(start, game.NewCurveMove(players[0].ID, 0, 1))
	if err != nil {
		t.Fatalf("first curve failed: %v", err)
	}
	st := s.(*State)

	// A straight 2-3 would run through the new midpoint at the origin.
	straight := game.NewCurveMove(players[1].ID, 2, 3)
	if err := eng.ValidateMove(st, straight); !game.IsCode(err, game.CodeInvalidMove) {
		t.Fatalf("expected INVALID_MOVE for a blocked straight, got %v", err)
	}

	// Bowing far around the drawn curve is fine.
	detour := game.NewCurveMove(players[1].ID, 2, 3, game.Coord{X: -8, Y: 0})
	if err := eng.ValidateMove(st, detour); err != nil {
		t.Fatalf("expected the detour to pass, got %v", err)
	}

	// A route that cuts the drawn curve mid-air is rejected too.
	cutting := game.NewCurveMove(players[1].ID, 2, 3, game.Coord{X: -2.5, Y: 0.1})
	if err := eng.ValidateMove(st, cutting); !game.IsCode(err, game.CodeInvalidMove) {
		t.Errorf("expected INVALID_MOVE for a crossing route, got %v", err)
	}
}

func TestSelfCrossingRejected(t *testing.T) {
	eng, start := newTestGame(t, 3)

	// The third leg cuts back across the first.
	m := game.NewCurveMove(start.Seats[0].ID, 0, 1,
		game.Coord{X: 0, Y: 3}, game.Coord{X: 3, Y: -1}, game.Coord{X: 1, Y: 4})
	err := eng.ValidateMove(start, m)
	if !game.IsCode(err, game.CodeInvalidMove) {
		t.Errorf("expected INVALID_MOVE for a self-crossing curve, got %v", err)
	}
}

// Random playouts check the structural rules the engine must never
// break: the degree cap, pairwise non-crossing, the move-count bound,
// and agreement between IsTerminal and the move list.
func TestRandomPlayoutsStaySound(t *testing.T) {
	for _, seed := range []uint64{1, 11, 23} {
		eng, start := newTestGame(t, 3)
		rng := rand.New(rand.NewSource(seed))

		var s game.State = start
		moves := 0
		lastMover := -1
		for {
			legal := eng.LegalMoves(s)
			term, err := eng.IsTerminal(s)
			if err != nil {
				t.Fatalf("seed %d: IsTerminal failed: %v", seed, err)
			}
			if (term != nil) != (len(legal) == 0) {
				t.Fatalf("seed %d: terminal=%v with %d legal moves", seed, term != nil, len(legal))
			}
			if term != nil {
				break
			}
			lastMover = s.CurrentPlayerIndex()
			next, err := eng.ApplyMove(s, legal[rng.Intn(len(legal))])
			if err != nil {
				t.Fatalf("seed %d: ApplyMove failed: %v", seed, err)
			}
			moves++
			st := next.(*State)
			for _, p := range st.Points {
				if p.Degree() > maxDegree {
					t.Fatalf("seed %d: point %d reached degree %d", seed, p.ID, p.Degree())
				}
			}
			s = next
		}

		if moves > 3*3-1 {
			t.Errorf("seed %d: game ran %d moves, past the 3n-1 bound", seed, moves)
		}
		st := s.(*State)
		if st.Stage != game.PhaseFinished {
			t.Errorf("seed %d: expected a finished game", seed)
		}
		if lastMover >= 0 && st.WinnerID != st.Seats[lastMover].ID {
			t.Errorf("seed %d: expected the last mover to win", seed)
		}

		for i := range st.Curves {
			for j := i + 1; j < len(st.Curves); j++ {
				a := trimPath(st.Curves[i].Path, pathTrim)
				b := trimPath(st.Curves[j].Path, pathTrim)
				if pathsTouch(a, b) {
					t.Fatalf("seed %d: curves %d and %d touch away from their endpoints", seed, i, j)
				}
			}
		}
	}
}

func TestApplyMoveLeavesInputUntouched(t *testing.T) {
	eng, start := newTestGame(t, 3)

	before, err := game.Serialize(start)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if _, err := eng.ApplyMove(start, game.NewCurveMove(start.Seats[0].ID, 0, 2)); err != nil {
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
	eng, start := newTestGame(t, 3)
	s, err := eng.ApplyMove(start, game.NewCurveMove(start.Seats[0].ID, 0, 1))
	if err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}

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
	if len(eng.LegalMoves(restored)) != rs.MovesLeft {
		t.Error("restored move cache disagrees with the generator")
	}
	legal := eng.LegalMoves(restored)
	if _, err := eng.ApplyMove(restored, legal[0]); err != nil {
		t.Fatalf("ApplyMove on restored state failed: %v", err)
	}
}

func TestWrongPlayerRejected(t *testing.T) {
	eng, start := newTestGame(t, 3)

	m := game.NewCurveMove(start.Seats[1].ID, 0, 1)
	if err := eng.ValidateMove(start, m); !game.IsCode(err, game.CodeNotYourTurn) {
		t.Errorf("expected NOT_YOUR_TURN, got %v", err)
	}
}
