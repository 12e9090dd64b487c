package searcher

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"parlor/game"
)

const (
	winScore = 1.0
	scoreEps = 1e-6
	// depthStep discounts terminal scores by their distance from the
	// root so the search prefers quick wins and drawn-out losses. It
	// is small enough that even a distant win outranks any heuristic
	// score, which engines cap below 1.
	depthStep = 1.0 / 1024
)

// errDeadline aborts a search once the budget or context runs out.
var errDeadline = errors.New("search deadline reached")

// minimaxContext carries the fixed parameters and counters of one
// search so the recursion does not thread six arguments around.
type minimaxContext struct {
	eng         game.Engine
	me          string
	ctx         context.Context
	deadline    time.Time
	hasDeadline bool
	ordered     bool
	nodes       int
	leafCutoff  bool
}

func (mc *minimaxContext) timedOut() bool {
	select {
	case <-mc.ctx.Done():
		return true
	default:
	}
	return mc.hasDeadline && !time.Now().Before(mc.deadline)
}

// minimax scores state from mc.me's perspective, looking depth plies
// ahead with alpha-beta pruning. fromRoot is the distance already
// travelled, used to discount terminal scores.
func (mc *minimaxContext) minimax(state game.State, depth, fromRoot int, alpha, beta float64) (float64, error) {
	if mc.timedOut() {
		return 0, errDeadline
	}
	mc.nodes++

	result, err := mc.eng.IsTerminal(state)
	if err != nil {
		return 0, err
	}
	if result != nil {
		return terminalScore(result, mc.me, fromRoot), nil
	}
	if depth <= 0 {
		mc.leafCutoff = true
		return mc.eng.Evaluate(state, mc.me), nil
	}

	moves := mc.eng.LegalMoves(state)
	if len(moves) == 0 {
		return mc.eng.Evaluate(state, mc.me), nil
	}
	if mc.ordered && len(moves) > 1 {
		moves = mc.orderMoves(state, moves)
	}

	mover, err := game.CurrentPlayer(state)
	if err != nil {
		return 0, err
	}
	maximizing := mover.ID == mc.me

	for _, m := range moves {
		next, err := mc.eng.ApplyMove(state, m)
		if err != nil {
			return 0, game.NewError(game.CodeEngineError, "legal move %s failed: %v", m, err)
		}
		score, err := mc.minimax(next, depth-1, fromRoot+1, alpha, beta)
		if err != nil {
			return 0, err
		}
		if maximizing {
			if score > alpha {
				alpha = score
			}
		} else if score < beta {
			beta = score
		}
		if alpha >= beta {
			break
		}
	}
	if maximizing {
		return alpha, nil
	}
	return beta, nil
}

// terminalScore maps an outcome onto the score scale, discounted by
// distance from the root. Draws sit at zero.
func terminalScore(result *game.TerminalResult, me string, fromRoot int) float64 {
	if result.Winner == nil {
		return 0
	}
	score := winScore - float64(fromRoot)*depthStep
	if result.Winner.ID == me {
		return score
	}
	return -score
}

// orderMoves sorts moves by a one-ply evaluation, best for the side to
// move first. On any engine hiccup it returns the input order; the
// search proper will surface the error.
func (mc *minimaxContext) orderMoves(state game.State, moves []game.Move) []game.Move {
	mover, err := game.CurrentPlayer(state)
	if err != nil {
		return moves
	}
	type scored struct {
		move  game.Move
		score float64
	}
	ranked := make([]scored, 0, len(moves))
	for _, m := range moves {
		next, err := mc.eng.ApplyMove(state, m)
		if err != nil {
			return moves
		}
		ranked = append(ranked, scored{move: m, score: mc.eng.Evaluate(next, mover.ID)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	ordered := make([]game.Move, len(ranked))
	for i, r := range ranked {
		ordered[i] = r.move
	}
	return ordered
}

// searchRoot runs one fixed-depth search over the root moves and
// returns the best move, its score, and the runner-up score. Ties keep
// the earliest move, so the result is deterministic for a given state.
func (mc *minimaxContext) searchRoot(state game.State, moves []game.Move, depth int) (game.Move, float64, float64, error) {
	if mc.ordered && len(moves) > 1 {
		moves = mc.orderMoves(state, moves)
	}

	var bestMove game.Move
	best, second := math.Inf(-1), math.Inf(-1)
	alpha, beta := math.Inf(-1), math.Inf(1)
	for _, m := range moves {
		next, err := mc.eng.ApplyMove(state, m)
		if err != nil {
			return game.Move{}, 0, 0, game.NewError(game.CodeEngineError, "legal move %s failed: %v", m, err)
		}
		score, err := mc.minimax(next, depth-1, 1, alpha, beta)
		if err != nil {
			return game.Move{}, 0, 0, err
		}
		if score > best {
			second = best
			best = score
			bestMove = m
		} else if score > second {
			second = score
		}
		if best > alpha {
			alpha = best
		}
	}
	return bestMove, best, second, nil
}

// search runs the leveled flow: take an immediate win if one exists,
// then search at the level's depth, deepening iteratively when the
// level asks for it. Whatever depth last completed supplies the move.
func (s *Searcher) search(ctx context.Context, eng game.Engine, state game.State, difficulty int, playerID string, moves []game.Move, start time.Time) (game.Move, Stats, error) {
	level := s.levels[difficulty]
	stats := Stats{Level: difficulty}

	if m, ok, err := winningMove(eng, state, playerID, moves); err != nil {
		return game.Move{}, stats, err
	} else if ok {
		stats.Depth = 1
		stats.Nodes = len(moves)
		stats.Exact = true
		stats.Elapsed = time.Since(start)
		return m, stats, nil
	}

	mc := &minimaxContext{eng: eng, me: playerID, ctx: ctx, ordered: level.Ordered}
	if level.Budget > 0 {
		mc.deadline = start.Add(level.Budget)
		mc.hasDeadline = true
	}
	if d, ok := ctx.Deadline(); ok && (!mc.hasDeadline || d.Before(mc.deadline)) {
		mc.deadline = d
		mc.hasDeadline = true
	}

	depths := []int{level.Depth}
	if level.Deepen {
		depths = depths[:0]
		for d := 1; d <= level.Depth; d++ {
			depths = append(depths, d)
		}
	}

	var chosen game.Move
	completed := 0
	for _, depth := range depths {
		mc.leafCutoff = false
		move, score, _, err := mc.searchRoot(state, moves, depth)
		if errors.Is(err, errDeadline) {
			break
		}
		if err != nil {
			return game.Move{}, stats, err
		}
		chosen = move
		completed = depth
		stats.Exact = !mc.leafCutoff
		if stats.Exact || score >= winScore-0.1 {
			break
		}
	}
	stats.Depth = completed
	stats.Nodes = mc.nodes
	stats.Elapsed = time.Since(start)

	if completed == 0 {
		log.Warn().Str("game", eng.Name()).Int("difficulty", difficulty).
			Msg("search budget exhausted before any depth finished, picking greedily")
		m, gstats, err := s.greedy(eng, state, playerID, moves)
		if err != nil {
			return game.Move{}, stats, err
		}
		stats.Depth = gstats.Depth
		stats.Nodes += gstats.Nodes
		stats.Exact = gstats.Exact
		stats.Elapsed = time.Since(start)
		return m, stats, nil
	}
	return chosen, stats, nil
}
