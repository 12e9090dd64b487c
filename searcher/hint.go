package searcher

import (
	"context"
	"errors"
	"math"

	"parlor/game"
)

// Hint is move advice for the player about to act.
type Hint struct {
	Suggestion  game.Move `json:"suggestion"`
	Explanation string    `json:"explanation"`
	Confidence  float64   `json:"confidence"`
}

// GetHint suggests a move for playerID with a plain-language reason
// and a confidence between 0 and 1. A finished game or an empty move
// list yields a nil hint rather than an error; asking on someone
// else's turn is an error.
func (s *Searcher) GetHint(ctx context.Context, eng game.Engine, state game.State, playerID string) (*Hint, error) {
	if state == nil || state.Phase() != game.PhasePlaying {
		return nil, nil
	}
	mover, err := game.CurrentPlayer(state)
	if err != nil {
		return nil, err
	}
	if mover.ID != playerID {
		return nil, game.NewError(game.CodeNotYourTurn, "it is %s's turn", mover.Name)
	}
	moves := eng.LegalMoves(state)
	if len(moves) == 0 {
		return nil, nil
	}

	if m, ok, err := winningMove(eng, state, playerID, moves); err != nil {
		return nil, err
	} else if ok {
		return &Hint{Suggestion: m, Explanation: "wins the game immediately", Confidence: 1}, nil
	}
	if len(moves) == 1 {
		return &Hint{Suggestion: moves[0], Explanation: "the only available move", Confidence: 1}, nil
	}

	mc := &minimaxContext{eng: eng, me: playerID, ctx: ctx, ordered: true}
	if d, ok := ctx.Deadline(); ok {
		mc.deadline = d
		mc.hasDeadline = true
	}
	move, score, second, err := mc.searchRoot(state, moves, s.hintDepth)
	if errors.Is(err, errDeadline) {
		// Out of time mid-search: fall back to a shallow pick instead
		// of leaving the player hanging.
		m, _, gerr := s.greedy(eng, state, playerID, moves)
		if gerr != nil {
			return nil, gerr
		}
		return &Hint{Suggestion: m, Explanation: "a quick look favors this move", Confidence: 0.3}, nil
	}
	if err != nil {
		return nil, err
	}
	explanation, confidence := describeHint(score, second, !mc.leafCutoff)
	return &Hint{Suggestion: move, Explanation: explanation, Confidence: confidence}, nil
}

// describeHint turns the root scores into advice text. The margin over
// the runner-up move drives confidence; a searched-out win or loss
// overrides it.
func describeHint(score, second float64, exact bool) (string, float64) {
	margin := score - second
	if math.IsInf(second, -1) {
		margin = 0
	}
	confidence := 0.5 + margin/2
	if confidence > 0.9 {
		confidence = 0.9
	}

	switch {
	case exact && score >= winScore-0.5:
		return "forces a win with best play", 0.95
	case exact && score <= -winScore+0.5:
		return "delays the loss the longest", 0.4
	case margin > 0.2:
		return "clearly ahead of the alternatives", confidence
	case score > 0.05:
		return "keeps the position favorable", confidence
	case score < -0.05:
		return "the most resilient defense", confidence
	default:
		return "slightly better than the alternatives", confidence
	}
}
