// Package searcher picks moves for the computer players. The two
// lowest difficulties play randomly or greedily; the rest run a
// depth-bounded alpha-beta search, with iterative deepening under a
// time budget at the top end. The same machinery backs move hints.
package searcher

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"parlor/game"
)

// Difficulty bounds accepted by GetMove. Values outside the range are
// clamped, not rejected.
const (
	MinDifficulty = 1
	MaxDifficulty = 6
)

// Level tunes the search behind one difficulty notch.
type Level struct {
	// Depth is the search horizon in plies.
	Depth int
	// Budget caps the time spent searching. Zero means uncapped.
	Budget time.Duration
	// Deepen searches depth 1, 2, ... up to Depth, keeping the answer
	// from the deepest level that finished inside the budget.
	Deepen bool
	// Ordered sorts moves by a one-ply evaluation before descending,
	// which is what makes the pruning bite.
	Ordered bool
}

// DefaultLevels maps each difficulty to its search settings. Slots 0
// to 2 stay zero because difficulties 1 and 2 never run the search.
func DefaultLevels() [MaxDifficulty + 1]Level {
	var levels [MaxDifficulty + 1]Level
	levels[3] = Level{Depth: 3, Budget: 500 * time.Millisecond, Ordered: true}
	levels[4] = Level{Depth: 5, Budget: time.Second, Ordered: true}
	levels[5] = Level{Depth: 7, Budget: 250 * time.Millisecond, Deepen: true, Ordered: true}
	levels[6] = Level{Depth: 12, Budget: 400 * time.Millisecond, Deepen: true, Ordered: true}
	return levels
}

type Option func(s *Searcher)

// WithSeed fixes the random stream so low-difficulty play and
// tie-breaks are reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Searcher) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLevel overrides the settings of a single difficulty.
func WithLevel(difficulty int, level Level) Option {
	return func(s *Searcher) {
		if difficulty >= MinDifficulty && difficulty <= MaxDifficulty {
			s.levels[difficulty] = level
		}
	}
}

// WithHintDepth sets the fixed search depth behind GetHint.
func WithHintDepth(depth int) Option {
	return func(s *Searcher) {
		if depth > 0 {
			s.hintDepth = depth
		}
	}
}

// Searcher chooses moves and produces hints. A single Searcher serves
// any number of games and engines; it keeps no per-game state beyond
// the shared random stream.
type Searcher struct {
	mu        sync.Mutex
	rng       *rand.Rand
	levels    [MaxDifficulty + 1]Level
	hintDepth int
}

func New(options ...Option) *Searcher {
	s := &Searcher{
		rng:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		levels:    DefaultLevels(),
		hintDepth: 4,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Stats describes how a move was chosen.
type Stats struct {
	// Level is the difficulty that was actually used.
	Level int
	// Depth is the deepest search horizon that completed.
	Depth int
	// Nodes counts visited search positions.
	Nodes int
	// Elapsed is the wall time spent choosing.
	Elapsed time.Duration
	// Exact is true when the search saw out every line to the end of
	// the game, so the chosen move's score is not a heuristic guess.
	Exact bool
}

// GetMove picks a move for playerID at the given difficulty. The
// context bounds the search alongside the level's own budget; when
// both run out before even a shallow search finishes, the move falls
// back to a one-ply pick rather than failing.
func (s *Searcher) GetMove(ctx context.Context, eng game.Engine, state game.State, difficulty int, playerID string) (game.Move, Stats, error) {
	start := time.Now()
	if state == nil || state.Phase() != game.PhasePlaying {
		return game.Move{}, Stats{}, game.NewError(game.CodeInvalidGameState, "the game is not in progress")
	}
	mover, err := game.CurrentPlayer(state)
	if err != nil {
		return game.Move{}, Stats{}, err
	}
	if mover.ID != playerID {
		return game.Move{}, Stats{}, game.NewError(game.CodeNotYourTurn, "it is %s's turn", mover.Name)
	}
	moves := eng.LegalMoves(state)
	if len(moves) == 0 {
		return game.Move{}, Stats{}, game.NewError(game.CodeAINoMoves, "%s has no legal moves", mover.Name)
	}

	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		clamped := difficulty
		if clamped < MinDifficulty {
			clamped = MinDifficulty
		} else {
			clamped = MaxDifficulty
		}
		log.Warn().Int("difficulty", difficulty).Int("clamped", clamped).
			Msg("difficulty out of range")
		difficulty = clamped
	}

	switch difficulty {
	case 1:
		m := moves[s.intn(len(moves))]
		return m, Stats{Level: 1, Elapsed: time.Since(start)}, nil
	case 2:
		m, stats, err := s.greedy(eng, state, playerID, moves)
		stats.Level = 2
		stats.Elapsed = time.Since(start)
		return m, stats, err
	default:
		return s.search(ctx, eng, state, difficulty, playerID, moves, start)
	}
}

// greedy plays the best move by one-ply lookahead, taking an immediate
// win when one exists and breaking ties randomly so the play varies.
func (s *Searcher) greedy(eng game.Engine, state game.State, playerID string, moves []game.Move) (game.Move, Stats, error) {
	if m, ok, err := winningMove(eng, state, playerID, moves); err != nil {
		return game.Move{}, Stats{}, err
	} else if ok {
		return m, Stats{Depth: 1, Nodes: len(moves), Exact: true}, nil
	}

	best := math.Inf(-1)
	var ties []game.Move
	for _, m := range moves {
		next, err := eng.ApplyMove(state, m)
		if err != nil {
			return game.Move{}, Stats{}, game.NewError(game.CodeEngineError, "legal move %s failed: %v", m, err)
		}
		score := eng.Evaluate(next, playerID)
		switch {
		case score > best+scoreEps:
			best = score
			ties = append(ties[:0], m)
		case score > best-scoreEps:
			ties = append(ties, m)
		}
	}
	return ties[s.intn(len(ties))], Stats{Depth: 1, Nodes: len(moves)}, nil
}

// winningMove scans for a move that ends the game in playerID's favor.
func winningMove(eng game.Engine, state game.State, playerID string, moves []game.Move) (game.Move, bool, error) {
	for _, m := range moves {
		next, err := eng.ApplyMove(state, m)
		if err != nil {
			return game.Move{}, false, game.NewError(game.CodeEngineError, "legal move %s failed: %v", m, err)
		}
		result, err := eng.IsTerminal(next)
		if err != nil {
			return game.Move{}, false, err
		}
		if result != nil && result.Winner != nil && result.Winner.ID == playerID {
			return m, true, nil
		}
	}
	return game.Move{}, false, nil
}

func (s *Searcher) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
