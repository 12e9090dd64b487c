package searcher

import (
	"context"
	"time"

	"parlor/game"
)

// Result is the outcome of a background think. StateID and Turn tag
// the position that was searched so late arrivals can be dropped once
// play has moved on.
type Result struct {
	Move    game.Move
	Stats   Stats
	Err     error
	StateID string
	Turn    int
}

// Stale reports whether the result no longer applies to current.
func (r Result) Stale(current game.State) bool {
	if current == nil {
		return true
	}
	return r.StateID != current.ID() || r.Turn != current.TurnNumber()
}

// Thinker runs searches off the caller's goroutine and paces them into
// a latency window: never answering faster than the floor, never
// stalling past the ceiling.
type Thinker struct {
	searcher *Searcher
	minWait  time.Duration
	maxWait  time.Duration
}

func NewThinker(s *Searcher, minWait, maxWait time.Duration) *Thinker {
	if maxWait > 0 && maxWait < minWait {
		maxWait = minWait
	}
	return &Thinker{searcher: s, minWait: minWait, maxWait: maxWait}
}

// Think starts a search for playerID and returns the channel its
// result arrives on. The channel is buffered and closed after the
// single send, so abandoning it leaks nothing. Cancelling ctx cuts
// both the search and the pacing delay short.
func (t *Thinker) Think(ctx context.Context, eng game.Engine, state game.State, difficulty int, playerID string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		start := time.Now()

		searchCtx := ctx
		if t.maxWait > 0 {
			var cancel context.CancelFunc
			searchCtx, cancel = context.WithTimeout(ctx, t.maxWait)
			defer cancel()
		}
		move, stats, err := t.searcher.GetMove(searchCtx, eng, state, difficulty, playerID)

		if wait := t.minWait - time.Since(start); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
			}
		}
		out <- Result{
			Move:    move,
			Stats:   stats,
			Err:     err,
			StateID: state.ID(),
			Turn:    state.TurnNumber(),
		}
	}()
	return out
}
