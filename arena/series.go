package arena

import (
	"context"

	"github.com/rs/zerolog/log"

	"parlor/game"
	"parlor/searcher"
)

// Matchup pairs two difficulty levels.
type Matchup struct {
	LevelA int
	LevelB int
}

// SeriesResult tallies one matchup over a number of games.
type SeriesResult struct {
	Matchup
	Games    int
	WinsA    int
	WinsB    int
	Draws    int
	Outcomes []Outcome
}

// RunSeries plays every matchup for the given number of games,
// swapping seats each round so neither level keeps the opening move.
func RunSeries(ctx context.Context, eng game.Engine, setup game.Setup, s *searcher.Searcher, matchups []Matchup, games int) ([]SeriesResult, error) {
	results := make([]SeriesResult, 0, len(matchups))
	for mi, mu := range matchups {
		log.Info().Msgf("starting matchup %d of %d: level %d vs level %d...",
			mi+1, len(matchups), mu.LevelA, mu.LevelB)

		res := SeriesResult{Matchup: mu}
		for i := 0; i < games; i++ {
			log.Info().Msgf("starting matchup %d of %d game %d of %d...",
				mi+1, len(matchups), i+1, games)

			agents := [2]Agent{
				SearchAgent{Searcher: s, Difficulty: mu.LevelA},
				SearchAgent{Searcher: s, Difficulty: mu.LevelB},
			}
			seatOfA := i % 2
			if seatOfA == 1 {
				agents[0], agents[1] = agents[1], agents[0]
			}
			outcome, err := Match{Engine: eng, Agents: agents, Setup: setup}.Run(ctx)
			if err != nil {
				return results, err
			}
			res.Games++
			switch outcome.WinnerSeat {
			case -1:
				res.Draws++
			case seatOfA:
				res.WinsA++
			default:
				res.WinsB++
			}
			res.Outcomes = append(res.Outcomes, outcome)

			log.Info().Msgf("completed matchup %d of %d game %d of %d: %s",
				mi+1, len(matchups), i+1, games, outcomeLabel(outcome))
		}
		log.Info().Msgf("completed matchup %d of %d", mi+1, len(matchups))
		results = append(results, res)
	}
	return results, nil
}

func outcomeLabel(o Outcome) string {
	if o.Winner == "" {
		return "draw"
	}
	return o.Winner + " wins"
}
