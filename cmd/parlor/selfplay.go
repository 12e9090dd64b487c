package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"parlor/arena"
	"parlor/searcher"
	"parlor/storage"
)

var (
	flagLevelA int
	flagLevelB int
	flagGames  int
	flagOut    string
	flagDB     string
)

var selfplayCmd = &cobra.Command{
	Use:   "selfplay <game>",
	Short: "Watch the computer play itself",
	Long: `Run a series of games between two computer players and report
who won. Results can go to CSV files (--out) and a SQLite database
(--db) for later digging.`,
	Args: cobra.ExactArgs(1),
	RunE: runSelfplay,
}

func init() {
	selfplayCmd.Flags().IntVar(&flagLevelA, "level-a", 2, "First player's difficulty")
	selfplayCmd.Flags().IntVar(&flagLevelB, "level-b", 4, "Second player's difficulty")
	selfplayCmd.Flags().IntVarP(&flagGames, "games", "n", 4, "Games to play")
	selfplayCmd.Flags().StringVar(&flagOut, "out", "", "Directory for CSV results")
	selfplayCmd.Flags().StringVar(&flagDB, "db", "", "SQLite file for match records")
	addBoardFlags(selfplayCmd)
}

func runSelfplay(cmd *cobra.Command, args []string) error {
	eng, err := cfg.NewEngine(args[0])
	if err != nil {
		return err
	}
	sr := searcher.New(cfg.SearcherOptions()...)

	matchups := []arena.Matchup{{LevelA: flagLevelA, LevelB: flagLevelB}}
	results, err := arena.RunSeries(cmd.Context(), eng, boardSetup(), sr, matchups, flagGames)
	if err != nil {
		return err
	}

	res := results[0]
	fmt.Printf("level %d vs level %d over %d games: %d-%d-%d (A wins, B wins, draws)\n",
		res.LevelA, res.LevelB, res.Games, res.WinsA, res.WinsB, res.Draws)

	if flagOut != "" {
		if err := writeSeriesCSV(eng.Name(), results); err != nil {
			return err
		}
	}
	if flagDB != "" {
		if err := saveSeries(cmd, flagDB, eng.Name(), results); err != nil {
			return err
		}
	}
	return nil
}

func writeSeriesCSV(gameName string, results []arena.SeriesResult) error {
	w, err := arena.NewWriter(flagOut)
	if err != nil {
		return err
	}
	if err := w.WriteGames(gameName, results); err != nil {
		return err
	}
	if err := w.WriteMoves(results); err != nil {
		return err
	}
	fmt.Println("wrote", w.Dir())
	return nil
}

func saveSeries(cmd *cobra.Command, path, gameName string, results []arena.SeriesResult) error {
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	saved := 0
	for _, res := range results {
		for _, o := range res.Outcomes {
			_, err := store.SaveMatch(cmd.Context(), storage.MatchRecord{
				Game:       gameName,
				PlayerA:    o.Players[0],
				PlayerB:    o.Players[1],
				LevelA:     o.Levels[0],
				LevelB:     o.Levels[1],
				Winner:     o.Winner,
				WinnerSeat: o.WinnerSeat,
				Reason:     o.Result.Reason,
				Moves:      o.Moves,
				DurationMS: o.Duration.Milliseconds(),
			})
			if err != nil {
				return err
			}
			saved++
		}
	}
	fmt.Printf("saved %d matches to %s\n", saved, path)
	return nil
}
