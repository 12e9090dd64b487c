package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"parlor/arena"
	"parlor/searcher"
	"parlor/storage"
)

var (
	flagBenchLevels string
	flagBenchGames  int
	flagBenchDB     string
)

var benchCmd = &cobra.Command{
	Use:   "bench <game>",
	Short: "Compare difficulty levels",
	Long: `Play every pairing of the given difficulty levels against each
other and print a win table. With --db the matches also land in the
match database and the accumulated standings are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVar(&flagBenchLevels, "levels", "1,2,3,4", "Comma-separated difficulties to pair up")
	benchCmd.Flags().IntVarP(&flagBenchGames, "games", "n", 6, "Games per pairing")
	benchCmd.Flags().StringVar(&flagBenchDB, "db", "", "SQLite file for match records")
	addBoardFlags(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	levels, err := parseLevels(flagBenchLevels)
	if err != nil {
		return err
	}
	eng, err := cfg.NewEngine(args[0])
	if err != nil {
		return err
	}
	sr := searcher.New(cfg.SearcherOptions()...)

	var matchups []arena.Matchup
	for i := 0; i < len(levels); i++ {
		for j := i + 1; j < len(levels); j++ {
			matchups = append(matchups, arena.Matchup{LevelA: levels[i], LevelB: levels[j]})
		}
	}
	if len(matchups) == 0 {
		return fmt.Errorf("need at least two levels to compare, got %v", levels)
	}

	results, err := arena.RunSeries(cmd.Context(), eng, boardSetup(), sr, matchups, flagBenchGames)
	if err != nil {
		return err
	}

	fmt.Printf("%-10s %6s %6s %6s %6s\n", "matchup", "games", "winsA", "winsB", "draws")
	for _, res := range results {
		label := fmt.Sprintf("%d vs %d", res.LevelA, res.LevelB)
		fmt.Printf("%-10s %6d %6d %6d %6d\n", label, res.Games, res.WinsA, res.WinsB, res.Draws)
	}

	if flagBenchDB == "" {
		return nil
	}
	if err := saveSeries(cmd, flagBenchDB, eng.Name(), results); err != nil {
		return err
	}
	store, err := storage.Open(flagBenchDB)
	if err != nil {
		return err
	}
	defer store.Close()
	summaries, err := store.Summaries(cmd.Context(), eng.Name())
	if err != nil {
		return err
	}
	fmt.Println("\naccumulated standings:")
	for _, sum := range summaries {
		fmt.Printf("%-10s %6d %6d %6d %6d\n",
			fmt.Sprintf("%d vs %d", sum.LevelA, sum.LevelB), sum.Games, sum.WinsA, sum.WinsB, sum.Draws)
	}
	return nil
}

func parseLevels(spec string) ([]int, error) {
	var levels []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad level %q: %w", part, err)
		}
		if n < searcher.MinDifficulty || n > searcher.MaxDifficulty {
			return nil, fmt.Errorf("level %d outside %d to %d", n, searcher.MinDifficulty, searcher.MaxDifficulty)
		}
		levels = append(levels, n)
	}
	return levels, nil
}
