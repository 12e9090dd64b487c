// parlor plays pencil-and-paper games against a computer opponent.
//
// Usage:
//
//	parlor games                 - List the playable games
//	parlor play <game>           - Play against the computer
//	parlor selfplay <game>       - Watch the computer play itself
//	parlor bench <game>          - Compare difficulty levels
//	parlor hint                  - Advise on a saved position
//
// Global flags:
//
//	--config <path>      - Settings file (default: ./parlor.yaml)
//	--log-level <level>  - Log threshold (default: warn)
//	--seed <n>           - Fix the search randomness
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"parlor/config"
	"parlor/game"
	"parlor/registry"

	// Import games to register them.
	_ "parlor/dotsandboxes"
	_ "parlor/sprouts"
	_ "parlor/tictactoe"
)

var (
	flagConfig   string
	flagLogLevel string
	flagSeed     uint64

	cfg config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parlor",
	Short: "Pencil-and-paper games against a computer opponent",
	Long: `parlor bundles the rules and computer players for a few
pencil-and-paper games: tictactoe, dotsandboxes, and sprouts.

Examples:
  parlor games
  parlor play tictactoe --level 4
  parlor play dotsandboxes --dots-width 4 --dots-height 4
  parlor selfplay sprouts --level-a 2 --level-b 5 -n 10
  parlor bench tictactoe --levels 1,2,4 -n 20 --db results.db
  parlor hint --state-file game.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("bad log level %q: %w", flagLogLevel, err)
		}
		zerolog.SetGlobalLevel(level)

		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagSeed != 0 {
			cfg.Search.Seed = flagSeed
		}
		return nil
	},
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the playable games",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range registry.List() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to settings YAML (default ./parlor.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log threshold: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Fix the search randomness (0 seeds from the clock)")

	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(selfplayCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(hintCmd)
}

// Board size flags shared by the commands that start games.
var (
	flagDotsWidth  int
	flagDotsHeight int
	flagPoints     int
)

func addBoardFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagDotsWidth, "dots-width", 0, "Dot columns for dotsandboxes (default 5)")
	cmd.Flags().IntVar(&flagDotsHeight, "dots-height", 0, "Dot rows for dotsandboxes (default 5)")
	cmd.Flags().IntVar(&flagPoints, "points", 0, "Starting points for sprouts (default 3)")
}

func boardSetup() game.Setup {
	return game.Setup{
		DotsWidth:      flagDotsWidth,
		DotsHeight:     flagDotsHeight,
		StartingPoints: flagPoints,
	}
}
