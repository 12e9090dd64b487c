package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"parlor/game"
	"parlor/searcher"
)

var (
	flagStateFile  string
	flagHintPlayer string
)

var hintCmd = &cobra.Command{
	Use:   "hint",
	Short: "Suggest a move for a saved position",
	Long: `Load a position saved from the play command (or piped in with
--state-file -) and print the move the computer would try next.`,
	Args: cobra.NoArgs,
	RunE: runHint,
}

func init() {
	hintCmd.Flags().StringVar(&flagStateFile, "state-file", "", "Saved position, or - for stdin")
	hintCmd.Flags().StringVar(&flagHintPlayer, "player", "", "Player to advise by ID or name, default the player to move")
}

func runHint(cmd *cobra.Command, args []string) error {
	if flagStateFile == "" {
		return fmt.Errorf("need --state-file (use - for stdin)")
	}
	var blob []byte
	var err error
	if flagStateFile == "-" {
		blob, err = io.ReadAll(os.Stdin)
	} else {
		blob, err = os.ReadFile(flagStateFile)
	}
	if err != nil {
		return err
	}
	state, err := game.Deserialize(blob)
	if err != nil {
		return err
	}
	eng, err := cfg.NewEngine(state.Game())
	if err != nil {
		return err
	}
	player, err := resolvePlayer(state, flagHintPlayer)
	if err != nil {
		return err
	}

	sr := searcher.New(cfg.SearcherOptions()...)
	h, err := sr.GetHint(cmd.Context(), eng, state, player.ID)
	if err != nil {
		return err
	}
	fmt.Println(render(state))
	if h == nil {
		fmt.Println("no hint available, the game is over or no moves remain")
		return nil
	}
	fmt.Printf("try %s: %s (confidence %.0f%%)\n", h.Suggestion, h.Explanation, h.Confidence*100)
	return nil
}

func resolvePlayer(state game.State, who string) (game.Player, error) {
	if who == "" {
		return game.CurrentPlayer(state)
	}
	for _, p := range state.Players() {
		if p.ID == who || p.Name == who {
			return p, nil
		}
	}
	return game.Player{}, game.NewError(game.CodeInvalidGameState, "no player %q in this game", who)
}
