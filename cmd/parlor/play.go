package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"parlor/dotsandboxes"
	"parlor/game"
	"parlor/gamemaster"
	"parlor/searcher"
	"parlor/tictactoe"
)

var (
	flagLevel      int
	flagPlayerName string
	flagSecond     bool
	flagResume     string
)

var playCmd = &cobra.Command{
	Use:   "play <game>",
	Short: "Play against the computer",
	Long: `Play a game against the computer on the terminal.

Move input:
  tictactoe     row col           e.g. "0 2"
  dotsandboxes  h|v row col       e.g. "h 1 0"
  sprouts       a move number from the "moves" list

Other input:
  moves         - list the legal moves by number
  hint          - ask for advice
  undo          - take back your last move
  skip          - give up this turn
  save <file>   - write the position to a file
  quit          - resign and leave`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagLevel, "level", 3, "Computer difficulty, 1 to 6")
	playCmd.Flags().StringVar(&flagPlayerName, "name", "you", "Your display name")
	playCmd.Flags().BoolVar(&flagSecond, "second", false, "Let the computer open the game")
	playCmd.Flags().StringVar(&flagResume, "resume", "", "Resume from a saved position file")
	addBoardFlags(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	eng, err := cfg.NewEngine(args[0])
	if err != nil {
		return err
	}

	var state game.State
	if flagResume != "" {
		blob, err := os.ReadFile(flagResume)
		if err != nil {
			return err
		}
		if state, err = game.Deserialize(blob); err != nil {
			return err
		}
		if state.Game() != eng.Name() {
			return fmt.Errorf("%s holds a %s game, not %s", flagResume, state.Game(), eng.Name())
		}
	} else {
		human := game.NewPlayer(flagPlayerName)
		computer := game.NewAIPlayer(fmt.Sprintf("computer-%d", flagLevel), flagLevel)
		players := []game.Player{human, computer}
		if flagSecond {
			players[0], players[1] = players[1], players[0]
		}
		if state, err = eng.NewGame(players, boardSetup()); err != nil {
			return err
		}
	}

	master, err := gamemaster.NewMaster(eng, state, cfg.MasterOptions())
	if err != nil {
		return err
	}
	defer master.Close()
	master.Subscribe(func(e gamemaster.Event) {
		switch ev := e.(type) {
		case gamemaster.TurnTimedOut:
			fmt.Printf("\n%s ran out of time, the turn passes\n", ev.Player.Name)
		case gamemaster.TurnSkipped:
			if ev.Forced {
				fmt.Printf("\n%s's turn was ended\n", ev.Player.Name)
			}
		}
	})

	sr := searcher.New(cfg.SearcherOptions()...)
	thinker := cfg.NewThinker(sr)
	scanner := bufio.NewScanner(os.Stdin)
	ctx := cmd.Context()

	if err := master.Start(); err != nil {
		return err
	}
	for master.Phase() != gamemaster.PhaseEnded {
		st := master.State()
		fmt.Println()
		fmt.Println(render(st))
		fmt.Println(eng.Annotations(st).Summary)

		info, err := master.TurnInfo(false)
		if err != nil {
			return err
		}
		if info.Phase != gamemaster.PhaseMove {
			continue
		}
		if info.Player.IsAI {
			res := <-thinker.Think(ctx, eng, st, info.Player.Difficulty, info.Player.ID)
			if res.Err != nil {
				log.Error().Err(res.Err).Msg("the computer could not move")
				if err := master.ForceEndTurn(); err != nil {
					return err
				}
				continue
			}
			if res.Stale(master.State()) {
				continue
			}
			if _, err := master.SubmitMove(res.Move); err != nil {
				return err
			}
			fmt.Printf("%s plays %s\n", info.Player.Name, res.Move)
			continue
		}
		if !promptHuman(ctx, scanner, master, eng, sr, info) {
			return nil
		}
	}

	fmt.Println()
	fmt.Println(render(master.State()))
	if res := master.Result(); res != nil {
		if res.Winner != nil {
			fmt.Printf("%s wins: %s\n", res.Winner.Name, res.Reason)
		} else {
			fmt.Printf("draw: %s\n", res.Reason)
		}
	}
	return nil
}

// promptHuman reads input until it ends the turn one way or another.
// It returns false when stdin runs out.
func promptHuman(ctx context.Context, scanner *bufio.Scanner, master *gamemaster.Master, eng game.Engine, sr *searcher.Searcher, info gamemaster.TurnInfo) bool {
	for {
		fmt.Printf("%s> ", info.Player.Name)
		if !scanner.Scan() {
			return false
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		// The turn timer may have fired while we sat on stdin.
		current, err := master.TurnInfo(false)
		if err != nil || current.Phase != gamemaster.PhaseMove ||
			current.Player.ID != info.Player.ID || current.Turn != info.Turn {
			fmt.Println("your turn already passed")
			return true
		}

		switch fields[0] {
		case "quit", "q":
			if err := master.Resign(info.Player.ID); err != nil {
				fmt.Println(err)
			}
			return true
		case "moves":
			listMoves(master)
			continue
		case "hint":
			h, err := sr.GetHint(ctx, eng, master.State(), info.Player.ID)
			switch {
			case err != nil:
				fmt.Println(err)
			case h == nil:
				fmt.Println("no hint available")
			default:
				fmt.Printf("try %s: %s (confidence %.0f%%)\n", h.Suggestion, h.Explanation, h.Confidence*100)
			}
			continue
		case "undo":
			undoToOwnTurn(master, info.Player.ID)
			return true
		case "skip":
			if err := master.SkipTurn(info.Player.ID); err != nil {
				fmt.Println(err)
				continue
			}
			return true
		case "save":
			if len(fields) != 2 {
				fmt.Println("usage: save <file>")
				continue
			}
			savePosition(master.State(), fields[1])
			continue
		}

		mv, ok := parseMove(eng.Name(), info.Player.ID, fields)
		if !ok {
			mv, ok = numberedMove(master, fields[0])
		}
		if !ok {
			fmt.Println("unrecognized input, try \"moves\" for the move list")
			continue
		}
		if _, err := master.SubmitMove(mv); err != nil {
			fmt.Println(err)
			continue
		}
		return true
	}
}

// parseMove handles the per-game shorthand. Sprouts curves have no
// typed form; those go through the numbered move list.
func parseMove(gameName, playerID string, fields []string) (game.Move, bool) {
	switch gameName {
	case tictactoe.Name:
		if len(fields) == 2 {
			r, err1 := strconv.Atoi(fields[0])
			c, err2 := strconv.Atoi(fields[1])
			if err1 == nil && err2 == nil {
				return game.NewCellMove(playerID, r, c), true
			}
		}
	case dotsandboxes.Name:
		if len(fields) == 3 {
			r, err1 := strconv.Atoi(fields[1])
			c, err2 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil {
				switch fields[0] {
				case "h":
					return game.NewLineMove(playerID, game.MoveHorizontal, r, c), true
				case "v":
					return game.NewLineMove(playerID, game.MoveVertical, r, c), true
				}
			}
		}
	}
	return game.Move{}, false
}

func numberedMove(master *gamemaster.Master, field string) (game.Move, bool) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return game.Move{}, false
	}
	info, err := master.TurnInfo(true)
	if err != nil || n < 1 || n > len(info.Moves) {
		return game.Move{}, false
	}
	return info.Moves[n-1], true
}

func listMoves(master *gamemaster.Master) {
	info, err := master.TurnInfo(true)
	if err != nil {
		fmt.Println(err)
		return
	}
	if len(info.Moves) == 0 {
		fmt.Println("no legal moves")
		return
	}
	for i, mv := range info.Moves {
		fmt.Printf("%3d: %s\n", i+1, mv)
	}
}

// undoToOwnTurn unwinds moves until the player is back on the clock,
// so a single undo takes back the computer's reply as well.
func undoToOwnTurn(master *gamemaster.Master, playerID string) {
	for {
		restored, err := master.Undo()
		if err != nil {
			fmt.Println(err)
			return
		}
		mover, merr := game.CurrentPlayer(restored)
		if merr != nil || mover.ID == playerID {
			return
		}
	}
}

func savePosition(s game.State, path string) {
	blob, err := game.Serialize(s)
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("saved to", path)
}

type renderer interface {
	Render() string
}

func render(s game.State) string {
	if r, ok := s.(renderer); ok {
		return r.Render()
	}
	blob, err := game.Serialize(s)
	if err != nil {
		return fmt.Sprint(s)
	}
	return string(blob)
}
