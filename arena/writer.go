package arena

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer stores series results as CSV files under a timestamped
// subdirectory, one row per game and one per move.
type Writer struct {
	baseDir string
}

func NewWriter(root string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, timestamp)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("arena: create %s: %w", baseDir, err)
	}
	return &Writer{baseDir: baseDir}, nil
}

// Dir returns the directory this writer fills.
func (w *Writer) Dir() string { return w.baseDir }

// WriteGames writes one row per finished game to games.csv.
func (w *Writer) WriteGames(gameName string, results []SeriesResult) error {
	path := filepath.Join(w.baseDir, "games.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("arena: create games file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{"game", "levelA", "levelB", "round", "winner", "winnerSeat", "moves", "durationMs"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("arena: write games header: %w", err)
	}
	for _, res := range results {
		for i, o := range res.Outcomes {
			record := []string{
				gameName,
				strconv.Itoa(res.LevelA),
				strconv.Itoa(res.LevelB),
				strconv.Itoa(i + 1),
				o.Winner,
				strconv.Itoa(o.WinnerSeat),
				strconv.Itoa(o.Moves),
				strconv.FormatInt(o.Duration.Milliseconds(), 10),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("arena: write game record: %w", err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMoves writes one row per applied move to moves.csv.
func (w *Writer) WriteMoves(results []SeriesResult) error {
	path := filepath.Join(w.baseDir, "moves.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("arena: create moves file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{"game", "seat", "turn", "move", "level", "depth", "nodes", "exact", "elapsedMs"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("arena: write moves header: %w", err)
	}
	gameNum := 0
	for _, res := range results {
		for _, o := range res.Outcomes {
			gameNum++
			for _, ms := range o.MoveStats {
				record := []string{
					strconv.Itoa(gameNum),
					strconv.Itoa(ms.Seat),
					strconv.Itoa(ms.Turn),
					ms.Move.String(),
					strconv.Itoa(ms.Stats.Level),
					strconv.Itoa(ms.Stats.Depth),
					strconv.Itoa(ms.Stats.Nodes),
					strconv.FormatBool(ms.Stats.Exact),
					strconv.FormatInt(ms.Stats.Elapsed.Milliseconds(), 10),
				}
				if err := writer.Write(record); err != nil {
					return fmt.Errorf("arena: write move record: %w", err)
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
