// Package storage persists finished matches to a SQLite file so
// self-play runs and benchmarks accumulate across processes.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	game TEXT NOT NULL,
	player_a TEXT NOT NULL,
	player_b TEXT NOT NULL,
	level_a INTEGER NOT NULL,
	level_b INTEGER NOT NULL,
	winner TEXT NOT NULL,
	winner_seat INTEGER NOT NULL,
	reason TEXT NOT NULL,
	moves INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_game ON matches(game);
CREATE INDEX IF NOT EXISTS idx_matches_pairing ON matches(game, level_a, level_b);
`

// Store wraps the match database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, making parent
// directories as needed, and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// MatchRecord is one finished match. Seats A and B are the two player
// positions in playing order.
type MatchRecord struct {
	ID      int64
	Game    string
	PlayerA string
	PlayerB string
	LevelA  int
	LevelB  int
	Winner  string
	// WinnerSeat is 0 or 1, or -1 for a draw.
	WinnerSeat int
	Reason     string
	Moves      int
	DurationMS int64
	CreatedAt  time.Time
}

func (s *Store) SaveMatch(ctx context.Context, rec MatchRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (game, player_a, player_b, level_a, level_b,
			winner, winner_seat, reason, moves, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Game, rec.PlayerA, rec.PlayerB, rec.LevelA, rec.LevelB,
		rec.Winner, rec.WinnerSeat, rec.Reason, rec.Moves, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("storage: save match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: last insert id: %w", err)
	}
	return id, nil
}

// RecentMatches lists the latest matches, newest first. An empty game
// name matches every game.
func (s *Store) RecentMatches(ctx context.Context, gameName string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game, player_a, player_b, level_a, level_b,
			winner, winner_seat, reason, moves, duration_ms, created_at
		FROM matches
		WHERE (? = '' OR game = ?)
		ORDER BY id DESC
		LIMIT ?`, gameName, gameName, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: recent matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		if err := rows.Scan(&rec.ID, &rec.Game, &rec.PlayerA, &rec.PlayerB,
			&rec.LevelA, &rec.LevelB, &rec.Winner, &rec.WinnerSeat,
			&rec.Reason, &rec.Moves, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan match: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: recent matches: %w", err)
	}
	return records, nil
}

// Summary aggregates matches for one pairing of difficulty levels.
type Summary struct {
	Game   string
	LevelA int
	LevelB int
	Games  int
	WinsA  int
	WinsB  int
	Draws  int
}

// Summaries groups stored matches by game and level pairing.
func (s *Store) Summaries(ctx context.Context, gameName string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game, level_a, level_b, COUNT(*),
			SUM(CASE WHEN winner_seat = 0 THEN 1 ELSE 0 END),
			SUM(CASE WHEN winner_seat = 1 THEN 1 ELSE 0 END),
			SUM(CASE WHEN winner_seat < 0 THEN 1 ELSE 0 END)
		FROM matches
		WHERE (? = '' OR game = ?)
		GROUP BY game, level_a, level_b
		ORDER BY game, level_a, level_b`, gameName, gameName)
	if err != nil {
		return nil, fmt.Errorf("storage: summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Game, &sum.LevelA, &sum.LevelB,
			&sum.Games, &sum.WinsA, &sum.WinsB, &sum.Draws); err != nil {
			return nil, fmt.Errorf("storage: scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: summaries: %w", err)
	}
	return summaries, nil
}
