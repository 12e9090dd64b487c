// Package config loads the YAML settings file and turns it into the
// option types the other packages take. Every field has a default, so
// running without a file works.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"parlor/dotsandboxes"
	"parlor/game"
	"parlor/gamemaster"
	"parlor/registry"
	"parlor/searcher"
	"parlor/sprouts"
	"parlor/tictactoe"
)

// DefaultPath is probed when no config file is named explicitly.
const DefaultPath = "parlor.yaml"

type Config struct {
	Search     SearchConfig     `yaml:"search"`
	Hint       HintConfig       `yaml:"hint"`
	Think      ThinkConfig      `yaml:"think"`
	Turns      TurnsConfig      `yaml:"turns"`
	Heuristics HeuristicsConfig `yaml:"heuristics"`
}

// LevelSpec mirrors searcher.Level with a millisecond budget, since
// YAML has no duration type.
type LevelSpec struct {
	Depth    int  `yaml:"depth"`
	BudgetMS int  `yaml:"budgetMs"`
	Deepen   bool `yaml:"deepen"`
	Ordered  bool `yaml:"ordered"`
}

func (s LevelSpec) Level() searcher.Level {
	return searcher.Level{
		Depth:   s.Depth,
		Budget:  time.Duration(s.BudgetMS) * time.Millisecond,
		Deepen:  s.Deepen,
		Ordered: s.Ordered,
	}
}

type SearchConfig struct {
	// Seed fixes the searcher's random stream. Zero keeps it seeded
	// from the clock.
	Seed uint64 `yaml:"seed"`
	// Levels overrides individual difficulties, keyed 1 to 6.
	Levels map[int]LevelSpec `yaml:"levels"`
}

type HintConfig struct {
	Depth int `yaml:"depth"`
}

type ThinkConfig struct {
	MinMS int `yaml:"minMs"`
	MaxMS int `yaml:"maxMs"`
}

type TurnsConfig struct {
	TimeoutMS    int  `yaml:"timeoutMs"`
	UndoDepth    int  `yaml:"undoDepth"`
	SkipInactive bool `yaml:"skipInactive"`
}

type HeuristicsConfig struct {
	TicTacToe    tictactoe.Heuristic    `yaml:"tictactoe"`
	DotsAndBoxes dotsandboxes.Heuristic `yaml:"dotsandboxes"`
	Sprouts      sprouts.Heuristic      `yaml:"sprouts"`
}

func Default() Config {
	return Config{
		Hint:  HintConfig{Depth: 4},
		Think: ThinkConfig{MinMS: 300, MaxMS: 2500},
		Turns: TurnsConfig{UndoDepth: 3},
		Heuristics: HeuristicsConfig{
			TicTacToe:    tictactoe.DefaultHeuristic,
			DotsAndBoxes: dotsandboxes.DefaultHeuristic,
			Sprouts:      sprouts.DefaultHeuristic,
		},
	}
}

// Load reads the file at path over the defaults. An empty path probes
// DefaultPath and treats a missing file as no overrides; a named file
// that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SearcherOptions converts the search and hint sections.
func (c Config) SearcherOptions() []searcher.Option {
	var options []searcher.Option
	if c.Search.Seed != 0 {
		options = append(options, searcher.WithSeed(c.Search.Seed))
	}
	for difficulty, spec := range c.Search.Levels {
		options = append(options, searcher.WithLevel(difficulty, spec.Level()))
	}
	if c.Hint.Depth > 0 {
		options = append(options, searcher.WithHintDepth(c.Hint.Depth))
	}
	return options
}

// MasterOptions converts the turns section.
func (c Config) MasterOptions() gamemaster.Options {
	return gamemaster.Options{
		UndoDepth:    c.Turns.UndoDepth,
		TurnTimeout:  time.Duration(c.Turns.TimeoutMS) * time.Millisecond,
		SkipInactive: c.Turns.SkipInactive,
	}
}

// NewThinker wraps s in the configured latency window.
func (c Config) NewThinker(s *searcher.Searcher) *searcher.Thinker {
	return searcher.NewThinker(s,
		time.Duration(c.Think.MinMS)*time.Millisecond,
		time.Duration(c.Think.MaxMS)*time.Millisecond)
}

// NewEngine creates the named engine with the configured heuristic
// weights applied.
func (c Config) NewEngine(name string) (game.Engine, error) {
	eng, err := registry.Create(name)
	if err != nil {
		return nil, err
	}
	switch e := eng.(type) {
	case *tictactoe.Engine:
		e.Heuristic = c.Heuristics.TicTacToe
	case *dotsandboxes.Engine:
		e.Heuristic = c.Heuristics.DotsAndBoxes
	case *sprouts.Engine:
		e.Heuristic = c.Heuristics.Sprouts
	}
	return eng, nil
}
