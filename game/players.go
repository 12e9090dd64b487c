package game

import "github.com/google/uuid"

// Player is one seat at the table. Score accumulates whatever the game
// counts: claimed boxes in the territory game, a point for the winner
// elsewhere.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsAI       bool   `json:"isAI"`
	Difficulty int    `json:"difficulty,omitempty"`
	Score      int    `json:"score"`
	Active     bool   `json:"isActive"`
	Color      string `json:"color,omitempty"`
}

var defaultColors = []string{"#e63946", "#457b9d", "#2a9d8f", "#f4a261"}

// NewPlayer seats a human player.
func NewPlayer(name string) Player {
	return Player{
		ID:     uuid.NewString(),
		Name:   name,
		Active: true,
	}
}

// NewAIPlayer seats a computer player at the given difficulty.
func NewAIPlayer(name string, difficulty int) Player {
	return Player{
		ID:         uuid.NewString(),
		Name:       name,
		IsAI:       true,
		Difficulty: difficulty,
		Active:     true,
	}
}

// DefaultColor cycles through the seat palette.
func DefaultColor(seat int) string {
	if seat < 0 {
		seat = -seat
	}
	return defaultColors[seat%len(defaultColors)]
}

// NextActiveIndex finds the next active seat after from, wrapping and
// skipping inactive seats. When no other seat is active it returns
// from, so a lone remaining player keeps the turn.
func NextActiveIndex(players []Player, from int) int {
	n := len(players)
	if n == 0 {
		return from
	}
	for hop := 1; hop <= n; hop++ {
		i := (from + hop) % n
		if players[i].Active {
			return i
		}
	}
	return from
}

// SeatOf finds the seat index holding a player ID, or -1.
func SeatOf(players []Player, playerID string) int {
	for i, p := range players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer resolves the seat a state reports as to move.
func CurrentPlayer(s State) (Player, error) {
	players := s.Players()
	i := s.CurrentPlayerIndex()
	if i < 0 || i >= len(players) {
		return Player{}, NewError(CodeEngineError,
			"current player index %d out of range for %d seats", i, len(players))
	}
	return players[i], nil
}

// ClonePlayers copies a seat list so derived states stay isolated.
func ClonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	copy(out, players)
	return out
}
