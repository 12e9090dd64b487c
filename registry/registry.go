// Package registry is the catalog of playable games. Engine packages
// register themselves from init, so importing a game package for side
// effects is enough to make it available.
package registry

import (
	"sort"
	"sync"

	"parlor/game"
)

// Factory builds a fresh engine instance with default settings.
type Factory func() game.Engine

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a game under its canonical name. Registering the same
// name twice is a programming error.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic("registry: duplicate game " + name)
	}
	factories[name] = f
}

// Create instantiates the named engine.
func Create(name string) (game.Engine, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, game.NewError(game.CodeInvalidGameState, "unknown game %q", name)
	}
	return f(), nil
}

// List returns the registered game names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exists reports whether a game is registered.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[name]
	return ok
}
