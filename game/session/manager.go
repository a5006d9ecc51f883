package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/supplysim/beergame/game/engine"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
)

// Registry holds every live game keyed by id. All methods are safe for
// concurrent use; the registry lock covers only the map, never a game's
// internals, so slow commands against one game do not block the rest.
type Registry struct {
	games map[string]*engine.Game
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]*engine.Game),
	}
}

// Create builds a new game in the lobby state and registers it. The returned
// admin token is minted here and never stored anywhere else; whoever holds it
// controls the game.
func (r *Registry) Create(config *engine.GameConfig) (*engine.Game, string, error) {
	adminToken := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.generateGameID()
	game, err := engine.NewGame(id, config, adminToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create game: %w", err)
	}

	r.games[id] = game
	return game, adminToken, nil
}

// Get retrieves a game by id.
func (r *Registry) Get(id string) (*engine.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, exists := r.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// List returns all live games, oldest first.
func (r *Registry) List() []*engine.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*engine.Game, 0, len(r.games))
	for _, game := range r.games {
		result = append(result, game)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt().Before(result[j].CreatedAt())
	})

	return result
}

// Delete removes a game from the registry. The game object itself is left to
// the garbage collector once outstanding references drop.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[id]; !exists {
		return ErrGameNotFound
	}
	delete(r.games, id)
	return nil
}

// Count returns the number of live games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// generateGameID mints a short random id. Collisions are retried; callers
// hold r.mu.
func (r *Registry) generateGameID() string {
	for {
		bytes := make([]byte, 4)
		rand.Read(bytes)
		id := "game-" + hex.EncodeToString(bytes)
		if _, exists := r.games[id]; !exists {
			return id
		}
	}
}
