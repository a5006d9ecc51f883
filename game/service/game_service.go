package service

import (
	"context"
	"errors"

	"github.com/supplysim/beergame/game/engine"
)

// ErrUnauthorized is returned when a command requiring the admin token is
// presented without it or with the wrong one.
var ErrUnauthorized = errors.New("admin token required")

// GameService defines all game-related operations.
type GameService interface {
	// Lifecycle
	CreateGame(ctx context.Context, config *engine.GameConfig) (*CreateGameResult, error)
	ListGames(ctx context.Context) ([]*GameSummary, error)
	GetGameState(ctx context.Context, gameID string) (*engine.GameState, error)
	DeleteGame(ctx context.Context, gameID, adminToken string) error

	// Participation
	JoinGame(ctx context.Context, gameID, name string, role engine.Role) (*JoinResult, error)
	KickPlayer(ctx context.Context, gameID, adminToken, playerID string) error
	PlaceOrder(ctx context.Context, gameID, playerID string, quantity int) (*engine.GameState, error)

	// Admin flow
	StartGame(ctx context.Context, gameID, adminToken string) (*engine.GameState, error)
	ProcessRound(ctx context.Context, gameID, adminToken string) (*engine.GameState, error)
	OverrideDemand(ctx context.Context, gameID, adminToken string, roundIndex, value int) error
	EndGame(ctx context.Context, gameID, adminToken string) (*engine.GameResults, error)

	// Outcome
	GetResults(ctx context.Context, gameID string) (*engine.GameResults, error)
}

// GameRegistry defines the game storage the service runs against.
type GameRegistry interface {
	Create(config *engine.GameConfig) (*engine.Game, string, error)
	Get(id string) (*engine.Game, error)
	List() []*engine.Game
	Delete(id string) error
}

// Publisher receives events strictly after the mutation they describe has
// committed. Evict tells the transport to drop every watcher of a game that
// no longer exists.
type Publisher interface {
	Publish(gameID string, event *Event)
	Evict(gameID string)
}
