package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/supplysim/beergame/game/engine"
)

// gameServiceImpl implements the GameService interface.
type gameServiceImpl struct {
	registry  GameRegistry
	publisher Publisher
}

// NewGameService creates a new game service instance. A nil publisher
// disables broadcasting.
func NewGameService(registry GameRegistry, publisher Publisher) GameService {
	return &gameServiceImpl{
		registry:  registry,
		publisher: publisher,
	}
}

// CreateGame registers a fresh lobby and returns its one-time admin token.
func (s *gameServiceImpl) CreateGame(ctx context.Context, config *engine.GameConfig) (*CreateGameResult, error) {
	if config == nil {
		config = engine.DefaultConfig()
	}

	game, adminToken, err := s.registry.Create(config)
	if err != nil {
		return nil, err
	}

	s.publishListUpdate()

	return &CreateGameResult{
		GameID:     game.ID(),
		AdminToken: adminToken,
		GameState:  game.Snapshot(),
	}, nil
}

// ListGames returns a lobby summary per live game, oldest first.
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameSummary, error) {
	games := s.registry.List()
	result := make([]*GameSummary, 0, len(games))
	for _, game := range games {
		result = append(result, summarize(game))
	}
	return result, nil
}

// GetGameState returns the full state snapshot of one game.
func (s *gameServiceImpl) GetGameState(ctx context.Context, gameID string) (*engine.GameState, error) {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	return game.Snapshot(), nil
}

// DeleteGame tears a game down and evicts its watchers.
func (s *gameServiceImpl) DeleteGame(ctx context.Context, gameID, adminToken string) error {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return err
	}
	if err := s.authorize(game, adminToken); err != nil {
		return err
	}
	if err := s.registry.Delete(gameID); err != nil {
		return err
	}

	s.publish(gameID, EventGameDeleted, nil)
	if s.publisher != nil {
		s.publisher.Evict(gameID)
	}
	s.publishListUpdate()
	return nil
}

// JoinGame seats a participant, minting their player id. Taking an occupied
// role evicts the previous holder.
func (s *gameServiceImpl) JoinGame(ctx context.Context, gameID, name string, role engine.Role) (*JoinResult, error) {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}

	playerID := uuid.NewString()
	if err := game.AddPlayer(playerID, name, role); err != nil {
		return nil, err
	}

	state := game.Snapshot()
	s.publish(gameID, EventGameUpdated, state)
	s.publishListUpdate()

	return &JoinResult{
		GameID:    gameID,
		PlayerID:  playerID,
		Role:      role,
		GameState: state,
	}, nil
}

// KickPlayer ejects a participant on the admin's authority.
func (s *gameServiceImpl) KickPlayer(ctx context.Context, gameID, adminToken, playerID string) error {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return err
	}
	if err := s.authorize(game, adminToken); err != nil {
		return err
	}

	game.RemovePlayer(playerID)

	s.publish(gameID, EventPlayerKicked, &KickedPayload{
		PlayerID:  playerID,
		GameState: game.Snapshot(),
	})
	s.publishListUpdate()
	return nil
}

// PlaceOrder records a participant's order for the current round.
func (s *gameServiceImpl) PlaceOrder(ctx context.Context, gameID, playerID string, quantity int) (*engine.GameState, error) {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}

	if err := game.PlaceOrder(playerID, quantity); err != nil {
		return nil, err
	}

	state := game.Snapshot()
	s.publish(gameID, EventGameUpdated, state)
	return state, nil
}

// StartGame moves a full lobby into the first round.
func (s *gameServiceImpl) StartGame(ctx context.Context, gameID, adminToken string) (*engine.GameState, error) {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(game, adminToken); err != nil {
		return nil, err
	}

	if err := game.Start(); err != nil {
		return nil, err
	}

	state := game.Snapshot()
	s.publish(gameID, EventGameStarted, state)
	s.publishListUpdate()
	return state, nil
}

// ProcessRound advances the game one round. When the final round completes the
// watchers additionally receive the game-ended event carrying the results.
func (s *gameServiceImpl) ProcessRound(ctx context.Context, gameID, adminToken string) (*engine.GameState, error) {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(game, adminToken); err != nil {
		return nil, err
	}

	if err := game.ProcessRound(); err != nil {
		return nil, err
	}

	state := game.Snapshot()
	s.publish(gameID, EventRoundProcessed, state)

	if state.IsEnded {
		if results, err := game.Results(); err == nil {
			s.publish(gameID, EventGameEnded, results)
		}
		s.publishListUpdate()
	}
	return state, nil
}

// OverrideDemand rewrites the scheduled customer demand for a future round.
func (s *gameServiceImpl) OverrideDemand(ctx context.Context, gameID, adminToken string, roundIndex, value int) error {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return err
	}
	if err := s.authorize(game, adminToken); err != nil {
		return err
	}

	if err := game.OverrideDemand(roundIndex, value); err != nil {
		return err
	}

	s.publish(gameID, EventGameUpdated, game.Snapshot())
	return nil
}

// EndGame terminates the game early and returns the results as they stand.
func (s *gameServiceImpl) EndGame(ctx context.Context, gameID, adminToken string) (*engine.GameResults, error) {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(game, adminToken); err != nil {
		return nil, err
	}

	game.ForceEnd()
	results, err := game.Results()
	if err != nil {
		return nil, fmt.Errorf("results after forced end: %w", err)
	}

	s.publish(gameID, EventGameEnded, results)
	s.publishListUpdate()
	return results, nil
}

// GetResults returns the final ranking of an ended game.
func (s *gameServiceImpl) GetResults(ctx context.Context, gameID string) (*engine.GameResults, error) {
	game, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	return game.Results()
}

// authorize checks the admin capability for one game.
func (s *gameServiceImpl) authorize(game *engine.Game, token string) error {
	if token == "" || !game.Authorize(token) {
		return ErrUnauthorized
	}
	return nil
}

// publish emits one event to the watchers of a game. Callers invoke it only
// after the corresponding mutation has committed.
func (s *gameServiceImpl) publish(gameID, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(gameID, &Event{
		Type:      eventType,
		GameID:    gameID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// publishListUpdate refreshes lobby watchers after anything that changes the
// games listing.
func (s *gameServiceImpl) publishListUpdate() {
	if s.publisher == nil {
		return
	}

	games := s.registry.List()
	summaries := make([]*GameSummary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, summarize(game))
	}

	s.publisher.Publish("", &Event{
		Type:      EventGamesListUpdated,
		Timestamp: time.Now(),
		Payload:   summaries,
	})
}

func summarize(game *engine.Game) *GameSummary {
	state := game.Snapshot()

	players := make([]PlayerSummary, 0, len(state.Players))
	for _, p := range state.Players {
		players = append(players, PlayerSummary{ID: p.ID, Name: p.Name, Role: p.Role})
	}

	return &GameSummary{
		ID:          state.ID,
		Round:       state.Round,
		MaxRounds:   state.MaxRounds,
		IsStarted:   state.IsStarted,
		IsEnded:     state.IsEnded,
		PlayerCount: len(players),
		Players:     players,
		CreatedAt:   game.CreatedAt(),
	}
}
