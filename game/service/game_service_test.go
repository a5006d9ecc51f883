package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/supplysim/beergame/game/engine"
	"github.com/supplysim/beergame/game/session"
)

// recordingPublisher captures everything published for assertions.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []*Event
	evicted []string
}

func (p *recordingPublisher) Publish(gameID string, event *Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Evict(gameID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evicted = append(p.evicted, gameID)
}

func (p *recordingPublisher) eventsOfType(eventType string) []*Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (GameService, *recordingPublisher) {
	t.Helper()
	publisher := &recordingPublisher{}
	return NewGameService(session.NewRegistry(), publisher), publisher
}

func createAndFill(t *testing.T, svc GameService) (gameID, adminToken string, playerIDs map[engine.Role]string) {
	t.Helper()
	ctx := context.Background()

	created, err := svc.CreateGame(ctx, engine.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	playerIDs = make(map[engine.Role]string)
	for _, role := range engine.RoleOrder {
		joined, err := svc.JoinGame(ctx, created.GameID, "Player "+string(role), role)
		if err != nil {
			t.Fatalf("JoinGame(%s) failed: %v", role, err)
		}
		playerIDs[role] = joined.PlayerID
	}
	return created.GameID, created.AdminToken, playerIDs
}

func TestGameService_CreateGame(t *testing.T) {
	svc, publisher := newTestService(t)

	result, err := svc.CreateGame(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	if result.GameID == "" || result.AdminToken == "" {
		t.Error("Expected a game id and an admin token")
	}
	if result.GameState == nil || result.GameState.IsStarted {
		t.Error("Expected a lobby-state snapshot")
	}
	if len(publisher.eventsOfType(EventGamesListUpdated)) != 1 {
		t.Error("Expected one games-list-updated broadcast")
	}
}

func TestGameService_JoinGame(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()

	created, _ := svc.CreateGame(ctx, nil)

	first, err := svc.JoinGame(ctx, created.GameID, "Alice", engine.Retailer)
	if err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}
	second, err := svc.JoinGame(ctx, created.GameID, "Bob", engine.Wholesaler)
	if err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}

	if first.PlayerID == second.PlayerID {
		t.Error("Expected distinct player ids")
	}
	if len(publisher.eventsOfType(EventGameUpdated)) != 2 {
		t.Error("Expected a game-updated broadcast per join")
	}

	if _, err := svc.JoinGame(ctx, "game-missing", "Carol", engine.Factory); !errors.Is(err, session.ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}

func TestGameService_AdminGating(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	gameID, adminToken, _ := createAndFill(t, svc)

	cases := []struct {
		name string
		call func(token string) error
	}{
		{"start", func(token string) error {
			_, err := svc.StartGame(ctx, gameID, token)
			return err
		}},
		{"process round", func(token string) error {
			_, err := svc.ProcessRound(ctx, gameID, token)
			return err
		}},
		{"override demand", func(token string) error {
			return svc.OverrideDemand(ctx, gameID, token, 10, 9)
		}},
		{"end", func(token string) error {
			_, err := svc.EndGame(ctx, gameID, token)
			return err
		}},
		{"kick", func(token string) error {
			return svc.KickPlayer(ctx, gameID, token, "someone")
		}},
		{"delete", func(token string) error {
			return svc.DeleteGame(ctx, gameID, token)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name+" rejects missing token", func(t *testing.T) {
			if err := tc.call(""); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("Expected ErrUnauthorized, got %v", err)
			}
		})
		t.Run(tc.name+" rejects wrong token", func(t *testing.T) {
			if err := tc.call("not-the-token"); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("Expected ErrUnauthorized, got %v", err)
			}
		})
	}

	// None of the rejected commands may have broadcast game progress.
	for _, eventType := range []string{EventGameStarted, EventRoundProcessed, EventGameEnded, EventGameDeleted} {
		if n := len(publisher.eventsOfType(eventType)); n != 0 {
			t.Errorf("Rejected commands broadcast %d %s events", n, eventType)
		}
	}

	// The real token still works.
	if _, err := svc.StartGame(ctx, gameID, adminToken); err != nil {
		t.Errorf("StartGame with the minted token failed: %v", err)
	}
}

func TestGameService_RoundFlow(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	gameID, adminToken, playerIDs := createAndFill(t, svc)

	if _, err := svc.StartGame(ctx, gameID, adminToken); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if len(publisher.eventsOfType(EventGameStarted)) != 1 {
		t.Error("Expected one game-started broadcast")
	}

	for _, role := range engine.RoleOrder {
		state, err := svc.PlaceOrder(ctx, gameID, playerIDs[role], 4)
		if err != nil {
			t.Fatalf("PlaceOrder(%s) failed: %v", role, err)
		}
		if role == engine.Factory && !state.AllOrdered {
			t.Error("Expected all_ordered after the last order")
		}
	}

	state, err := svc.ProcessRound(ctx, gameID, adminToken)
	if err != nil {
		t.Fatalf("ProcessRound failed: %v", err)
	}
	if state.Round != 2 {
		t.Errorf("Expected round 2 after processing, got %d", state.Round)
	}

	processed := publisher.eventsOfType(EventRoundProcessed)
	if len(processed) != 1 {
		t.Fatalf("Expected one round-processed broadcast, got %d", len(processed))
	}
	broadcast, ok := processed[0].Payload.(*engine.GameState)
	if !ok {
		t.Fatalf("Expected a state payload, got %T", processed[0].Payload)
	}
	if broadcast.Round != 2 {
		t.Errorf("Broadcast carries pre-commit state: round %d", broadcast.Round)
	}
}

func TestGameService_ProcessRound_BeforeStartPublishesNothing(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	gameID, adminToken, _ := createAndFill(t, svc)

	if _, err := svc.ProcessRound(ctx, gameID, adminToken); !errors.Is(err, engine.ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}
	if len(publisher.eventsOfType(EventRoundProcessed)) != 0 {
		t.Error("Failed command must not broadcast")
	}
}

func TestGameService_EndGame(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	gameID, adminToken, _ := createAndFill(t, svc)
	svc.StartGame(ctx, gameID, adminToken)
	svc.ProcessRound(ctx, gameID, adminToken)

	results, err := svc.EndGame(ctx, gameID, adminToken)
	if err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}
	if len(results.FinalScores) != 4 {
		t.Errorf("Expected 4 scores, got %d", len(results.FinalScores))
	}
	if len(publisher.eventsOfType(EventGameEnded)) != 1 {
		t.Error("Expected one game-ended broadcast")
	}

	got, err := svc.GetResults(ctx, gameID)
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if got.GameID != gameID {
		t.Errorf("Expected results for %s, got %s", gameID, got.GameID)
	}
}

func TestGameService_GetResults_BeforeEnd(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	gameID, adminToken, _ := createAndFill(t, svc)
	svc.StartGame(ctx, gameID, adminToken)

	if _, err := svc.GetResults(ctx, gameID); !errors.Is(err, engine.ErrNotEnded) {
		t.Errorf("Expected ErrNotEnded, got %v", err)
	}
}

func TestGameService_DeleteGame(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	gameID, adminToken, _ := createAndFill(t, svc)

	if err := svc.DeleteGame(ctx, gameID, adminToken); err != nil {
		t.Fatalf("DeleteGame failed: %v", err)
	}

	if _, err := svc.GetGameState(ctx, gameID); !errors.Is(err, session.ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound after delete, got %v", err)
	}
	if len(publisher.eventsOfType(EventGameDeleted)) != 1 {
		t.Error("Expected one game-deleted broadcast")
	}
	if len(publisher.evicted) != 1 || publisher.evicted[0] != gameID {
		t.Errorf("Expected watchers of %s evicted, got %v", gameID, publisher.evicted)
	}
}

func TestGameService_KickPlayer(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()
	gameID, adminToken, playerIDs := createAndFill(t, svc)

	kicked := playerIDs[engine.Distributor]
	if err := svc.KickPlayer(ctx, gameID, adminToken, kicked); err != nil {
		t.Fatalf("KickPlayer failed: %v", err)
	}

	state, _ := svc.GetGameState(ctx, gameID)
	if len(state.Players) != 3 {
		t.Errorf("Expected 3 players after kick, got %d", len(state.Players))
	}

	events := publisher.eventsOfType(EventPlayerKicked)
	if len(events) != 1 {
		t.Fatalf("Expected one player-kicked broadcast, got %d", len(events))
	}
	payload, ok := events[0].Payload.(*KickedPayload)
	if !ok || payload.PlayerID != kicked {
		t.Errorf("Expected kicked payload naming %s, got %+v", kicked, events[0].Payload)
	}
}

func TestGameService_NilPublisher(t *testing.T) {
	svc := NewGameService(session.NewRegistry(), nil)
	ctx := context.Background()

	created, err := svc.CreateGame(ctx, nil)
	if err != nil {
		t.Fatalf("CreateGame without publisher failed: %v", err)
	}
	if err := svc.DeleteGame(ctx, created.GameID, created.AdminToken); err != nil {
		t.Fatalf("DeleteGame without publisher failed: %v", err)
	}
}
