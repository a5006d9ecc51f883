package engine

import (
	"errors"
	"testing"
)

const testAdminToken = "admin-token"

func createTestConfig() *GameConfig {
	return &GameConfig{
		MaxRounds:            24,
		InventoryCostPerUnit: 0.5,
		StockoutCostPerUnit:  1.0,
		DeliveryDelay:        2,
		DemandPattern:        DemandStable,
	}
}

func createTestGame(t *testing.T) *Game {
	t.Helper()
	game, err := NewGame("game-test", createTestConfig(), testAdminToken)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	return game
}

func fillRoles(t *testing.T, game *Game) {
	t.Helper()
	for i, role := range RoleOrder {
		if err := game.AddPlayer(string(rune('a'+i)), "Player "+string(role), role); err != nil {
			t.Fatalf("Failed to add %s: %v", role, err)
		}
	}
}

func startTestGame(t *testing.T) *Game {
	t.Helper()
	game := createTestGame(t)
	fillRoles(t, game)
	if err := game.Start(); err != nil {
		t.Fatalf("Failed to start game: %v", err)
	}
	return game
}

func playerByRole(t *testing.T, state *GameState, role Role) *Player {
	t.Helper()
	for _, p := range state.Players {
		if p.Role == role {
			return p
		}
	}
	t.Fatalf("No player with role %s in snapshot", role)
	return nil
}

func TestNewGame(t *testing.T) {
	game := createTestGame(t)

	state := game.Snapshot()
	if state.Round != 0 {
		t.Errorf("Expected round 0 in lobby, got %d", state.Round)
	}
	if state.IsStarted || state.IsEnded {
		t.Error("Expected new game to be neither started nor ended")
	}
	if len(state.CustomerDemand) != 24 {
		t.Errorf("Expected 24 scheduled demands, got %d", len(state.CustomerDemand))
	}
	if !game.Authorize(testAdminToken) {
		t.Error("Expected admin token to authorize")
	}
	if game.Authorize("guess") {
		t.Error("Expected wrong token to be rejected")
	}
}

func TestNewGame_InvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GameConfig)
	}{
		{"zero rounds", func(c *GameConfig) { c.MaxRounds = 0 }},
		{"zero delay", func(c *GameConfig) { c.DeliveryDelay = 0 }},
		{"negative inventory cost", func(c *GameConfig) { c.InventoryCostPerUnit = -1 }},
		{"negative stockout cost", func(c *GameConfig) { c.StockoutCostPerUnit = -1 }},
		{"unknown pattern", func(c *GameConfig) { c.DemandPattern = "chaotic" }},
		{"negative custom demand", func(c *GameConfig) {
			c.DemandPattern = DemandCustom
			c.CustomDemand = []int{4, -1}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := createTestConfig()
			tc.mutate(config)
			if _, err := NewGame("g", config, testAdminToken); err == nil {
				t.Error("Expected error for invalid config")
			}
		})
	}
}

func TestGame_AddPlayer(t *testing.T) {
	t.Run("role collision evicts the previous holder", func(t *testing.T) {
		game := createTestGame(t)

		game.AddPlayer("p1", "Alice", Retailer)
		game.AddPlayer("p2", "Bob", Retailer)

		state := game.Snapshot()
		if len(state.Players) != 1 {
			t.Fatalf("Expected exactly one retailer, got %d players", len(state.Players))
		}
		if state.Players[0].ID != "p2" {
			t.Errorf("Expected latest joiner p2 to hold the role, got %s", state.Players[0].ID)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		game := createTestGame(t)
		if err := game.AddPlayer("p1", "Alice", Role("customer")); !errors.Is(err, ErrInvalidRole) {
			t.Errorf("Expected ErrInvalidRole, got %v", err)
		}
	})

	t.Run("ended game rejects joins", func(t *testing.T) {
		game := createTestGame(t)
		game.ForceEnd()
		if err := game.AddPlayer("p1", "Alice", Retailer); !errors.Is(err, ErrEnded) {
			t.Errorf("Expected ErrEnded, got %v", err)
		}
	})
}

func TestGame_RemovePlayer(t *testing.T) {
	game := createTestGame(t)
	fillRoles(t, game)

	game.RemovePlayer("a")

	state := game.Snapshot()
	if len(state.Players) != 3 {
		t.Errorf("Expected 3 players after removal, got %d", len(state.Players))
	}

	// Removing an unknown id is a no-op.
	game.RemovePlayer("nope")
	if len(game.Snapshot().Players) != 3 {
		t.Error("Removing unknown player changed state")
	}
}

func TestGame_Start(t *testing.T) {
	t.Run("requires four roles", func(t *testing.T) {
		game := createTestGame(t)
		game.AddPlayer("p1", "Alice", Retailer)
		game.AddPlayer("p2", "Bob", Wholesaler)
		game.AddPlayer("p3", "Carol", Distributor)

		if err := game.Start(); !errors.Is(err, ErrInsufficientPlayers) {
			t.Errorf("Expected ErrInsufficientPlayers, got %v", err)
		}
		if game.Snapshot().IsStarted {
			t.Error("Failed start must leave the game in the lobby")
		}
	})

	t.Run("starts with four roles", func(t *testing.T) {
		game := createTestGame(t)
		fillRoles(t, game)

		if err := game.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		state := game.Snapshot()
		if !state.IsStarted || state.Round != 1 {
			t.Errorf("Expected started game at round 1, got started=%v round=%d", state.IsStarted, state.Round)
		}
	})

	t.Run("double start", func(t *testing.T) {
		game := startTestGame(t)
		if err := game.Start(); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("Expected ErrAlreadyStarted, got %v", err)
		}
	})
}

func TestGame_PlaceOrder(t *testing.T) {
	game := startTestGame(t)

	t.Run("records order and flag", func(t *testing.T) {
		if err := game.PlaceOrder("a", 4); err != nil {
			t.Fatalf("PlaceOrder failed: %v", err)
		}
		p := playerByRole(t, game.Snapshot(), Retailer)
		if p.CurrentOrder != 4 || !p.HasOrdered {
			t.Errorf("Expected order 4 recorded, got order=%d has_ordered=%v", p.CurrentOrder, p.HasOrdered)
		}
	})

	t.Run("negative quantity", func(t *testing.T) {
		if err := game.PlaceOrder("a", -1); !errors.Is(err, ErrNegativeQuantity) {
			t.Errorf("Expected ErrNegativeQuantity, got %v", err)
		}
	})

	t.Run("unknown player", func(t *testing.T) {
		if err := game.PlaceOrder("ghost", 4); !errors.Is(err, ErrPlayerNotFound) {
			t.Errorf("Expected ErrPlayerNotFound, got %v", err)
		}
	})

	t.Run("before start", func(t *testing.T) {
		lobby := createTestGame(t)
		lobby.AddPlayer("p1", "Alice", Retailer)
		if err := lobby.PlaceOrder("p1", 4); !errors.Is(err, ErrNotStarted) {
			t.Errorf("Expected ErrNotStarted, got %v", err)
		}
	})

	t.Run("after end", func(t *testing.T) {
		ended := startTestGame(t)
		ended.ForceEnd()
		if err := ended.PlaceOrder("a", 4); !errors.Is(err, ErrEnded) {
			t.Errorf("Expected ErrEnded, got %v", err)
		}
	})
}

func TestGame_ProcessRound_FirstRoundScenario(t *testing.T) {
	// Classic setup: 24 rounds, delay 2, stable demand. After round one the
	// retailer served demand 4 from stock and every transit queue holds the
	// single shipment queued this round, nothing released yet.
	game := startTestGame(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := game.PlaceOrder(id, 4); err != nil {
			t.Fatalf("PlaceOrder(%s) failed: %v", id, err)
		}
	}

	if err := game.ProcessRound(); err != nil {
		t.Fatalf("ProcessRound failed: %v", err)
	}

	state := game.Snapshot()
	if state.Round != 2 {
		t.Errorf("Expected round counter 2, got %d", state.Round)
	}

	retailer := playerByRole(t, state, Retailer)
	if retailer.Inventory != 8 {
		t.Errorf("Expected retailer inventory 12-4=8, got %d", retailer.Inventory)
	}

	for _, p := range state.Players {
		if len(p.IncomingDeliveries) != 1 || p.IncomingDeliveries[0] != 4 {
			t.Errorf("%s: expected transit queue [4], got %v", p.Role, p.IncomingDeliveries)
		}
		if p.LastDelivery != 0 {
			t.Errorf("%s: expected no delivery released in round 1, got %d", p.Role, p.LastDelivery)
		}
		if p.CurrentOrder != 0 || p.HasOrdered {
			t.Errorf("%s: expected orders reset after processing", p.Role)
		}
	}

	// Costs: upstream roles fulfilled 4 from 12 -> 8 on hand at 0.5/unit.
	wholesaler := playerByRole(t, state, Wholesaler)
	if wholesaler.TotalCost != 8*0.5 {
		t.Errorf("Expected wholesaler cost 4.0, got %v", wholesaler.TotalCost)
	}
}

func TestGame_ProcessRound_CascadeIsSequential(t *testing.T) {
	// The wholesaler's shipment to the retailer must be reflected in the
	// wholesaler's own inventory before the distributor fulfills the
	// wholesaler's order.
	game := startTestGame(t)

	game.PlaceOrder("a", 10) // retailer orders 10 from wholesaler
	game.PlaceOrder("b", 6)  // wholesaler orders 6 from distributor
	game.PlaceOrder("c", 0)
	game.PlaceOrder("d", 0)

	if err := game.ProcessRound(); err != nil {
		t.Fatalf("ProcessRound failed: %v", err)
	}

	state := game.Snapshot()
	wholesaler := playerByRole(t, state, Wholesaler)
	distributor := playerByRole(t, state, Distributor)

	// Wholesaler shipped 10 of 12, then received nothing yet; distributor
	// shipped 6 of 12 regardless of the wholesaler's depletion.
	if wholesaler.Inventory != 2 {
		t.Errorf("Expected wholesaler inventory 2, got %d", wholesaler.Inventory)
	}
	if distributor.Inventory != 6 {
		t.Errorf("Expected distributor inventory 6, got %d", distributor.Inventory)
	}
	if wholesaler.IncomingDeliveries[0] != 6 {
		t.Errorf("Expected wholesaler transit queue [6], got %v", wholesaler.IncomingDeliveries)
	}
}

func TestGame_ProcessRound_UnorderedTreatedAsZero(t *testing.T) {
	game := startTestGame(t)

	// Only the retailer orders; processing still succeeds.
	game.PlaceOrder("a", 5)
	if err := game.ProcessRound(); err != nil {
		t.Fatalf("ProcessRound with missing orders failed: %v", err)
	}

	state := game.Snapshot()
	wholesaler := playerByRole(t, state, Wholesaler)
	if wholesaler.IncomingDeliveries[0] != 0 {
		t.Errorf("Expected zero shipment for unordered wholesaler, got %v", wholesaler.IncomingDeliveries)
	}
}

func TestGame_ProcessRound_FactorySelfSupply(t *testing.T) {
	game := startTestGame(t)

	game.PlaceOrder("d", 7)
	game.ProcessRound()

	factory := playerByRole(t, game.Snapshot(), Factory)
	if len(factory.IncomingDeliveries) != 1 || factory.IncomingDeliveries[0] != 7 {
		t.Errorf("Expected factory to queue its own order [7], got %v", factory.IncomingDeliveries)
	}

	// A zero order queues nothing.
	game.ProcessRound()
	factory = playerByRole(t, game.Snapshot(), Factory)
	if len(factory.IncomingDeliveries) != 1 {
		t.Errorf("Expected zero factory order to queue nothing, got %v", factory.IncomingDeliveries)
	}
}

func TestGame_ProcessRound_EndsAfterMaxRounds(t *testing.T) {
	config := createTestConfig()
	config.MaxRounds = 3
	game, err := NewGame("short", config, testAdminToken)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	fillRoles(t, game)
	game.Start()

	for i := 0; i < 3; i++ {
		if err := game.ProcessRound(); err != nil {
			t.Fatalf("Round %d failed: %v", i+1, err)
		}
	}

	state := game.Snapshot()
	if !state.IsEnded {
		t.Error("Expected game to end after max rounds")
	}
	if err := game.ProcessRound(); !errors.Is(err, ErrEnded) {
		t.Errorf("Expected ErrEnded processing past the end, got %v", err)
	}
}

func TestGame_ProcessRound_RequiresActive(t *testing.T) {
	game := createTestGame(t)
	if err := game.ProcessRound(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}
}

func TestGame_OverrideDemand(t *testing.T) {
	game := startTestGame(t)
	game.ProcessRound() // now at round 2

	t.Run("future round", func(t *testing.T) {
		if err := game.OverrideDemand(5, 20); err != nil {
			t.Fatalf("OverrideDemand failed: %v", err)
		}
		if got := game.Snapshot().CustomerDemand[5]; got != 20 {
			t.Errorf("Expected overridden demand 20, got %d", got)
		}
	})

	t.Run("elapsed round is immutable", func(t *testing.T) {
		if err := game.OverrideDemand(0, 99); !errors.Is(err, ErrInvalidRoundIndex) {
			t.Errorf("Expected ErrInvalidRoundIndex for past round, got %v", err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		if err := game.OverrideDemand(24, 1); !errors.Is(err, ErrInvalidRoundIndex) {
			t.Errorf("Expected ErrInvalidRoundIndex, got %v", err)
		}
		if err := game.OverrideDemand(-1, 1); !errors.Is(err, ErrInvalidRoundIndex) {
			t.Errorf("Expected ErrInvalidRoundIndex, got %v", err)
		}
	})

	t.Run("negative value", func(t *testing.T) {
		if err := game.OverrideDemand(10, -4); !errors.Is(err, ErrNegativeQuantity) {
			t.Errorf("Expected ErrNegativeQuantity, got %v", err)
		}
	})
}

func TestGame_ForceEnd(t *testing.T) {
	game := startTestGame(t)

	game.ForceEnd()
	if !game.Snapshot().IsEnded {
		t.Error("Expected game ended")
	}

	// Idempotent.
	game.ForceEnd()
	if !game.Snapshot().IsEnded {
		t.Error("Expected game to stay ended")
	}
}

func TestGame_Snapshot_IsDeepCopy(t *testing.T) {
	game := startTestGame(t)
	game.PlaceOrder("a", 4)

	state := game.Snapshot()
	state.Players[0].Inventory = 999
	state.CustomerDemand[0] = 999

	fresh := game.Snapshot()
	if fresh.Players[0].Inventory == 999 {
		t.Error("Snapshot shares player state with the live game")
	}
	if fresh.CustomerDemand[0] == 999 {
		t.Error("Snapshot shares the demand schedule with the live game")
	}
}

func TestGame_Snapshot_AllOrdered(t *testing.T) {
	game := startTestGame(t)

	if game.Snapshot().AllOrdered {
		t.Error("Expected all_ordered false before any orders")
	}
	for _, id := range []string{"a", "b", "c"} {
		game.PlaceOrder(id, 4)
	}
	if game.Snapshot().AllOrdered {
		t.Error("Expected all_ordered false with one order missing")
	}
	game.PlaceOrder("d", 4)
	if !game.Snapshot().AllOrdered {
		t.Error("Expected all_ordered true once every role ordered")
	}
}
