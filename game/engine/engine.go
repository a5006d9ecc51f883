package engine

import (
	"crypto/subtle"
	"sync"
	"time"
)

// Game is the authoritative state of one session. All exported commands lock
// internally, so commands against the same game serialize while independent
// games proceed in parallel. A command either fully applies or returns an
// error having changed nothing.
type Game struct {
	mu sync.RWMutex

	id         string
	adminToken string
	config     *GameConfig
	createdAt  time.Time

	round   int
	demand  []int
	players map[Role]*Player
	started bool
	ended   bool
	history []RoundRecord
}

// NewGame creates a session in the lobby state. The demand schedule is
// generated here once and reused for the session's lifetime.
func NewGame(id string, config *GameConfig, adminToken string) (*Game, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return &Game{
		id:         id,
		adminToken: adminToken,
		config:     config,
		createdAt:  time.Now(),
		demand:     GenerateDemand(config.DemandPattern, config.MaxRounds, config.CustomDemand),
		players:    make(map[Role]*Player),
	}, nil
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.id
}

// CreatedAt returns when the game was created.
func (g *Game) CreatedAt() time.Time {
	return g.createdAt
}

// Authorize reports whether token matches the admin credential minted at
// creation. The comparison is constant-time; the token itself carries no
// cryptographic meaning beyond being unguessable.
func (g *Game) Authorize(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.adminToken)) == 1
}

// AddPlayer registers a participant, silently evicting any prior holder of
// the same role. Joining is allowed in the lobby and mid-game, but not after
// the game has ended.
func (g *Game) AddPlayer(id, name string, role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return ErrEnded
	}

	g.players[role] = NewPlayer(id, name, role)
	return nil
}

// RemovePlayer ejects a participant by id. Removing an unknown id is a no-op.
func (g *Game) RemovePlayer(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for role, p := range g.players {
		if p.ID == playerID {
			delete(g.players, role)
			return
		}
	}
}

// Start transitions the lobby to active. It fails unless all four roles are
// occupied by distinct participants.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return ErrEnded
	}
	if g.started {
		return ErrAlreadyStarted
	}
	if len(g.players) != len(RoleOrder) {
		return ErrInsufficientPlayers
	}

	g.started = true
	g.round = 1
	return nil
}

// PlaceOrder records a participant's order for the current round. Inventory
// does not move until the admin processes the round.
func (g *Game) PlaceOrder(playerID string, quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return ErrNotStarted
	}
	if g.ended {
		return ErrEnded
	}

	player := g.playerByID(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}

	player.PlaceOrder(quantity)
	return nil
}

// ProcessRound advances the game by exactly one round. The step order is
// load-bearing: deliveries release before demand, the cascade runs strictly
// retailer to factory so each upstream fulfillment sees the chain state left
// by the previous pair, and the history snapshot is taken before orders clear.
func (g *Game) ProcessRound() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return ErrNotStarted
	}
	if g.ended {
		return ErrEnded
	}

	currentDemand := 0
	if g.round-1 >= 0 && g.round-1 < len(g.demand) {
		currentDemand = g.demand[g.round-1]
	}

	// 1. Release shipments whose transit lag has elapsed.
	for _, p := range g.players {
		p.ReleaseDueDeliveries(g.config.DeliveryDelay)
	}

	// 2. Customer demand hits the retailer. Whatever ships leaves the system;
	// customers are not queueable.
	if retailer := g.players[Retailer]; retailer != nil {
		retailer.FulfillOrder(currentDemand)
	}

	// 3. Order cascade, downstream to upstream, sequentially.
	for i := 0; i < len(RoleOrder)-1; i++ {
		downstream := g.players[RoleOrder[i]]
		upstream := g.players[RoleOrder[i+1]]
		if downstream == nil || upstream == nil {
			continue
		}

		delivered := upstream.FulfillOrder(downstream.CurrentOrder)
		downstream.IncomingDeliveries = append(downstream.IncomingDeliveries, delivered)
	}

	// 4. The factory produces against its own order without an upstream limit.
	if factory := g.players[Factory]; factory != nil && factory.CurrentOrder > 0 {
		factory.IncomingDeliveries = append(factory.IncomingDeliveries, factory.CurrentOrder)
	}

	// 5. Holding and stockout costs.
	for _, p := range g.players {
		p.AccrueCost(g.config.InventoryCostPerUnit, g.config.StockoutCostPerUnit)
	}

	// 6. History snapshot, captured before orders reset.
	g.history = append(g.history, RoundRecord{
		Round:          g.round,
		CustomerDemand: currentDemand,
		Players:        g.clonePlayers(),
	})

	// 7. Reset orders for the next round.
	for _, p := range g.players {
		p.CurrentOrder = 0
		p.HasOrdered = false
	}

	// 8. Advance.
	g.round++
	if g.round > g.config.MaxRounds {
		g.ended = true
	}

	return nil
}

// OverrideDemand replaces the scheduled demand for a future round. The index
// is zero-based into the schedule; past and current rounds are immutable.
func (g *Game) OverrideDemand(roundIndex, value int) error {
	if value < 0 {
		return ErrNegativeQuantity
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if roundIndex < 0 || roundIndex >= len(g.demand) {
		return ErrInvalidRoundIndex
	}
	if roundIndex < g.round {
		return ErrInvalidRoundIndex
	}

	g.demand[roundIndex] = value
	return nil
}

// ForceEnd terminates the game regardless of the round counter. Idempotent.
func (g *Game) ForceEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ended = true
}

// Results computes the final cost ranking and bullwhip index. Valid only once
// the game has ended; calling it repeatedly yields identical output.
func (g *Game) Results() (*GameResults, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.ended {
		return nil, ErrNotEnded
	}

	return buildResults(g.id, g.history, g.orderedPlayers()), nil
}

// Snapshot returns a deep copy of the externally visible state.
func (g *Game) Snapshot() *GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	players := g.clonePlayers()
	allOrdered := len(players) == len(RoleOrder)
	for _, p := range players {
		if !p.HasOrdered {
			allOrdered = false
		}
	}

	return &GameState{
		ID:                   g.id,
		Round:                g.round,
		MaxRounds:            g.config.MaxRounds,
		Players:              players,
		CustomerDemand:       append([]int{}, g.demand...),
		IsStarted:            g.started,
		IsEnded:              g.ended,
		AllOrdered:           allOrdered,
		InventoryCostPerUnit: g.config.InventoryCostPerUnit,
		StockoutCostPerUnit:  g.config.StockoutCostPerUnit,
		DeliveryDelay:        g.config.DeliveryDelay,
		DemandPattern:        g.config.DemandPattern,
	}
}

// playerByID finds a player without locking; callers hold g.mu.
func (g *Game) playerByID(playerID string) *Player {
	for _, p := range g.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// orderedPlayers returns the live players in chain order; callers hold g.mu.
func (g *Game) orderedPlayers() []*Player {
	players := make([]*Player, 0, len(g.players))
	for _, role := range RoleOrder {
		if p, ok := g.players[role]; ok {
			players = append(players, p)
		}
	}
	return players
}

// clonePlayers deep-copies the live players in chain order; callers hold g.mu.
func (g *Game) clonePlayers() []*Player {
	players := make([]*Player, 0, len(g.players))
	for _, role := range RoleOrder {
		if p, ok := g.players[role]; ok {
			players = append(players, p.Clone())
		}
	}
	return players
}
