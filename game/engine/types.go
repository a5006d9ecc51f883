package engine

import (
	"errors"
	"fmt"
)

// Role identifies a position in the supply chain, ordered downstream to upstream.
type Role string

const (
	Retailer    Role = "retailer"
	Wholesaler  Role = "wholesaler"
	Distributor Role = "distributor"
	Factory     Role = "factory"

	// InitialInventory is the stock every player starts with.
	InitialInventory = 12

	// MinDeliveryDelay is the smallest allowed transit lag in rounds.
	MinDeliveryDelay = 1
)

// RoleOrder lists the chain from the customer-facing end to the source.
// The order cascade in ProcessRound walks adjacent pairs of this slice.
var RoleOrder = []Role{Retailer, Wholesaler, Distributor, Factory}

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case Retailer, Wholesaler, Distributor, Factory:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// DemandPattern selects how the customer demand schedule is generated.
type DemandPattern string

const (
	DemandStable     DemandPattern = "stable"
	DemandIncreasing DemandPattern = "increasing"
	DemandRandom     DemandPattern = "random"
	DemandCustom     DemandPattern = "custom"
)

// Command errors. Transports map these onto their own status codes, so they
// must stay comparable with errors.Is.
var (
	ErrInvalidRole         = errors.New("invalid role")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNotStarted          = errors.New("game not started")
	ErrAlreadyStarted      = errors.New("game already started")
	ErrEnded               = errors.New("game already ended")
	ErrNotEnded            = errors.New("game not ended")
	ErrInsufficientPlayers = errors.New("need 4 players to start")
	ErrNegativeQuantity    = errors.New("quantity cannot be negative")
	ErrInvalidRoundIndex   = errors.New("invalid round index")
)

// GameConfig defines the parameters of one session, fixed at creation.
type GameConfig struct {
	MaxRounds            int           `json:"max_rounds"`
	InventoryCostPerUnit float64       `json:"inventory_cost_per_unit"`
	StockoutCostPerUnit  float64       `json:"stockout_cost_per_unit"`
	DeliveryDelay        int           `json:"delivery_delay"`
	DemandPattern        DemandPattern `json:"demand_pattern"`
	CustomDemand         []int         `json:"custom_demand,omitempty"`
}

// DefaultConfig returns the classic game setup.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		MaxRounds:            24,
		InventoryCostPerUnit: 0.5,
		StockoutCostPerUnit:  1.0,
		DeliveryDelay:        2,
		DemandPattern:        DemandStable,
	}
}

// ValidateGameConfig checks a configuration before a game is created.
func ValidateGameConfig(c *GameConfig) error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	}
	if c.DeliveryDelay < MinDeliveryDelay {
		return fmt.Errorf("delivery_delay must be at least %d, got %d", MinDeliveryDelay, c.DeliveryDelay)
	}
	if c.InventoryCostPerUnit < 0 {
		return fmt.Errorf("inventory_cost_per_unit cannot be negative, got %v", c.InventoryCostPerUnit)
	}
	if c.StockoutCostPerUnit < 0 {
		return fmt.Errorf("stockout_cost_per_unit cannot be negative, got %v", c.StockoutCostPerUnit)
	}
	switch c.DemandPattern {
	case DemandStable, DemandIncreasing, DemandRandom:
	case DemandCustom:
		for i, v := range c.CustomDemand {
			if v < 0 {
				return fmt.Errorf("custom_demand[%d] cannot be negative, got %d", i, v)
			}
		}
	default:
		return fmt.Errorf("unknown demand_pattern %q", c.DemandPattern)
	}
	return nil
}

// GameState is a complete, point-in-time copy of a session's externally
// visible state. Player entries are deep copies; mutating a snapshot never
// touches the live game.
type GameState struct {
	ID                   string        `json:"id"`
	Round                int           `json:"round"`
	MaxRounds            int           `json:"max_rounds"`
	Players              []*Player     `json:"players"`
	CustomerDemand       []int         `json:"customer_demand"`
	IsStarted            bool          `json:"is_started"`
	IsEnded              bool          `json:"is_ended"`
	AllOrdered           bool          `json:"all_ordered"`
	InventoryCostPerUnit float64       `json:"inventory_cost_per_unit"`
	StockoutCostPerUnit  float64       `json:"stockout_cost_per_unit"`
	DeliveryDelay        int           `json:"delivery_delay"`
	DemandPattern        DemandPattern `json:"demand_pattern"`
}

// RoundRecord is an immutable snapshot taken after processing one round.
// Players are deep copies captured before orders were cleared.
type RoundRecord struct {
	Round          int       `json:"round"`
	CustomerDemand int       `json:"customer_demand"`
	Players        []*Player `json:"player_states"`
}
