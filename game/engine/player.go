package engine

// Player is the per-role ledger of one participant: stock on hand, unmet
// demand carried forward, goods in transit, and accrued cost.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`

	Inventory int `json:"inventory"`
	Backlog   int `json:"backlog"`

	// IncomingDeliveries is the FIFO transit queue; index 0 is the oldest
	// shipment and the next to arrive.
	IncomingDeliveries []int `json:"incoming_deliveries"`

	// OutgoingOrders records every order this player has placed, in order.
	OutgoingOrders []int `json:"outgoing_orders"`

	CurrentOrder int     `json:"current_order"`
	HasOrdered   bool    `json:"has_ordered"`
	TotalCost    float64 `json:"total_cost"`
	LastDelivery int     `json:"last_delivery"`
}

// NewPlayer creates a participant for the given role with the standard
// starting inventory.
func NewPlayer(id, name string, role Role) *Player {
	return &Player{
		ID:                 id,
		Name:               name,
		Role:               role,
		Inventory:          InitialInventory,
		IncomingDeliveries: []int{},
		OutgoingOrders:     []int{},
	}
}

// PlaceOrder records this round's order. Inventory does not move until the
// round is processed.
func (p *Player) PlaceOrder(quantity int) {
	p.CurrentOrder = quantity
	p.HasOrdered = true
	p.OutgoingOrders = append(p.OutgoingOrders, quantity)
}

// FulfillOrder services backlog plus the requested quantity from inventory
// and returns the amount actually delivered. If inventory falls short, the
// whole remaining stock ships and the shortfall is carried as backlog. This is
// the single fulfillment primitive: the retailer uses it against customer
// demand and every upstream role uses it against its downstream order.
func (p *Player) FulfillOrder(requested int) int {
	need := p.Backlog + requested
	if p.Inventory >= need {
		p.Inventory -= need
		p.Backlog = 0
		return need
	}

	delivered := p.Inventory
	p.Inventory = 0
	p.Backlog = need - delivered
	return delivered
}

// ReleaseDueDeliveries pops the oldest pending shipment into inventory once
// the transit queue is strictly longer than the delivery delay. The length
// threshold encodes the lag: a shipment queued in round R arrives exactly
// deliveryDelay rounds later.
func (p *Player) ReleaseDueDeliveries(deliveryDelay int) {
	if len(p.IncomingDeliveries) <= deliveryDelay {
		return
	}
	delivery := p.IncomingDeliveries[0]
	p.IncomingDeliveries = p.IncomingDeliveries[1:]
	p.LastDelivery = delivery
	p.Inventory += delivery
}

// AccrueCost charges this round's holding and stockout cost and returns it.
func (p *Player) AccrueCost(inventoryRate, stockoutRate float64) float64 {
	roundCost := float64(p.Inventory)*inventoryRate + float64(p.Backlog)*stockoutRate
	p.TotalCost += roundCost
	return roundCost
}

// Clone returns a deep copy safe to hand outside the engine.
func (p *Player) Clone() *Player {
	c := *p
	c.IncomingDeliveries = append([]int{}, p.IncomingDeliveries...)
	c.OutgoingOrders = append([]int{}, p.OutgoingOrders...)
	return &c
}
