// Package engine provides the core game logic for the beer distribution game.
//
// The engine package implements the authoritative simulation including:
//   - The four-role supply chain (retailer, wholesaler, distributor, factory)
//   - Customer demand schedules (stable, increasing, random, custom)
//   - The per-round state transition: delivery release, demand fulfillment,
//     the downstream-to-upstream order cascade, cost accrual, and history capture
//   - Game lifecycle (lobby, active, ended) and admin-only overrides
//   - Final results with per-role cost ranking and the bullwhip index
//
// Core Types:
//
// Game is the single authoritative owner of one session's state; all of its
// exported commands are safe for concurrent use and serialize against each
// other, so two concurrent ProcessRound or PlaceOrder calls can never
// interleave mid-mutation. Player holds the per-role ledger (inventory,
// backlog, pending deliveries, accrued cost). GameConfig defines the session
// parameters and GameState is the deep-copied snapshot handed to transports.
//
// Usage:
//
//	cfg := engine.DefaultConfig()
//	game, err := engine.NewGame("game-1a2b", cfg, adminToken)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game.AddPlayer("p1", "Alice", engine.Retailer)
//	// ... add wholesaler, distributor, factory ...
//	if err := game.Start(); err != nil {
//		log.Fatal(err)
//	}
//
//	game.PlaceOrder("p1", 4)
//	if err := game.ProcessRound(); err != nil {
//		log.Fatal(err)
//	}
//	state := game.Snapshot()
//
// Round Semantics:
//
// Goods ordered from an upstream role are queued on the downstream player's
// incoming-delivery queue the same round they are fulfilled and become
// available exactly DeliveryDelay rounds later; the queue length, not a
// timestamp, encodes the transit lag. Backlog is cumulative unmet demand and
// clears only through full fulfillment. A participant who has not ordered when
// the admin processes a round is treated as having ordered zero.
package engine
