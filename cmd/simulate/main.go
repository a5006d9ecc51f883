// Command simulate runs a full game offline with scripted players and prints
// the per-role cost breakdown and the bullwhip index. Useful for sanity
// checking scenario presets and for demonstrating how ordering behavior
// amplifies demand variance along the chain.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/supplysim/beergame/game/config"
	"github.com/supplysim/beergame/game/engine"
)

var (
	presetID = flag.String("preset", config.DefaultPresetID, "Scenario preset to simulate")
	policy   = flag.String("policy", "chase", "Ordering policy: steady, chase or anxious")
)

func main() {
	flag.Parse()

	presets, err := config.NewManager("")
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}

	gameConfig, err := presets.Get(*presetID)
	if err != nil {
		log.Fatalf("Unknown preset %q: %v", *presetID, err)
	}

	orderFor, err := policyFunc(*policy)
	if err != nil {
		log.Fatal(err)
	}

	results, err := runSimulation(gameConfig, orderFor)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	fmt.Printf("Preset %q, policy %q, %d rounds\n\n", *presetID, *policy, len(results.Rounds))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "rank\trole\ttotal cost")
	for i, score := range results.FinalScores {
		fmt.Fprintf(w, "%d\t%s\t%.2f\n", i+1, score.Role, score.TotalCost)
	}
	w.Flush()

	fmt.Printf("\nBullwhip index: %.2f\n", results.BullwhipIndex)
}

// runSimulation plays every round with the given policy and returns the
// results.
func runSimulation(gameConfig *engine.GameConfig, orderFor orderPolicy) (*engine.GameResults, error) {
	game, err := engine.NewGame("sim", gameConfig, "sim-admin")
	if err != nil {
		return nil, err
	}

	ids := make(map[engine.Role]string, len(engine.RoleOrder))
	for _, role := range engine.RoleOrder {
		id := "bot-" + string(role)
		if err := game.AddPlayer(id, "Bot "+string(role), role); err != nil {
			return nil, err
		}
		ids[role] = id
	}

	if err := game.Start(); err != nil {
		return nil, err
	}

	for state := game.Snapshot(); !state.IsEnded; state = game.Snapshot() {
		demand := 0
		if state.Round-1 < len(state.CustomerDemand) {
			demand = state.CustomerDemand[state.Round-1]
		}

		// Each role reacts to the signal arriving from downstream: the
		// retailer sees the customer, everyone else sees the order their
		// downstream partner placed last round.
		signal := demand
		for _, role := range engine.RoleOrder {
			quantity := orderFor(signal, playerByRole(state, role))
			if err := game.PlaceOrder(ids[role], quantity); err != nil {
				return nil, err
			}
			signal = quantity
		}

		if err := game.ProcessRound(); err != nil {
			return nil, err
		}
	}

	return game.Results()
}

// orderPolicy decides a round's order from the incoming demand signal and the
// player's own position.
type orderPolicy func(signal int, p *engine.Player) int

func policyFunc(name string) (orderPolicy, error) {
	switch name {
	case "steady":
		// Ignore the signal and always order the baseline.
		return func(int, *engine.Player) int { return 4 }, nil

	case "chase":
		// Match the incoming signal one for one.
		return func(signal int, _ *engine.Player) int { return signal }, nil

	case "anxious":
		// Over-order whenever backlogged, the classic bullwhip driver.
		return func(signal int, p *engine.Player) int {
			order := signal
			if p != nil && p.Backlog > 0 {
				order += p.Backlog
			}
			return order
		}, nil

	default:
		return nil, fmt.Errorf("unknown policy %q (want steady, chase or anxious)", name)
	}
}

func playerByRole(state *engine.GameState, role engine.Role) *engine.Player {
	for _, p := range state.Players {
		if p.Role == role {
			return p
		}
	}
	return nil
}
