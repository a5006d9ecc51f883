package engine

import "sort"

// bullwhipWarmup is the number of leading rounds discarded before measuring
// variance, so start-up transients do not distort the index.
const bullwhipWarmup = 5

// minRoundsForBullwhip is the shortest history the index is computed for.
const minRoundsForBullwhip = 10

// PlayerScore is one row of the final cost ranking.
type PlayerScore struct {
	PlayerID  string  `json:"player_id"`
	Name      string  `json:"name"`
	Role      Role    `json:"role"`
	TotalCost float64 `json:"total_cost"`
}

// GameResults is the outcome of a completed game.
type GameResults struct {
	GameID        string        `json:"game_id"`
	Rounds        []RoundRecord `json:"rounds"`
	FinalScores   []PlayerScore `json:"final_scores"`
	BullwhipIndex float64       `json:"bullwhip_index"`
}

// buildResults assembles the final ranking and bullwhip index from the
// completed history. Pure with respect to the inputs; callers hold the lock.
func buildResults(gameID string, history []RoundRecord, players []*Player) *GameResults {
	scores := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		scores = append(scores, PlayerScore{
			PlayerID:  p.ID,
			Name:      p.Name,
			Role:      p.Role,
			TotalCost: p.TotalCost,
		})
	}
	// Rank by total cost, cheapest chain position first.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalCost < scores[j].TotalCost
	})

	return &GameResults{
		GameID:        gameID,
		Rounds:        append([]RoundRecord{}, history...),
		FinalScores:   scores,
		BullwhipIndex: BullwhipIndex(history),
	}
}

// BullwhipIndex is the ratio of factory order variance to customer demand
// variance over the post-warmup history. It is 0 for short histories and for
// flat demand, where the ratio would be undefined.
func BullwhipIndex(history []RoundRecord) float64 {
	if len(history) < minRoundsForBullwhip {
		return 0
	}

	window := history[bullwhipWarmup:]

	demands := make([]float64, 0, len(window))
	factoryOrders := make([]float64, 0, len(window))
	for _, record := range window {
		demands = append(demands, float64(record.CustomerDemand))

		order := 0
		for _, p := range record.Players {
			if p.Role == Factory {
				order = p.CurrentOrder
				break
			}
		}
		factoryOrders = append(factoryOrders, float64(order))
	}

	demandVariance := populationVariance(demands)
	if demandVariance == 0 {
		return 0
	}
	return populationVariance(factoryOrders) / demandVariance
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(values))
}
