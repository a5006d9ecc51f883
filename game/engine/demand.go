package engine

import "math/rand/v2"

// baselineDemand is the warm-up demand shared by every pattern.
const baselineDemand = 4

// GenerateDemand produces the customer demand schedule for a full game.
// The result always has length maxRounds (empty for maxRounds <= 0) and only
// non-negative values. Random demand is drawn here exactly once; the caller
// stores the result for the session's lifetime and never regenerates it.
func GenerateDemand(pattern DemandPattern, maxRounds int, custom []int) []int {
	if maxRounds <= 0 {
		return []int{}
	}

	demands := make([]int, 0, maxRounds)
	for round := 1; round <= maxRounds; round++ {
		demands = append(demands, demandForRound(pattern, round, maxRounds, custom))
	}
	return demands
}

func demandForRound(pattern DemandPattern, round, maxRounds int, custom []int) int {
	switch pattern {
	case DemandStable:
		if round <= 4 {
			return 4
		}
		return 8

	case DemandIncreasing:
		switch {
		case round <= 4:
			return 4
		case round <= 8:
			return 8
		case round <= 12:
			return 12
		case float64(round) <= float64(maxRounds)*0.7:
			return 16
		default:
			return 20
		}

	case DemandRandom:
		if round <= 4 {
			return 4
		}
		// Uniform integer in [2,12].
		return rand.IntN(11) + 2

	case DemandCustom:
		if len(custom) == 0 {
			return baselineDemand
		}
		if round-1 < len(custom) {
			return custom[round-1]
		}
		// Past the supplied sequence the last value repeats.
		return custom[len(custom)-1]

	default:
		return baselineDemand
	}
}
