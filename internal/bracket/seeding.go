package bracket

import "math"

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// generateRound1Pairs returns seed index pairs for the first round of a bracket
// of the given size, so that the top seeds only meet late. Indexes past the
// number of actual entrants mean a bye.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i+1 < len(rounds); i += 2 {
		matchup := [2]int{rounds[i], rounds[i+1]}
		pairs = append(pairs, matchup)
	}

	return pairs
}
