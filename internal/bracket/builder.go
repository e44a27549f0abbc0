package bracket

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"slices"
	"time"
)

const (
	DefaultGroupStageThreshold = 32
	DefaultMaxGroupSize        = 8
)

// Fixed knockout tail played after a group stage
var groupTailSizes = []int{8, 4, 2, 1}

type Options struct {
	// Resolve single-team matches as soon as no opponent can arrive anymore
	AutoResolveByes bool

	// Fields larger than this start with a group stage. Zero means DefaultGroupStageThreshold.
	GroupStageThreshold int
	MaxGroupSize        int
}

func DefaultOptions() Options {
	return Options{
		AutoResolveByes:     true,
		GroupStageThreshold: DefaultGroupStageThreshold,
		MaxGroupSize:        DefaultMaxGroupSize,
	}
}

func (o Options) groupThreshold() int {
	if o.GroupStageThreshold <= 0 {
		return DefaultGroupStageThreshold
	}
	return o.GroupStageThreshold
}

func (o Options) groupSize() int {
	if o.MaxGroupSize <= 0 {
		return DefaultMaxGroupSize
	}
	return o.MaxGroupSize
}

// NewRand returns a deterministic PRNG for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Build shuffles the teams with rng and lays out the stages for the field size.
// Only the first stage gets teams, later stages fill up through progression.
// A nil rng is seeded from the clock.
func Build(teams []Team, rng *rand.Rand, opts Options) Bracket {
	if rng == nil {
		rng = NewRand(uint64(time.Now().UnixNano()))
	}

	shuffled := slices.Clone(teams)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var b Bracket
	if len(shuffled) > opts.groupThreshold() {
		b = buildGroupBracket(shuffled, opts.groupSize())
	} else {
		b = buildKnockoutBracket(shuffled)
	}

	assignMatchIDs(b)

	if opts.AutoResolveByes {
		b.ResolveByes()
	}
	return b
}

// knockoutStageCount is the number of elimination stages needed for n teams.
func knockoutStageCount(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(calcBracketSize(n))) - 1
}

// knockoutStageName names a stage by its distance from the final.
func knockoutStageName(fromFinal int) string {
	switch fromFinal {
	case 0:
		return StageFinal
	case 1:
		return StageSemifinals
	case 2:
		return StageQuarterfinals
	}
	return fmt.Sprintf("Round of %d", 1<<(fromFinal+1))
}

func buildKnockoutBracket(teams []Team) Bracket {
	stageCount := knockoutStageCount(len(teams))
	b := make(Bracket, 0, stageCount)

	first := Stage{
		Name:    knockoutStageName(stageCount - 1),
		Kind:    KnockoutStage,
		Seeded:  true,
		Matches: pairConsecutive(teams),
	}
	if len(first.Matches) == 0 {
		first.Matches = []Match{{Status: MatchPending}}
	}
	b = append(b, first)

	size := len(first.Matches)
	for s := 1; s < stageCount; s++ {
		size = (size + 1) / 2
		b = append(b, emptyStage(knockoutStageName(stageCount-1-s), size))
	}
	return b
}

// pairConsecutive pairs teams 0-1, 2-3, ... An odd team out plays alone.
func pairConsecutive(teams []Team) []Match {
	matches := make([]Match, 0, (len(teams)+1)/2)
	for i := 0; i < len(teams); i += 2 {
		m := Match{Status: MatchPending}
		t1 := teams[i]
		m.Team1 = &t1
		if i+1 < len(teams) {
			t2 := teams[i+1]
			m.Team2 = &t2
		}
		matches = append(matches, m)
	}
	return matches
}

func emptyStage(name string, size int) Stage {
	st := Stage{Name: name, Kind: KnockoutStage, Matches: make([]Match, size)}
	for i := range st.Matches {
		st.Matches[i].Status = MatchPending
	}
	return st
}

func buildGroupBracket(teams []Team, maxGroupSize int) Bracket {
	groupCount := (len(teams) + maxGroupSize - 1) / maxGroupSize

	// Deal like cards so group sizes differ by at most one
	groups := make([][]Team, groupCount)
	for i, t := range teams {
		groups[i%groupCount] = append(groups[i%groupCount], t)
	}

	groupStage := Stage{
		Name:   groupStageName(groupCount),
		Kind:   GroupStage,
		Seeded: true,
	}
	for g, members := range groups {
		label := groupLabel(g)
		for _, pair := range roundRobin(members) {
			t1, t2 := pair[0], pair[1]
			groupStage.Matches = append(groupStage.Matches, Match{
				Team1:  &t1,
				Team2:  &t2,
				Status: MatchPending,
				Group:  label,
			})
		}
	}

	b := Bracket{groupStage}
	for i, size := range groupTailSizes {
		b = append(b, emptyStage(knockoutStageName(len(groupTailSizes)-1-i), size))
	}
	return b
}

// groupLabel maps 0 -> A, 25 -> Z, 26 -> AA.
func groupLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}

// roundRobin pairs every team with every other team once, ordered by match
// day using the circle method.
func roundRobin(teams []Team) [][2]Team {
	slots := make([]*Team, len(teams))
	for i := range teams {
		slots[i] = &teams[i]
	}
	// nil is the dummy opponent, playing it means sitting out that match day
	if len(slots)%2 != 0 {
		slots = append(slots, nil)
	}

	n := len(slots)
	var pairs [][2]Team
	for day := 0; day < n-1; day++ {
		for i := 0; i < n/2; i++ {
			a, b := slots[i], slots[n-1-i]
			if a != nil && b != nil {
				pairs = append(pairs, [2]Team{*a, *b})
			}
		}
		// First slot stays put, the rest rotates one step
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}
	return pairs
}

func assignMatchIDs(b Bracket) {
	largest := 0
	for _, st := range b {
		largest = max(largest, len(st.Matches))
	}

	stride := 1000
	for stride <= largest {
		stride *= 10
	}

	for s := range b {
		for i := range b[s].Matches {
			b[s].Matches[i].ID = (s+1)*stride + i + 1
		}
	}
}
