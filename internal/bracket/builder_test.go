package bracket

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTeams(n int) []Team {
	teams := make([]Team, n)
	for i := range teams {
		teams[i] = Team{ID: uuid.New(), Name: fmt.Sprintf("Team %d", i+1)}
	}
	return teams
}

func stageNames(b Bracket) []string {
	names := make([]string, len(b))
	for i, st := range b {
		names[i] = st.Name
	}
	return names
}

func TestBuildTopology(t *testing.T) {
	testCases := []struct {
		name     string
		numTeams int
		expected []string
	}{
		{"1 team", 1, []string{StageFinal}},
		{"2 teams", 2, []string{StageFinal}},
		{"3 teams", 3, []string{StageSemifinals, StageFinal}},
		{"4 teams", 4, []string{StageSemifinals, StageFinal}},
		{"5 teams", 5, []string{StageQuarterfinals, StageSemifinals, StageFinal}},
		{"8 teams", 8, []string{StageQuarterfinals, StageSemifinals, StageFinal}},
		{"9 teams", 9, []string{StageRoundOf16, StageQuarterfinals, StageSemifinals, StageFinal}},
		{"16 teams", 16, []string{StageRoundOf16, StageQuarterfinals, StageSemifinals, StageFinal}},
		{"17 teams", 17, []string{StageRoundOf32, StageRoundOf16, StageQuarterfinals, StageSemifinals, StageFinal}},
		{"32 teams", 32, []string{StageRoundOf32, StageRoundOf16, StageQuarterfinals, StageSemifinals, StageFinal}},
		{"33 teams", 33, []string{"Group Stage (5 groups)", StageRoundOf16, StageQuarterfinals, StageSemifinals, StageFinal}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := Build(makeTeams(tc.numTeams), NewRand(1), DefaultOptions())
			assert.Equal(t, tc.expected, stageNames(b))
		})
	}
}

func TestBuildShape(t *testing.T) {
	for n := 1; n <= 70; n++ {
		b := Build(makeTeams(n), NewRand(uint64(n)), DefaultOptions())
		require.NotEmpty(t, b, "n=%d", n)

		assert.Len(t, b[len(b)-1].Matches, 1, "final of n=%d should have one match", n)

		for i := 1; i < len(b); i++ {
			if b[i-1].Kind == GroupStage {
				continue
			}
			prev := len(b[i-1].Matches)
			assert.Equal(t, (prev+1)/2, len(b[i].Matches), "n=%d stage %s", n, b[i].Name)
		}
	}
}

func TestBuildSeedsEveryTeamOnce(t *testing.T) {
	for _, n := range []int{2, 3, 7, 12, 25, 32} {
		teams := makeTeams(n)
		b := Build(teams, NewRand(7), Options{})

		seen := make(map[uuid.UUID]int)
		for _, m := range b[0].Matches {
			for _, team := range []*Team{m.Team1, m.Team2} {
				if team != nil {
					seen[team.ID]++
				}
			}
		}
		assert.Len(t, seen, n)
		for _, count := range seen {
			assert.Equal(t, 1, count)
		}
		assert.Len(t, b[0].Matches, (n+1)/2)

		for _, st := range b[1:] {
			for _, m := range st.Matches {
				assert.Nil(t, m.Team1)
				assert.Nil(t, m.Team2)
				assert.Equal(t, MatchPending, m.Status)
			}
		}
	}
}

func TestBuildFourTeams(t *testing.T) {
	teams := makeTeams(4)
	b := Build(teams, NewRand(42), DefaultOptions())

	require.Len(t, b, 2)
	assert.Equal(t, StageSemifinals, b[0].Name)
	require.Len(t, b[0].Matches, 2)

	covered := make(map[uuid.UUID]bool)
	for _, m := range b[0].Matches {
		require.NotNil(t, m.Team1)
		require.NotNil(t, m.Team2)
		covered[m.Team1.ID] = true
		covered[m.Team2.ID] = true
	}
	for _, team := range teams {
		assert.True(t, covered[team.ID], "%s missing from the semifinals", team.Name)
	}

	assert.Equal(t, StageFinal, b[1].Name)
	require.Len(t, b[1].Matches, 1)
	assert.Nil(t, b[1].Matches[0].Team1)
	assert.Nil(t, b[1].Matches[0].Team2)
}

func TestBuildFiveTeamsByeReachesFinal(t *testing.T) {
	b := Build(makeTeams(5), NewRand(3), DefaultOptions())

	require.Len(t, b, 3)
	first := b[0].Matches
	require.Len(t, first, 3)

	bye := first[2]
	require.NotNil(t, bye.Team1)
	assert.Nil(t, bye.Team2)
	assert.True(t, bye.Bye)
	assert.Equal(t, MatchCompleted, bye.Status)
	assert.True(t, bye.Winner.Is(bye.Team1))

	// Semifinal 2 only has a feeder for its first slot, so the bye carries on
	semi := b[1].Matches[1]
	assert.True(t, semi.Bye)
	assert.True(t, semi.Team1.Is(bye.Team1))

	final := b[2].Matches[0]
	assert.Nil(t, final.Team1)
	assert.True(t, final.Team2.Is(bye.Team1))
}

func TestBuildWithoutAutoResolve(t *testing.T) {
	b := Build(makeTeams(3), NewRand(3), Options{AutoResolveByes: false})

	bye := b[0].Matches[1]
	assert.NotNil(t, bye.Team1)
	assert.Nil(t, bye.Team2)
	assert.False(t, bye.Bye)
	assert.Nil(t, bye.Winner)
	assert.Equal(t, MatchPending, bye.Status)
	assert.Nil(t, b[1].Matches[0].Team2)

	assert.Equal(t, 1, b.ResolveByes())
	assert.True(t, b[1].Matches[0].Team2.Is(bye.Team1))
}

func TestBuildSingleTeamIsChampion(t *testing.T) {
	teams := makeTeams(1)
	b := Build(teams, nil, DefaultOptions())

	require.Len(t, b, 1)
	champion := b.Champion()
	require.NotNil(t, champion)
	assert.Equal(t, teams[0].ID, champion.ID)
}

func TestBuildDeterministicWithSeed(t *testing.T) {
	teams := makeTeams(12)

	first := Build(teams, NewRand(99), DefaultOptions())
	second := Build(teams, NewRand(99), DefaultOptions())
	assert.Equal(t, first, second)

	// The caller's slice is left in its original order
	assert.Equal(t, "Team 1", teams[0].Name)
}

func TestBuildMatchIDsUnique(t *testing.T) {
	for _, n := range []int{2, 9, 32, 33, 150} {
		b := Build(makeTeams(n), NewRand(5), DefaultOptions())
		ids := make(map[int]bool)
		for _, st := range b {
			for _, m := range st.Matches {
				assert.False(t, ids[m.ID], "duplicate match id %d for n=%d", m.ID, n)
				ids[m.ID] = true
			}
		}
	}

	b := Build(makeTeams(16), NewRand(5), DefaultOptions())
	assert.Equal(t, 1001, b[0].Matches[0].ID)
	assert.Equal(t, 2001, b[1].Matches[0].ID)
}

func TestBuildGroupStage(t *testing.T) {
	opts := DefaultOptions()
	opts.GroupStageThreshold = 8

	b := Build(makeTeams(9), NewRand(11), opts)

	require.True(t, b.HasGroupStage())
	assert.Equal(t, "Group Stage (2 groups)", b[0].Name)
	assert.Equal(t, []string{StageRoundOf16, StageQuarterfinals, StageSemifinals, StageFinal}, stageNames(b[1:]))
	assert.Equal(t, []int{8, 4, 2, 1}, []int{len(b[1].Matches), len(b[2].Matches), len(b[3].Matches), len(b[4].Matches)})

	members := make(map[string]map[uuid.UUID]bool)
	pairs := make(map[[2]uuid.UUID]bool)
	for _, m := range b[0].Matches {
		require.NotNil(t, m.Team1)
		require.NotNil(t, m.Team2)
		if members[m.Group] == nil {
			members[m.Group] = make(map[uuid.UUID]bool)
		}
		members[m.Group][m.Team1.ID] = true
		members[m.Group][m.Team2.ID] = true

		key := pairKey(m.Team1.ID, m.Team2.ID)
		assert.False(t, pairs[key], "pair scheduled twice")
		pairs[key] = true
	}

	require.Len(t, members, 2)
	sizes := []int{len(members["A"]), len(members["B"])}
	assert.ElementsMatch(t, []int{5, 4}, sizes)

	// Full round robin: 5*4/2 + 4*3/2
	assert.Len(t, b[0].Matches, 16)

	// Nothing in the tail resolves before the groups are played
	for _, st := range b[1:] {
		for _, m := range st.Matches {
			assert.False(t, m.Bye)
		}
	}
}

func TestRoundRobinCoversEveryPair(t *testing.T) {
	for n := 0; n <= 8; n++ {
		teams := makeTeams(n)
		pairs := roundRobin(teams)
		assert.Len(t, pairs, n*(n-1)/2, "n=%d", n)

		seen := make(map[[2]uuid.UUID]bool)
		for _, p := range pairs {
			assert.NotEqual(t, p[0].ID, p[1].ID)
			key := pairKey(p[0].ID, p[1].ID)
			assert.False(t, seen[key])
			seen[key] = true
		}
	}
}

func TestGroupLabel(t *testing.T) {
	assert.Equal(t, "A", groupLabel(0))
	assert.Equal(t, "Z", groupLabel(25))
	assert.Equal(t, "AA", groupLabel(26))
	assert.Equal(t, "AB", groupLabel(27))
}

func TestGenerateRound1SeedOrder(t *testing.T) {
	testCases := []struct {
		name        string
		bracketSize int
		expected    [][2]int
	}{
		{
			name:        "2 entries",
			bracketSize: 2,
			expected:    [][2]int{{0, 1}},
		},
		{
			name:        "4 entries",
			bracketSize: 4,
			expected:    [][2]int{{0, 3}, {1, 2}},
		},
		{
			name:        "8 entries",
			bracketSize: 8,
			expected:    [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
		{
			name:        "Non-power of 2 (7 entries)",
			bracketSize: calcBracketSize(7),
			expected:    [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := generateRound1Pairs(tc.bracketSize)
			assert.Equal(t, tc.expected, actual)
		})
	}
}
