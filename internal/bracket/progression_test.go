package bracket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropagateSlots(t *testing.T) {
	b := Build(makeTeams(4), NewRand(8), DefaultOptions())
	semi1, semi2 := b[0].Matches[0], b[0].Matches[1]

	_, err := b.ApplyScore(0, 0, Side1, 3)
	require.NoError(t, err)
	_, err = b.ApplyScore(0, 0, Side2, 1)
	require.NoError(t, err)
	assert.True(t, b[1].Matches[0].Team1.Is(semi1.Team1), "even match feeds team1")
	assert.Nil(t, b[1].Matches[0].Team2)

	_, err = b.ApplyScore(0, 1, Side2, 4)
	require.NoError(t, err)
	assert.True(t, b[1].Matches[0].Team2.Is(semi2.Team2), "odd match feeds team2")
}

func TestPropagateWinnerChangeReplacesSlot(t *testing.T) {
	b := Build(makeTeams(4), NewRand(8), DefaultOptions())
	semi := b[0].Matches[0]

	_, err := b.ApplyScore(0, 0, Side1, 2)
	require.NoError(t, err)
	assert.True(t, b[1].Matches[0].Team1.Is(semi.Team1))

	_, err = b.ApplyScore(0, 0, Side2, 5)
	require.NoError(t, err)
	assert.True(t, b[1].Matches[0].Team1.Is(semi.Team2))

	_, err = b.ApplyScore(0, 0, Side1, 5)
	require.NoError(t, err)
	assert.Nil(t, b[1].Matches[0].Team1, "a tie takes the advancement back")
}

func TestPropagateResetsReplacedMatch(t *testing.T) {
	b := Build(makeTeams(4), NewRand(21), DefaultOptions())
	semi1, semi2 := b[0].Matches[0], b[0].Matches[1]

	_, err := b.ApplyScore(0, 0, Side1, 1)
	require.NoError(t, err)
	_, err = b.ApplyScore(0, 1, Side1, 1)
	require.NoError(t, err)
	_, err = b.ApplyScore(1, 0, Side1, 9)
	require.NoError(t, err)
	b[1].Matches[0].ToggleCompleted()
	require.True(t, b.Champion().Is(semi1.Team1))

	// The semifinal flips, the new finalist never played the final
	_, err = b.ApplyScore(0, 0, Side2, 3)
	require.NoError(t, err)
	final := b[1].Matches[0]
	assert.True(t, final.Team1.Is(semi1.Team2))
	assert.True(t, final.Team2.Is(semi2.Team1))
	assert.Nil(t, final.Winner)
	assert.Equal(t, MatchPending, final.Status)
	assert.Zero(t, final.Score1)
	assert.Zero(t, final.Score2)
	assert.Nil(t, b.Champion())
}

func TestPropagateResetCascades(t *testing.T) {
	b := Build(makeTeams(8), NewRand(3), DefaultOptions())
	require.Len(t, b, 3)

	// Quarterfinals 0 and 1 feed semifinal 0, which feeds the final
	for i := range 4 {
		_, err := b.ApplyScore(0, i, Side1, 1)
		require.NoError(t, err)
	}
	_, err := b.ApplyScore(1, 0, Side1, 2)
	require.NoError(t, err)
	_, err = b.ApplyScore(1, 1, Side1, 2)
	require.NoError(t, err)
	_, err = b.ApplyScore(2, 0, Side1, 5)
	require.NoError(t, err)
	require.NotNil(t, b[2].Matches[0].Winner)

	_, err = b.ApplyScore(0, 0, Side2, 4)
	require.NoError(t, err)
	semi := b[1].Matches[0]
	assert.Nil(t, semi.Winner)
	assert.Zero(t, semi.Score1)
	final := b[2].Matches[0]
	assert.Nil(t, final.Team1, "the semifinal has no winner to send on")
	assert.Nil(t, final.Winner)
	assert.Zero(t, final.Score1)
	assert.Equal(t, MatchPending, final.Status)
}

func TestPropagateNoOps(t *testing.T) {
	b := Build(makeTeams(2), NewRand(1), DefaultOptions())
	_, err := b.ApplyScore(0, 0, Side1, 1)
	require.NoError(t, err)
	before := b.Clone()

	b.Propagate(0, 0)
	b.Propagate(5, 0)
	b.Propagate(0, 9)
	b.Propagate(-1, -1)
	assert.Equal(t, before, b)

	_, err = b.ApplyScore(3, 0, Side1, 1)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	_, err = b.ApplyScore(0, 0, Side(0), 1)
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestPropagateFromGroupStageIsNoOp(t *testing.T) {
	opts := DefaultOptions()
	opts.GroupStageThreshold = 8
	b := Build(makeTeams(10), NewRand(2), opts)

	_, err := b.ApplyScore(0, 0, Side1, 3)
	require.NoError(t, err)
	for _, m := range b[1].Matches {
		assert.Nil(t, m.Team1)
		assert.Nil(t, m.Team2)
	}
}

func TestResolveByesCascade(t *testing.T) {
	// 9 teams: the fifth round of 16 match is a bye and has no sibling in
	// the quarterfinals or semifinals, so the lone team walks into the final
	b := Build(makeTeams(9), NewRand(4), DefaultOptions())
	require.Len(t, b[0].Matches, 5)
	require.Len(t, b[1].Matches, 3)
	require.Len(t, b[2].Matches, 2)

	lone := b[0].Matches[4].Team1
	require.NotNil(t, lone)
	assert.True(t, b[0].Matches[4].Bye)
	assert.True(t, b[1].Matches[2].Bye)
	assert.True(t, b[2].Matches[1].Bye)

	final := b[3].Matches[0]
	assert.True(t, final.Team2.Is(lone))
	assert.Nil(t, final.Team1)
	assert.False(t, final.Bye, "the final still waits for semifinal 1")

	// Running it again finds nothing new
	assert.Zero(t, b.ResolveByes())
}

func TestChampion(t *testing.T) {
	b := Build(makeTeams(2), NewRand(1), DefaultOptions())
	assert.Nil(t, b.Champion())

	m, err := b.ApplyScore(0, 0, Side2, 2)
	require.NoError(t, err)
	assert.Nil(t, b.Champion(), "no champion until the final is completed")

	m.ToggleCompleted()
	require.NotNil(t, b.Champion())
	assert.True(t, b.Champion().Is(m.Team2))
}

func TestBracketJSONRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	opts.GroupStageThreshold = 8
	for _, b := range []Bracket{
		Build(makeTeams(7), NewRand(6), DefaultOptions()),
		Build(makeTeams(12), NewRand(6), opts),
	} {
		_, err := b.ApplyScore(0, 0, Side1, 2.5)
		require.NoError(t, err)
		b[0].Matches[0].ToggleCompleted()

		data, err := json.Marshal(b)
		require.NoError(t, err)

		var decoded Bracket
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, b, decoded)
	}
}

func TestFindMatch(t *testing.T) {
	b := Build(makeTeams(8), NewRand(1), DefaultOptions())
	s, i, ok := b.FindMatch(b[1].Matches[1].ID)
	require.True(t, ok)
	assert.Equal(t, 1, s)
	assert.Equal(t, 1, i)

	_, _, ok = b.FindMatch(-5)
	assert.False(t, ok)
}
