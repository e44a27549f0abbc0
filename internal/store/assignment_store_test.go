package store

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/hackathon-judging/internal/assignment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentStore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewAssignmentStore(db)
	round := createRound(t, db, "Assigned")

	empty, err := store.LoadAssignments(ctx, round.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.PhaseCriteria)
	assert.Empty(t, empty.MatchJudges)

	c1 := createCriterion(t, db, "Impact", 1)
	c2 := createCriterion(t, db, "Pitch", 1)
	j1 := createJudge(t, db, "ada")
	j2 := createJudge(t, db, "brian")

	a := assignment.New()
	a.SetCriteriaForStage("Semifinals", []uuid.UUID{c2.ID, c1.ID})
	a.SetCriteriaForMatch(1001, []uuid.UUID{c1.ID})
	a.SetJudgesForMatch(1001, []uuid.UUID{j2.ID, j1.ID})
	a.SetJudgesForMatch(2001, []uuid.UUID{j1.ID})
	require.NoError(t, store.SaveAssignments(ctx, round.ID, a))

	loaded, err := store.LoadAssignments(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, a, loaded, "order within each set is kept")

	// Saving replaces everything
	a = assignment.New()
	a.SetJudgesForMatch(3001, []uuid.UUID{j2.ID})
	require.NoError(t, store.SaveAssignments(ctx, round.ID, a))
	loaded, err = store.LoadAssignments(ctx, round.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.PhaseCriteria)
	assert.Empty(t, loaded.MatchCriteria)
	assert.Equal(t, map[int][]uuid.UUID{3001: {j2.ID}}, loaded.MatchJudges)

	// Clearing matches keeps the stage criteria
	a.SetCriteriaForStage("Final", []uuid.UUID{c1.ID})
	a.SetCriteriaForMatch(3001, []uuid.UUID{c2.ID})
	require.NoError(t, store.SaveAssignments(ctx, round.ID, a))
	require.NoError(t, store.ClearMatchAssignments(ctx, round.ID))
	loaded, err = store.LoadAssignments(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]uuid.UUID{"Final": {c1.ID}}, loaded.PhaseCriteria)
	assert.Empty(t, loaded.MatchCriteria)
	assert.Empty(t, loaded.MatchJudges)
}
