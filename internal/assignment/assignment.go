// Package assignment maps bracket stages and matches to the criteria they are
// judged on and the judges scoring them.
package assignment

import (
	"slices"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/google/uuid"
)

type Assignments struct {
	PhaseCriteria map[string][]uuid.UUID `json:"phase_criteria"`
	MatchCriteria map[int][]uuid.UUID    `json:"match_criteria"`
	MatchJudges   map[int][]uuid.UUID    `json:"match_judges"`
}

func New() *Assignments {
	return &Assignments{
		PhaseCriteria: make(map[string][]uuid.UUID),
		MatchCriteria: make(map[int][]uuid.UUID),
		MatchJudges:   make(map[int][]uuid.UUID),
	}
}

func (a *Assignments) SetCriteriaForStage(stageName string, criteriaIDs []uuid.UUID) {
	if len(criteriaIDs) == 0 {
		delete(a.PhaseCriteria, stageName)
		return
	}
	a.PhaseCriteria[stageName] = utils.Unique(criteriaIDs)
}

func (a *Assignments) SetCriteriaForMatch(matchID int, criteriaIDs []uuid.UUID) {
	if len(criteriaIDs) == 0 {
		delete(a.MatchCriteria, matchID)
		return
	}
	a.MatchCriteria[matchID] = utils.Unique(criteriaIDs)
}

func (a *Assignments) SetJudgesForMatch(matchID int, judgeIDs []uuid.UUID) {
	if len(judgeIDs) == 0 {
		delete(a.MatchJudges, matchID)
		return
	}
	a.MatchJudges[matchID] = utils.Unique(judgeIDs)
}

// ApplyStageCriteria copies the stage's criteria onto every match of the
// stage, replacing any per-match override. Returns the ids of the touched matches.
func (a *Assignments) ApplyStageCriteria(stage bracket.Stage) []int {
	criteria := a.PhaseCriteria[stage.Name]

	touched := make([]int, 0, len(stage.Matches))
	for _, m := range stage.Matches {
		if len(criteria) == 0 {
			delete(a.MatchCriteria, m.ID)
		} else {
			a.MatchCriteria[m.ID] = slices.Clone(criteria)
		}
		touched = append(touched, m.ID)
	}
	return touched
}

// CriteriaForMatch returns the match's own criteria, falling back to the
// criteria of the stage it belongs to.
func (a *Assignments) CriteriaForMatch(matchID int, stageName string) []uuid.UUID {
	if ids, ok := a.MatchCriteria[matchID]; ok {
		return ids
	}
	return a.PhaseCriteria[stageName]
}

func (a *Assignments) JudgesForMatch(matchID int) []uuid.UUID {
	return a.MatchJudges[matchID]
}

// MatchesForJudge lists the matches a judge has been put on, sorted by id.
func (a *Assignments) MatchesForJudge(judgeID uuid.UUID) []int {
	var ids []int
	for matchID, judges := range a.MatchJudges {
		if slices.Contains(judges, judgeID) {
			ids = append(ids, matchID)
		}
	}
	slices.Sort(ids)
	return ids
}
