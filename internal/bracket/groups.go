package bracket

import (
	"cmp"
	"errors"
	"slices"

	"github.com/google/uuid"
)

const DefaultQualifiersPerGroup = 2

const (
	pointsWin  = 3
	pointsDraw = 1
)

var (
	ErrNoGroupStage         = errors.New("bracket has no group stage")
	ErrGroupStageIncomplete = errors.New("group stage still has unfinished matches")
	ErrAlreadySeeded        = errors.New("knockout stage has already been seeded")
)

type Standing struct {
	Team         Team    `json:"team"`
	Played       int     `json:"played"`
	Won          int     `json:"won"`
	Drawn        int     `json:"drawn"`
	Lost         int     `json:"lost"`
	ScoreFor     float64 `json:"score_for"`
	ScoreAgainst float64 `json:"score_against"`
	Points       int     `json:"points"`
}

func (s Standing) Difference() float64 {
	return s.ScoreFor - s.ScoreAgainst
}

// Standings ranks each group on completed matches: points, then score
// difference, then score for, then name. Nil without a group stage.
func (b Bracket) Standings() map[string][]Standing {
	if !b.HasGroupStage() {
		return nil
	}

	rows := make(map[string]map[uuid.UUID]*Standing)
	row := func(group string, t *Team) *Standing {
		if rows[group] == nil {
			rows[group] = make(map[uuid.UUID]*Standing)
		}
		r, ok := rows[group][t.ID]
		if !ok {
			r = &Standing{Team: *t}
			rows[group][t.ID] = r
		}
		return r
	}

	for _, m := range b[0].Matches {
		if m.Team1 == nil || m.Team2 == nil {
			continue
		}
		r1, r2 := row(m.Group, m.Team1), row(m.Group, m.Team2)
		if m.Status != MatchCompleted {
			continue
		}

		r1.Played++
		r2.Played++
		r1.ScoreFor += m.Score1
		r1.ScoreAgainst += m.Score2
		r2.ScoreFor += m.Score2
		r2.ScoreAgainst += m.Score1

		switch {
		case m.Winner != nil && m.Winner.Is(m.Team1):
			r1.Won++
			r1.Points += pointsWin
			r2.Lost++
		case m.Winner != nil && m.Winner.Is(m.Team2):
			r2.Won++
			r2.Points += pointsWin
			r1.Lost++
		default:
			r1.Drawn++
			r2.Drawn++
			r1.Points += pointsDraw
			r2.Points += pointsDraw
		}
	}

	standings := make(map[string][]Standing, len(rows))
	for group, byTeam := range rows {
		table := make([]Standing, 0, len(byTeam))
		for _, r := range byTeam {
			table = append(table, *r)
		}
		slices.SortFunc(table, compareStanding)
		standings[group] = table
	}
	return standings
}

func compareStanding(a, b Standing) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Difference(), a.Difference()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.ScoreFor, a.ScoreFor); c != 0 {
		return c
	}
	return cmp.Compare(a.Team.Name, b.Team.Name)
}

// sortedGroups orders labels A..Z, AA, AB, ...
func sortedGroups(standings map[string][]Standing) []string {
	labels := make([]string, 0, len(standings))
	for l := range standings {
		labels = append(labels, l)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if c := cmp.Compare(len(a), len(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return labels
}

// SeedKnockout fills the first knockout stage after a finished group stage.
// Group winners are seeded first, then runners-up and so on, and placed with
// standard bracket seeding so the top seeds meet the byes.
func (b Bracket) SeedKnockout(qualifiersPerGroup int, autoResolveByes bool) error {
	if !b.HasGroupStage() || len(b) < 2 {
		return ErrNoGroupStage
	}
	knockout := &b[1]
	if knockout.Seeded {
		return ErrAlreadySeeded
	}
	for _, m := range b[0].Matches {
		if m.Status != MatchCompleted {
			return ErrGroupStageIncomplete
		}
	}
	if qualifiersPerGroup <= 0 {
		qualifiersPerGroup = DefaultQualifiersPerGroup
	}

	standings := b.Standings()
	groups := sortedGroups(standings)

	var qualifiers []Team
	for rank := 0; rank < qualifiersPerGroup; rank++ {
		for _, g := range groups {
			if rank < len(standings[g]) {
				qualifiers = append(qualifiers, standings[g][rank].Team)
			}
		}
	}

	slots := 2 * len(knockout.Matches)
	if len(qualifiers) > slots {
		qualifiers = qualifiers[:slots]
	}

	pairs := generateRound1Pairs(calcBracketSize(slots))
	for i := range knockout.Matches {
		m := &knockout.Matches[i]
		m.Team1, m.Team2, m.Winner, m.Bye = nil, nil, nil, false
		if i >= len(pairs) {
			continue
		}
		if seed := pairs[i][0]; seed < len(qualifiers) {
			t := qualifiers[seed]
			m.Team1 = &t
		}
		if seed := pairs[i][1]; seed < len(qualifiers) {
			t := qualifiers[seed]
			m.Team2 = &t
		}
	}
	knockout.Seeded = true

	if autoResolveByes {
		b.ResolveByes()
	}
	return nil
}
