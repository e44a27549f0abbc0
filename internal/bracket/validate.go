package bracket

import "github.com/google/uuid"

type Duplicate struct {
	Team       Team   `json:"team"`
	Stage      string `json:"stage"`
	MatchIndex int    `json:"match_index"`
}

type ValidationResult struct {
	OK         bool        `json:"ok"`
	Duplicates []Duplicate `json:"duplicates,omitempty"`
}

// Validate checks every stage for double-booked teams. The result is advisory:
// nothing is changed and callers decide whether to warn or reject.
func (b Bracket) Validate() ValidationResult {
	var dups []Duplicate
	for _, st := range b {
		dups = append(dups, stageDuplicates(st)...)
	}
	return ValidationResult{OK: len(dups) == 0, Duplicates: dups}
}

func ValidateStage(st Stage) ValidationResult {
	dups := stageDuplicates(st)
	return ValidationResult{OK: len(dups) == 0, Duplicates: dups}
}

func stageDuplicates(st Stage) []Duplicate {
	if st.Kind == GroupStage {
		return groupDuplicates(st)
	}

	var dups []Duplicate
	seen := make(map[uuid.UUID]bool)
	for i, m := range st.Matches {
		for _, t := range []*Team{m.Team1, m.Team2} {
			if t == nil {
				continue
			}
			if seen[t.ID] {
				dups = append(dups, Duplicate{Team: *t, Stage: st.Name, MatchIndex: i})
				continue
			}
			seen[t.ID] = true
		}
	}
	return dups
}

// In a group stage teams play several matches, so a double booking is a team
// showing up in two groups or a pairing scheduled twice.
func groupDuplicates(st Stage) []Duplicate {
	var dups []Duplicate
	groupOf := make(map[uuid.UUID]string)
	pairs := make(map[[2]uuid.UUID]bool)

	for i, m := range st.Matches {
		for _, t := range []*Team{m.Team1, m.Team2} {
			if t == nil {
				continue
			}
			if g, ok := groupOf[t.ID]; ok && g != m.Group {
				dups = append(dups, Duplicate{Team: *t, Stage: st.Name, MatchIndex: i})
				continue
			}
			groupOf[t.ID] = m.Group
		}

		if m.Team1 == nil || m.Team2 == nil {
			continue
		}
		key := pairKey(m.Team1.ID, m.Team2.ID)
		if pairs[key] {
			dups = append(dups, Duplicate{Team: *m.Team1, Stage: st.Name, MatchIndex: i})
			continue
		}
		pairs[key] = true
	}
	return dups
}

func pairKey(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() > b.String() {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}
