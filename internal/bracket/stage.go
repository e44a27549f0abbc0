package bracket

import "fmt"

type StageKind string

const (
	KnockoutStage StageKind = "knockout"
	GroupStage    StageKind = "group"
)

const (
	StageFinal         = "Final"
	StageSemifinals    = "Semifinals"
	StageQuarterfinals = "Quarterfinals"
	StageRoundOf16     = "Round of 16"
	StageRoundOf32     = "Round of 32"
)

// Stage is one round of the bracket. Not to be confused with a judging round.
type Stage struct {
	Name string    `json:"name"`
	Kind StageKind `json:"kind"`

	// Seeded stages got their teams at build or seeding time, progression never writes into them
	Seeded  bool    `json:"seeded,omitempty"`
	Matches []Match `json:"matches"`
}

func groupStageName(groups int) string {
	return fmt.Sprintf("Group Stage (%d groups)", groups)
}

// Bracket is the ordered list of stages. Stage i's winners feed stage i+1.
// It is persisted as a single JSON document.
type Bracket []Stage

func (b Bracket) Clone() Bracket {
	if b == nil {
		return nil
	}
	c := make(Bracket, len(b))
	for i, st := range b {
		c[i] = st
		c[i].Matches = make([]Match, len(st.Matches))
		for j := range st.Matches {
			c[i].Matches[j] = st.Matches[j].Clone()
		}
	}
	return c
}

func (b Bracket) Match(stageIndex, matchIndex int) (*Match, bool) {
	if stageIndex < 0 || stageIndex >= len(b) {
		return nil, false
	}
	matches := b[stageIndex].Matches
	if matchIndex < 0 || matchIndex >= len(matches) {
		return nil, false
	}
	return &matches[matchIndex], true
}

// FindMatch locates a match by its bracket-wide id.
func (b Bracket) FindMatch(id int) (stageIndex, matchIndex int, ok bool) {
	for s := range b {
		for i := range b[s].Matches {
			if b[s].Matches[i].ID == id {
				return s, i, true
			}
		}
	}
	return 0, 0, false
}

func (b Bracket) StageIndex(name string) (int, bool) {
	for i := range b {
		if b[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

func (b Bracket) HasGroupStage() bool {
	return len(b) > 0 && b[0].Kind == GroupStage
}

// Champion returns the winner of the final once it has been completed.
func (b Bracket) Champion() *Team {
	if len(b) == 0 {
		return nil
	}
	final := b[len(b)-1]
	if len(final.Matches) != 1 {
		return nil
	}
	m := final.Matches[0]
	if m.Status != MatchCompleted {
		return nil
	}
	return m.Winner
}
