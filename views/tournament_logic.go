package views

import (
	"cmp"
	"slices"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/video"
)

type GroupData struct {
	Label     string
	Matches   []bracket.Match
	Standings []bracket.Standing
}

type StageData struct {
	Name    string
	Kind    bracket.StageKind
	Matches []bracket.Match
	Groups  []GroupData
}

type TeamData struct {
	Team  bracket.Team
	Embed video.EmbedInfo
}

type BracketData struct {
	Stages   []StageData
	Teams    []TeamData
	Champion *bracket.Team
}

// PrepareBracketData splits group stages into their groups, with standings,
// and collects every team that appears in the bracket with its demo embed.
func PrepareBracketData(b bracket.Bracket) BracketData {
	var data BracketData
	var standings map[string][]bracket.Standing
	if b.HasGroupStage() {
		standings = b.Standings()
	}

	seen := make(map[string]bool)
	addTeam := func(t *bracket.Team) {
		if t == nil || seen[t.ID.String()] {
			return
		}
		seen[t.ID.String()] = true
		data.Teams = append(data.Teams, TeamData{Team: *t, Embed: video.GetEmbedInfo(t.DemoLink)})
	}

	for _, st := range b {
		sd := StageData{Name: st.Name, Kind: st.Kind}
		if st.Kind != bracket.GroupStage {
			sd.Matches = st.Matches
			for _, m := range st.Matches {
				addTeam(m.Team1)
				addTeam(m.Team2)
			}
			data.Stages = append(data.Stages, sd)
			continue
		}

		byGroup := make(map[string][]bracket.Match)
		// Groups come out of the builder in label order
		var labels []string
		for _, m := range st.Matches {
			if _, ok := byGroup[m.Group]; !ok {
				labels = append(labels, m.Group)
			}
			byGroup[m.Group] = append(byGroup[m.Group], m)
			addTeam(m.Team1)
			addTeam(m.Team2)
		}
		for _, label := range labels {
			sd.Groups = append(sd.Groups, GroupData{
				Label:     label,
				Matches:   byGroup[label],
				Standings: standings[label],
			})
		}
		data.Stages = append(data.Stages, sd)
	}

	slices.SortFunc(data.Teams, func(a, b TeamData) int {
		return cmp.Compare(a.Team.Name, b.Team.Name)
	})
	data.Champion = b.Champion()
	return data
}
