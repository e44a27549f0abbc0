package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/AdamBeresnev/hackathon-judging/internal/video"
	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTeams(n int) []bracket.Team {
	teams := make([]bracket.Team, n)
	for i := range teams {
		teams[i] = bracket.Team{ID: uuid.New(), Name: fmt.Sprintf("Team %02d", i+1)}
	}
	return teams
}

func TestPrepareBracketDataKnockout(t *testing.T) {
	teams := makeTeams(4)
	teams[0].DemoLink = utils.Ptr("https://youtu.be/abc")
	b := bracket.Build(teams, bracket.NewRand(1), bracket.DefaultOptions())

	data := PrepareBracketData(b)
	require.Len(t, data.Stages, 2)
	assert.Equal(t, bracket.StageSemifinals, data.Stages[0].Name)
	assert.Len(t, data.Stages[0].Matches, 2)
	assert.Empty(t, data.Stages[0].Groups)
	assert.Nil(t, data.Champion)

	require.Len(t, data.Teams, 4)
	assert.Equal(t, "Team 01", data.Teams[0].Team.Name)
	assert.Equal(t, video.EmbedTypeYouTube, data.Teams[0].Embed.Type)
	assert.Equal(t, video.EmbedTypeNone, data.Teams[1].Embed.Type)
}

func TestPrepareBracketDataGroups(t *testing.T) {
	opts := bracket.DefaultOptions()
	opts.GroupStageThreshold = 8
	b := bracket.Build(makeTeams(9), bracket.NewRand(1), opts)

	data := PrepareBracketData(b)
	groups := data.Stages[0].Groups
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].Label)
	assert.Equal(t, "B", groups[1].Label)
	assert.Len(t, groups[0].Standings, 5)
	assert.Len(t, groups[1].Standings, 4)
	assert.Len(t, data.Teams, 9)
}

func TestBracketPage(t *testing.T) {
	teams := makeTeams(2)
	teams[0].Name = "<script>x</script>"
	b := bracket.Build(teams, bracket.NewRand(1), bracket.DefaultOptions())
	_, err := b.ApplyScore(0, 0, bracket.Side2, 3)
	require.NoError(t, err)
	b[0].Matches[0].ToggleCompleted()
	round := &judging.Round{ID: uuid.New(), Name: "Finals", Status: judging.RoundOpen}

	ctx := middleware.WithUser(context.Background(), &users.User{ID: uuid.New(), Username: "ada"})
	var sb strings.Builder
	require.NoError(t, BracketPage(round, PrepareBracketData(b)).Render(ctx, &sb))
	html := sb.String()

	assert.Contains(t, html, "<h1>Finals</h1>")
	assert.Contains(t, html, "Winner: ")
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "/ws/rounds/"+round.ID.String())
	assert.Contains(t, html, "ada")
	assert.Contains(t, html, `<form method="post" action="/logout"`)
	assert.NotContains(t, html, `href="/logout"`)
}

func TestLoginPageRender(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/login", nil)
	Render(rec, req, LoginPage([]string{"discord"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `href="/auth/discord"`)
	assert.Contains(t, rec.Body.String(), `action="/auth/guest"`)
	assert.Contains(t, rec.Body.String(), "Log in")
}

func TestRenderFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	broken := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		io.WriteString(w, "<p>half")
		return errors.New("boom")
	})
	Render(rec, req, broken)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "half")
}

func TestDemoLinksAreSanitized(t *testing.T) {
	team := bracket.Team{ID: uuid.New(), Name: "Sneaky"}
	var sb strings.Builder
	err := demo(TeamData{Team: team, Embed: video.EmbedInfo{Type: video.EmbedTypeLink, URL: "javascript:alert(1)"}}).Render(context.Background(), &sb)
	require.NoError(t, err)
	assert.NotContains(t, sb.String(), "javascript:")

	sb.Reset()
	err = demo(TeamData{Team: team, Embed: video.EmbedInfo{Type: video.EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc"}}).Render(context.Background(), &sb)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `<iframe src="https://www.youtube.com/embed/abc"`)
}

func TestPageOrdersSections(t *testing.T) {
	var sb strings.Builder
	first := templ.Raw("<p>first</p>")
	second := templ.Raw("<p>second</p>")
	require.NoError(t, page("Order", first, second).Render(context.Background(), &sb))

	html := sb.String()
	assert.Contains(t, html, "<title>Order</title>")
	assert.Contains(t, html, `<a href="/login">Log in</a>`)
	assert.Less(t, strings.Index(html, "first"), strings.Index(html, "second"))
	assert.Less(t, strings.Index(html, "second"), strings.Index(html, "</main>"))
}
