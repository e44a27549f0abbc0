package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/AdamBeresnev/hackathon-judging/internal/video"
	"github.com/a-h/templ"
)

// writer collects the first write error so components can write freely.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// url writes a sanitized URL attribute value.
func (w *writer) url(s string) {
	w.text(string(templ.URL(s)))
}

func (w *writer) printf(format string, args ...any) {
	if w.err == nil {
		_, w.err = fmt.Fprintf(w.w, format, args...)
	}
}

// render writes a nested component into the same output.
func (w *writer) render(c templ.Component) {
	if w.err == nil {
		w.err = c.Render(w.ctx, w.w)
	}
}

func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{ctx: ctx, w: out}
		fn(w)
		return w.err
	})
}

// layout wraps the children of the context in the page shell.
func layout(title string) templ.Component {
	return component(func(w *writer) {
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		w.text(title)
		w.raw(`</title></head><body><header>`)
		if user := GetUser(w.ctx); user != nil {
			w.raw(`<span class="user">`)
			w.text(user.Username)
			w.raw(`</span> <form method="post" action="/logout" class="logout"><button type="submit">Log out</button></form>`)
		} else {
			w.raw(`<a href="/login">Log in</a>`)
		}
		w.raw(`</header><main>`)
		children := templ.GetChildren(w.ctx)
		w.ctx = templ.ClearChildren(w.ctx)
		w.render(children)
		w.raw(`</main></body></html>`)
	})
}

func page(title string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		return layout(title).Render(templ.WithChildren(ctx, templ.Join(body...)), out)
	})
}

// LoginPage lists the configured OAuth providers and the guest judge login.
func LoginPage(providers []string) templ.Component {
	return page("Log in", component(func(w *writer) {
		w.raw(`<h1>Log in</h1><ul class="providers">`)
		for _, p := range providers {
			w.raw(`<li><a href="`)
			w.url("/auth/" + p)
			w.raw(`">Continue with `)
			w.text(p)
			w.raw(`</a></li>`)
		}
		w.raw(`</ul><form method="post" action="/auth/guest"><button type="submit">Judge as guest</button></form>`)
	}))
}

// BracketPage renders a round's bracket. It subscribes to the round's
// websocket room and reloads on every event.
func BracketPage(round *judging.Round, data BracketData) templ.Component {
	body := []templ.Component{roundHeader(round, data.Champion)}
	for _, st := range data.Stages {
		body = append(body, stageSection(st))
	}
	if len(data.Teams) > 0 {
		body = append(body, demoSection(data.Teams))
	}
	body = append(body, liveReload(round))
	return page(round.Name, body...)
}

func roundHeader(round *judging.Round, champion *bracket.Team) templ.Component {
	return component(func(w *writer) {
		w.raw(`<h1>`)
		w.text(round.Name)
		w.raw(`</h1><p class="status">`)
		w.text(string(round.Status))
		w.raw(`</p>`)
		if champion != nil {
			w.raw(`<p class="champion">Winner: `)
			w.text(champion.Name)
			w.raw(`</p>`)
		}
	})
}

func stageSection(st StageData) templ.Component {
	return component(func(w *writer) {
		w.raw(`<section class="stage"><h2>`)
		w.text(st.Name)
		w.raw(`</h2>`)
		if st.Kind == bracket.GroupStage {
			for _, g := range st.Groups {
				w.raw(`<div class="group"><h3>Group `)
				w.text(g.Label)
				w.raw(`</h3>`)
				w.render(standingsTable(g.Standings))
				w.render(matchList(g.Matches))
				w.raw(`</div>`)
			}
		} else {
			w.render(matchList(st.Matches))
		}
		w.raw(`</section>`)
	})
}

func demoSection(teams []TeamData) templ.Component {
	return component(func(w *writer) {
		w.raw(`<section class="demos"><h2>Demos</h2>`)
		for _, t := range teams {
			w.render(demo(t))
		}
		w.raw(`</section>`)
	})
}

func liveReload(round *judging.Round) templ.Component {
	return component(func(w *writer) {
		w.raw(`<script>(function(){var p=location.protocol==="https:"?"wss://":"ws://";` +
			`var ws=new WebSocket(p+location.host+"/ws/rounds/`)
		w.text(round.ID.String())
		w.raw(`");ws.onmessage=function(){location.reload()};})();</script>`)
	})
}

func teamName(t *bracket.Team) string {
	if t == nil {
		return "TBD"
	}
	return t.Name
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func matchList(matches []bracket.Match) templ.Component {
	return component(func(w *writer) {
		w.raw(`<ol class="matches">`)
		for _, m := range matches {
			w.printf(`<li class="match %s" data-match-id="%d">`, templ.EscapeString(string(m.Status)), m.ID)
			for _, side := range []bracket.Side{bracket.Side1, bracket.Side2} {
				class := "team"
				if m.IsWinner(side) {
					class += " winner"
				}
				score := m.Score1
				if side == bracket.Side2 {
					score = m.Score2
				}
				w.printf(`<span class="%s">`, class)
				w.text(teamName(m.Team(side)))
				w.raw(` <b>`)
				w.text(formatScore(score))
				w.raw(`</b></span>`)
			}
			if m.Bye {
				w.raw(`<em>bye</em>`)
			}
			w.raw(`</li>`)
		}
		w.raw(`</ol>`)
	})
}

func standingsTable(table []bracket.Standing) templ.Component {
	return component(func(w *writer) {
		w.raw(`<table class="standings"><tr><th>Team</th><th>P</th><th>W</th><th>D</th><th>L</th><th>+/-</th><th>Pts</th></tr>`)
		for _, s := range table {
			w.raw(`<tr><td>`)
			w.text(s.Team.Name)
			w.printf(`</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%s</td><td>%d</td></tr>`,
				s.Played, s.Won, s.Drawn, s.Lost, formatScore(s.Difference()), s.Points)
		}
		w.raw(`</table>`)
	})
}

func demo(t TeamData) templ.Component {
	return component(func(w *writer) {
		w.raw(`<article class="demo"><h3>`)
		w.text(t.Team.Name)
		w.raw(`</h3>`)
		switch t.Embed.Type {
		case video.EmbedTypeYouTube, video.EmbedTypeVimeo:
			w.raw(`<iframe src="`)
			w.url(t.Embed.URL)
			w.raw(`" allowfullscreen loading="lazy"></iframe>`)
		case video.EmbedTypeVideo:
			w.raw(`<video controls preload="metadata" src="`)
			w.url(t.Embed.URL)
			w.raw(`"></video>`)
		case video.EmbedTypeLink:
			w.raw(`<a href="`)
			w.url(t.Embed.URL)
			w.raw(`" rel="noopener" target="_blank">Demo</a>`)
		}
		w.raw(`</article>`)
	})
}
