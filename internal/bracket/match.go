package bracket

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

var (
	ErrInvalidStatus = errors.New("invalid match status")
	ErrInvalidSide   = errors.New("side must be 1 or 2")
	ErrMatchNotFound = errors.New("match not found in bracket")
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchPending, MatchInProgress, MatchCompleted:
		return true
	}
	return false
}

// Side selects one of the two slots of a match.
type Side int

const (
	Side1 Side = 1
	Side2 Side = 2
)

type Match struct {
	ID     int         `json:"id"`
	Team1  *Team       `json:"team1"`
	Team2  *Team       `json:"team2"`
	Winner *Team       `json:"winner"`
	Status MatchStatus `json:"status"`
	Score1 float64     `json:"score1"`
	Score2 float64     `json:"score2"`

	// Only set for matches of a group stage
	Group string `json:"group,omitempty"`
	Bye   bool   `json:"bye,omitempty"`
}

// ParseScore turns raw form input into a score. Anything that is not a finite
// number becomes 0.
func ParseScore(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return sanitizeScore(v)
}

func sanitizeScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SetScore updates one side's score and recomputes the winner. The status is
// left alone, completing a match is a separate action.
func (m *Match) SetScore(side Side, value float64) {
	value = sanitizeScore(value)
	switch side {
	case Side1:
		m.Score1 = value
	case Side2:
		m.Score2 = value
	default:
		return
	}
	m.recomputeWinner()
}

func (m *Match) recomputeWinner() {
	if m.Bye {
		m.Winner = m.soleTeam()
		return
	}

	switch {
	case m.Score1 > m.Score2:
		m.Winner = m.Team1
	case m.Score2 > m.Score1:
		m.Winner = m.Team2
	default:
		m.Winner = nil
	}
}

// ToggleCompleted flips between completed and pending. Scores and winner are
// not touched.
func (m *Match) ToggleCompleted() {
	if m.Status == MatchCompleted {
		m.Status = MatchPending
		return
	}
	m.Status = MatchCompleted
}

// reset forgets the result of a match whose line-up changed.
func (m *Match) reset() {
	m.Score1, m.Score2 = 0, 0
	m.Status = MatchPending
	m.Winner = nil
}

func (m *Match) SetStatus(status MatchStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	m.Status = status
	return nil
}

func (m *Match) Team(side Side) *Team {
	if side == Side1 {
		return m.Team1
	}
	return m.Team2
}

func (m *Match) setTeam(side Side, t *Team) {
	if side == Side1 {
		m.Team1 = t
	} else {
		m.Team2 = t
	}
}

func (m *Match) teamCount() int {
	n := 0
	if m.Team1 != nil {
		n++
	}
	if m.Team2 != nil {
		n++
	}
	return n
}

// soleTeam returns the only assigned team, or nil when the match has zero or two teams.
func (m *Match) soleTeam() *Team {
	if m.teamCount() != 1 {
		return nil
	}
	if m.Team1 != nil {
		return m.Team1
	}
	return m.Team2
}

func (m *Match) IsWinner(side Side) bool {
	t := m.Team(side)
	return t != nil && m.Winner.Is(t)
}

// Clone returns a deep copy of the match.
func (m *Match) Clone() Match {
	c := *m
	c.Team1 = m.Team1.clone()
	c.Team2 = m.Team2.clone()
	c.Winner = m.Winner.clone()
	return c
}
