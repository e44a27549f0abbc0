// Package judging holds the records of the judging side of the app: rounds,
// criteria, marks and the leaderboard built from them.
package judging

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MinMark = 0
	MaxMark = 10
)

var (
	ErrInvalidTransition = errors.New("round cannot move to that status")
	ErrMarkOutOfRange    = errors.New("mark must be between 0 and 10")
	ErrRoundNotOpen      = errors.New("round is not open")
)

type RoundStatus string

const (
	RoundOpen     RoundStatus = "open"
	RoundClosed   RoundStatus = "closed"
	RoundArchived RoundStatus = "archived"
)

// CanMoveTo reports whether the lifecycle allows the transition. Rounds only
// move forward: open, closed, archived. A closed round may be reopened.
func (s RoundStatus) CanMoveTo(next RoundStatus) bool {
	switch s {
	case RoundOpen:
		return next == RoundClosed
	case RoundClosed:
		return next == RoundOpen || next == RoundArchived
	}
	return false
}

type Round struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	OwnerID          uuid.UUID   `db:"owner_id" json:"owner_id"`
	Name             string      `db:"name" json:"name"`
	Status           RoundStatus `db:"status" json:"status"`
	TournamentActive bool        `db:"tournament_active" json:"tournament_active"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
}

type Criterion struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Weight      float64   `db:"weight" json:"weight"`
}

// Mark is one judge's mark for one team on one criterion.
type Mark struct {
	RoundID     uuid.UUID `db:"round_id" json:"round_id"`
	TeamID      uuid.UUID `db:"team_id" json:"team_id"`
	CriterionID uuid.UUID `db:"criterion_id" json:"criterion_id"`
	JudgeID     uuid.UUID `db:"judge_id" json:"judge_id"`
	Value       float64   `db:"value" json:"value"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (m Mark) Validate() error {
	if math.IsNaN(m.Value) || m.Value < MinMark || m.Value > MaxMark {
		return ErrMarkOutOfRange
	}
	return nil
}

type LeaderboardEntry struct {
	TeamID   uuid.UUID `db:"team_id" json:"team_id"`
	TeamName string    `db:"team_name" json:"team_name"`
	Total    float64   `db:"total" json:"total"`
	Judges   int       `db:"judges" json:"judges"`
}
