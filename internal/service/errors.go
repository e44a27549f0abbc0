package service

import "errors"

var (
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrUnknownJudge     = errors.New("unknown judge")
	ErrUnknownTeam      = errors.New("unknown team")
	ErrUnknownStage     = errors.New("unknown stage")
	ErrNoTeams          = errors.New("round has no participating teams")
	ErrNoBracket        = errors.New("round has no bracket")
	ErrRoundArchived    = errors.New("round is archived")
	ErrInvalidTeamName  = errors.New("team name must be between 1 and 50 characters")
	ErrInvalidWeight    = errors.New("criterion weight must be a non-negative number")
	ErrTeamNotInRound   = errors.New("team does not take part in the round")

	// ErrNotSaved wraps a failed save after a change was applied in memory.
	// The change stands, the caller should report the save failure.
	ErrNotSaved = errors.New("change applied but not saved")
)
