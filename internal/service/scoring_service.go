package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	"github.com/AdamBeresnev/hackathon-judging/internal/notify"
	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	"github.com/google/uuid"
)

type ScoringService struct {
	rounds   *store.RoundStore
	criteria *store.CriteriaStore
	marks    *store.MarkStore
	users    *store.UserStore
	notifier notify.Broadcaster
	logger   *slog.Logger
}

func NewScoringService(rounds *store.RoundStore, criteria *store.CriteriaStore, marks *store.MarkStore, users *store.UserStore, notifier notify.Broadcaster, logger *slog.Logger) *ScoringService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoringService{rounds: rounds, criteria: criteria, marks: marks, users: users, notifier: notifier, logger: logger}
}

type MarkInput struct {
	TeamID      uuid.UUID `json:"team_id"`
	CriterionID uuid.UUID `json:"criterion_id"`
	Value       float64   `json:"value"`
}

// SubmitMark records the mark of the judge in ctx. Submitting again for the
// same team and criterion replaces the earlier mark.
func (s *ScoringService) SubmitMark(ctx context.Context, roundID uuid.UUID, in MarkInput) (*judging.Mark, error) {
	judgeID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	mark := &judging.Mark{
		RoundID:     roundID,
		TeamID:      in.TeamID,
		CriterionID: in.CriterionID,
		JudgeID:     judgeID,
		Value:       in.Value,
	}
	if err := mark.Validate(); err != nil {
		return nil, err
	}

	round, err := s.rounds.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status != judging.RoundOpen {
		return nil, judging.ErrRoundNotOpen
	}

	teams, err := s.rounds.ListTeams(ctx, roundID)
	if err != nil {
		return nil, err
	}
	inRound := false
	for _, t := range teams {
		if t.ID == in.TeamID {
			inRound = true
			break
		}
	}
	if !inRound {
		return nil, ErrTeamNotInRound
	}

	if _, err := s.criteria.GetCriterion(ctx, in.CriterionID); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCriterion, in.CriterionID)
	} else if err != nil {
		return nil, err
	}

	judges, err := s.users.ExistingJudgeIDs(ctx, []uuid.UUID{judgeID})
	if err != nil {
		return nil, err
	}
	if len(judges) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJudge, judgeID)
	}

	if err := s.marks.UpsertMark(ctx, mark); err != nil {
		return nil, err
	}

	s.logger.Debug("mark submitted",
		slog.String("round_id", roundID.String()),
		slog.String("team_id", in.TeamID.String()),
		slog.String("judge_id", judgeID.String()))
	if s.notifier != nil {
		s.notifier.Broadcast(room(roundID), notify.Event{Type: notify.EventMarkSubmitted, Payload: mark})
	}
	return mark, nil
}

func (s *ScoringService) ListMarks(ctx context.Context, roundID uuid.UUID) ([]judging.Mark, error) {
	return s.marks.ListMarks(ctx, roundID)
}

// MyMarks lists the marks the judge in ctx gave in the round.
func (s *ScoringService) MyMarks(ctx context.Context, roundID uuid.UUID) ([]judging.Mark, error) {
	judgeID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	return s.marks.ListMarksByJudge(ctx, roundID, judgeID)
}

func (s *ScoringService) Leaderboard(ctx context.Context, roundID uuid.UUID) ([]judging.LeaderboardEntry, error) {
	if _, err := s.rounds.GetRound(ctx, roundID); err != nil {
		return nil, err
	}
	return s.marks.Leaderboard(ctx, roundID)
}

func (s *ScoringService) CreateCriterion(ctx context.Context, name, description string, weight float64) (*judging.Criterion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("criterion name is required")
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return nil, ErrInvalidWeight
	}
	c := &judging.Criterion{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Weight:      weight,
	}
	if err := s.criteria.CreateCriterion(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ScoringService) UpdateWeight(ctx context.Context, id uuid.UUID, weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return ErrInvalidWeight
	}
	return s.criteria.UpdateWeight(ctx, id, weight)
}

func (s *ScoringService) ListCriteria(ctx context.Context) ([]judging.Criterion, error) {
	return s.criteria.ListCriteria(ctx)
}

func (s *ScoringService) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	return s.criteria.DeleteCriterion(ctx, id)
}
