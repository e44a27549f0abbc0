package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/AdamBeresnev/hackathon-judging/internal/assignment"
	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/google/uuid"
)

type AssignmentService struct {
	// Serialises load, modify, save so concurrent edits are not lost
	mu       sync.Mutex
	store    *store.AssignmentStore
	criteria *store.CriteriaStore
	users    *store.UserStore
	brackets *BracketService
}

func NewAssignmentService(store *store.AssignmentStore, criteria *store.CriteriaStore, users *store.UserStore, brackets *BracketService) *AssignmentService {
	return &AssignmentService{store: store, criteria: criteria, users: users, brackets: brackets}
}

func (s *AssignmentService) Get(ctx context.Context, roundID uuid.UUID) (*assignment.Assignments, error) {
	return s.store.LoadAssignments(ctx, roundID)
}

func (s *AssignmentService) SetCriteriaForStage(ctx context.Context, roundID uuid.UUID, stageName string, criteriaIDs []uuid.UUID) (*assignment.Assignments, error) {
	b, err := s.brackets.GetBracket(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if _, ok := b.StageIndex(stageName); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stageName)
	}
	if err := s.checkCriteria(ctx, criteriaIDs); err != nil {
		return nil, err
	}
	return s.update(ctx, roundID, func(a *assignment.Assignments) {
		a.SetCriteriaForStage(stageName, criteriaIDs)
	})
}

func (s *AssignmentService) SetCriteriaForMatch(ctx context.Context, roundID uuid.UUID, matchID int, criteriaIDs []uuid.UUID) (*assignment.Assignments, error) {
	if err := s.checkMatch(ctx, roundID, matchID); err != nil {
		return nil, err
	}
	if err := s.checkCriteria(ctx, criteriaIDs); err != nil {
		return nil, err
	}
	return s.update(ctx, roundID, func(a *assignment.Assignments) {
		a.SetCriteriaForMatch(matchID, criteriaIDs)
	})
}

func (s *AssignmentService) SetJudgesForMatch(ctx context.Context, roundID uuid.UUID, matchID int, judgeIDs []uuid.UUID) (*assignment.Assignments, error) {
	if err := s.checkMatch(ctx, roundID, matchID); err != nil {
		return nil, err
	}
	existing, err := s.users.ExistingJudgeIDs(ctx, judgeIDs)
	if err != nil {
		return nil, err
	}
	if id, ok := utils.FirstMissing(judgeIDs, existing); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJudge, id)
	}
	return s.update(ctx, roundID, func(a *assignment.Assignments) {
		a.SetJudgesForMatch(matchID, judgeIDs)
	})
}

// ApplyStageCriteria copies the stage's criteria onto each of its matches,
// replacing per match overrides. It returns the ids of the matches touched.
func (s *AssignmentService) ApplyStageCriteria(ctx context.Context, roundID uuid.UUID, stageName string) ([]int, error) {
	b, err := s.brackets.GetBracket(ctx, roundID)
	if err != nil {
		return nil, err
	}
	i, ok := b.StageIndex(stageName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stageName)
	}

	var touched []int
	if _, err := s.update(ctx, roundID, func(a *assignment.Assignments) {
		touched = a.ApplyStageCriteria(b[i])
	}); err != nil {
		return nil, err
	}
	return touched, nil
}

// CriteriaForMatch falls back to the stage criteria when the match has none of its own.
func (s *AssignmentService) CriteriaForMatch(ctx context.Context, roundID uuid.UUID, matchID int) ([]uuid.UUID, error) {
	b, err := s.brackets.GetBracket(ctx, roundID)
	if err != nil {
		return nil, err
	}
	si, _, ok := b.FindMatch(matchID)
	if !ok {
		return nil, bracket.ErrMatchNotFound
	}
	a, err := s.store.LoadAssignments(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return a.CriteriaForMatch(matchID, b[si].Name), nil
}

func (s *AssignmentService) MatchesForJudge(ctx context.Context, roundID, judgeID uuid.UUID) ([]int, error) {
	a, err := s.store.LoadAssignments(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return a.MatchesForJudge(judgeID), nil
}

func (s *AssignmentService) update(ctx context.Context, roundID uuid.UUID, fn func(*assignment.Assignments)) (*assignment.Assignments, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.LoadAssignments(ctx, roundID)
	if err != nil {
		return nil, err
	}
	fn(a)
	if err := s.store.SaveAssignments(ctx, roundID, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssignmentService) checkMatch(ctx context.Context, roundID uuid.UUID, matchID int) error {
	b, err := s.brackets.GetBracket(ctx, roundID)
	if err != nil {
		return err
	}
	if _, _, ok := b.FindMatch(matchID); !ok {
		return bracket.ErrMatchNotFound
	}
	return nil
}

func (s *AssignmentService) checkCriteria(ctx context.Context, ids []uuid.UUID) error {
	existing, err := s.criteria.ExistingCriterionIDs(ctx, ids)
	if err != nil {
		return err
	}
	if id, ok := utils.FirstMissing(ids, existing); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCriterion, id)
	}
	return nil
}
