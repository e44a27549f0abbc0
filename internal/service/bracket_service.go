package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/AdamBeresnev/hackathon-judging/internal/notify"
	"github.com/AdamBeresnev/hackathon-judging/internal/session"
	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	"github.com/google/uuid"
)

type BracketService struct {
	rounds      *store.RoundStore
	assignments *store.AssignmentStore
	sessions    *Sessions
	notifier    notify.Broadcaster
	logger      *slog.Logger
}

func NewBracketService(rounds *store.RoundStore, assignments *store.AssignmentStore, sessions *Sessions, notifier notify.Broadcaster, logger *slog.Logger) *BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BracketService{rounds: rounds, assignments: assignments, sessions: sessions, notifier: notifier, logger: logger}
}

func room(roundID uuid.UUID) string {
	return roundID.String()
}

func (s *BracketService) broadcast(roundID uuid.UUID, t notify.EventType, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(room(roundID), notify.Event{Type: t, Payload: payload})
}

// GenerateBracket builds a new bracket from the round's teams and replaces
// whatever bracket the round had. Match ids start over with every bracket, so
// criteria and judges assigned to matches are dropped, stage criteria stay.
// A nil seed shuffles randomly.
func (s *BracketService) GenerateBracket(ctx context.Context, roundID uuid.UUID, seed *uint64) (bracket.Bracket, error) {
	if _, err := s.writableRound(ctx, roundID); err != nil {
		return nil, err
	}

	teams, err := s.rounds.ListTeams(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, ErrNoTeams
	}

	var rng *rand.Rand
	if seed != nil {
		rng = bracket.NewRand(*seed)
	} else {
		rng = bracket.NewRand(rand.Uint64())
	}

	opts := s.sessions.Options()
	sess, err := session.New(roundID, bracket.Build(teams, rng, opts.Bracket), s.sessions.store, s.logger, opts)
	if err != nil {
		return nil, err
	}
	if err := s.assignments.ClearMatchAssignments(ctx, roundID); err != nil {
		return nil, fmt.Errorf("clear match assignments: %w", err)
	}
	s.sessions.Replace(roundID, sess)

	b := sess.Bracket()
	s.logger.Info("bracket generated",
		slog.String("round_id", roundID.String()),
		slog.Int("teams", len(teams)),
		slog.Int("stages", len(b)))
	s.broadcast(roundID, notify.EventBracketGenerated, b)

	return b, s.save(ctx, sess)
}

func (s *BracketService) GetBracket(ctx context.Context, roundID uuid.UUID) (bracket.Bracket, error) {
	sess, err := s.sessions.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return sess.Bracket(), nil
}

// SetScore records a raw score. Input that is not a number counts as 0.
func (s *BracketService) SetScore(ctx context.Context, roundID uuid.UUID, matchID int, side bracket.Side, raw string) (bracket.Match, error) {
	return s.mutate(ctx, roundID, notify.EventScoreUpdated, func(sess *session.Session) (bracket.Match, error) {
		return sess.SetScore(matchID, side, bracket.ParseScore(raw))
	})
}

func (s *BracketService) ToggleCompleted(ctx context.Context, roundID uuid.UUID, matchID int) (bracket.Match, error) {
	return s.mutate(ctx, roundID, notify.EventMatchCompleted, func(sess *session.Session) (bracket.Match, error) {
		return sess.ToggleCompleted(matchID)
	})
}

func (s *BracketService) SetStatus(ctx context.Context, roundID uuid.UUID, matchID int, status bracket.MatchStatus) (bracket.Match, error) {
	return s.mutate(ctx, roundID, notify.EventScoreUpdated, func(sess *session.Session) (bracket.Match, error) {
		return sess.SetStatus(matchID, status)
	})
}

func (s *BracketService) mutate(ctx context.Context, roundID uuid.UUID, event notify.EventType, fn func(*session.Session) (bracket.Match, error)) (bracket.Match, error) {
	sess, err := s.liveSession(ctx, roundID)
	if err != nil {
		return bracket.Match{}, err
	}
	m, err := fn(sess)
	if err != nil {
		return bracket.Match{}, err
	}
	s.broadcast(roundID, event, m)
	return m, s.save(ctx, sess)
}

// SeedKnockout fills the first knockout stage from the finished group stage.
func (s *BracketService) SeedKnockout(ctx context.Context, roundID uuid.UUID) (bracket.Bracket, error) {
	sess, err := s.liveSession(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if err := sess.SeedKnockout(); err != nil {
		return nil, err
	}
	b := sess.Bracket()
	s.broadcast(roundID, notify.EventKnockoutSeeded, b)
	return b, s.save(ctx, sess)
}

func (s *BracketService) Validate(ctx context.Context, roundID uuid.UUID) (bracket.ValidationResult, error) {
	sess, err := s.sessions.Get(ctx, roundID)
	if err != nil {
		return bracket.ValidationResult{}, err
	}
	return sess.Validate(), nil
}

func (s *BracketService) Standings(ctx context.Context, roundID uuid.UUID) (map[string][]bracket.Standing, error) {
	b, err := s.GetBracket(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !b.HasGroupStage() {
		return nil, bracket.ErrNoGroupStage
	}
	return b.Standings(), nil
}

func (s *BracketService) Save(ctx context.Context, roundID uuid.UUID) error {
	sess, err := s.sessions.Get(ctx, roundID)
	if err != nil {
		return err
	}
	return s.save(ctx, sess)
}

// Reload throws away unsaved changes and reads the stored bracket again.
func (s *BracketService) Reload(ctx context.Context, roundID uuid.UUID) (bracket.Bracket, error) {
	sess, err := s.sessions.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	return sess.Bracket(), nil
}

func (s *BracketService) save(ctx context.Context, sess *session.Session) error {
	if err := sess.Save(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotSaved, err)
	}
	return nil
}

func (s *BracketService) liveSession(ctx context.Context, roundID uuid.UUID) (*session.Session, error) {
	if _, err := s.writableRound(ctx, roundID); err != nil {
		return nil, err
	}
	return s.sessions.Get(ctx, roundID)
}

func (s *BracketService) writableRound(ctx context.Context, roundID uuid.UUID) (*judging.Round, error) {
	round, err := s.rounds.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status == judging.RoundArchived {
		return nil, ErrRoundArchived
	}
	return round, nil
}

// IsNotSaved reports whether err only means the change could not be saved yet.
func IsNotSaved(err error) bool {
	return errors.Is(err, ErrNotSaved)
}
