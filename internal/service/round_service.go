package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AdamBeresnev/hackathon-judging/internal/assignment"
	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	"github.com/AdamBeresnev/hackathon-judging/internal/notify"
	"github.com/AdamBeresnev/hackathon-judging/internal/storage"
	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type RoundService struct {
	db          *sqlx.DB
	store       *store.RoundStore
	teams       *store.TeamStore
	marks       *store.MarkStore
	assignments *store.AssignmentStore
	sessions    *Sessions
	archiver    *storage.Archiver
	notifier    notify.Broadcaster
	logger      *slog.Logger
}

type RoundStores struct {
	Rounds      *store.RoundStore
	Teams       *store.TeamStore
	Marks       *store.MarkStore
	Assignments *store.AssignmentStore
}

// NewRoundService wires the round lifecycle. archiver may be nil when no
// archive storage is configured.
func NewRoundService(db *sqlx.DB, stores RoundStores, sessions *Sessions, archiver *storage.Archiver, notifier notify.Broadcaster, logger *slog.Logger) *RoundService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoundService{
		db:          db,
		store:       stores.Rounds,
		teams:       stores.Teams,
		marks:       stores.Marks,
		assignments: stores.Assignments,
		sessions:    sessions,
		archiver:    archiver,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreateRound opens a new round owned by the user in ctx with the given teams.
func (s *RoundService) CreateRound(ctx context.Context, name string, teamIDs []uuid.UUID) (*judging.Round, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("round name is required")
	}
	ownerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	if err := s.checkTeams(ctx, teamIDs); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	round := &judging.Round{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Status:  judging.RoundOpen,
	}
	if err := s.store.CreateRound(ctx, tx, round); err != nil {
		return nil, err
	}
	if err := s.store.AddTeams(ctx, tx, round.ID, teamIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("round created", slog.String("round_id", round.ID.String()), slog.Int("teams", len(teamIDs)))
	return s.store.GetRound(ctx, round.ID)
}

func (s *RoundService) checkTeams(ctx context.Context, teamIDs []uuid.UUID) error {
	existing, err := s.teams.ExistingTeamIDs(ctx, teamIDs)
	if err != nil {
		return err
	}
	if id, ok := utils.FirstMissing(teamIDs, existing); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, id)
	}
	return nil
}

func (s *RoundService) GetRound(ctx context.Context, id uuid.UUID) (*judging.Round, error) {
	return s.store.GetRound(ctx, id)
}

func (s *RoundService) ListRounds(ctx context.Context) ([]judging.Round, error) {
	return s.store.ListRounds(ctx)
}

func (s *RoundService) ListTeams(ctx context.Context, roundID uuid.UUID) ([]bracket.Team, error) {
	if _, err := s.store.GetRound(ctx, roundID); err != nil {
		return nil, err
	}
	return s.store.ListTeams(ctx, roundID)
}

// AddTeams adds teams to the round. A bracket already generated keeps its
// teams until it is generated again.
func (s *RoundService) AddTeams(ctx context.Context, roundID uuid.UUID, teamIDs []uuid.UUID) error {
	if err := s.requireWritable(ctx, roundID); err != nil {
		return err
	}
	if err := s.checkTeams(ctx, teamIDs); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.AddTeams(ctx, tx, roundID, teamIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *RoundService) RemoveTeam(ctx context.Context, roundID, teamID uuid.UUID) error {
	if err := s.requireWritable(ctx, roundID); err != nil {
		return err
	}
	return s.store.RemoveTeam(ctx, roundID, teamID)
}

func (s *RoundService) requireWritable(ctx context.Context, roundID uuid.UUID) error {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Status == judging.RoundArchived {
		return ErrRoundArchived
	}
	return nil
}

// Transition moves the round through its lifecycle. Archiving stops the
// tournament, uploads the final bracket when archive storage is configured
// and drops the live session.
func (s *RoundService) Transition(ctx context.Context, roundID uuid.UUID, next judging.RoundStatus) (*judging.Round, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.Status.CanMoveTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", judging.ErrInvalidTransition, round.Status, next)
	}

	if next == judging.RoundArchived {
		s.archive(ctx, round)
	}

	if err := s.store.UpdateStatus(ctx, roundID, next); err != nil {
		return nil, err
	}
	if next == judging.RoundArchived {
		if round.TournamentActive {
			if err := s.store.SetTournamentActive(ctx, roundID, false); err != nil {
				return nil, err
			}
		}
		s.sessions.Close(roundID)
	}

	round.Status = next
	round.TournamentActive = round.TournamentActive && next != judging.RoundArchived
	s.logger.Info("round status changed", slog.String("round_id", roundID.String()), slog.String("status", string(next)))
	s.broadcast(roundID, round)
	return round, nil
}

func (s *RoundService) archive(ctx context.Context, round *judging.Round) {
	if s.archiver == nil {
		return
	}
	sess, err := s.sessions.Get(ctx, round.ID)
	if errors.Is(err, ErrNoBracket) {
		return
	}
	if err != nil {
		s.logger.Error("failed to load bracket for archiving", slog.String("round_id", round.ID.String()), slog.Any("error", err))
		return
	}
	if err := sess.Save(ctx); err != nil {
		s.logger.Warn("failed to save bracket before archiving", slog.String("round_id", round.ID.String()), slog.Any("error", err))
	}

	res, err := s.archiver.ArchiveBracket(ctx, round.ID, sess.Bracket())
	if err != nil {
		s.logger.Error("failed to archive bracket", slog.String("round_id", round.ID.String()), slog.Any("error", err))
		return
	}
	s.logger.Info("bracket archived", slog.String("round_id", round.ID.String()), slog.String("location", res.Location))
}

func (s *RoundService) broadcast(roundID uuid.UUID, round *judging.Round) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(room(roundID), notify.Event{Type: notify.EventRoundStatus, Payload: round})
}

// StartTournament makes the round the active tournament, stopping any other.
func (s *RoundService) StartTournament(ctx context.Context, roundID uuid.UUID) error {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Status != judging.RoundOpen {
		return judging.ErrRoundNotOpen
	}
	return s.store.SetTournamentActive(ctx, roundID, true)
}

func (s *RoundService) StopTournament(ctx context.Context, roundID uuid.UUID) error {
	return s.store.SetTournamentActive(ctx, roundID, false)
}

// ActiveTournament returns nil when no tournament is running.
func (s *RoundService) ActiveTournament(ctx context.Context) (*judging.Round, error) {
	return s.store.GetActiveTournament(ctx)
}

func (s *RoundService) DeleteRound(ctx context.Context, roundID uuid.UUID) error {
	s.sessions.Close(roundID)
	return s.store.DeleteRound(ctx, roundID)
}

// RoundOverview is everything the round page shows at once.
type RoundOverview struct {
	Round       *judging.Round             `json:"round"`
	Teams       []bracket.Team             `json:"teams"`
	Leaderboard []judging.LeaderboardEntry `json:"leaderboard"`
	Bracket     bracket.Bracket            `json:"bracket,omitempty"`
	Assignments *assignment.Assignments    `json:"assignments"`
}

// Overview loads the round with its teams, leaderboard, bracket and
// assignments concurrently. A round without a bracket has a nil Bracket.
func (s *RoundService) Overview(ctx context.Context, roundID uuid.UUID) (*RoundOverview, error) {
	var o RoundOverview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		round, err := s.store.GetRound(ctx, roundID)
		o.Round = round
		return err
	})
	g.Go(func() error {
		teams, err := s.store.ListTeams(ctx, roundID)
		o.Teams = teams
		return err
	})
	g.Go(func() error {
		entries, err := s.marks.Leaderboard(ctx, roundID)
		o.Leaderboard = entries
		return err
	})
	g.Go(func() error {
		a, err := s.assignments.LoadAssignments(ctx, roundID)
		o.Assignments = a
		return err
	})
	g.Go(func() error {
		sess, err := s.sessions.Get(ctx, roundID)
		if errors.Is(err, ErrNoBracket) {
			return nil
		}
		if err != nil {
			return err
		}
		o.Bracket = sess.Bracket()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &o, nil
}
