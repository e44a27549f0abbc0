package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RoundStore struct {
	db *sqlx.DB
}

func NewRoundStore(db *sqlx.DB) *RoundStore {
	return &RoundStore{db: db}
}

type roundTeam struct {
	RoundID uuid.UUID `db:"round_id"`
	TeamID  uuid.UUID `db:"team_id"`
}

func (s *RoundStore) CreateRound(ctx context.Context, tx *sqlx.Tx, round *judging.Round) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO rounds (id, owner_id, name, status, tournament_active)
        VALUES (:id, :owner_id, :name, :status, :tournament_active)`, round)
	return err
}

func (s *RoundStore) AddTeams(ctx context.Context, tx *sqlx.Tx, roundID uuid.UUID, teamIDs []uuid.UUID) error {
	if len(teamIDs) == 0 {
		return nil
	}
	rows := make([]roundTeam, len(teamIDs))
	for i, id := range teamIDs {
		rows[i] = roundTeam{RoundID: roundID, TeamID: id}
	}
	_, err := tx.NamedExecContext(ctx, `INSERT OR IGNORE INTO round_teams (round_id, team_id)
        VALUES (:round_id, :team_id)`, rows)
	return err
}

func (s *RoundStore) RemoveTeam(ctx context.Context, roundID, teamID uuid.UUID) error {
	return expectOneRow(s.db.ExecContext(ctx, "DELETE FROM round_teams WHERE round_id = ? AND team_id = ?", roundID, teamID))
}

func (s *RoundStore) GetRound(ctx context.Context, id uuid.UUID) (*judging.Round, error) {
	var round judging.Round
	err := s.db.GetContext(ctx, &round, "SELECT * FROM rounds WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *RoundStore) ListRounds(ctx context.Context) ([]judging.Round, error) {
	var rounds []judging.Round
	err := s.db.SelectContext(ctx, &rounds, "SELECT * FROM rounds ORDER BY created_at DESC, name ASC")
	return rounds, err
}

// ListTeams returns the participating teams of a round ordered by name.
func (s *RoundStore) ListTeams(ctx context.Context, roundID uuid.UUID) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, `SELECT t.id, t.name, t.description, t.demo_link
        FROM teams t JOIN round_teams rt ON rt.team_id = t.id
        WHERE rt.round_id = ? ORDER BY t.name ASC`, roundID)
	return teams, err
}

func (s *RoundStore) UpdateStatus(ctx context.Context, id uuid.UUID, status judging.RoundStatus) error {
	return expectOneRow(s.db.ExecContext(ctx, "UPDATE rounds SET status = ? WHERE id = ?", status, id))
}

// SetTournamentActive starts or stops the tournament of a round. Only one
// tournament runs at a time, starting one stops all others.
func (s *RoundStore) SetTournamentActive(ctx context.Context, id uuid.UUID, active bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if active {
		if _, err := tx.ExecContext(ctx, "UPDATE rounds SET tournament_active = 0 WHERE id != ?", id); err != nil {
			return err
		}
	}
	if err := expectOneRow(tx.ExecContext(ctx, "UPDATE rounds SET tournament_active = ? WHERE id = ?", active, id)); err != nil {
		return err
	}
	return tx.Commit()
}

// GetActiveTournament returns the round whose tournament is running, nil if none is.
func (s *RoundStore) GetActiveTournament(ctx context.Context) (*judging.Round, error) {
	var round judging.Round
	err := s.db.GetContext(ctx, &round, "SELECT * FROM rounds WHERE tournament_active = 1 LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *RoundStore) DeleteRound(ctx context.Context, id uuid.UUID) error {
	return expectOneRow(s.db.ExecContext(ctx, "DELETE FROM rounds WHERE id = ?", id))
}
