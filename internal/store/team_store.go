package store

import (
	"context"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TeamStore struct {
	db *sqlx.DB
}

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

const teamColumns = "id, name, description, demo_link"

func (s *TeamStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []bracket.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, name, description, demo_link)
            VALUES (:id, :name, :description, :demo_link)`, teams)
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	var team bracket.Team
	err := s.db.GetContext(ctx, &team, "SELECT "+teamColumns+" FROM teams WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, "SELECT "+teamColumns+" FROM teams ORDER BY name ASC")
	return teams, err
}

func (s *TeamStore) UpdateTeam(ctx context.Context, team *bracket.Team) error {
	res, err := s.db.NamedExecContext(ctx, `UPDATE teams SET
        name = :name,
        description = :description,
        demo_link = :demo_link
        WHERE id = :id`, team)
	return expectOneRow(res, err)
}

func (s *TeamStore) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return expectOneRow(s.db.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", id))
}

func (s *TeamStore) ExistingTeamIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return existingIDs(ctx, s.db, "SELECT id FROM teams WHERE id IN (?)", ids)
}
