package store

import (
	"context"

	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CriteriaStore struct {
	db *sqlx.DB
}

func NewCriteriaStore(db *sqlx.DB) *CriteriaStore {
	return &CriteriaStore{db: db}
}

func (s *CriteriaStore) CreateCriterion(ctx context.Context, c *judging.Criterion) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO criteria (id, name, description, weight)
        VALUES (:id, :name, :description, :weight)`, c)
	return err
}

func (s *CriteriaStore) GetCriterion(ctx context.Context, id uuid.UUID) (*judging.Criterion, error) {
	var c judging.Criterion
	if err := s.db.GetContext(ctx, &c, "SELECT * FROM criteria WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CriteriaStore) ListCriteria(ctx context.Context) ([]judging.Criterion, error) {
	var criteria []judging.Criterion
	err := s.db.SelectContext(ctx, &criteria, "SELECT * FROM criteria ORDER BY name ASC")
	return criteria, err
}

func (s *CriteriaStore) UpdateWeight(ctx context.Context, id uuid.UUID, weight float64) error {
	return expectOneRow(s.db.ExecContext(ctx, "UPDATE criteria SET weight = ? WHERE id = ?", weight, id))
}

func (s *CriteriaStore) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	return expectOneRow(s.db.ExecContext(ctx, "DELETE FROM criteria WHERE id = ?", id))
}

func (s *CriteriaStore) ExistingCriterionIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return existingIDs(ctx, s.db, "SELECT id FROM criteria WHERE id IN (?)", ids)
}
