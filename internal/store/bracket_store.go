package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BracketStore keeps one JSON snapshot of the bracket per round, overwritten
// wholesale on every save.
type BracketStore struct {
	db *sqlx.DB
}

func NewBracketStore(db *sqlx.DB) *BracketStore {
	return &BracketStore{db: db}
}

func (s *BracketStore) SaveBracket(ctx context.Context, roundID uuid.UUID, b bracket.Bracket) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode bracket: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO brackets (round_id, data, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT (round_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		roundID, string(data))
	return err
}

// LoadBracket returns sql.ErrNoRows when the round has no bracket yet.
func (s *BracketStore) LoadBracket(ctx context.Context, roundID uuid.UUID) (bracket.Bracket, error) {
	var data string
	if err := s.db.GetContext(ctx, &data, "SELECT data FROM brackets WHERE round_id = ?", roundID); err != nil {
		return nil, err
	}
	var b bracket.Bracket
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode bracket: %w", err)
	}
	return b, nil
}

func (s *BracketStore) DeleteBracket(ctx context.Context, roundID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM brackets WHERE round_id = ?", roundID)
	return err
}
