package store

import (
	"context"

	"github.com/AdamBeresnev/hackathon-judging/internal/assignment"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AssignmentStore struct {
	db *sqlx.DB
}

func NewAssignmentStore(db *sqlx.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

type stageCriterionRow struct {
	RoundID     uuid.UUID `db:"round_id"`
	StageName   string    `db:"stage_name"`
	CriterionID uuid.UUID `db:"criterion_id"`
	Position    int       `db:"position"`
}

type matchRow struct {
	RoundID  uuid.UUID `db:"round_id"`
	MatchID  int       `db:"match_id"`
	RefID    uuid.UUID `db:"ref_id"`
	Position int       `db:"position"`
}

// SaveAssignments replaces every assignment of the round.
func (s *AssignmentStore) SaveAssignments(ctx context.Context, roundID uuid.UUID, a *assignment.Assignments) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"stage_criteria", "match_criteria", "match_judges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE round_id = ?", roundID); err != nil {
			return err
		}
	}

	var stageRows []stageCriterionRow
	for stage, ids := range a.PhaseCriteria {
		for i, id := range ids {
			stageRows = append(stageRows, stageCriterionRow{RoundID: roundID, StageName: stage, CriterionID: id, Position: i})
		}
	}
	if len(stageRows) > 0 {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO stage_criteria (round_id, stage_name, criterion_id, position)
            VALUES (:round_id, :stage_name, :criterion_id, :position)`, stageRows); err != nil {
			return err
		}
	}

	if err := insertMatchRows(ctx, tx, "match_criteria", "criterion_id", roundID, a.MatchCriteria); err != nil {
		return err
	}
	if err := insertMatchRows(ctx, tx, "match_judges", "judge_id", roundID, a.MatchJudges); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearMatchAssignments drops the criteria and judges assigned to single
// matches of the round. Stage criteria are kept.
func (s *AssignmentStore) ClearMatchAssignments(ctx context.Context, roundID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"match_criteria", "match_judges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE round_id = ?", roundID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertMatchRows(ctx context.Context, tx *sqlx.Tx, table, column string, roundID uuid.UUID, byMatch map[int][]uuid.UUID) error {
	var rows []matchRow
	for matchID, ids := range byMatch {
		for i, id := range ids {
			rows = append(rows, matchRow{RoundID: roundID, MatchID: matchID, RefID: id, Position: i})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, "INSERT INTO "+table+" (round_id, match_id, "+column+", position)"+
		" VALUES (:round_id, :match_id, :ref_id, :position)", rows)
	return err
}

// LoadAssignments returns empty assignments for a round that has none.
func (s *AssignmentStore) LoadAssignments(ctx context.Context, roundID uuid.UUID) (*assignment.Assignments, error) {
	a := assignment.New()

	var stageRows []stageCriterionRow
	if err := s.db.SelectContext(ctx, &stageRows, `SELECT round_id, stage_name, criterion_id, position
        FROM stage_criteria WHERE round_id = ? ORDER BY stage_name, position`, roundID); err != nil {
		return nil, err
	}
	for _, r := range stageRows {
		a.PhaseCriteria[r.StageName] = append(a.PhaseCriteria[r.StageName], r.CriterionID)
	}

	var err error
	if a.MatchCriteria, err = s.loadMatchRows(ctx, "match_criteria", "criterion_id", roundID); err != nil {
		return nil, err
	}
	if a.MatchJudges, err = s.loadMatchRows(ctx, "match_judges", "judge_id", roundID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssignmentStore) loadMatchRows(ctx context.Context, table, column string, roundID uuid.UUID) (map[int][]uuid.UUID, error) {
	var rows []matchRow
	err := s.db.SelectContext(ctx, &rows, "SELECT round_id, match_id, "+column+" AS ref_id, position FROM "+table+
		" WHERE round_id = ? ORDER BY match_id, position", roundID)
	if err != nil {
		return nil, err
	}
	byMatch := make(map[int][]uuid.UUID)
	for _, r := range rows {
		byMatch[r.MatchID] = append(byMatch[r.MatchID], r.RefID)
	}
	return byMatch, nil
}
