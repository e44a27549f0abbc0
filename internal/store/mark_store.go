package store

import (
	"context"

	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MarkStore struct {
	db *sqlx.DB
}

func NewMarkStore(db *sqlx.DB) *MarkStore {
	return &MarkStore{db: db}
}

const leaderboardQuery = `
	SELECT t.id AS team_id, t.name AS team_name,
		COALESCE(SUM(per.weight * per.average), 0) AS total,
		(SELECT COUNT(DISTINCT m.judge_id) FROM marks m WHERE m.round_id = rt.round_id AND m.team_id = t.id) AS judges
	FROM round_teams rt
	JOIN teams t ON t.id = rt.team_id
	LEFT JOIN (
		SELECT m.team_id, c.weight, AVG(m.value) AS average
		FROM marks m JOIN criteria c ON c.id = m.criterion_id
		WHERE m.round_id = ?
		GROUP BY m.team_id, m.criterion_id
	) per ON per.team_id = t.id
	WHERE rt.round_id = ?
	GROUP BY t.id, t.name
	ORDER BY total DESC, t.name ASC
`

// UpsertMark stores a mark, replacing the judge's earlier mark for the same
// team and criterion.
func (s *MarkStore) UpsertMark(ctx context.Context, mark *judging.Mark) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO marks (round_id, team_id, criterion_id, judge_id, value, updated_at)
        VALUES (:round_id, :team_id, :criterion_id, :judge_id, :value, CURRENT_TIMESTAMP)
        ON CONFLICT (round_id, team_id, criterion_id, judge_id)
        DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, mark)
	return err
}

func (s *MarkStore) ListMarks(ctx context.Context, roundID uuid.UUID) ([]judging.Mark, error) {
	var marks []judging.Mark
	err := s.db.SelectContext(ctx, &marks, `SELECT * FROM marks WHERE round_id = ?
        ORDER BY team_id, criterion_id, judge_id`, roundID)
	return marks, err
}

func (s *MarkStore) ListMarksByJudge(ctx context.Context, roundID, judgeID uuid.UUID) ([]judging.Mark, error) {
	var marks []judging.Mark
	err := s.db.SelectContext(ctx, &marks, `SELECT * FROM marks WHERE round_id = ? AND judge_id = ?
        ORDER BY team_id, criterion_id`, roundID, judgeID)
	return marks, err
}

// Leaderboard totals each participating team as the sum over criteria of the
// criterion weight times the average mark. Teams without marks score 0.
func (s *MarkStore) Leaderboard(ctx context.Context, roundID uuid.UUID) ([]judging.LeaderboardEntry, error) {
	var entries []judging.LeaderboardEntry
	err := s.db.SelectContext(ctx, &entries, leaderboardQuery, roundID, roundID)
	return entries, err
}
