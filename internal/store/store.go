// Package store holds the sqlx stores backing the judging app.
package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// existingIDs runs an IN query with the given ids and returns the ids found.
func existingIDs(ctx context.Context, db *sqlx.DB, query string, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query, args, err := sqlx.In(query, raw)
	if err != nil {
		return nil, err
	}
	var found []uuid.UUID
	err = db.SelectContext(ctx, &found, db.Rebind(query), args...)
	return found, err
}

// expectOneRow turns an update that matched nothing into sql.ErrNoRows.
func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
