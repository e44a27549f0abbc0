package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const testSuperUserID = "00000000-0000-0000-0000-000000000001"

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// Every connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func createRound(t *testing.T, db *sqlx.DB, name string) *judging.Round {
	t.Helper()
	round := &judging.Round{
		ID:      uuid.New(),
		OwnerID: uuid.MustParse(testSuperUserID),
		Name:    name,
		Status:  judging.RoundOpen,
	}
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, NewRoundStore(db).CreateRound(context.Background(), tx, round))
	require.NoError(t, tx.Commit())
	return round
}

func createTeams(t *testing.T, db *sqlx.DB, n int) []bracket.Team {
	t.Helper()
	teams := make([]bracket.Team, n)
	for i := range teams {
		teams[i] = bracket.Team{
			ID:          uuid.New(),
			Name:        fmt.Sprintf("Team %02d", i+1),
			Description: "project",
		}
	}
	teams[0].DemoLink = utils.StringOrNil("https://youtu.be/abc")

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, NewTeamStore(db).CreateTeams(context.Background(), tx, teams))
	require.NoError(t, tx.Commit())
	return teams
}

func teamIDs(teams []bracket.Team) []uuid.UUID {
	ids := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids
}

func createJudge(t *testing.T, db *sqlx.DB, name string) *users.User {
	t.Helper()
	judge := &users.User{ID: uuid.New(), Email: name + "@example.com", Username: name}
	require.NoError(t, NewUserStore(db).CreateUser(context.Background(), judge))
	return judge
}

func createCriterion(t *testing.T, db *sqlx.DB, name string, weight float64) *judging.Criterion {
	t.Helper()
	c := &judging.Criterion{ID: uuid.New(), Name: name, Weight: weight}
	require.NoError(t, NewCriteriaStore(db).CreateCriterion(context.Background(), c))
	return c
}
