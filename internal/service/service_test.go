package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	"github.com/AdamBeresnev/hackathon-judging/internal/notify"
	"github.com/AdamBeresnev/hackathon-judging/internal/session"
	"github.com/AdamBeresnev/hackathon-judging/internal/storage"
	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "sqlite3", driver)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Broadcast(room string, ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.RoomID = room
	r.events = append(r.events, ev)
}

func (r *recorder) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]notify.EventType, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}

type testEnv struct {
	db          *sqlx.DB
	events      *recorder
	sessions    *Sessions
	rounds      *RoundService
	brackets    *BracketService
	assignments *AssignmentService
	scoring     *ScoringService
	teams       *TeamService
	users       *UserService
}

type envOption func(*session.Options, **storage.Archiver)

func withGroupThreshold(n int) envOption {
	return func(o *session.Options, _ **storage.Archiver) {
		o.Bracket.GroupStageThreshold = n
	}
}

func withArchiver(a *storage.Archiver) envOption {
	return func(_ *session.Options, dst **storage.Archiver) {
		*dst = a
	}
}

func newTestEnv(t *testing.T, options ...envOption) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	opts := session.DefaultOptions()
	var archiver *storage.Archiver
	for _, o := range options {
		o(&opts, &archiver)
	}

	roundStore := store.NewRoundStore(db)
	teamStore := store.NewTeamStore(db)
	userStore := store.NewUserStore(db)
	criteriaStore := store.NewCriteriaStore(db)
	markStore := store.NewMarkStore(db)
	assignmentStore := store.NewAssignmentStore(db)

	events := &recorder{}
	sessions := NewSessions(store.NewBracketStore(db), opts, 0, nil)
	t.Cleanup(sessions.CloseAll)

	brackets := NewBracketService(roundStore, assignmentStore, sessions, events, nil)
	return &testEnv{
		db:       db,
		events:   events,
		sessions: sessions,
		rounds: NewRoundService(db, RoundStores{
			Rounds:      roundStore,
			Teams:       teamStore,
			Marks:       markStore,
			Assignments: assignmentStore,
		}, sessions, archiver, events, nil),
		brackets:    brackets,
		assignments: NewAssignmentService(assignmentStore, criteriaStore, userStore, brackets),
		scoring:     NewScoringService(roundStore, criteriaStore, markStore, userStore, events, nil),
		teams:       NewTeamService(db, teamStore),
		users:       NewUserService(db, userStore),
	}
}

func adminCtx() context.Context {
	return middleware.WithUser(context.Background(), &users.User{
		ID:   uuid.MustParse(middleware.SuperUserID),
		Role: users.RoleAdmin,
	})
}

func (e *testEnv) createTeams(t *testing.T, n int) []bracket.Team {
	t.Helper()
	inputs := make([]TeamInput, n)
	for i := range inputs {
		inputs[i] = TeamInput{Name: fmt.Sprintf("Team %02d", i+1)}
	}
	teams, err := e.teams.CreateTeams(context.Background(), inputs)
	require.NoError(t, err)
	return teams
}

func (e *testEnv) createRound(t *testing.T, teams []bracket.Team) *judging.Round {
	t.Helper()
	ids := make([]uuid.UUID, len(teams))
	for i, team := range teams {
		ids[i] = team.ID
	}
	round, err := e.rounds.CreateRound(adminCtx(), "Round", ids)
	require.NoError(t, err)
	return round
}

func (e *testEnv) createJudge(t *testing.T, name string) *users.User {
	t.Helper()
	judge := &users.User{ID: uuid.New(), Email: name + "@example.com", Username: name}
	require.NoError(t, store.NewUserStore(e.db).CreateUser(context.Background(), judge))
	return judge
}
