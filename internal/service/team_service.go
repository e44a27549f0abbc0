package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const MaxTeamNameLength = 50

type TeamService struct {
	db    *sqlx.DB
	store *store.TeamStore
}

func NewTeamService(db *sqlx.DB, store *store.TeamStore) *TeamService {
	return &TeamService{db: db, store: store}
}

type TeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DemoLink    string `json:"demo_link"`
}

func (in TeamInput) toTeam() (bracket.Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxTeamNameLength {
		return bracket.Team{}, ErrInvalidTeamName
	}
	return bracket.Team{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		DemoLink:    utils.StringOrNil(in.DemoLink),
	}, nil
}

// ParseTeams reads one team per line as "Name" or "Name | demo link".
// Blank lines are skipped.
func ParseTeams(raw string) []TeamInput {
	var inputs []TeamInput
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, link, _ := strings.Cut(line, "|")
		inputs = append(inputs, TeamInput{Name: strings.TrimSpace(name), DemoLink: strings.TrimSpace(link)})
	}
	return inputs
}

// CreateTeams adds all teams or none of them.
func (s *TeamService) CreateTeams(ctx context.Context, inputs []TeamInput) ([]bracket.Team, error) {
	teams := make([]bracket.Team, 0, len(inputs))
	for _, in := range inputs {
		t, err := in.toTeam()
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return nil, err
	}
	return teams, tx.Commit()
}

func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	return s.store.GetTeam(ctx, id)
}

func (s *TeamService) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	return s.store.ListTeams(ctx)
}

func (s *TeamService) UpdateTeam(ctx context.Context, id uuid.UUID, in TeamInput) (*bracket.Team, error) {
	t, err := in.toTeam()
	if err != nil {
		return nil, err
	}
	t.ID = id
	if err := s.store.UpdateTeam(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TeamService) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteTeam(ctx, id)
}
