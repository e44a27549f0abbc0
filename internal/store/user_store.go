package store

import (
	"context"

	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByProviderQuery = `
        SELECT * FROM users 
        WHERE provider = ? 
        AND provider_id = ?
    `
	listUsersByRoleQuery = "SELECT * FROM users WHERE role = ? ORDER BY username ASC"
	createUserQuery      = `
		INSERT INTO users (id, email, username, role, provider, provider_id, avatar_url) VALUES
		(:id, :email, :username, :role, :provider, :provider_id, :avatar_url)
	`
	updateUserNameAndAvatarQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
	updateUserRoleQuery = "UPDATE users SET role = ? WHERE id = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) ListJudges(ctx context.Context) ([]users.User, error) {
	var judges []users.User
	err := s.db.SelectContext(ctx, &judges, listUsersByRoleQuery, users.RoleJudge)
	return judges, err
}

// ExistingJudgeIDs returns which of the given ids belong to judges.
func (s *UserStore) ExistingJudgeIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return existingIDs(ctx, s.db, "SELECT id FROM users WHERE role = 'judge' AND id IN (?)", ids)
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	if user.Role == "" {
		user.Role = users.RoleJudge
	}
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserNameAndAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameAndAvatarQuery, user)
	return err
}

func (s *UserStore) UpdateRole(ctx context.Context, id uuid.UUID, role users.Role) error {
	return expectOneRow(s.db.ExecContext(ctx, updateUserRoleQuery, role, id))
}
