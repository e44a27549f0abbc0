package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/AdamBeresnev/hackathon-judging/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
)

// GuestJudgeID is the judge every guest login signs in as.
const GuestJudgeID = "00000000-0000-0000-0000-000000000002"

type UserService struct {
	db    *sqlx.DB
	store *store.UserStore
}

func NewUserService(db *sqlx.DB, store *store.UserStore) *UserService {
	return &UserService{db: db, store: store}
}

// FindOrCreateUserByProvider signs in an OAuth user. New users start as judges.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		username := displayName(gothUser)
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != username {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = username
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   displayName(gothUser),
			Role:       users.RoleJudge,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		err := s.store.CreateUser(ctx, newUser)
		return newUser, err
	}

	return nil, err
}

func displayName(u goth.User) string {
	if u.NickName != "" {
		return u.NickName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func (s *UserService) EnsureGuestUser(ctx context.Context) (*users.User, error) {
	guestID := uuid.MustParse(GuestJudgeID)
	user, err := s.store.GetUser(ctx, guestID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		guestUser := &users.User{
			ID:       guestID,
			Email:    "guest@hackathon-judging.local",
			Username: "Guest Judge",
			Role:     users.RoleJudge,
		}
		err := s.store.CreateUser(ctx, guestUser)
		return guestUser, err
	}
	return nil, err
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) ListJudges(ctx context.Context) ([]users.User, error) {
	return s.store.ListJudges(ctx)
}

func (s *UserService) SetRole(ctx context.Context, id uuid.UUID, role users.Role) error {
	if role != users.RoleAdmin && role != users.RoleJudge {
		return errors.New("unknown role")
	}
	return s.store.UpdateRole(ctx, id, role)
}
