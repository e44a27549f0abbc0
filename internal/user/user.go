package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleJudge Role = "judge"
)

type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username"`
	Role       Role      `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Provider   *string   `db:"provider" json:"-"`
	ProviderID *string   `db:"provider_id" json:"-"`
	AvatarURL  *string   `db:"avatar_url" json:"avatar_url,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
