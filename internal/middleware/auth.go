package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/hackathon-judging/internal/config"
	"github.com/AdamBeresnev/hackathon-judging/internal/httputil"
	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

type ContextKey string

const UserIDKey ContextKey = "userID"
const SuperUserID = "00000000-0000-0000-0000-000000000001"

// SessionUserKey is where the logged in user's id lives in the scs session.
const SessionUserKey = "userID"

type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// InitAuth registers the OAuth providers that have credentials configured.
func InitAuth(cfg config.OAuth) {
	var providers []goth.Provider
	if cfg.DiscordKey != "" {
		providers = append(providers, discord.New(cfg.DiscordKey, cfg.DiscordSecret, cfg.DiscordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail))
	}
	if cfg.GoogleKey != "" {
		providers = append(providers, google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.GoogleCallbackURL, "email", "profile"))
	}
	goth.UseProviders(providers...)
}

// LoadAuthenticatedUser puts the logged in user, if any, into the request context.
func LoadAuthenticatedUser(sessionManager *scs.SessionManager, userStore UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), SessionUserKey)
			if userIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionUserKey)
				next.ServeHTTP(w, r)
				return
			}

			user, err := userStore.GetUser(r.Context(), userID)
			if err != nil {
				// Stale session pointing at a deleted user
				sessionManager.Remove(r.Context(), SessionUserKey)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, users.UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth sends anonymous visitors to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthenticatedUser(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPIAuth answers anonymous API calls with 401.
func RequireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthenticatedUser(r.Context()) == nil {
			httputil.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthenticatedUser(r.Context())
		if user == nil {
			httputil.Unauthorized(w)
			return
		}
		if !user.IsAdmin() {
			httputil.Forbidden(w, "Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}

// WithUser returns a context carrying the user, the same way LoadAuthenticatedUser does.
func WithUser(ctx context.Context, user *users.User) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	return context.WithValue(ctx, users.UserKey, user)
}
