package main

import (
	"net/http"
	"net/url"
	"sort"

	"github.com/AdamBeresnev/hackathon-judging/internal/httputil"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	"github.com/AdamBeresnev/hackathon-judging/views"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

func newRouter(a *app) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(a.sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(a.sessionManager, a.userStore))

	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		var providers []string
		for name := range goth.GetProviders() {
			providers = append(providers, name)
		}
		sort.Strings(providers)
		views.Render(w, r, views.LoginPage(providers))
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := a.users.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		a.login(w, r, user.ID)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		user, err := a.users.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}
		a.login(w, r, user.ID)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := a.sessionManager.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to log out", err)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			active, err := a.rounds.ActiveTournament(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to get active tournament", err)
				return
			}
			if active == nil {
				http.Redirect(w, r, "/api/rounds", http.StatusFound)
				return
			}
			http.Redirect(w, r, "/rounds/"+active.ID.String()+"/bracket", http.StatusFound)
		})

		r.Get("/rounds/{roundID}/bracket", func(w http.ResponseWriter, r *http.Request) {
			roundID, ok := uuidParam(w, r, "roundID")
			if !ok {
				return
			}
			round, err := a.rounds.GetRound(r.Context(), roundID)
			if err != nil {
				writeError(w, "Failed to get round", err)
				return
			}
			b, err := a.brackets.GetBracket(r.Context(), roundID)
			if err != nil {
				writeError(w, "Failed to get bracket", err)
				return
			}
			views.Render(w, r, views.BracketPage(round, views.PrepareBracketData(b)))
		})

		r.Get("/ws/rounds/{roundID}", func(w http.ResponseWriter, r *http.Request) {
			roundID, ok := uuidParam(w, r, "roundID")
			if !ok {
				return
			}
			a.hub.ServeWS(w, r, roundID.String())
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins(),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(middleware.RequireAPIAuth)
		a.apiRoutes(r)
	})

	return r
}

func (a *app) login(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	if err := a.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	a.sessionManager.Put(r.Context(), middleware.SessionUserKey, userID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *app) corsOrigins() []string {
	if len(a.origins) == 0 {
		return []string{"*"}
	}
	return a.origins
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// stageParam reads a stage name, which may contain escaped spaces.
func stageParam(r *http.Request) string {
	raw := chi.URLParam(r, "stage")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
