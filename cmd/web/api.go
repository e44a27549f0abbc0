package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/AdamBeresnev/hackathon-judging/internal/httputil"
	"github.com/AdamBeresnev/hackathon-judging/internal/judging"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	"github.com/AdamBeresnev/hackathon-judging/internal/service"
	"github.com/AdamBeresnev/hackathon-judging/internal/session"
	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, service.ErrNoBracket),
		errors.Is(err, bracket.ErrMatchNotFound):
		httputil.NotFound(w, msg+": "+err.Error(), err)
	case errors.Is(err, service.ErrUnknownCriterion),
		errors.Is(err, service.ErrUnknownJudge),
		errors.Is(err, service.ErrUnknownTeam),
		errors.Is(err, service.ErrUnknownStage),
		errors.Is(err, service.ErrNoTeams),
		errors.Is(err, service.ErrInvalidTeamName),
		errors.Is(err, service.ErrInvalidWeight),
		errors.Is(err, service.ErrTeamNotInRound),
		errors.Is(err, bracket.ErrInvalidSide),
		errors.Is(err, bracket.ErrInvalidStatus),
		errors.Is(err, bracket.ErrNoGroupStage),
		errors.Is(err, judging.ErrMarkOutOfRange):
		httputil.BadRequest(w, msg+": "+err.Error(), err)
	case errors.Is(err, service.ErrRoundArchived),
		errors.Is(err, judging.ErrInvalidTransition),
		errors.Is(err, judging.ErrRoundNotOpen),
		errors.Is(err, bracket.ErrGroupStageIncomplete),
		errors.Is(err, bracket.ErrAlreadySeeded),
		errors.Is(err, session.ErrDuplicateTeams):
		httputil.Conflict(w, msg+": "+err.Error(), err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}

// writeResult answers with v, or with the error. A change that was applied
// but not saved still answers with v, flagged in a Warning header.
func writeResult(w http.ResponseWriter, status int, msg string, v any, err error) {
	if service.IsNotSaved(err) {
		slog.Warn("change not saved", "message", msg, "error", err)
		w.Header().Set("Warning", `199 - "change applied but not saved"`)
		httputil.WriteJSON(w, status, v)
		return
	}
	if err != nil {
		writeError(w, msg, err)
		return
	}
	httputil.WriteJSON(w, status, v)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return false
	}
	return true
}

func matchParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "matchID"))
	if err != nil {
		httputil.BadRequest(w, "Invalid matchID", err)
		return 0, false
	}
	return id, true
}

// rawScore accepts a score sent either as a JSON number or a string.
type rawScore string

func (s *rawScore) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = rawScore(str)
		return nil
	}
	*s = rawScore(data)
	return nil
}

type idsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (a *app) apiRoutes(r chi.Router) {
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, middleware.GetAuthenticatedUser(r.Context()))
	})

	r.Get("/tournament/active", func(w http.ResponseWriter, r *http.Request) {
		round, err := a.rounds.ActiveTournament(r.Context())
		if err == nil && round == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeResult(w, http.StatusOK, "Failed to get active tournament", round, err)
	})

	r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
		teams, err := a.teams.ListTeams(r.Context())
		writeResult(w, http.StatusOK, "Failed to list teams", teams, err)
	})

	r.Get("/criteria", func(w http.ResponseWriter, r *http.Request) {
		criteria, err := a.scoring.ListCriteria(r.Context())
		writeResult(w, http.StatusOK, "Failed to list criteria", criteria, err)
	})

	r.Get("/rounds", func(w http.ResponseWriter, r *http.Request) {
		rounds, err := a.rounds.ListRounds(r.Context())
		writeResult(w, http.StatusOK, "Failed to list rounds", rounds, err)
	})

	r.Route("/rounds/{roundID}", func(r chi.Router) {
		r.Get("/", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			o, err := a.rounds.Overview(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to load round", o, err)
		}))

		r.Get("/teams", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			teams, err := a.rounds.ListTeams(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to list round teams", teams, err)
		}))

		r.Get("/bracket", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			b, err := a.brackets.GetBracket(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to get bracket", b, err)
		}))

		r.Get("/bracket/validate", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			res, err := a.brackets.Validate(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to validate bracket", res, err)
		}))

		r.Get("/standings", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			standings, err := a.brackets.Standings(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to get standings", standings, err)
		}))

		r.Get("/leaderboard", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			board, err := a.scoring.Leaderboard(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to get leaderboard", board, err)
		}))

		r.Get("/assignments", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			assignments, err := a.assignments.Get(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to get assignments", assignments, err)
		}))

		r.Get("/matches/{matchID}/criteria", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			matchID, ok := matchParam(w, r)
			if !ok {
				return
			}
			ids, err := a.assignments.CriteriaForMatch(r.Context(), roundID, matchID)
			writeResult(w, http.StatusOK, "Failed to get match criteria", ids, err)
		}))

		r.Get("/my-matches", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			ids, err := a.assignments.MatchesForJudge(r.Context(), roundID, userID)
			writeResult(w, http.StatusOK, "Failed to get assigned matches", ids, err)
		}))

		r.Get("/marks", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			marks, err := a.scoring.MyMarks(r.Context(), roundID)
			writeResult(w, http.StatusOK, "Failed to list marks", marks, err)
		}))

		r.Post("/marks", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
			var in service.MarkInput
			if !decode(w, r, &in) {
				return
			}
			mark, err := a.scoring.SubmitMark(r.Context(), roundID, in)
			writeResult(w, http.StatusCreated, "Failed to submit mark", mark, err)
		}))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			a.adminRoundRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		a.adminRoutes(r)
	})
}

func (a *app) withRound(fn func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roundID, ok := uuidParam(w, r, "roundID")
		if !ok {
			return
		}
		fn(w, r, roundID)
	}
}

func (a *app) adminRoutes(r chi.Router) {
	r.Post("/rounds", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name    string      `json:"name"`
			TeamIDs []uuid.UUID `json:"team_ids"`
		}
		if !decode(w, r, &in) {
			return
		}
		round, err := a.rounds.CreateRound(r.Context(), in.Name, in.TeamIDs)
		writeResult(w, http.StatusCreated, "Failed to create round", round, err)
	})

	r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Teams []service.TeamInput `json:"teams"`
			// One team per line, "Name | demo link"
			Raw string `json:"raw"`
		}
		if !decode(w, r, &in) {
			return
		}
		inputs := append(in.Teams, service.ParseTeams(in.Raw)...)
		teams, err := a.teams.CreateTeams(r.Context(), inputs)
		writeResult(w, http.StatusCreated, "Failed to create teams", teams, err)
	})

	r.Put("/teams/{teamID}", func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		var in service.TeamInput
		if !decode(w, r, &in) {
			return
		}
		team, err := a.teams.UpdateTeam(r.Context(), teamID, in)
		writeResult(w, http.StatusOK, "Failed to update team", team, err)
	})

	r.Delete("/teams/{teamID}", func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		if err := a.teams.DeleteTeam(r.Context(), teamID); err != nil {
			writeError(w, "Failed to delete team", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/criteria", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			Weight      float64 `json:"weight"`
		}
		if !decode(w, r, &in) {
			return
		}
		c, err := a.scoring.CreateCriterion(r.Context(), in.Name, in.Description, in.Weight)
		writeResult(w, http.StatusCreated, "Failed to create criterion", c, err)
	})

	r.Put("/criteria/{criterionID}/weight", func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "criterionID")
		if !ok {
			return
		}
		var in struct {
			Weight float64 `json:"weight"`
		}
		if !decode(w, r, &in) {
			return
		}
		if err := a.scoring.UpdateWeight(r.Context(), id, in.Weight); err != nil {
			writeError(w, "Failed to update weight", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Delete("/criteria/{criterionID}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "criterionID")
		if !ok {
			return
		}
		if err := a.scoring.DeleteCriterion(r.Context(), id); err != nil {
			writeError(w, "Failed to delete criterion", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/judges", func(w http.ResponseWriter, r *http.Request) {
		judges, err := a.users.ListJudges(r.Context())
		writeResult(w, http.StatusOK, "Failed to list judges", judges, err)
	})

	r.Put("/users/{userID}/role", func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "userID")
		if !ok {
			return
		}
		var in struct {
			Role users.Role `json:"role"`
		}
		if !decode(w, r, &in) {
			return
		}
		if err := a.users.SetRole(r.Context(), id, in.Role); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "User not found", err)
				return
			}
			httputil.BadRequest(w, err.Error(), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (a *app) adminRoundRoutes(r chi.Router) {
	r.Delete("/", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		if err := a.rounds.DeleteRound(r.Context(), roundID); err != nil {
			writeError(w, "Failed to delete round", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Post("/status", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		var in struct {
			Status judging.RoundStatus `json:"status"`
		}
		if !decode(w, r, &in) {
			return
		}
		round, err := a.rounds.Transition(r.Context(), roundID, in.Status)
		writeResult(w, http.StatusOK, "Failed to change round status", round, err)
	}))

	r.Post("/teams", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		var in idsRequest
		if !decode(w, r, &in) {
			return
		}
		if err := a.rounds.AddTeams(r.Context(), roundID, in.IDs); err != nil {
			writeError(w, "Failed to add teams", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Delete("/teams/{teamID}", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		if err := a.rounds.RemoveTeam(r.Context(), roundID, teamID); err != nil {
			writeError(w, "Failed to remove team", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Post("/tournament/start", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		if err := a.rounds.StartTournament(r.Context(), roundID); err != nil {
			writeError(w, "Failed to start tournament", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Post("/tournament/stop", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		if err := a.rounds.StopTournament(r.Context(), roundID); err != nil {
			writeError(w, "Failed to stop tournament", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Post("/bracket", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		var in struct {
			Seed *uint64 `json:"seed"`
		}
		if r.ContentLength != 0 && !decode(w, r, &in) {
			return
		}
		b, err := a.brackets.GenerateBracket(r.Context(), roundID, in.Seed)
		writeResult(w, http.StatusCreated, "Failed to generate bracket", b, err)
	}))

	r.Post("/bracket/save", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		err := a.brackets.Save(r.Context(), roundID)
		switch {
		case service.IsNotSaved(err):
			httputil.InternalServerError(w, "Failed to save bracket", err)
		case err != nil:
			writeError(w, "Failed to save bracket", err)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	r.Post("/bracket/reload", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		b, err := a.brackets.Reload(r.Context(), roundID)
		writeResult(w, http.StatusOK, "Failed to reload bracket", b, err)
	}))

	r.Post("/bracket/seed-knockout", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		b, err := a.brackets.SeedKnockout(r.Context(), roundID)
		writeResult(w, http.StatusOK, "Failed to seed knockout stage", b, err)
	}))

	r.Put("/matches/{matchID}/score", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		matchID, ok := matchParam(w, r)
		if !ok {
			return
		}
		var in struct {
			Side  bracket.Side `json:"side"`
			Score rawScore     `json:"score"`
		}
		if !decode(w, r, &in) {
			return
		}
		m, err := a.brackets.SetScore(r.Context(), roundID, matchID, in.Side, string(in.Score))
		writeResult(w, http.StatusOK, "Failed to set score", m, err)
	}))

	r.Post("/matches/{matchID}/toggle", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		matchID, ok := matchParam(w, r)
		if !ok {
			return
		}
		m, err := a.brackets.ToggleCompleted(r.Context(), roundID, matchID)
		writeResult(w, http.StatusOK, "Failed to toggle match", m, err)
	}))

	r.Put("/matches/{matchID}/status", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		matchID, ok := matchParam(w, r)
		if !ok {
			return
		}
		var in struct {
			Status bracket.MatchStatus `json:"status"`
		}
		if !decode(w, r, &in) {
			return
		}
		m, err := a.brackets.SetStatus(r.Context(), roundID, matchID, in.Status)
		writeResult(w, http.StatusOK, "Failed to set match status", m, err)
	}))

	r.Put("/matches/{matchID}/criteria", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		matchID, ok := matchParam(w, r)
		if !ok {
			return
		}
		var in idsRequest
		if !decode(w, r, &in) {
			return
		}
		res, err := a.assignments.SetCriteriaForMatch(r.Context(), roundID, matchID, in.IDs)
		writeResult(w, http.StatusOK, "Failed to assign criteria", res, err)
	}))

	r.Put("/matches/{matchID}/judges", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		matchID, ok := matchParam(w, r)
		if !ok {
			return
		}
		var in idsRequest
		if !decode(w, r, &in) {
			return
		}
		res, err := a.assignments.SetJudgesForMatch(r.Context(), roundID, matchID, in.IDs)
		writeResult(w, http.StatusOK, "Failed to assign judges", res, err)
	}))

	r.Put("/stages/{stage}/criteria", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		var in idsRequest
		if !decode(w, r, &in) {
			return
		}
		res, err := a.assignments.SetCriteriaForStage(r.Context(), roundID, stageParam(r), in.IDs)
		writeResult(w, http.StatusOK, "Failed to assign stage criteria", res, err)
	}))

	r.Post("/stages/{stage}/criteria/apply", a.withRound(func(w http.ResponseWriter, r *http.Request, roundID uuid.UUID) {
		touched, err := a.assignments.ApplyStageCriteria(r.Context(), roundID, stageParam(r))
		writeResult(w, http.StatusOK, "Failed to apply stage criteria", map[string][]int{"matches": touched}, err)
	}))
}
