package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AdamBeresnev/hackathon-judging/internal/config"
	"github.com/AdamBeresnev/hackathon-judging/internal/db"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	"github.com/AdamBeresnev/hackathon-judging/internal/notify"
	"github.com/AdamBeresnev/hackathon-judging/internal/service"
	"github.com/AdamBeresnev/hackathon-judging/internal/session"
	"github.com/AdamBeresnev/hackathon-judging/internal/storage"
	"github.com/AdamBeresnev/hackathon-judging/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.MigrationsURL); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	middleware.InitAuth(cfg.OAuth)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub(logger, cfg.CORSOrigins)
	go hub.Run(ctx)

	var archiver *storage.Archiver
	if cfg.Archive.Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.Archive)
		if err != nil {
			logger.Error("failed to initialize archive storage", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewArchiver(uploader)
		logger.Info("archive storage enabled", slog.String("bucket", cfg.Archive.Bucket))
	}

	a := newApp(database, cfg, sessionManager, hub, archiver, logger)
	defer a.sessions.CloseAll()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(a),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			server.Close()
		}
	}
	logger.Info("server stopped")
}

type app struct {
	sessionManager *scs.SessionManager
	hub            *notify.Hub
	logger         *slog.Logger
	origins        []string

	sessions    *service.Sessions
	rounds      *service.RoundService
	brackets    *service.BracketService
	assignments *service.AssignmentService
	scoring     *service.ScoringService
	teams       *service.TeamService
	users       *service.UserService
	userStore   *store.UserStore
}

func newApp(database *sqlx.DB, cfg *config.Config, sessionManager *scs.SessionManager, hub *notify.Hub, archiver *storage.Archiver, logger *slog.Logger) *app {
	roundStore := store.NewRoundStore(database)
	teamStore := store.NewTeamStore(database)
	userStore := store.NewUserStore(database)
	criteriaStore := store.NewCriteriaStore(database)
	markStore := store.NewMarkStore(database)
	assignmentStore := store.NewAssignmentStore(database)

	opts := session.DefaultOptions()
	opts.Bracket.AutoResolveByes = cfg.AutoResolveByes
	opts.Bracket.GroupStageThreshold = cfg.GroupStageThreshold
	opts.StrictValidation = cfg.StrictValidation
	opts.QualifiersPerGroup = cfg.QualifiersPerGroup

	sessions := service.NewSessions(store.NewBracketStore(database), opts, cfg.AutosaveInterval, logger)
	brackets := service.NewBracketService(roundStore, assignmentStore, sessions, hub, logger)

	return &app{
		sessionManager: sessionManager,
		hub:            hub,
		logger:         logger,
		origins:        cfg.CORSOrigins,
		sessions:       sessions,
		rounds: service.NewRoundService(database, service.RoundStores{
			Rounds:      roundStore,
			Teams:       teamStore,
			Marks:       markStore,
			Assignments: assignmentStore,
		}, sessions, archiver, hub, logger),
		brackets:    brackets,
		assignments: service.NewAssignmentService(assignmentStore, criteriaStore, userStore, brackets),
		scoring:     service.NewScoringService(roundStore, criteriaStore, markStore, userStore, hub, logger),
		teams:       service.NewTeamService(database, teamStore),
		users:       service.NewUserService(database, userStore),
		userStore:   userStore,
	}
}
