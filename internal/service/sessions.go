package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AdamBeresnev/hackathon-judging/internal/session"
	"github.com/google/uuid"
)

// Sessions keeps the live bracket session of each round, loading it from the
// store the first time it is asked for.
type Sessions struct {
	mu       sync.Mutex
	open     map[uuid.UUID]*session.Session
	stops    map[uuid.UUID]func()
	store    session.Store
	opts     session.Options
	autosave time.Duration
	logger   *slog.Logger
}

// NewSessions creates the registry. A zero autosave interval disables autosave.
func NewSessions(store session.Store, opts session.Options, autosave time.Duration, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		open:     make(map[uuid.UUID]*session.Session),
		stops:    make(map[uuid.UUID]func()),
		store:    store,
		opts:     opts,
		autosave: autosave,
		logger:   logger,
	}
}

func (s *Sessions) Options() session.Options {
	return s.opts
}

func (s *Sessions) Get(ctx context.Context, roundID uuid.UUID) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.open[roundID]; ok {
		return sess, nil
	}

	sess, err := session.Open(ctx, roundID, s.store, s.logger, s.opts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBracket
	}
	if err != nil {
		return nil, err
	}
	s.track(roundID, sess)
	return sess, nil
}

// Replace installs a new session for the round, stopping the old one.
func (s *Sessions) Replace(roundID uuid.UUID, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrack(roundID)
	s.track(roundID, sess)
}

// Close stops the round's session after flushing unsaved changes.
func (s *Sessions) Close(roundID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrack(roundID)
}

func (s *Sessions) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for roundID := range s.open {
		s.untrack(roundID)
	}
}

func (s *Sessions) track(roundID uuid.UUID, sess *session.Session) {
	s.open[roundID] = sess
	if s.autosave > 0 {
		s.stops[roundID] = sess.StartAutosave(context.Background(), s.autosave)
	}
}

func (s *Sessions) untrack(roundID uuid.UUID) {
	sess, ok := s.open[roundID]
	if !ok {
		return
	}
	if stop, ok := s.stops[roundID]; ok {
		// Stopping autosave flushes
		stop()
		delete(s.stops, roundID)
	} else if sess.Dirty() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := sess.Save(ctx); err != nil {
			s.logger.Error("failed to save bracket on close", slog.String("round_id", roundID.String()), slog.Any("error", err))
		}
		cancel()
	}
	delete(s.open, roundID)
}
