// Package session holds the live bracket of one judging round. All changes go
// through a Session so scoring, propagation and bye resolution happen as one
// step, and persistence is an explicit Save/Load against a Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/google/uuid"
)

var ErrDuplicateTeams = errors.New("bracket places a team more than once in a stage")

type Store interface {
	SaveBracket(ctx context.Context, roundID uuid.UUID, b bracket.Bracket) error
	LoadBracket(ctx context.Context, roundID uuid.UUID) (bracket.Bracket, error)
}

type Options struct {
	Bracket bracket.Options

	// Refuse brackets with duplicate teams instead of logging a warning
	StrictValidation   bool
	QualifiersPerGroup int
}

func DefaultOptions() Options {
	return Options{
		Bracket:            bracket.DefaultOptions(),
		QualifiersPerGroup: bracket.DefaultQualifiersPerGroup,
	}
}

type Session struct {
	mu      sync.Mutex
	roundID uuid.UUID
	bracket bracket.Bracket
	opts    Options
	store   Store
	logger  *slog.Logger

	// version counts mutations, saved is the version last written to the store
	version uint64
	saved   uint64
}

// New wraps a freshly built bracket. The bracket is considered unsaved.
func New(roundID uuid.UUID, b bracket.Bracket, store Store, logger *slog.Logger, opts Options) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		roundID: roundID,
		opts:    opts,
		store:   store,
		logger:  logger.With(slog.String("round_id", roundID.String())),
		version: 1,
	}
	if err := s.check(b); err != nil {
		return nil, err
	}
	s.bracket = b.Clone()
	return s, nil
}

// Open restores the session of a round from the store.
func Open(ctx context.Context, roundID uuid.UUID, store Store, logger *slog.Logger, opts Options) (*Session, error) {
	b, err := store.LoadBracket(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load bracket: %w", err)
	}
	s, err := New(roundID, b, store, logger, opts)
	if err != nil {
		return nil, err
	}
	s.saved = s.version
	return s, nil
}

// check runs the validator over a bracket about to be adopted.
func (s *Session) check(b bracket.Bracket) error {
	result := b.Validate()
	if result.OK {
		return nil
	}
	for _, d := range result.Duplicates {
		s.logger.Warn("duplicate team in bracket",
			slog.String("team", d.Team.Name),
			slog.String("stage", d.Stage),
			slog.Int("match_index", d.MatchIndex))
	}
	if s.opts.StrictValidation {
		return fmt.Errorf("%w: %d duplicates", ErrDuplicateTeams, len(result.Duplicates))
	}
	return nil
}

func (s *Session) RoundID() uuid.UUID {
	return s.roundID
}

// Bracket returns a deep copy of the current bracket.
func (s *Session) Bracket() bracket.Bracket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bracket.Clone()
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version != s.saved
}

func (s *Session) Validate() bracket.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bracket.Validate()
}

func (s *Session) Champion() *bracket.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.bracket.Champion(); c != nil {
		champion := *c
		return &champion
	}
	return nil
}

// update runs fn on the match with the given id under the lock and returns a
// copy of the match afterwards.
func (s *Session) update(matchID int, fn func(stageIndex, matchIndex int) error) (bracket.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stageIndex, matchIndex, ok := s.bracket.FindMatch(matchID)
	if !ok {
		return bracket.Match{}, fmt.Errorf("match %d: %w", matchID, bracket.ErrMatchNotFound)
	}
	if err := fn(stageIndex, matchIndex); err != nil {
		return bracket.Match{}, err
	}
	s.version++

	m, _ := s.bracket.Match(stageIndex, matchIndex)
	if m.Winner != nil && !m.Winner.Is(m.Team1) && !m.Winner.Is(m.Team2) {
		s.logger.Warn("winner is not part of the match", slog.Int("match_id", m.ID))
	}
	return m.Clone(), nil
}

// SetScore sets one side's score, then moves the resulting winner on through
// the bracket and resolves any byes that opened up.
func (s *Session) SetScore(matchID int, side bracket.Side, value float64) (bracket.Match, error) {
	return s.update(matchID, func(stageIndex, matchIndex int) error {
		if _, err := s.bracket.ApplyScore(stageIndex, matchIndex, side, value); err != nil {
			return err
		}
		if s.opts.Bracket.AutoResolveByes {
			s.bracket.ResolveByes()
		}
		return nil
	})
}

func (s *Session) ToggleCompleted(matchID int) (bracket.Match, error) {
	return s.update(matchID, func(stageIndex, matchIndex int) error {
		m, _ := s.bracket.Match(stageIndex, matchIndex)
		m.ToggleCompleted()
		return nil
	})
}

func (s *Session) SetStatus(matchID int, status bracket.MatchStatus) (bracket.Match, error) {
	return s.update(matchID, func(stageIndex, matchIndex int) error {
		m, _ := s.bracket.Match(stageIndex, matchIndex)
		return m.SetStatus(status)
	})
}

// SeedKnockout moves the group qualifiers into the knockout stage.
func (s *Session) SeedKnockout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	qualifiers := s.opts.QualifiersPerGroup
	if qualifiers <= 0 {
		qualifiers = bracket.DefaultQualifiersPerGroup
	}
	if err := s.bracket.SeedKnockout(qualifiers, s.opts.Bracket.AutoResolveByes); err != nil {
		return err
	}
	s.version++
	return nil
}

// Save writes the current bracket to the store. A failed save leaves the
// in-memory bracket untouched and the session dirty.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.bracket.Clone()
	version := s.version
	s.mu.Unlock()

	if err := s.store.SaveBracket(ctx, s.roundID, snapshot); err != nil {
		s.logger.Error("failed to save bracket", slog.Any("error", err))
		return fmt.Errorf("save bracket: %w", err)
	}

	s.mu.Lock()
	if version > s.saved {
		s.saved = version
	}
	s.mu.Unlock()
	return nil
}

// Load replaces the in-memory bracket with the stored one. On failure the
// current bracket is kept.
func (s *Session) Load(ctx context.Context) error {
	b, err := s.store.LoadBracket(ctx, s.roundID)
	if err != nil {
		return fmt.Errorf("load bracket: %w", err)
	}
	if err := s.check(b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bracket = b
	s.version++
	s.saved = s.version
	return nil
}

// StartAutosave saves the bracket every interval while it has unsaved changes.
// The returned stop function ends the task, does a last save if needed and
// waits for it to finish. It is safe to call more than once.
func (s *Session) StartAutosave(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.Dirty() {
					// Errors are logged by Save, the next tick retries
					_ = s.Save(ctx)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			if s.Dirty() {
				flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelFlush()
				_ = s.Save(flushCtx)
			}
		})
	}
}
