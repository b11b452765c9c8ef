package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocabmaster/quiz-service/internal/events"
	"github.com/vocabmaster/quiz-service/internal/generator"
	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/session"
)

// SessionService orchestrates quiz runs: question generation, the engine
// lifecycle and the hand-off of results into stats and events.
type SessionService interface {
	StartSession(ctx context.Context, email string, category models.QuizCategory, difficulty models.Difficulty) (string, session.Snapshot, error)
	GetSession(ctx context.Context, id string) (session.Snapshot, error)
	SubmitAnswer(ctx context.Context, id, option string) (bool, session.Snapshot, error)
	UseFiftyFifty(ctx context.Context, id string) ([]string, session.Snapshot, error)
	UseHint(ctx context.Context, id string) (string, session.Snapshot, error)
	Advance(ctx context.Context, id string) (session.Snapshot, error)
	Timeout(ctx context.Context, id string) (session.Snapshot, error)
	TimeRemaining(ctx context.Context, id string) (float64, error)
	Finish(ctx context.Context, id string) (models.SessionSummary, error)
	Abandon(ctx context.Context, id string) error
}

type sessionService struct {
	registry   *session.Registry
	generator  generator.Generator
	stats      StatsService
	publisher  events.EventPublisher
	logger     *slog.Logger
	questions  int
	engineOpts []session.Option
}

func NewSessionService(
	registry *session.Registry,
	gen generator.Generator,
	stats StatsService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	questionsPerSession int,
	engineOpts ...session.Option,
) SessionService {
	return &sessionService{
		registry:   registry,
		generator:  gen,
		stats:      stats,
		publisher:  publisher,
		logger:     logger,
		questions:  questionsPerSession,
		engineOpts: engineOpts,
	}
}

// attemptSink feeds answered questions into the stats service. The engine
// treats it as fire-and-forget, so failures are logged and swallowed here.
type attemptSink struct {
	email  string
	stats  StatsService
	logger *slog.Logger
}

func (s *attemptSink) RecordAttempt(category models.QuizCategory, targetWord string, isCorrect bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record := models.AttemptRecord{
		Timestamp:  time.Now().UTC(),
		Category:   category,
		TargetWord: targetWord,
		IsCorrect:  isCorrect,
	}
	if err := s.stats.RecordAttempt(ctx, s.email, record); err != nil {
		s.logger.Warn("Failed to record attempt",
			"email", s.email,
			"category", category,
			"error", err)
	}
}

// StartSession generates a fresh question set and registers a running
// engine for it. Mastered words are excluded from generation so returning
// users keep seeing new vocabulary; an empty email runs a guest session
// that records nothing.
func (s *sessionService) StartSession(ctx context.Context, email string, category models.QuizCategory, difficulty models.Difficulty) (string, session.Snapshot, error) {
	if !category.Valid() {
		return "", session.Snapshot{}, fmt.Errorf("%w: unknown category %q", ErrValidationFailed, category)
	}
	if !difficulty.Valid() {
		return "", session.Snapshot{}, fmt.Errorf("%w: unknown difficulty %q", ErrValidationFailed, difficulty)
	}

	var excludeWords []string
	if email != "" && category.IsVocabCategory() {
		words, err := s.stats.GetMasteredWords(ctx, email)
		if err != nil {
			s.logger.Warn("Failed to load mastered words, generating without exclusions",
				"email", email, "error", err)
		} else {
			excludeWords = words
		}
	}

	questions, err := s.generator.Generate(ctx, category, difficulty, s.questions, excludeWords)
	if err != nil {
		return "", session.Snapshot{}, err
	}

	sink := &attemptSink{email: email, stats: s.stats, logger: s.logger}
	engine, err := session.New(questions, difficulty, sink, s.engineOpts...)
	if err != nil {
		return "", session.Snapshot{}, err
	}
	engine.Start()

	id := s.registry.Put(engine, session.Meta{
		Email:      email,
		Category:   category,
		Difficulty: difficulty,
		StartedAt:  time.Now().UTC(),
	})

	s.logger.Info("Session started",
		"session_id", id,
		"email", email,
		"category", category,
		"difficulty", difficulty)

	return id, engine.View(), nil
}

func (s *sessionService) GetSession(ctx context.Context, id string) (session.Snapshot, error) {
	engine, _, err := s.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return engine.View(), nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, id, option string) (bool, session.Snapshot, error) {
	engine, _, err := s.lookup(id)
	if err != nil {
		return false, session.Snapshot{}, err
	}

	correct, err := engine.SelectAnswer(option)
	if err != nil {
		return false, session.Snapshot{}, err
	}
	return correct, engine.View(), nil
}

func (s *sessionService) UseFiftyFifty(ctx context.Context, id string) ([]string, session.Snapshot, error) {
	engine, _, err := s.lookup(id)
	if err != nil {
		return nil, session.Snapshot{}, err
	}

	hidden, err := engine.ApplyFiftyFifty()
	if err != nil {
		return nil, session.Snapshot{}, err
	}
	return hidden, engine.View(), nil
}

func (s *sessionService) UseHint(ctx context.Context, id string) (string, session.Snapshot, error) {
	engine, _, err := s.lookup(id)
	if err != nil {
		return "", session.Snapshot{}, err
	}

	hint, err := engine.ApplyHint()
	if err != nil {
		return "", session.Snapshot{}, err
	}
	return hint, engine.View(), nil
}

func (s *sessionService) Advance(ctx context.Context, id string) (session.Snapshot, error) {
	engine, _, err := s.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	if err := engine.Advance(); err != nil {
		return session.Snapshot{}, err
	}
	return engine.View(), nil
}

// Timeout lets a client report countdown expiry explicitly. The server-side
// countdown usually gets there first, in which case this is a no-op.
func (s *sessionService) Timeout(ctx context.Context, id string) (session.Snapshot, error) {
	engine, _, err := s.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	engine.TimeExpire()
	return engine.View(), nil
}

func (s *sessionService) TimeRemaining(ctx context.Context, id string) (float64, error) {
	engine, _, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return engine.TimeRemaining(), nil
}

// Finish closes out the run, publishes the completion event and removes the
// session from the registry. The summary is the frozen final state.
func (s *sessionService) Finish(ctx context.Context, id string) (models.SessionSummary, error) {
	engine, meta, err := s.lookup(id)
	if err != nil {
		return models.SessionSummary{}, err
	}

	summary, err := engine.Finish()
	if err != nil {
		return models.SessionSummary{}, err
	}

	event := events.NewQuizEvent(events.EventSessionCompleted, events.SessionCompletedData{
		Email:            meta.Email,
		SessionID:        id,
		Category:         meta.Category,
		Difficulty:       meta.Difficulty,
		Score:            summary.Score,
		TotalQuestions:   summary.TotalQuestions,
		QuestionsCorrect: summary.QuestionsCorrect,
	})
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish session completed event",
			"session_id", id, "error", err)
	}

	s.registry.Remove(id)

	s.logger.Info("Session finished",
		"session_id", id,
		"email", meta.Email,
		"score", summary.Score,
		"correct", summary.QuestionsCorrect,
		"total", summary.TotalQuestions)

	return summary, nil
}

// Abandon tears the session down without a summary, e.g. when the user
// navigates home mid-run.
func (s *sessionService) Abandon(ctx context.Context, id string) error {
	if _, _, err := s.lookup(id); err != nil {
		return err
	}
	s.registry.Remove(id)
	return nil
}

func (s *sessionService) lookup(id string) (*session.Engine, session.Meta, error) {
	engine, meta, ok := s.registry.Get(id)
	if !ok {
		return nil, session.Meta{}, ErrSessionNotFound
	}
	return engine, meta, nil
}
