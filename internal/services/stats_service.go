package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vocabmaster/quiz-service/internal/cache"
	"github.com/vocabmaster/quiz-service/internal/events"
	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/repositories"
)

// statsCacheTTL bounds how stale a cached reconciled view may be.
const statsCacheTTL = 30 * time.Second

// remotePushTimeout bounds a background push; it matches the webhook client
// timeout so a hung remote cannot pile up goroutines indefinitely.
const remotePushTimeout = 15 * time.Second

// StatsService owns per-user persistent statistics: recording attempts,
// derived views (mastered words, per-category accuracy) and reconciling the
// local copy with the remote one.
type StatsService interface {
	RecordAttempt(ctx context.Context, email string, record models.AttemptRecord) error
	GetStats(ctx context.Context, email string) (*models.UserStats, error)
	GetMasteredWords(ctx context.Context, email string) ([]string, error)
	GetCategoryStats(ctx context.Context, email string) ([]models.CategoryStats, error)
	ClearData(ctx context.Context, email string) error
}

type statsService struct {
	local     repositories.StatsRepository
	remote    repositories.RemoteStatsStore // nil when remote sync is not configured
	cache     cache.CacheService            // nil when running without Redis
	publisher events.EventPublisher
	logger    *slog.Logger

	// pushMu serializes remote pushes; lastPushed tracks the highest attempt
	// count pushed per email so a late goroutine never regresses the remote
	// with a stale snapshot.
	pushMu     sync.Mutex
	lastPushed map[string]int
}

func NewStatsService(
	local repositories.StatsRepository,
	remote repositories.RemoteStatsStore,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		local:      local,
		remote:     remote,
		cache:      cacheService,
		publisher:  publisher,
		logger:     logger,
		lastPushed: make(map[string]int),
	}
}

// RecordAttempt appends one attempt to the user's stats. The local save is
// the source of truth; the remote push runs in the background so answering a
// question never waits on the sync webhook, and the event publish is best
// effort. Neither can fail the call. An empty email (guest mode) is a silent
// no-op.
func (s *statsService) RecordAttempt(ctx context.Context, email string, record models.AttemptRecord) error {
	if email == "" {
		return nil
	}

	stats, err := s.loadLocal(ctx, email)
	if err != nil {
		return err
	}

	stats.Apply(record)

	if err := s.local.Save(ctx, email, stats); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	s.invalidateCache(ctx, email)

	s.pushRemoteAsync(email, stats)

	event := events.NewQuizEvent(events.EventAttemptRecorded, events.AttemptRecordedData{
		Email:      email,
		Category:   record.Category,
		TargetWord: record.TargetWord,
		IsCorrect:  record.IsCorrect,
	})
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish attempt event", "email", email, "error", err)
	}

	return nil
}

// GetStats returns the reconciled stats for the user. The remote copy wins
// when it has strictly more attempts; when it has strictly fewer the local
// copy is pushed up; on a tie nothing moves. A remote failure degrades to
// the local copy. A guest (empty email) gets zero-value stats.
func (s *statsService) GetStats(ctx context.Context, email string) (*models.UserStats, error) {
	if email == "" {
		return &models.UserStats{}, nil
	}

	if cached := s.cachedStats(ctx, email); cached != nil {
		return cached, nil
	}

	stats, err := s.loadLocal(ctx, email)
	if err != nil {
		return nil, err
	}

	stats = s.reconcile(ctx, email, stats)

	s.cacheStats(ctx, email, stats)
	return stats, nil
}

func (s *statsService) GetMasteredWords(ctx context.Context, email string) ([]string, error) {
	stats, err := s.GetStats(ctx, email)
	if err != nil {
		return nil, err
	}
	return stats.MasteredWords, nil
}

// GetCategoryStats breaks accuracy down per category, always returning all
// categories in their canonical order. Categories without attempts report
// zero accuracy rather than dividing by zero.
func (s *statsService) GetCategoryStats(ctx context.Context, email string) ([]models.CategoryStats, error) {
	stats, err := s.GetStats(ctx, email)
	if err != nil {
		return nil, err
	}

	attempts := make(map[models.QuizCategory]int)
	correct := make(map[models.QuizCategory]int)
	for _, record := range stats.History {
		attempts[record.Category]++
		if record.IsCorrect {
			correct[record.Category]++
		}
	}

	out := make([]models.CategoryStats, 0, len(models.AllCategories))
	for _, category := range models.AllCategories {
		cs := models.CategoryStats{Category: category, Attempts: attempts[category]}
		if cs.Attempts > 0 {
			cs.Accuracy = float64(correct[category]) / float64(cs.Attempts) * 100
		}
		out = append(out, cs)
	}
	return out, nil
}

// ClearData wipes the user's local stats. The remote copy is deliberately
// left untouched: a later GetStats will re-adopt it, which makes clearing
// reversible for synced users. A guest (empty email) has nothing stored, so
// the call is a silent no-op.
func (s *statsService) ClearData(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}

	if err := s.local.Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to clear stats: %w", err)
	}
	s.invalidateCache(ctx, email)

	event := events.NewQuizEvent(events.EventStatsCleared, events.StatsClearedData{Email: email})
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish stats cleared event", "email", email, "error", err)
	}

	return nil
}

// ===== internal helpers =====

// loadLocal returns the stored stats, or a fresh zero value for a new user.
func (s *statsService) loadLocal(ctx context.Context, email string) (*models.UserStats, error) {
	stats, err := s.local.Get(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &models.UserStats{}, nil
		}
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}

// reconcile applies the attempt-count heuristic between local and remote.
// TotalAttempts only ever grows, so the copy with more attempts is the
// fresher one; a content-level merge is intentionally out of scope.
func (s *statsService) reconcile(ctx context.Context, email string, local *models.UserStats) *models.UserStats {
	if s.remote == nil {
		return local
	}

	remoteStats, err := s.remote.Fetch(ctx, email)
	if err != nil {
		s.logger.Warn("Remote stats fetch failed, using local copy", "email", email, "error", err)
		return local
	}

	remoteTotal := 0
	if remoteStats != nil {
		remoteTotal = remoteStats.TotalAttempts
	}

	switch {
	case remoteTotal > local.TotalAttempts:
		if err := s.local.Save(ctx, email, remoteStats); err != nil {
			s.logger.Warn("Failed to persist adopted remote stats", "email", email, "error", err)
			return local
		}
		s.logger.Info("Adopted remote stats",
			"email", email,
			"local_attempts", local.TotalAttempts,
			"remote_attempts", remoteTotal)
		return remoteStats

	case remoteTotal < local.TotalAttempts:
		s.pushRemote(ctx, email, local)
		return local

	default:
		return local
	}
}

// pushRemoteAsync mirrors the applied stats to the remote from a goroutine
// launched only after the local save has returned, with its own timeout so
// the caller's deadline does not apply.
func (s *statsService) pushRemoteAsync(email string, stats *models.UserStats) {
	if s.remote == nil {
		return
	}
	snapshot := stats.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remotePushTimeout)
		defer cancel()
		s.pushRemote(ctx, email, snapshot)
	}()
}

func (s *statsService) pushRemote(ctx context.Context, email string, stats *models.UserStats) {
	if s.remote == nil {
		return
	}

	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	if stats.TotalAttempts <= s.lastPushed[email] {
		return
	}
	if err := s.remote.Push(ctx, email, stats); err != nil {
		s.logger.Warn("Remote stats push failed", "email", email, "error", err)
		return
	}
	s.lastPushed[email] = stats.TotalAttempts
}

func (s *statsService) cachedStats(ctx context.Context, email string) *models.UserStats {
	if s.cache == nil {
		return nil
	}
	var stats models.UserStats
	if err := s.cache.Get(ctx, statsCacheKey(email), &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *statsService) cacheStats(ctx context.Context, email string, stats *models.UserStats) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey(email), stats, statsCacheTTL); err != nil {
		s.logger.Warn("Failed to cache stats", "email", email, "error", err)
	}
}

func (s *statsService) invalidateCache(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(email)); err != nil {
		s.logger.Warn("Failed to invalidate stats cache", "email", email, "error", err)
	}
}

func statsCacheKey(email string) string {
	return "quiz:stats:" + email
}
