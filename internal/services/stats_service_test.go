package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocabmaster/quiz-service/internal/events"
	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/repositories"
	"github.com/vocabmaster/quiz-service/internal/repositories/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRemote is an in-memory RemoteStatsStore with scriptable failures.
// Pushes arrive from background goroutines, so access goes through the mutex.
type fakeRemote struct {
	mu       sync.Mutex
	stored   *models.UserStats
	fetchErr error
	pushErr  error
	pushed   []*models.UserStats
}

func (f *fakeRemote) Fetch(ctx context.Context, email string) (*models.UserStats, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.stored, nil
}

func (f *fakeRemote) Push(ctx context.Context, email string, stats *models.UserStats) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, stats)
	return nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed)
}

func (f *fakeRemote) lastPush() *models.UserStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushed) == 0 {
		return nil
	}
	return f.pushed[len(f.pushed)-1]
}

func newStatsFixture(remote repositories.RemoteStatsStore) (StatsService, repositories.StatsRepository, *events.MockEventPublisher) {
	local := memory.NewStatsRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewStatsService(local, remote, nil, publisher, testLogger())
	return svc, local, publisher
}

func statsWithAttempts(total, correct int) *models.UserStats {
	stats := &models.UserStats{}
	for i := 0; i < total; i++ {
		stats.Apply(models.AttemptRecord{
			Timestamp:  time.Now().UTC(),
			Category:   models.CategorySynonyms,
			TargetWord: string(rune('a' + i)),
			IsCorrect:  i < correct,
		})
	}
	return stats
}

func attempt(word string, correct bool) models.AttemptRecord {
	return models.AttemptRecord{
		Timestamp:  time.Now().UTC(),
		Category:   models.CategorySynonyms,
		TargetWord: word,
		IsCorrect:  correct,
	}
}

func TestRecordAttempt(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	svc, local, publisher := newStatsFixture(remote)

	require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", attempt("ephemeral", true)))
	require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", attempt("ephemeral", true)))
	require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", attempt("lucid", false)))

	stats, err := local.Get(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAttempts)
	assert.Equal(t, 2, stats.CorrectAttempts)
	// Re-mastering the same word must not duplicate it.
	assert.Equal(t, []string{"ephemeral"}, stats.MasteredWords)
	assert.Len(t, stats.History, 3)

	// The remote is mirrored in the background; stale snapshots may be
	// skipped, but the final pushed state always carries all three attempts.
	require.Eventually(t, func() bool {
		last := remote.lastPush()
		return last != nil && last.TotalAttempts == 3
	}, time.Second, 10*time.Millisecond)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 3)
	assert.Equal(t, events.EventAttemptRecorded, published[0].Type)
}

func TestRecordAttempt_GuestIsNoop(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	svc, local, publisher := newStatsFixture(remote)

	require.NoError(t, svc.RecordAttempt(ctx, "", attempt("ephemeral", true)))

	_, err := local.Get(ctx, "")
	assert.True(t, repositories.IsNotFoundError(err))
	assert.Zero(t, remote.pushCount())
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestRecordAttempt_RemoteFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{pushErr: errors.New("remote down")}
	svc, local, _ := newStatsFixture(remote)

	require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", attempt("ephemeral", true)))

	stats, err := local.Get(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAttempts)
}

// blockedRemote parks every Push until released, simulating a webhook that
// hangs at the network level.
type blockedRemote struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockedRemote) Fetch(ctx context.Context, email string) (*models.UserStats, error) {
	return nil, nil
}

func (r *blockedRemote) Push(ctx context.Context, email string, stats *models.UserStats) error {
	r.started <- struct{}{}
	<-r.release
	return nil
}

// Recording an attempt must return as soon as the local save lands; the
// remote mirror runs in the background and a hung webhook cannot stall the
// answer path.
func TestRecordAttempt_SlowRemoteDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	remote := &blockedRemote{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc, local, _ := newStatsFixture(remote)

	done := make(chan error, 1)
	go func() {
		done <- svc.RecordAttempt(ctx, "user@test.com", attempt("ephemeral", true))
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RecordAttempt waited on the remote push")
	}

	// The local copy is already committed while the push is still in flight.
	stats, err := local.Get(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAttempts)

	select {
	case <-remote.started:
	case <-time.After(time.Second):
		t.Fatal("remote push never started")
	}
	close(remote.release)
}

func TestGetStats_RemoteAheadIsAdopted(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{stored: statsWithAttempts(15, 12)}
	svc, local, _ := newStatsFixture(remote)
	require.NoError(t, local.Save(ctx, "user@test.com", statsWithAttempts(10, 8)))

	stats, err := svc.GetStats(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 15, stats.TotalAttempts)
	assert.Equal(t, 12, stats.CorrectAttempts)

	// The adopted copy replaces the local one.
	saved, err := local.Get(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 15, saved.TotalAttempts)
	assert.Zero(t, remote.pushCount())
}

func TestGetStats_LocalAheadIsPushedUp(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{stored: statsWithAttempts(10, 8)}
	svc, local, _ := newStatsFixture(remote)
	require.NoError(t, local.Save(ctx, "user@test.com", statsWithAttempts(15, 12)))

	stats, err := svc.GetStats(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 15, stats.TotalAttempts)

	require.Equal(t, 1, remote.pushCount())
	assert.Equal(t, 15, remote.lastPush().TotalAttempts)
}

func TestGetStats_EqualCountsDoNothing(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{stored: statsWithAttempts(10, 5)}
	svc, local, _ := newStatsFixture(remote)
	require.NoError(t, local.Save(ctx, "user@test.com", statsWithAttempts(10, 8)))

	stats, err := svc.GetStats(ctx, "user@test.com")
	require.NoError(t, err)
	// Local wins ties even when the copies differ in content.
	assert.Equal(t, 8, stats.CorrectAttempts)
	assert.Zero(t, remote.pushCount())
}

func TestGetStats_RemoteEmptyTriggersPushUp(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	svc, local, _ := newStatsFixture(remote)
	require.NoError(t, local.Save(ctx, "user@test.com", statsWithAttempts(5, 3)))

	_, err := svc.GetStats(ctx, "user@test.com")
	require.NoError(t, err)
	require.Equal(t, 1, remote.pushCount())
	assert.Equal(t, 5, remote.lastPush().TotalAttempts)
}

func TestGetStats_RemoteFailureFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{fetchErr: errors.New("timeout")}
	svc, local, _ := newStatsFixture(remote)
	require.NoError(t, local.Save(ctx, "user@test.com", statsWithAttempts(7, 4)))

	stats, err := svc.GetStats(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalAttempts)
}

func TestGetStats_FreshUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newStatsFixture(nil)

	stats, err := svc.GetStats(ctx, "new@test.com")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalAttempts)
	assert.Empty(t, stats.MasteredWords)
	assert.Empty(t, stats.History)
}

// A guest has no stored data anywhere; GetStats answers with zero-value
// stats instead of an error.
func TestGetStats_GuestGetsZeroStats(t *testing.T) {
	svc, _, _ := newStatsFixture(nil)

	stats, err := svc.GetStats(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Zero(t, stats.TotalAttempts)
	assert.Empty(t, stats.MasteredWords)
	assert.Empty(t, stats.History)
}

func TestGetCategoryStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newStatsFixture(nil)

	records := []models.AttemptRecord{
		{Category: models.CategorySynonyms, TargetWord: "a", IsCorrect: true},
		{Category: models.CategorySynonyms, TargetWord: "b", IsCorrect: true},
		{Category: models.CategorySynonyms, TargetWord: "c", IsCorrect: false},
		{Category: models.CategoryIdioms, TargetWord: "d", IsCorrect: false},
	}
	for _, r := range records {
		r.Timestamp = time.Now().UTC()
		require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", r))
	}

	categories, err := svc.GetCategoryStats(ctx, "user@test.com")
	require.NoError(t, err)
	require.Len(t, categories, len(models.AllCategories))

	// Fixed ordering, every category present even without attempts.
	for i, cs := range categories {
		assert.Equal(t, models.AllCategories[i], cs.Category)
	}

	assert.Equal(t, 3, categories[0].Attempts)
	assert.InDelta(t, 66.67, categories[0].Accuracy, 0.01)

	assert.Equal(t, 1, categories[2].Attempts) // Idioms
	assert.Zero(t, categories[2].Accuracy)

	assert.Zero(t, categories[1].Attempts) // Antonyms untouched
	assert.Zero(t, categories[1].Accuracy)
}

func TestGetMasteredWords(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newStatsFixture(nil)

	require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", attempt("ephemeral", true)))
	require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", attempt("lucid", false)))

	words, err := svc.GetMasteredWords(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ephemeral"}, words)
}

func TestClearData(t *testing.T) {
	ctx := context.Background()
	svc, local, publisher := newStatsFixture(nil)
	require.NoError(t, svc.RecordAttempt(ctx, "user@test.com", attempt("ephemeral", true)))

	require.NoError(t, svc.ClearData(ctx, "user@test.com"))

	_, err := local.Get(ctx, "user@test.com")
	assert.True(t, repositories.IsNotFoundError(err))

	published := publisher.GetPublishedEvents()
	require.NotEmpty(t, published)
	assert.Equal(t, events.EventStatsCleared, published[len(published)-1].Type)
}

// Clearing as a guest has nothing to wipe and must not error or emit events.
func TestClearData_GuestIsNoop(t *testing.T) {
	svc, _, publisher := newStatsFixture(nil)

	require.NoError(t, svc.ClearData(context.Background(), ""))
	assert.Empty(t, publisher.GetPublishedEvents())
}

// ClearData only wipes the local copy: with a remote still holding data, the
// next GetStats re-adopts it.
func TestClearData_RemoteSurvives(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{stored: statsWithAttempts(9, 6)}
	svc, _, _ := newStatsFixture(remote)

	require.NoError(t, svc.ClearData(ctx, "user@test.com"))

	stats, err := svc.GetStats(ctx, "user@test.com")
	require.NoError(t, err)
	assert.Equal(t, 9, stats.TotalAttempts)
}
