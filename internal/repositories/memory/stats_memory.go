// Package memory provides in-memory repository implementations, used in
// tests and when running without a database.
package memory

import (
	"context"
	"sync"

	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/repositories"
)

type statsRepository struct {
	mu    sync.RWMutex
	stats map[string]*models.UserStats
}

func NewStatsRepository() repositories.StatsRepository {
	return &statsRepository{stats: make(map[string]*models.UserStats)}
}

func (r *statsRepository) Get(ctx context.Context, email string) (*models.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats, ok := r.stats[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return stats.Clone(), nil
}

func (r *statsRepository) Save(ctx context.Context, email string, stats *models.UserStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats[email] = stats.Clone()
	return nil
}

func (r *statsRepository) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.stats, email)
	return nil
}
