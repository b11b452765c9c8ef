package memory

import (
	"context"
	"sync"

	"github.com/vocabmaster/quiz-service/internal/repositories"
)

type lastUserRepository struct {
	mu    sync.RWMutex
	email string
}

func NewLastUserRepository() repositories.LastUserRepository {
	return &lastUserRepository{}
}

func (r *lastUserRepository) Set(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.email = email
	return nil
}

func (r *lastUserRepository) Get(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.email, nil
}

func (r *lastUserRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.email = ""
	return nil
}
