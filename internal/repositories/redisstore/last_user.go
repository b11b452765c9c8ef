// Package redisstore keeps the small bits of state that live in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vocabmaster/quiz-service/internal/repositories"
)

const lastUserKey = "quiz:last_user"

type lastUserRepository struct {
	client *redis.Client
}

func NewLastUserRepository(client *redis.Client) repositories.LastUserRepository {
	return &lastUserRepository{client: client}
}

func (r *lastUserRepository) Set(ctx context.Context, email string) error {
	if err := r.client.Set(ctx, lastUserKey, email, 0).Err(); err != nil {
		return fmt.Errorf("failed to set last user: %w", err)
	}
	return nil
}

func (r *lastUserRepository) Get(ctx context.Context) (string, error) {
	email, err := r.client.Get(ctx, lastUserKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last user: %w", err)
	}
	return email, nil
}

func (r *lastUserRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, lastUserKey).Err(); err != nil {
		return fmt.Errorf("failed to clear last user: %w", err)
	}
	return nil
}
