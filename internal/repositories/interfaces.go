package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vocabmaster/quiz-service/internal/models"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError checks if error represents a "not found" condition,
// regardless of which backing store produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// StatsRepository is the primary (local) per-user stats store. It is the
// immediately-consistent source of truth; the remote copy only trails it.
type StatsRepository interface {
	Get(ctx context.Context, email string) (*models.UserStats, error)
	Save(ctx context.Context, email string, stats *models.UserStats) error
	Delete(ctx context.Context, email string) error
}

// RemoteStatsStore is the best-effort remote copy of per-user stats,
// reached through the sync webhook. Fetch returns (nil, nil) when the
// remote has no data for the email.
type RemoteStatsStore interface {
	Fetch(ctx context.Context, email string) (*models.UserStats, error)
	Push(ctx context.Context, email string, stats *models.UserStats) error
}

// LastUserRepository is the single-slot record of the last logged-in email,
// used to restore a session on restart. Get returns "" when the slot is
// empty.
type LastUserRepository interface {
	Set(ctx context.Context, email string) error
	Get(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}
