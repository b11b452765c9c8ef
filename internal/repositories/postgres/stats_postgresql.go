package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/repositories"
)

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) repositories.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Get(ctx context.Context, email string) (*models.UserStats, error) {
	var record models.UserStatsRecord
	err := r.db.WithContext(ctx).First(&record, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stats for %s: %w", email, err)
	}
	return fromRecord(&record)
}

func (r *statsRepository) Save(ctx context.Context, email string, stats *models.UserStats) error {
	record, err := toRecord(email, stats)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", email, err)
	}
	return nil
}

func (r *statsRepository) Delete(ctx context.Context, email string) error {
	err := r.db.WithContext(ctx).Delete(&models.UserStatsRecord{}, "email = ?", email).Error
	if err != nil {
		return fmt.Errorf("failed to delete stats for %s: %w", email, err)
	}
	return nil
}

func toRecord(email string, stats *models.UserStats) (*models.UserStatsRecord, error) {
	mastered, err := json.Marshal(stats.MasteredWords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mastered words: %w", err)
	}
	history, err := json.Marshal(stats.History)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	return &models.UserStatsRecord{
		Email:           email,
		TotalAttempts:   stats.TotalAttempts,
		CorrectAttempts: stats.CorrectAttempts,
		MasteredWords:   datatypes.JSON(mastered),
		History:         datatypes.JSON(history),
	}, nil
}

func fromRecord(record *models.UserStatsRecord) (*models.UserStats, error) {
	stats := &models.UserStats{
		TotalAttempts:   record.TotalAttempts,
		CorrectAttempts: record.CorrectAttempts,
	}
	if len(record.MasteredWords) > 0 {
		if err := json.Unmarshal(record.MasteredWords, &stats.MasteredWords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mastered words: %w", err)
		}
	}
	if len(record.History) > 0 {
		if err := json.Unmarshal(record.History, &stats.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}
	return stats, nil
}
