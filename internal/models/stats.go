package models

import (
	"time"

	"gorm.io/datatypes"
)

// AttemptRecord is one answered question. Append-only, immutable once created.
type AttemptRecord struct {
	Timestamp  time.Time    `json:"timestamp"`
	Category   QuizCategory `json:"category"`
	TargetWord string       `json:"target_word"`
	IsCorrect  bool         `json:"is_correct"`
}

// UserStats holds the per-user aggregate statistics, keyed by email.
//
// Invariants: TotalAttempts == len(History); CorrectAttempts equals the number
// of correct records; MasteredWords is the deduplicated set of target words
// ever answered correctly.
type UserStats struct {
	TotalAttempts   int             `json:"total_attempts"`
	CorrectAttempts int             `json:"correct_attempts"`
	MasteredWords   []string        `json:"mastered_words"`
	History         []AttemptRecord `json:"history"`
}

// Apply appends a record and updates the aggregate counters, keeping the
// UserStats invariants. Re-mastering an already-mastered word is a no-op on
// the mastered set.
func (s *UserStats) Apply(record AttemptRecord) {
	s.History = append(s.History, record)
	s.TotalAttempts++

	if !record.IsCorrect {
		return
	}
	s.CorrectAttempts++
	for _, word := range s.MasteredWords {
		if word == record.TargetWord {
			return
		}
	}
	s.MasteredWords = append(s.MasteredWords, record.TargetWord)
}

// Clone returns a deep copy that is safe to hand to another goroutine.
func (s *UserStats) Clone() *UserStats {
	out := &UserStats{
		TotalAttempts:   s.TotalAttempts,
		CorrectAttempts: s.CorrectAttempts,
	}
	if s.MasteredWords != nil {
		out.MasteredWords = append([]string(nil), s.MasteredWords...)
	}
	if s.History != nil {
		out.History = append([]AttemptRecord(nil), s.History...)
	}
	return out
}

// Accuracy returns the overall accuracy percentage, 0 when there are no attempts.
func (s *UserStats) Accuracy() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.CorrectAttempts) / float64(s.TotalAttempts) * 100
}

// CategoryStats is the per-category accuracy breakdown shown on the dashboard.
type CategoryStats struct {
	Category QuizCategory `json:"category"`
	Attempts int          `json:"attempts"`
	Accuracy float64      `json:"accuracy"`
}

// UserStatsRecord is the persisted form of UserStats, one row per email.
type UserStatsRecord struct {
	Email           string         `json:"email" gorm:"primaryKey;size:320"`
	TotalAttempts   int            `json:"total_attempts" gorm:"not null;default:0"`
	CorrectAttempts int            `json:"correct_attempts" gorm:"not null;default:0"`
	MasteredWords   datatypes.JSON `json:"mastered_words" gorm:"type:jsonb"`
	History         datatypes.JSON `json:"history" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserStatsRecord) TableName() string {
	return "user_stats"
}
