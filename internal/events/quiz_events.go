package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/vocabmaster/quiz-service/internal/models"
)

// EventType represents the type of quiz event
type EventType string

const (
	EventAttemptRecorded  EventType = "attempt.recorded"
	EventSessionCompleted EventType = "session.completed"
	EventStatsCleared     EventType = "stats.cleared"
)

// QuizEvent is the envelope published for every quiz event
type QuizEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// AttemptRecordedData is the payload for attempt.recorded events
type AttemptRecordedData struct {
	Email      string              `json:"email"`
	Category   models.QuizCategory `json:"category"`
	TargetWord string              `json:"target_word"`
	IsCorrect  bool                `json:"is_correct"`
}

// SessionCompletedData is the payload for session.completed events
type SessionCompletedData struct {
	Email            string              `json:"email"`
	SessionID        string              `json:"session_id"`
	Category         models.QuizCategory `json:"category"`
	Difficulty       models.Difficulty   `json:"difficulty"`
	Score            int                 `json:"score"`
	TotalQuestions   int                 `json:"total_questions"`
	QuestionsCorrect int                 `json:"questions_correct"`
}

// StatsClearedData is the payload for stats.cleared events
type StatsClearedData struct {
	Email string `json:"email"`
}

// NewQuizEvent creates an event envelope with the service identity filled in
func NewQuizEvent(eventType EventType, data any) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "quiz-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
