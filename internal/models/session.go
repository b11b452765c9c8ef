package models

// SessionSummary is the frozen result of a finished practice run.
type SessionSummary struct {
	Score            int `json:"score"`
	TotalQuestions   int `json:"total_questions"`
	QuestionsCorrect int `json:"questions_correct"`
}
