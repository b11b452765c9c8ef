package models

import "time"

type QuizCategory string

const (
	CategorySynonyms            QuizCategory = "Synonyms"
	CategoryAntonyms            QuizCategory = "Antonyms"
	CategoryIdioms              QuizCategory = "Idioms"
	CategoryClozeTest           QuizCategory = "Cloze Test"
	CategoryOneWord             QuizCategory = "One Word Substitution"
	CategorySpotError           QuizCategory = "Spot the Error"
	CategorySentenceArrangement QuizCategory = "Sentence Arrangement"
	CategoryPossibleStarters    QuizCategory = "Possible Starters"
)

// AllCategories is the fixed category enumeration. Ordering matters:
// per-category stats are always reported in this order.
var AllCategories = []QuizCategory{
	CategorySynonyms,
	CategoryAntonyms,
	CategoryIdioms,
	CategoryClozeTest,
	CategoryOneWord,
	CategorySpotError,
	CategorySentenceArrangement,
	CategoryPossibleStarters,
}

func (c QuizCategory) Valid() bool {
	for _, cat := range AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// IsVocabCategory reports whether the category tests individual words or
// idioms. Only these categories participate in mastered-word exclusion
// during question generation.
func (c QuizCategory) IsVocabCategory() bool {
	switch c {
	case CategorySynonyms, CategoryAntonyms, CategoryIdioms, CategoryOneWord:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TimeBudget returns the per-question countdown for the difficulty.
func (d Difficulty) TimeBudget() time.Duration {
	switch d {
	case DifficultyEasy:
		return 45 * time.Second
	case DifficultyHard:
		return 20 * time.Second
	default:
		return 30 * time.Second
	}
}

// Question is a single multiple-choice question. It is immutable once
// produced by the generator; the session engine only reads it.
type Question struct {
	ID            string       `json:"id"`
	Type          QuizCategory `json:"type" validate:"required,quiz_category"`
	TargetWord    string       `json:"target_word" validate:"required"`
	QuestionText  string       `json:"question_text" validate:"required"`
	Options       []string     `json:"options" validate:"required,len=4,unique"`
	CorrectAnswer string       `json:"correct_answer" validate:"required"`
	Explanation   string       `json:"explanation"`
	Hint          string       `json:"hint"`
}

// WrongOptions returns the options that are not the correct answer.
func (q Question) WrongOptions() []string {
	wrong := make([]string, 0, len(q.Options)-1)
	for _, opt := range q.Options {
		if opt != q.CorrectAnswer {
			wrong = append(wrong, opt)
		}
	}
	return wrong
}
