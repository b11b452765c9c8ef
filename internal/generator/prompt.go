package generator

import (
	"fmt"
	"strings"

	"github.com/vocabmaster/quiz-service/internal/models"
)

const systemInstruction = `You are an expert verbal ability tutor for MBA CET exams.
Generate challenging verbal ability questions.
Ensure distractors (wrong options) are plausible and confusing.
Provide clear, concise explanations.`

// Exclusion lists are truncated to the most recent entries to save tokens.
const maxExcludeWords = 500

// categorySpecifics returns the per-category prompt instructions and the
// description of the targetWord field for the response schema.
func categorySpecifics(category models.QuizCategory) (specifics, targetWordDesc string) {
	switch category {
	case models.CategorySynonyms:
		return "Generate synonym questions. The 'targetWord' is the main word. The question should ask for the word most similar in meaning.",
			"The core word being tested"
	case models.CategoryAntonyms:
		return "Generate antonym questions. The 'targetWord' is the main word. The question should ask for the word opposite in meaning.",
			"The core word being tested"
	case models.CategoryIdioms:
		return "Generate idiom/phrase meaning questions. The 'targetWord' is the idiom itself. The question should provide the idiom and ask for its meaning.",
			"The idiom being tested"
	case models.CategoryClozeTest:
		return "Generate sentence completion (cloze) questions. The 'targetWord' is the correct answer that fits the blank. The question text must contain a '______' placeholder.",
			"The correct word filling the blank"
	case models.CategoryOneWord:
		return "Generate one-word substitution questions. The question text describes a concept/person, and the answer is the single word for it. 'targetWord' is the answer.",
			"The answer word"
	case models.CategorySpotError:
		return "Generate 'Spot the Error' questions. The question text is a sentence divided into segments (e.g., A, B, C, D) or simply a sentence with a grammatical error. The options should be the specific segment text or 'No Error'. 'targetWord' should be the incorrect segment.",
			"The segment containing the error"
	case models.CategorySentenceArrangement:
		return "Generate 'Sentence Arrangement' (Parajumbles) questions. The questionText must provide 4-5 jumbled sentences labeled A, B, C, D. The options must be sequences like 'BDAC', 'ACBD', etc. 'targetWord' is the correct sequence string.",
			"The correct sequence string"
	case models.CategoryPossibleStarters:
		return "Generate 'Possible Starters' questions. The questionText must provide two separate sentences and 3 possible starters labeled (i), (ii), (iii). The question asks which starters can combine the sentences meaningfully. Options should be like 'Only (i)', 'Both (i) and (ii)', etc. 'targetWord' is the correct option text.",
			"The correct option text"
	}
	return "", "The word being tested"
}

func buildPrompt(category models.QuizCategory, difficulty models.Difficulty, count int, excludeWords []string) string {
	specifics, _ := categorySpecifics(category)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d distinct %s questions for MBA CET preparation at %s difficulty.\n", count, category, difficulty)
	b.WriteString(specifics)

	// Word exclusion only applies to vocabulary-centric categories; for the
	// others the target is a sequence or segment, not a reusable word.
	if category.IsVocabCategory() && len(excludeWords) > 0 {
		if len(excludeWords) > maxExcludeWords {
			excludeWords = excludeWords[len(excludeWords)-maxExcludeWords:]
		}
		fmt.Fprintf(&b, "\nIMPORTANT: Do NOT use the following words/idioms as the correct answer (targetWord): [%s].\n", strings.Join(excludeWords, ", "))
		b.WriteString("If the exclusion list is very long, just ensure you pick high-frequency MBA exam words that are NOT in that list.\n")
	}

	return b.String()
}

// questionResponseSchema is the structured-output schema sent with every
// generation request.
func questionResponseSchema(category models.QuizCategory) map[string]any {
	_, targetWordDesc := categorySpecifics(category)

	return map[string]any{
		"type": "ARRAY",
		"items": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"type":         map[string]any{"type": "STRING"},
				"targetWord":   map[string]any{"type": "STRING", "description": targetWordDesc},
				"questionText": map[string]any{"type": "STRING"},
				"options": map[string]any{
					"type":        "ARRAY",
					"items":       map[string]any{"type": "STRING"},
					"description": "Array of 4 options including the correct answer",
				},
				"correctAnswer": map[string]any{"type": "STRING", "description": "Must be exactly one of the strings in options"},
				"explanation":   map[string]any{"type": "STRING", "description": "Why the answer is correct and others are wrong"},
				"hint":          map[string]any{"type": "STRING", "description": "A short hint that does not give the answer away"},
			},
			"required": []string{"type", "targetWord", "questionText", "options", "correctAnswer", "explanation", "hint"},
		},
	}
}
