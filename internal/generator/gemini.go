package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/validator"
)

// ErrGenerationFailed is the single user-facing generation error. Network,
// quota and parse failures are all collapsed into it; callers only decide
// between "retry" and "return home".
var ErrGenerationFailed = errors.New("question generation failed")

// Generator produces a batch of questions for one category and difficulty.
type Generator interface {
	Generate(ctx context.Context, category models.QuizCategory, difficulty models.Difficulty, count int, excludeWords []string) ([]models.Question, error)
}

// GeminiGenerator calls the Gemini generateContent endpoint with a JSON
// response schema and decodes the result into questions.
type GeminiGenerator struct {
	baseURL  string
	apiKey   string
	model    string
	client   *http.Client // reused across calls
	validate *validator.Validator
}

var _ Generator = (*GeminiGenerator)(nil)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

func NewGeminiGenerator(baseURL, apiKey, model string) *GeminiGenerator {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		validate: validator.New(),
	}
}

// generatedQuestion mirrors the response schema sent to the model.
type generatedQuestion struct {
	Type          string   `json:"type"`
	TargetWord    string   `json:"targetWord"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Hint          string   `json:"hint"`
}

type generateContentRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate requests count questions and enforces the shape contract the
// session engine assumes: exactly count questions, four unique options per
// question, and a correct answer that is one of the options.
func (g *GeminiGenerator) Generate(ctx context.Context, category models.QuizCategory, difficulty models.Difficulty, count int, excludeWords []string) ([]models.Question, error) {
	prompt := buildPrompt(category, difficulty, count, excludeWords)

	raw, err := g.callModel(ctx, prompt, questionResponseSchema(category))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(raw), &generated); err != nil {
		return nil, fmt.Errorf("%w: invalid response payload: %v", ErrGenerationFailed, err)
	}

	questions, err := g.toQuestions(generated, category, count)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return questions, nil
}

func (g *GeminiGenerator) callModel(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	reqBody := generateContentRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var modelResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelResp); err != nil {
		return "", fmt.Errorf("failed to decode model response: %w", err)
	}

	if len(modelResp.Candidates) == 0 || len(modelResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}

	text := modelResp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return text, nil
}

// toQuestions converts the decoded payload and runs each question through
// the shared validator: required fields, four unique options, and a correct
// answer that is one of them.
func (g *GeminiGenerator) toQuestions(generated []generatedQuestion, category models.QuizCategory, count int) ([]models.Question, error) {
	if len(generated) != count {
		return nil, fmt.Errorf("expected %d questions, got %d", count, len(generated))
	}

	questions := make([]models.Question, 0, count)
	for i, gq := range generated {
		q := models.Question{
			ID:            uuid.NewString(),
			Type:          category,
			TargetWord:    gq.TargetWord,
			QuestionText:  gq.QuestionText,
			Options:       gq.Options,
			CorrectAnswer: gq.CorrectAnswer,
			Explanation:   gq.Explanation,
			Hint:          gq.Hint,
		}
		if err := g.validate.ValidateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}
