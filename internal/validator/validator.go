package validator

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/vocabmaster/quiz-service/internal/errors"
	"github.com/vocabmaster/quiz-service/internal/models"
	"github.com/vocabmaster/quiz-service/internal/utils"
)

// Validator wraps struct-tag validation and the semantic checks a question
// must pass before it is allowed into a session.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a validator with the quiz custom tags registered.
func New() *Validator {
	structValidator := validator.New()
	utils.RegisterCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// ValidateQuestion checks the semantic contract on top of the struct tags:
// the correct answer must be one of the options.
func (v *Validator) ValidateQuestion(q models.Question) error {
	if err := v.ValidateStruct(q); err != nil {
		return err
	}

	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return apperrors.ValidationErrors{
		*apperrors.NewValidationErrorWithRule("correct_answer", "must be one of the options", "answer_in_options", q.CorrectAnswer),
	}
}
