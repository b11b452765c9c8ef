package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vocabmaster/quiz-service/internal/models"
)

// Custom validation functions

func ValidateQuizCategory(fl validator.FieldLevel) bool {
	return models.QuizCategory(fl.Field().String()).Valid()
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	return models.Difficulty(fl.Field().String()).Valid()
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("quiz_category", ValidateQuizCategory)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
