package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with the project's custom rules
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("unique_questions", validateUniqueQuestions)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateUniqueQuestions rejects answer lists naming a question twice
func validateUniqueQuestions(fl validator.FieldLevel) bool {
	answers, ok := fl.Field().Interface().([]models.AnswerSelection)
	if !ok {
		return false
	}

	seen := make(map[int]struct{}, len(answers))
	for _, answer := range answers {
		if _, dup := seen[answer.QuestionID]; dup {
			return false
		}
		seen[answer.QuestionID] = struct{}{}
	}
	return true
}
