package validator

import (
	"fmt"

	"github.com/SAP-F-2025/quizhub-practice/internal/errors"
	"github.com/SAP-F-2025/quizhub-practice/internal/models"
)

// ValidateQuiz checks the shape of a quiz payload from the backend. Answers
// and flags are keyed by question id, so ids must be positive and unique and
// every question needs at least one option to choose from.
func (v *Validator) ValidateQuiz(quiz *models.Quiz) error {
	if quiz == nil {
		return ValidationErrors{{Field: "quiz", Message: "is required", Rule: "required"}}
	}

	var errs ValidationErrors
	seen := make(map[int]struct{}, len(quiz.Questions))
	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		field := fmt.Sprintf("questions[%d]", i)

		if question.ID <= 0 {
			errs = append(errs, *errors.NewValidationErrorWithRule(field+".id", "must be positive", "min", question.ID))
		} else if _, dup := seen[question.ID]; dup {
			errs = append(errs, *errors.NewValidationErrorWithRule(field+".id", "duplicates an earlier question", "unique", question.ID))
		}
		seen[question.ID] = struct{}{}

		errs = append(errs, v.validateOptions(field, question.Options)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) validateOptions(field string, options []models.Option) ValidationErrors {
	if len(options) == 0 {
		return ValidationErrors{*errors.NewValidationErrorWithRule(field+".options", "must have at least 1 option", "min", 0)}
	}

	var errs ValidationErrors
	optionIDs := make(map[int]struct{}, len(options))
	for j, option := range options {
		if _, dup := optionIDs[option.ID]; dup {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				fmt.Sprintf("%s.options[%d].id", field, j), "duplicates an earlier option", "unique", option.ID))
		}
		optionIDs[option.ID] = struct{}{}
	}
	return errs
}
