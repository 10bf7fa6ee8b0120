package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quizhub-practice/internal/errors"
	"github.com/SAP-F-2025/quizhub-practice/internal/quizapi"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotStarted = errors.New("no quiz loaded in this session")
	ErrSubmitInProgress  = errors.New("a submission is already in progress")
	ErrQuizEmpty         = errors.New("quiz has no questions")
	ErrQuizMalformed     = errors.New("quiz payload is malformed")

	// Attempt errors
	ErrArchiveNotFound = errors.New("archived attempt not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// LoadError means a quiz, attempt or listing could not be fetched
type LoadError struct {
	Resource string `json:"resource"`
	ID       int    `json:"id,omitempty"`
	Err      error  `json:"-"`
}

func (e *LoadError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("failed to load %s %d: %v", e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("failed to load %s: %v", e.Resource, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SubmissionError means the submit call failed after local checks passed.
// The session keeps its answers so the same submit can be retried.
type SubmissionError struct {
	QuizID int   `json:"quiz_id"`
	Err    error `json:"-"`
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to submit attempt for quiz %d: %v", e.QuizID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

type BookmarkSyncError struct {
	Op         string `json:"op"`
	QuestionID int    `json:"question_id,omitempty"`
	Err        error  `json:"-"`
}

func (e *BookmarkSyncError) Error() string {
	if e.QuestionID != 0 {
		return fmt.Sprintf("bookmark %s failed for question %d: %v", e.Op, e.QuestionID, e.Err)
	}
	return fmt.Sprintf("bookmark %s failed: %v", e.Op, e.Err)
}

func (e *BookmarkSyncError) Unwrap() error {
	return e.Err
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrArchiveNotFound) ||
		quizapi.IsNotFound(err)
}

// IsUnauthenticated checks if the backend rejected the learner's token
func IsUnauthenticated(err error) bool {
	return quizapi.IsUnauthenticated(err)
}

// IsPermission checks if error represents an ownership violation
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a local validation failure
func IsValidation(err error) bool {
	var ves apperrors.ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve *apperrors.ValidationError
	return errors.As(err, &ve)
}

func IsLoad(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func IsSubmission(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

func IsBookmarkSync(err error) bool {
	var be *BookmarkSyncError
	return errors.As(err, &be)
}

// UserMessage converts any service error into a message suitable for display
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ves apperrors.ValidationErrors
	if errors.As(err, &ves) {
		return ves.UserMessage()
	}
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}

	switch {
	case IsUnauthenticated(err):
		return "Your session has expired. Please sign in again."
	case IsPermission(err):
		return "You do not have access to this session."
	case errors.Is(err, ErrSessionNotFound):
		return "This quiz session no longer exists."
	case errors.Is(err, ErrSessionNotStarted):
		return "No quiz is loaded yet."
	case errors.Is(err, ErrSubmitInProgress):
		return "Your answers are already being submitted."
	}

	var le *LoadError
	if errors.As(err, &le) {
		switch {
		case errors.Is(err, ErrQuizEmpty):
			return "This quiz has no questions yet."
		case errors.Is(err, ErrQuizMalformed):
			return "This quiz cannot be practiced right now."
		case quizapi.IsNotFound(err):
			return fmt.Sprintf("The requested %s could not be found.", le.Resource)
		default:
			return fmt.Sprintf("Unable to load %s. Please try again.", le.Resource)
		}
	}

	var se *SubmissionError
	if errors.As(err, &se) {
		if detail := apiDetail(err); detail != "" {
			return fmt.Sprintf("Failed to submit attempt: %s", detail)
		}
		return "Failed to submit attempt. Your answers are saved, please try again."
	}

	var be *BookmarkSyncError
	if errors.As(err, &be) {
		return fmt.Sprintf("Could not %s bookmark. Please try again.", be.Op)
	}

	return "Something went wrong. Please try again."
}

func apiDetail(err error) string {
	var apiErr *quizapi.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		return apiErr.Detail
	}
	return ""
}
