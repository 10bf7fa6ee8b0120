package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ArchivedAttempt is the local copy of a scored attempt, kept for offline
// review and export.
type ArchivedAttempt struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Owner           string         `json:"owner" gorm:"not null;size:255;uniqueIndex:idx_archived_owner_attempt"`
	AttemptID       int            `json:"attempt_id" gorm:"not null;uniqueIndex:idx_archived_owner_attempt"`
	QuizID          int            `json:"quiz_id" gorm:"not null;index"`
	QuizTitle       string         `json:"quiz_title" gorm:"size:255"`
	SubmittedAt     time.Time      `json:"submitted_at" gorm:"index"`
	TotalQuestions  int            `json:"total_questions"`
	CorrectAnswers  int            `json:"correct_answers"`
	Score           float64        `json:"score"`
	DurationSeconds int            `json:"duration_seconds"`
	Answers         datatypes.JSON `json:"answers" gorm:"type:jsonb"` // []AnswerReview
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (ArchivedAttempt) TableName() string {
	return "archived_attempts"
}

// NewArchivedAttempt builds an archive row from a scored result
func NewArchivedAttempt(owner string, result *AttemptResult, durationSeconds int) (*ArchivedAttempt, error) {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answer reviews: %w", err)
	}

	return &ArchivedAttempt{
		Owner:           owner,
		AttemptID:       result.ID,
		QuizID:          result.QuizID,
		QuizTitle:       result.QuizTitle,
		SubmittedAt:     result.SubmittedAt,
		TotalQuestions:  result.TotalQuestions,
		CorrectAnswers:  result.CorrectAnswers,
		Score:           result.Score,
		DurationSeconds: durationSeconds,
		Answers:         datatypes.JSON(answers),
	}, nil
}

// Result converts the archive row back into an AttemptResult
func (a *ArchivedAttempt) Result() (*AttemptResult, error) {
	var reviews []AnswerReview
	if len(a.Answers) > 0 {
		if err := json.Unmarshal(a.Answers, &reviews); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answer reviews: %w", err)
		}
	}

	return &AttemptResult{
		ID:             a.AttemptID,
		QuizID:         a.QuizID,
		QuizTitle:      a.QuizTitle,
		SubmittedAt:    a.SubmittedAt,
		TotalQuestions: a.TotalQuestions,
		CorrectAnswers: a.CorrectAnswers,
		Score:          a.Score,
		Answers:        reviews,
	}, nil
}
