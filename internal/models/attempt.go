package models

import "time"

// AnswerSelection is one (question, option) pair of a submission
type AnswerSelection struct {
	QuestionID       int `json:"question_id" validate:"required,min=1"`
	SelectedOptionID int `json:"selected_option_id" validate:"required,min=1"`
}

// SubmitAttemptRequest is the body of POST /attempts
type SubmitAttemptRequest struct {
	QuizID          int               `json:"quiz_id" validate:"required,min=1"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	DurationSeconds int               `json:"duration_seconds" validate:"min=0"`
	Answers         []AnswerSelection `json:"answers" validate:"required,min=1,unique_questions,dive"`
}

type AttemptAnswerOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// AnswerReview is the scored view of one answered question
type AnswerReview struct {
	QuestionID       int                   `json:"question_id"`
	Prompt           string                `json:"prompt"`
	Explanation      *string               `json:"explanation"`
	SelectedOptionID *int                  `json:"selected_option_id"`
	CorrectOptionID  *int                  `json:"correct_option_id"`
	IsCorrect        bool                  `json:"is_correct"`
	Options          []AttemptAnswerOption `json:"options"`
}

// AttemptResult is what the backend returns for a scored attempt. It is
// immutable once created.
type AttemptResult struct {
	ID             int            `json:"id"`
	QuizID         int            `json:"quiz_id"`
	QuizTitle      string         `json:"quiz_title"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	TotalQuestions int            `json:"total_questions"`
	CorrectAnswers int            `json:"correct_answers"`
	Score          float64        `json:"score"`
	Answers        []AnswerReview `json:"answers"`
}

type AttemptHistoryEntry struct {
	ID              int       `json:"id"`
	QuizID          int       `json:"quiz_id"`
	QuizTitle       string    `json:"quiz_title"`
	SubmittedAt     time.Time `json:"submitted_at"`
	TotalQuestions  int       `json:"total_questions"`
	CorrectAnswers  int       `json:"correct_answers"`
	Score           float64   `json:"score"`
	DurationSeconds int       `json:"duration_seconds"`
	CategoryID      *int      `json:"category_id"`
	CategoryName    *string   `json:"category_name"`
	Difficulty      string    `json:"difficulty"`
	Type            string    `json:"type"`
}
