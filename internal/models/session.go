package models

import "time"

type SessionStatus string

const (
	SessionIdle       SessionStatus = "idle"
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitting SessionStatus = "submitting"
)

// Progress is the answered/total ratio of a session
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// SessionSnapshot is the persisted form of an in-progress session, used to
// resume after a reload or a service restart.
type SessionSnapshot struct {
	ID             string      `json:"id"`
	Owner          string      `json:"owner"`
	QuizID         int         `json:"quiz_id"`
	Answers        map[int]int `json:"answers"`
	Flags          []int       `json:"flags"`
	ElapsedSeconds int         `json:"elapsed_seconds"`
	StartedAt      time.Time   `json:"started_at"`
	SavedAt        time.Time   `json:"saved_at"`
}

// SessionView is the read model exposed to clients
type SessionView struct {
	ID             string        `json:"id"`
	Status         SessionStatus `json:"status"`
	Quiz           *Quiz         `json:"quiz,omitempty"`
	Difficulty     string        `json:"difficulty,omitempty"`
	Answers        map[int]int   `json:"answers"`
	Flags          []int         `json:"flags"`
	Progress       Progress      `json:"progress"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
}

type StartSessionRequest struct {
	QuizID int `json:"quiz_id" validate:"required,min=1"`
}

type SelectAnswerRequest struct {
	OptionID int `json:"option_id" validate:"required,min=1"`
}

type SubmitSessionRequest struct {
	Confirm bool `json:"confirm"`
}
