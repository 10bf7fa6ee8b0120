package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the different practice events
type EventType string

const (
	// Session events
	EventSessionStarted EventType = "session.started"
	EventSessionResumed EventType = "session.resumed"
	EventSessionClosed  EventType = "session.closed"

	// Attempt events
	EventAttemptSubmitted        EventType = "attempt.submitted"
	EventAttemptSubmissionFailed EventType = "attempt.submission_failed"

	// Bookmark events
	EventBookmarkAdded   EventType = "bookmark.added"
	EventBookmarkRemoved EventType = "bookmark.removed"

	// Auth events
	EventUnauthenticated EventType = "auth.unauthenticated"
)

const (
	eventSource  = "quizhub-practice"
	eventVersion = "1.0"
)

// Event is the envelope shared by every published event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session event payloads

type SessionStartedEvent struct {
	SessionID     string    `json:"session_id"`
	Owner         string    `json:"owner"`
	QuizID        int       `json:"quiz_id"`
	QuizTitle     string    `json:"quiz_title"`
	QuestionCount int       `json:"question_count"`
	StartedAt     time.Time `json:"started_at"`
}

type SessionResumedEvent struct {
	SessionID      string `json:"session_id"`
	Owner          string `json:"owner"`
	QuizID         int    `json:"quiz_id"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	AnsweredCount  int    `json:"answered_count"`
}

type SessionClosedEvent struct {
	SessionID string `json:"session_id"`
	Owner     string `json:"owner"`
	Reason    string `json:"reason"` // "submitted", "abandoned", "idle", "shutdown"
}

// Attempt event payloads

type AttemptSubmittedEvent struct {
	SessionID       string   `json:"session_id"`
	Owner           string   `json:"owner"`
	AttemptID       int      `json:"attempt_id"`
	QuizID          int      `json:"quiz_id"`
	DurationSeconds int      `json:"duration_seconds"`
	Score           *float64 `json:"score,omitempty"`
	FlaggedCount    int      `json:"flagged_count"`
}

type AttemptSubmissionFailedEvent struct {
	SessionID string `json:"session_id"`
	Owner     string `json:"owner"`
	QuizID    int    `json:"quiz_id"`
	Reason    string `json:"reason"`
}

// Bookmark event payload

type BookmarkChangedEvent struct {
	Owner      string `json:"owner"`
	QuestionID int    `json:"question_id"`
}

// UnauthenticatedEvent is emitted whenever the backend answers 401
type UnauthenticatedEvent struct {
	Principal  string `json:"principal"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSessionStartedEvent(sessionID, owner string, quizID int, title string, questionCount int, startedAt time.Time) *Event {
	return newEvent(EventSessionStarted, SessionStartedEvent{
		SessionID:     sessionID,
		Owner:         owner,
		QuizID:        quizID,
		QuizTitle:     title,
		QuestionCount: questionCount,
		StartedAt:     startedAt,
	})
}

func NewSessionResumedEvent(sessionID, owner string, quizID, elapsed, answered int) *Event {
	return newEvent(EventSessionResumed, SessionResumedEvent{
		SessionID:      sessionID,
		Owner:          owner,
		QuizID:         quizID,
		ElapsedSeconds: elapsed,
		AnsweredCount:  answered,
	})
}

func NewSessionClosedEvent(sessionID, owner, reason string) *Event {
	return newEvent(EventSessionClosed, SessionClosedEvent{
		SessionID: sessionID,
		Owner:     owner,
		Reason:    reason,
	})
}

func NewAttemptSubmittedEvent(sessionID, owner string, attemptID, quizID, duration int, score *float64, flagged int) *Event {
	return newEvent(EventAttemptSubmitted, AttemptSubmittedEvent{
		SessionID:       sessionID,
		Owner:           owner,
		AttemptID:       attemptID,
		QuizID:          quizID,
		DurationSeconds: duration,
		Score:           score,
		FlaggedCount:    flagged,
	})
}

func NewAttemptSubmissionFailedEvent(sessionID, owner string, quizID int, reason string) *Event {
	return newEvent(EventAttemptSubmissionFailed, AttemptSubmissionFailedEvent{
		SessionID: sessionID,
		Owner:     owner,
		QuizID:    quizID,
		Reason:    reason,
	})
}

func NewBookmarkAddedEvent(owner string, questionID int) *Event {
	return newEvent(EventBookmarkAdded, BookmarkChangedEvent{Owner: owner, QuestionID: questionID})
}

func NewBookmarkRemovedEvent(owner string, questionID int) *Event {
	return newEvent(EventBookmarkRemoved, BookmarkChangedEvent{Owner: owner, QuestionID: questionID})
}

func NewUnauthenticatedEvent(principal, method, path string, statusCode int) *Event {
	return newEvent(EventUnauthenticated, UnauthenticatedEvent{
		Principal:  principal,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
	})
}

// GenerateEventID returns a new random event id
func GenerateEventID() string {
	return uuid.NewString()
}
