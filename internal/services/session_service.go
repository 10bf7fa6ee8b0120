package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/events"
	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/validator"
)

// SessionDeps are the collaborators shared by every session
type SessionDeps struct {
	Validator *validator.Validator
	Publisher events.EventPublisher
	Recorder  AttemptRecorder
	Logger    *slog.Logger
	NewTicker TickerFactory
	Now       func() time.Time
}

// Session is one learner's attempt at one quiz: the Answer Map, the Flag Set
// and the Timer, from load to submission.
type Session struct {
	id    string
	owner string

	mu         sync.Mutex
	api        QuizAPI
	quiz       *models.Quiz
	answers    map[int]int
	flags      map[int]struct{}
	startedAt  time.Time
	submitting bool
	lastActive time.Time

	timer     *Timer
	validator *validator.Validator
	publisher events.EventPublisher
	recorder  AttemptRecorder
	logger    *ServiceLogger
	now       func() time.Time
}

func NewSession(id, owner string, api QuizAPI, deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewMockEventPublisher(logger)
	}

	return &Session{
		id:         id,
		owner:      owner,
		api:        api,
		answers:    make(map[int]int),
		flags:      make(map[int]struct{}),
		lastActive: now(),
		timer:      NewTimer(deps.NewTicker),
		validator:  v,
		publisher:  publisher,
		recorder:   deps.Recorder,
		logger:     NewServiceLogger(logger, LogConfig{Service: "practice", Component: "session"}),
		now:        now,
	}
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Owner() string { return s.owner }

// BindAPI swaps the backend client, typically to carry a refreshed token
func (s *Session) BindAPI(api QuizAPI) {
	s.mu.Lock()
	s.api = api
	s.mu.Unlock()
}

// Start loads quizID and begins a fresh attempt. On failure the session keeps
// whatever it was doing before.
func (s *Session) Start(ctx context.Context, quizID int) (*models.Quiz, error) {
	op := s.logger.WithOperation(ctx, "start_session", s.owner)

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		op.LogResult(s.id, "session", ErrSubmitInProgress)
		return nil, ErrSubmitInProgress
	}
	api := s.api
	s.mu.Unlock()

	quiz, err := loadQuiz(ctx, api, s.validator, quizID)
	if err != nil {
		op.LogResult(s.id, "session", err)
		return nil, err
	}

	s.mu.Lock()
	s.quiz = quiz
	s.answers = make(map[int]int)
	s.flags = make(map[int]struct{})
	s.startedAt = s.now()
	s.touchLocked()
	s.timer.Start()
	startedAt := s.startedAt
	s.mu.Unlock()

	s.publish(ctx, events.NewSessionStartedEvent(s.id, s.owner, quiz.ID, quiz.Title, len(quiz.Questions), startedAt))
	op.LogResult(s.id, "session", nil)
	return quiz, nil
}

// Restore rebuilds the session from a snapshot. The quiz is fetched again and
// answers or flags that no longer match it are dropped.
func (s *Session) Restore(ctx context.Context, snapshot *models.SessionSnapshot) error {
	op := s.logger.WithOperation(ctx, "restore_session", s.owner)

	s.mu.Lock()
	api := s.api
	s.mu.Unlock()

	quiz, err := loadQuiz(ctx, api, s.validator, snapshot.QuizID)
	if err != nil {
		op.LogResult(s.id, "session", err)
		return err
	}

	answers := make(map[int]int, len(snapshot.Answers))
	for questionID, optionID := range snapshot.Answers {
		if question, ok := quiz.Question(questionID); ok && question.HasOption(optionID) {
			answers[questionID] = optionID
		}
	}
	flags := make(map[int]struct{}, len(snapshot.Flags))
	for _, questionID := range snapshot.Flags {
		if _, ok := quiz.Question(questionID); ok {
			flags[questionID] = struct{}{}
		}
	}

	s.mu.Lock()
	s.quiz = quiz
	s.answers = answers
	s.flags = flags
	s.startedAt = snapshot.StartedAt
	s.submitting = false
	s.touchLocked()
	s.timer.StartFrom(snapshot.ElapsedSeconds)
	s.mu.Unlock()

	s.publish(ctx, events.NewSessionResumedEvent(s.id, s.owner, quiz.ID, snapshot.ElapsedSeconds, len(answers)))
	op.LogResult(s.id, "session", nil)
	return nil
}

func loadQuiz(ctx context.Context, api QuizAPI, v *validator.Validator, quizID int) (*models.Quiz, error) {
	quiz, err := api.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, &LoadError{Resource: "quiz", ID: quizID, Err: err}
	}
	if len(quiz.Questions) == 0 {
		return nil, &LoadError{Resource: "quiz", ID: quizID, Err: ErrQuizEmpty}
	}
	// Details stay out of the chain so the failure is not reported as bad input
	if err := v.ValidateQuiz(quiz); err != nil {
		return nil, &LoadError{Resource: "quiz", ID: quizID, Err: fmt.Errorf("%w: %v", ErrQuizMalformed, err)}
	}
	return quiz, nil
}

// SelectAnswer records optionID as the answer to questionID, replacing any
// earlier choice.
func (s *Session) SelectAnswer(questionID, optionID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz == nil {
		return ErrSessionNotStarted
	}
	if s.submitting {
		return ErrSubmitInProgress
	}

	question, ok := s.quiz.Question(questionID)
	if !ok {
		return ValidationErrors{*NewValidationError("question_id", "question is not part of this quiz", questionID)}
	}
	if !question.HasOption(optionID) {
		return ValidationErrors{*NewValidationError("option_id", "option does not belong to this question", optionID)}
	}

	s.answers[questionID] = optionID
	s.touchLocked()
	return nil
}

// ToggleFlag marks or unmarks a question for review and reports the new state
func (s *Session) ToggleFlag(questionID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz == nil {
		return false, ErrSessionNotStarted
	}
	if _, ok := s.quiz.Question(questionID); !ok {
		return false, ValidationErrors{*NewValidationError("question_id", "question is not part of this quiz", questionID)}
	}

	s.touchLocked()
	if _, flagged := s.flags[questionID]; flagged {
		delete(s.flags, questionID)
		return false, nil
	}
	s.flags[questionID] = struct{}{}
	return true, nil
}

func (s *Session) Progress() models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Session) progressLocked() models.Progress {
	if s.quiz == nil || len(s.quiz.Questions) == 0 {
		return models.Progress{}
	}

	answered := len(s.answers)
	total := len(s.quiz.Questions)
	percent := int(math.Round(float64(answered) * 100 / float64(total)))
	// 100 means every question is answered
	if percent == 100 && answered < total {
		percent = 99
	}

	return models.Progress{Answered: answered, Total: total, Percent: percent}
}

// FlaggedCount is the number of questions marked for review
func (s *Session) FlaggedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flags)
}

// Elapsed returns the timer's current value in seconds
func (s *Session) Elapsed() int {
	return s.timer.Elapsed()
}

// Submit sends the attempt. It is rejected locally while any question is
// unanswered. On failure the answers are kept so the same call can be retried.
func (s *Session) Submit(ctx context.Context) (*models.AttemptResult, error) {
	op := s.logger.WithOperation(ctx, "submit_attempt", s.owner)

	s.mu.Lock()
	if s.quiz == nil {
		s.mu.Unlock()
		return nil, ErrSessionNotStarted
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	if missing := s.missingLocked(); len(missing) > 0 {
		s.mu.Unlock()
		err := ValidationErrors{*NewValidationError("answers", "please answer all questions", missing)}
		op.LogResult(s.id, "session", err)
		return nil, err
	}

	req := s.buildRequestLocked()
	if err := s.validator.Validate(req); err != nil {
		s.mu.Unlock()
		op.LogResult(s.id, "session", err)
		return nil, err
	}

	s.submitting = true
	s.touchLocked()
	api := s.api
	flagged := len(s.flags)
	s.mu.Unlock()

	result, err := api.SubmitAttempt(ctx, req)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		submitErr := &SubmissionError{QuizID: req.QuizID, Err: err}
		s.publish(ctx, events.NewAttemptSubmissionFailedEvent(s.id, s.owner, req.QuizID, err.Error()))
		op.LogResult(s.id, "session", submitErr)
		return nil, submitErr
	}
	s.timer.Stop()
	s.resetLocked()
	s.mu.Unlock()

	score := result.Score
	s.publish(ctx, events.NewAttemptSubmittedEvent(s.id, s.owner, result.ID, req.QuizID, req.DurationSeconds, &score, flagged))

	if s.recorder != nil {
		if err := s.recorder.Archive(ctx, s.owner, result, req.DurationSeconds); err != nil {
			s.logger.Logger().Warn("Failed to archive submitted attempt",
				"attempt_id", result.ID,
				"error", err)
		}
	}

	op.LogResult(strconv.Itoa(result.ID), "attempt", nil)
	return result, nil
}

// missingLocked lists unanswered question ids in quiz order
func (s *Session) missingLocked() []int {
	var missing []int
	for _, question := range s.quiz.Questions {
		if _, ok := s.answers[question.ID]; !ok {
			missing = append(missing, question.ID)
		}
	}
	return missing
}

func (s *Session) buildRequestLocked() *models.SubmitAttemptRequest {
	answers := make([]models.AnswerSelection, 0, len(s.quiz.Questions))
	for _, question := range s.quiz.Questions {
		answers = append(answers, models.AnswerSelection{
			QuestionID:       question.ID,
			SelectedOptionID: s.answers[question.ID],
		})
	}

	req := &models.SubmitAttemptRequest{
		QuizID:          s.quiz.ID,
		DurationSeconds: s.timer.Elapsed(),
		Answers:         answers,
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		req.StartedAt = &startedAt
	}
	return req
}

// Snapshot captures the in-progress state for later Restore
func (s *Session) Snapshot() (*models.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz == nil {
		return nil, ErrSessionNotStarted
	}

	answers := make(map[int]int, len(s.answers))
	for questionID, optionID := range s.answers {
		answers[questionID] = optionID
	}

	return &models.SessionSnapshot{
		ID:             s.id,
		Owner:          s.owner,
		QuizID:         s.quiz.ID,
		Answers:        answers,
		Flags:          s.flagIDsLocked(),
		ElapsedSeconds: s.timer.Elapsed(),
		StartedAt:      s.startedAt,
		SavedAt:        s.now(),
	}, nil
}

// Close stops the timer and discards the in-memory state
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer.Stop()
	s.resetLocked()
}

// View returns a copy of the session state for display
func (s *Session) View() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[int]int, len(s.answers))
	for questionID, optionID := range s.answers {
		answers[questionID] = optionID
	}

	view := models.SessionView{
		ID:             s.id,
		Status:         s.statusLocked(),
		Quiz:           s.quiz,
		Answers:        answers,
		Flags:          s.flagIDsLocked(),
		Progress:       s.progressLocked(),
		ElapsedSeconds: s.timer.Elapsed(),
	}
	if s.quiz != nil {
		view.Difficulty = s.quiz.Difficulty()
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		view.StartedAt = &startedAt
	}
	return view
}

func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// LastActive is the time of the last state change made by the learner
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) statusLocked() models.SessionStatus {
	switch {
	case s.submitting:
		return models.SessionSubmitting
	case s.quiz != nil:
		return models.SessionInProgress
	default:
		return models.SessionIdle
	}
}

func (s *Session) flagIDsLocked() []int {
	ids := make([]int, 0, len(s.flags))
	for questionID := range s.flags {
		ids = append(ids, questionID)
	}
	sort.Ints(ids)
	return ids
}

func (s *Session) resetLocked() {
	s.quiz = nil
	s.answers = make(map[int]int)
	s.flags = make(map[int]struct{})
	s.startedAt = time.Time{}
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}

func (s *Session) publish(ctx context.Context, event *events.Event) {
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Logger().Warn("Failed to publish session event",
			"event_type", event.Type,
			"session_id", s.id,
			"error", err)
	}
}
