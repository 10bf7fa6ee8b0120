package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/validator"
)

// ServiceManager groups the services the HTTP layer depends on
type ServiceManager interface {
	Sessions() *SessionManager
	Attempts() AttemptService
	Practice() PracticeService
	Validator() *validator.Validator
}

type serviceManager struct {
	sessions  *SessionManager
	attempts  AttemptService
	practice  PracticeService
	validator *validator.Validator
}

func NewServiceManager(sessions *SessionManager, attempts AttemptService, practice PracticeService, v *validator.Validator) ServiceManager {
	return &serviceManager{
		sessions:  sessions,
		attempts:  attempts,
		practice:  practice,
		validator: v,
	}
}

// NewDefaultServiceManager wires a session manager around store. Submitted
// attempts are archived through attempts.
func NewDefaultServiceManager(store SessionStore, attempts AttemptService, deps SessionDeps, idleTimeout time.Duration, logger *slog.Logger) ServiceManager {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	if deps.Recorder == nil {
		deps.Recorder = attempts
	}

	return NewServiceManager(NewSessionManager(store, deps, idleTimeout), attempts, NewPracticeService(logger), deps.Validator)
}

func (m *serviceManager) Sessions() *SessionManager       { return m.sessions }
func (m *serviceManager) Attempts() AttemptService        { return m.attempts }
func (m *serviceManager) Practice() PracticeService       { return m.practice }
func (m *serviceManager) Validator() *validator.Validator { return m.validator }
