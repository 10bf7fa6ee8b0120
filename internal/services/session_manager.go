package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/events"
	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/google/uuid"
)

// SessionManager keeps the live sessions of every learner and their bookmark
// sets. Sessions are snapshotted to the store so they can be resumed.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	bookmarks map[string]*BookmarkSet

	store       SessionStore
	deps        SessionDeps
	idleTimeout time.Duration
	logger      *ServiceLogger
	newID       func() string
}

// NewSessionManager creates a manager. store may be nil, in which case
// sessions live only in memory.
func NewSessionManager(store SessionStore, deps SessionDeps, idleTimeout time.Duration) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewMockEventPublisher(deps.Logger)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &SessionManager{
		sessions:    make(map[string]*Session),
		bookmarks:   make(map[string]*BookmarkSet),
		store:       store,
		deps:        deps,
		idleTimeout: idleTimeout,
		logger:      NewServiceLogger(deps.Logger, LogConfig{Service: "practice", Component: "session_manager"}),
		newID:       uuid.NewString,
	}
}

// Create starts a new session on quizID for owner. Nothing is registered when
// the quiz cannot be loaded.
func (m *SessionManager) Create(ctx context.Context, owner string, api QuizAPI, quizID int) (*Session, error) {
	session := NewSession(m.newID(), owner, api, m.deps)
	if _, err := session.Start(ctx, quizID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.Save(ctx, session)
	return session, nil
}

// Get returns a live session, checking that owner holds it
func (m *SessionManager) Get(owner, sessionID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Owner() != owner {
		return nil, NewPermissionError(owner, sessionID, "session", "access", "session belongs to another learner")
	}
	return session, nil
}

// Save snapshots the session to the store. Failures are logged, not returned.
func (m *SessionManager) Save(ctx context.Context, session *Session) {
	if m.store == nil {
		return
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		// Nothing to save for a session without a quiz
		return
	}
	if err := m.store.Save(ctx, snapshot); err != nil {
		m.logger.Logger().Warn("Failed to save session snapshot",
			"session_id", session.ID(),
			"error", err)
	}
}

// Resume returns the live session, or rebuilds it from its snapshot when the
// process no longer holds it
func (m *SessionManager) Resume(ctx context.Context, owner, sessionID string, api QuizAPI) (*Session, error) {
	session, err := m.Get(owner, sessionID)
	if err == nil {
		session.BindAPI(api)
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) || m.store == nil {
		return nil, err
	}

	op := m.logger.WithOperation(ctx, "resume_session", owner)

	snapshot, err := m.store.Load(ctx, sessionID)
	if err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}
	if snapshot.Owner != owner {
		permErr := NewPermissionError(owner, sessionID, "session", "resume", "session belongs to another learner")
		op.LogResult(sessionID, "session", permErr)
		return nil, permErr
	}

	session = NewSession(snapshot.ID, owner, api, m.deps)
	if err := session.Restore(ctx, snapshot); err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[sessionID]; ok {
		// Another request resumed it first
		m.mu.Unlock()
		session.Close()
		existing.BindAPI(api)
		return existing, nil
	}
	m.sessions[sessionID] = session
	m.mu.Unlock()

	op.LogResult(sessionID, "session", nil)
	return session, nil
}

// Close ends a session and forgets its snapshot. A session whose answers are
// being submitted cannot be closed until the submit returns.
func (m *SessionManager) Close(ctx context.Context, owner, sessionID, reason string) error {
	session, err := m.Get(owner, sessionID)
	if err != nil {
		return err
	}
	if session.Status() == models.SessionSubmitting {
		return ErrSubmitInProgress
	}

	m.remove(ctx, session, reason)
	if m.store != nil {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			m.logger.Logger().Warn("Failed to delete session snapshot", "session_id", sessionID, "error", err)
		}
	}
	return nil
}

// EvictIdle closes sessions that have been inactive longer than the idle
// timeout. Their snapshots are saved first so they can still be resumed.
// Sessions with a submit in flight are left for the next run.
func (m *SessionManager) EvictIdle(ctx context.Context) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := m.deps.Now().Add(-m.idleTimeout)

	m.mu.RLock()
	var idle []*Session
	for _, session := range m.sessions {
		if session.LastActive().Before(cutoff) && session.Status() != models.SessionSubmitting {
			idle = append(idle, session)
		}
	}
	m.mu.RUnlock()

	for _, session := range idle {
		m.Save(ctx, session)
		m.remove(ctx, session, "idle")
	}

	if len(idle) > 0 {
		m.logger.Logger().Info("Evicted idle sessions", "count", len(idle))
	}
	return len(idle)
}

// Shutdown snapshots and closes every live session. It runs after the HTTP
// server has drained, so no submit is still in flight.
func (m *SessionManager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	for _, session := range sessions {
		m.Save(ctx, session)
		m.remove(ctx, session, "shutdown")
	}
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Bookmarks returns the learner's bookmark set, shared by all their sessions
func (m *SessionManager) Bookmarks(owner string, api BookmarkAPI) *BookmarkSet {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.bookmarks[owner]
	if !ok {
		set = NewBookmarkSet(owner, api, m.deps.Publisher, m.deps.Logger)
		m.bookmarks[owner] = set
		return set
	}
	set.SetAPI(api)
	return set
}

// ForgetBookmarks drops the learner's cached bookmark set, so the next request
// reloads it with fresh credentials
func (m *SessionManager) ForgetBookmarks(owner string) {
	m.mu.Lock()
	delete(m.bookmarks, owner)
	m.mu.Unlock()
}

func (m *SessionManager) remove(ctx context.Context, session *Session, reason string) {
	m.mu.Lock()
	delete(m.sessions, session.ID())
	m.mu.Unlock()

	session.Close()

	if err := m.deps.Publisher.PublishEvent(ctx, events.NewSessionClosedEvent(session.ID(), session.Owner(), reason)); err != nil {
		m.logger.Logger().Warn("Failed to publish session event", "session_id", session.ID(), "error", err)
	}
}
