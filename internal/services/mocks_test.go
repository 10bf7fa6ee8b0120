package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/cache"
	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRemoteAPI is a mock implementation of RemoteAPI
type MockRemoteAPI struct {
	mock.Mock
}

func (m *MockRemoteAPI) ListQuizzes(ctx context.Context) ([]models.QuizSummary, error) {
	args := m.Called(ctx)
	quizzes, _ := args.Get(0).([]models.QuizSummary)
	return quizzes, args.Error(1)
}

func (m *MockRemoteAPI) GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error) {
	args := m.Called(ctx, quizID)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockRemoteAPI) SubmitAttempt(ctx context.Context, req *models.SubmitAttemptRequest) (*models.AttemptResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.AttemptResult)
	return result, args.Error(1)
}

func (m *MockRemoteAPI) GetAttempt(ctx context.Context, attemptID int) (*models.AttemptResult, error) {
	args := m.Called(ctx, attemptID)
	result, _ := args.Get(0).(*models.AttemptResult)
	return result, args.Error(1)
}

func (m *MockRemoteAPI) ListAttemptHistory(ctx context.Context) ([]models.AttemptHistoryEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]models.AttemptHistoryEntry)
	return entries, args.Error(1)
}

func (m *MockRemoteAPI) ListBookmarkIDs(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]int)
	return ids, args.Error(1)
}

func (m *MockRemoteAPI) ListBookmarks(ctx context.Context) ([]models.Bookmark, error) {
	args := m.Called(ctx)
	bookmarks, _ := args.Get(0).([]models.Bookmark)
	return bookmarks, args.Error(1)
}

func (m *MockRemoteAPI) AddBookmark(ctx context.Context, questionID int) (*models.Bookmark, error) {
	args := m.Called(ctx, questionID)
	bookmark, _ := args.Get(0).(*models.Bookmark)
	return bookmark, args.Error(1)
}

func (m *MockRemoteAPI) RemoveBookmark(ctx context.Context, questionID int) error {
	args := m.Called(ctx, questionID)
	return args.Error(0)
}

func (m *MockRemoteAPI) ListPracticeSubjects(ctx context.Context) ([]models.PracticeSubjectSummary, error) {
	args := m.Called(ctx)
	subjects, _ := args.Get(0).([]models.PracticeSubjectSummary)
	return subjects, args.Error(1)
}

func (m *MockRemoteAPI) GetPracticeSubject(ctx context.Context, slug string, limit int) (*models.PracticeSubjectDetail, error) {
	args := m.Called(ctx, slug, limit)
	detail, _ := args.Get(0).(*models.PracticeSubjectDetail)
	return detail, args.Error(1)
}

func (m *MockRemoteAPI) GetBookmarkRevision(ctx context.Context, filter models.PracticeBookmarkFilter) (*models.PracticeSubjectDetail, error) {
	args := m.Called(ctx, filter)
	detail, _ := args.Get(0).(*models.PracticeSubjectDetail)
	return detail, args.Error(1)
}

// MockAttemptArchiveRepository is a mock implementation of AttemptArchiveRepository
type MockAttemptArchiveRepository struct {
	mock.Mock
}

func (m *MockAttemptArchiveRepository) Upsert(ctx context.Context, attempt *models.ArchivedAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptArchiveRepository) GetByAttemptID(ctx context.Context, owner string, attemptID int) (*models.ArchivedAttempt, error) {
	args := m.Called(ctx, owner, attemptID)
	attempt, _ := args.Get(0).(*models.ArchivedAttempt)
	return attempt, args.Error(1)
}

func (m *MockAttemptArchiveRepository) List(ctx context.Context, filters repositories.ArchiveFilters) ([]*models.ArchivedAttempt, int64, error) {
	args := m.Called(ctx, filters)
	attempts, _ := args.Get(0).([]*models.ArchivedAttempt)
	return attempts, args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptArchiveRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// memoryCache is an in-memory CacheService keeping values as JSON
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	return nil
}

func (c *memoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// manualTicker delivers ticks only when the test sends them
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (t *manualTicker) Chan() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// idleTickers never tick; used where the timer value is irrelevant
func idleTickers(time.Duration) Ticker {
	return newManualTicker()
}

func sampleQuiz() *models.Quiz {
	easy := "easy"
	return &models.Quiz{
		ID:       7,
		Title:    "Algebra basics",
		IsActive: true,
		Questions: []models.Question{
			{ID: 1, Prompt: "1+1?", Difficulty: &easy, Options: []models.Option{{ID: 11, Text: "2"}, {ID: 12, Text: "3"}}},
			{ID: 2, Prompt: "2+2?", Difficulty: &easy, Options: []models.Option{{ID: 21, Text: "4"}, {ID: 22, Text: "5"}}},
			{ID: 3, Prompt: "3+3?", Difficulty: &easy, Options: []models.Option{{ID: 31, Text: "6"}, {ID: 32, Text: "7"}}},
		},
	}
}
