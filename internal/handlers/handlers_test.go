package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/quizapi"
	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRemoteAPI is a mock implementation of services.RemoteAPI
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

type testServer struct {
	router   *gin.Engine
	api      *MockRemoteAPI
	sessions *services.SessionManager
	// principals seen by the API provider, in call order
	principals []string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)

	ts := &testServer{api: new(MockRemoteAPI)}
	attempts := services.NewAttemptService(nil, services.NewExportService(slogger), slogger)
	manager := services.NewDefaultServiceManager(nil, attempts, services.SessionDeps{Logger: slogger}, time.Hour, slogger)
	ts.sessions = manager.Sessions()
	t.Cleanup(func() { ts.sessions.Shutdown(context.Background()) })

	provider := func(token, principal string) services.RemoteAPI {
		ts.principals = append(ts.principals, principal)
		return ts.api
	}

	ts.router = gin.New()
	NewHandlerManager(manager, provider, NewTokenVerifier(testSecret, "HS256"), logger).SetupRoutes(ts.router)
	return ts
}

const testSecret = "test-secret"

func testToken(t *testing.T, subject string) string {
	t.Helper()
	return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":  subject,
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
}

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, subject string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+testToken(t, subject))
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

func sampleQuiz() *models.Quiz {
	return &models.Quiz{
		ID:       7,
		Title:    "Algebra basics",
		IsActive: true,
		Questions: []models.Question{
			{ID: 1, Prompt: "1+1?", Options: []models.Option{{ID: 11, Text: "2"}, {ID: 12, Text: "3"}}},
			{ID: 2, Prompt: "2+2?", Options: []models.Option{{ID: 21, Text: "4"}, {ID: 22, Text: "5"}}},
			{ID: 3, Prompt: "3+3?", Options: []models.Option{{ID: 31, Text: "6"}, {ID: 32, Text: "7"}}},
		},
	}
}

func (ts *testServer) startSession(t *testing.T, subject string) models.SessionView {
	t.Helper()
	ts.api.On("GetQuiz", mock.Anything, 7).Return(sampleQuiz(), nil).Once()

	w := ts.do(t, http.MethodPost, "/api/v1/sessions", subject, models.StartSessionRequest{QuizID: 7})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var view models.SessionView
	decode(t, w, &view)
	return view
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/bookmarks/ids", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookmarks/ids", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "unauthenticated", resp.Code)
}

func TestAuthMiddleware_RejectsUnverifiedTokens(t *testing.T) {
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{"sub": "learner-1", "type": "access", "exp": time.Now().Add(time.Hour).Unix()}
	}
	expired := valid()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	refresh := valid()
	refresh["type"] = "refresh"
	anonymous := valid()
	delete(anonymous, "sub")

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"unsigned", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid())
		}},
		{"wrong key", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), valid())
		}},
		{"other algorithm", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS512, []byte(testSecret), valid())
		}},
		{"expired", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired)
		}},
		{"refresh token", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), refresh)
		}},
		{"no subject", func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), anonymous)
		}},
	}

	ts := newTestServer(t)
	ts.api.On("ListBookmarkIDs", mock.Anything).Return([]int{5, 9}, nil).Once()
	view := ts.startSession(t, "learner-1")

	w := ts.do(t, http.MethodGet, "/api/v1/bookmarks/ids", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token(t)
			for _, path := range []string{"/api/v1/bookmarks/ids", "/api/v1/sessions/" + view.ID} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				req.Header.Set("Authorization", "Bearer "+token)
				w := httptest.NewRecorder()
				ts.router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusUnauthorized, w.Code, path)
				assert.NotContains(t, w.Body.String(), "question_ids")
			}
		})
	}

	// Rejected tokens never reach the backend client
	ts.api.AssertExpectations(t)
	ts.api.AssertNumberOfCalls(t, "ListBookmarkIDs", 1)
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t)
	view := ts.startSession(t, "learner-1")
	assert.Equal(t, models.SessionInProgress, view.Status)
	assert.Equal(t, 3, view.Progress.Total)

	base := "/api/v1/sessions/" + view.ID

	for _, answer := range [][2]int{{1, 11}, {2, 21}} {
		w := ts.do(t, http.MethodPut, base+"/answers/"+strconv.Itoa(answer[0]), "learner-1", models.SelectAnswerRequest{OptionID: answer[1]})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Incomplete attempt is rejected without a backend call
	w := ts.do(t, http.MethodPost, base+"/submit", "learner-1", models.SubmitSessionRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var errResp ErrorResponse
	decode(t, w, &errResp)
	assert.Equal(t, "please answer all questions", errResp.Message)
	ts.api.AssertNotCalled(t, "SubmitAttempt", mock.Anything, mock.Anything)

	w = ts.do(t, http.MethodPut, base+"/answers/3", "learner-1", models.SelectAnswerRequest{OptionID: 31})
	require.Equal(t, http.StatusOK, w.Code)
	var progress ProgressResponse
	decode(t, w, &progress)
	assert.Equal(t, 100, progress.Percent)

	w = ts.do(t, http.MethodPost, base+"/flags/2", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var flag FlagResponse
	decode(t, w, &flag)
	assert.True(t, flag.Flagged)

	// Flagged questions need confirmation
	w = ts.do(t, http.MethodPost, base+"/submit", "learner-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	decode(t, w, &errResp)
	assert.Equal(t, "confirmation_required", errResp.Code)

	ts.api.On("SubmitAttempt", mock.Anything, mock.MatchedBy(func(req *models.SubmitAttemptRequest) bool {
		return req.QuizID == 7 && len(req.Answers) == 3 && req.Answers[2].SelectedOptionID == 31
	})).Return(&models.AttemptResult{ID: 42, QuizID: 7, Score: 100}, nil).Once()

	w = ts.do(t, http.MethodPost, base+"/submit", "learner-1", models.SubmitSessionRequest{Confirm: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result models.AttemptResult
	decode(t, w, &result)
	assert.Equal(t, 42, result.ID)
	ts.api.AssertNumberOfCalls(t, "SubmitAttempt", 1)

	// The submitted session is gone
	w = ts.do(t, http.MethodGet, base, "learner-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitFailureKeepsSession(t *testing.T) {
	ts := newTestServer(t)
	view := ts.startSession(t, "learner-1")
	base := "/api/v1/sessions/" + view.ID

	for _, answer := range [][2]int{{1, 11}, {2, 21}, {3, 31}} {
		w := ts.do(t, http.MethodPut, base+"/answers/"+strconv.Itoa(answer[0]), "learner-1", models.SelectAnswerRequest{OptionID: answer[1]})
		require.Equal(t, http.StatusOK, w.Code)
	}

	ts.api.On("SubmitAttempt", mock.Anything, mock.Anything).
		Return(nil, &quizapi.APIError{StatusCode: 503, Method: "POST", Path: "/attempts"}).Once()

	w := ts.do(t, http.MethodPost, base+"/submit", "learner-1", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = ts.do(t, http.MethodGet, base, "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.SessionView
	decode(t, w, &current)
	assert.Equal(t, map[int]int{1: 11, 2: 21, 3: 31}, current.Answers)
}

func TestSessionErrors(t *testing.T) {
	ts := newTestServer(t)
	view := ts.startSession(t, "learner-1")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"other learner", http.MethodGet, "/api/v1/sessions/" + view.ID, nil, http.StatusForbidden},
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", nil, http.StatusNotFound},
		{"bad question id", http.MethodPost, "/api/v1/sessions/" + view.ID + "/flags/abc", nil, http.StatusBadRequest},
		{"missing quiz id", http.MethodPost, "/api/v1/sessions", map[string]int{}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject := "learner-2"
			if tt.name != "other learner" {
				subject = "learner-1"
			}
			w := ts.do(t, tt.method, tt.path, subject, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	// Option from another question
	w := ts.do(t, http.MethodPut, "/api/v1/sessions/"+view.ID+"/answers/1", "learner-1", models.SelectAnswerRequest{OptionID: 21})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStartSessionQuizNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.api.On("GetQuiz", mock.Anything, 99).
		Return(nil, &quizapi.APIError{StatusCode: 404, Method: "GET", Path: "/quizzes/99", Detail: "Quiz not found"}).Once()

	w := ts.do(t, http.MethodPost, "/api/v1/sessions", "learner-1", models.StartSessionRequest{QuizID: 99})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "The requested quiz could not be found.", resp.Message)
	assert.Zero(t, ts.sessions.Count())
}

func TestBookmarkRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.api.On("ListBookmarkIDs", mock.Anything).Return([]int{4}, nil).Once()
	ts.api.On("AddBookmark", mock.Anything, 9).Return(&models.Bookmark{QuestionID: 9}, nil).Once()
	ts.api.On("AddBookmark", mock.Anything, 10).Return(nil, quizapi.ErrRequestFailed).Once()

	w := ts.do(t, http.MethodGet, "/api/v1/bookmarks/ids", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/bookmarks", "learner-1", models.BookmarkRequest{QuestionID: 9})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/bookmarks", "learner-1", models.BookmarkRequest{QuestionID: 10})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/bookmarks/ids", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ids BookmarkIDsResponse
	decode(t, w, &ids)
	assert.Equal(t, []int{4, 9}, ids.QuestionIDs)

	w = ts.do(t, http.MethodGet, "/api/v1/bookmarks/10", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status BookmarkStatusResponse
	decode(t, w, &status)
	assert.False(t, status.Bookmarked)

	ts.api.AssertNumberOfCalls(t, "ListBookmarkIDs", 1)
	assert.Contains(t, ts.principals, "learner-1")
}

func TestAttemptRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.api.On("GetAttempt", mock.Anything, 42).Return(&models.AttemptResult{ID: 42, QuizID: 7, QuizTitle: "Algebra basics"}, nil)
	ts.api.On("ListAttemptHistory", mock.Anything).Return(nil, &quizapi.APIError{StatusCode: 401, Method: "GET", Path: "/attempts/history"}).Once()

	w := ts.do(t, http.MethodGet, "/api/v1/attempts/42", "learner-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/attempts/42/export", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(w.Header().Get("Content-Disposition"), "attempt_42.xlsx"))
	assert.NotEmpty(t, w.Body.Bytes())

	w = ts.do(t, http.MethodGet, "/api/v1/attempts/history", "learner-1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/attempts/archive?page=2&size=5", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse
	decode(t, w, &list)
	assert.Zero(t, list.Total)
	assert.Equal(t, 5, list.Offset)
}

func TestPracticeRoutes(t *testing.T) {
	easy, hard := "easy", "hard"
	subjectID := 3
	ts := newTestServer(t)
	ts.api.On("ListPracticeSubjects", mock.Anything).Return([]models.PracticeSubjectSummary{
		{Slug: "algebra", Name: "Algebra", TotalQuestions: 12, Difficulties: []string{"easy", "hard"}},
	}, nil).Once()
	ts.api.On("GetPracticeSubject", mock.Anything, "algebra", 20).Return(&models.PracticeSubjectDetail{
		Slug:      "algebra",
		Questions: []models.PracticeQuestion{{ID: 1, Difficulty: &hard}},
	}, nil).Once()
	ts.api.On("GetPracticeSubject", mock.Anything, "unknown", services.DefaultPracticeLimit).
		Return(nil, &quizapi.APIError{StatusCode: 404, Method: "GET", Path: "/practice/subjects/unknown", Detail: "Subject not found"}).Once()
	ts.api.On("GetBookmarkRevision", mock.Anything, models.PracticeBookmarkFilter{
		Limit:      services.DefaultPracticeLimit,
		Difficulty: "easy",
		SubjectID:  &subjectID,
	}).Return(&models.PracticeSubjectDetail{
		Slug:      "bookmarks",
		Questions: []models.PracticeQuestion{{ID: 5, Difficulty: &easy}},
	}, nil).Once()

	w := ts.do(t, http.MethodGet, "/api/v1/practice/subjects", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var subjects []models.PracticeSubjectSummary
	decode(t, w, &subjects)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Mixed", subjects[0].Difficulty)
	assert.Equal(t, 12, subjects[0].TotalQuestions)

	w = ts.do(t, http.MethodGet, "/api/v1/practice/subjects/algebra?limit=20", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail models.PracticeSubjectDetail
	decode(t, w, &detail)
	assert.Equal(t, "Hard", detail.Difficulty)
	assert.Equal(t, 1, detail.TotalQuestions)

	w = ts.do(t, http.MethodGet, "/api/v1/practice/subjects/unknown", "learner-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/practice/subjects/algebra?limit=500", "learner-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/practice/bookmarks?difficulty=easy&subject_id=3", "learner-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &detail)
	assert.Equal(t, "Easy", detail.Difficulty)

	w = ts.do(t, http.MethodGet, "/api/v1/practice/subjects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ts.api.AssertExpectations(t)
	ts.api.AssertNumberOfCalls(t, "GetPracticeSubject", 2)
}

func TestLiveStream(t *testing.T) {
	ts := newTestServer(t)
	view := ts.startSession(t, "learner-1")

	server := httptest.NewServer(ts.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/sessions/" + view.ID + "/live?token=" + testToken(t, "learner-1")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var update LiveUpdate
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, view.ID, update.SessionID)
	assert.Equal(t, models.SessionInProgress, update.Status)
	assert.Equal(t, 3, update.Progress.Total)
}
