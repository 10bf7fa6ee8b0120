package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/quizapi"
	"github.com/SAP-F-2025/quizhub-practice/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func scoredResult() *models.AttemptResult {
	correct := 11
	return &models.AttemptResult{
		ID:             42,
		QuizID:         7,
		QuizTitle:      "Algebra basics",
		SubmittedAt:    time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		TotalQuestions: 1,
		CorrectAnswers: 1,
		Score:          100,
		Answers: []models.AnswerReview{
			{
				QuestionID:       1,
				Prompt:           "1+1?",
				SelectedOptionID: &correct,
				CorrectOptionID:  &correct,
				IsCorrect:        true,
				Options:          []models.AttemptAnswerOption{{ID: 11, Text: "2"}, {ID: 12, Text: "3"}},
			},
		},
	}
}

func TestAttemptService_GetResultArchives(t *testing.T) {
	api := new(MockRemoteAPI)
	repo := new(MockAttemptArchiveRepository)
	service := NewAttemptService(repo, NewExportService(testLogger()), testLogger())

	api.On("GetAttempt", mock.Anything, 42).Return(scoredResult(), nil).Once()
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(row *models.ArchivedAttempt) bool {
		return row.Owner == "learner-1" && row.AttemptID == 42 && row.DurationSeconds == 0
	})).Return(nil).Once()

	result, err := service.GetResult(context.Background(), api, "learner-1", 42)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
	repo.AssertExpectations(t)
}

func TestAttemptService_GetResultIgnoresArchiveFailure(t *testing.T) {
	api := new(MockRemoteAPI)
	repo := new(MockAttemptArchiveRepository)
	service := NewAttemptService(repo, NewExportService(testLogger()), testLogger())

	api.On("GetAttempt", mock.Anything, 42).Return(scoredResult(), nil).Once()
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	result, err := service.GetResult(context.Background(), api, "learner-1", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, result.ID)
}

func TestAttemptService_GetResultNotFound(t *testing.T) {
	api := new(MockRemoteAPI)
	service := NewAttemptService(nil, NewExportService(testLogger()), testLogger())

	api.On("GetAttempt", mock.Anything, 404).
		Return(nil, &quizapi.APIError{StatusCode: 404, Method: "GET", Path: "/attempts/404", Detail: "Attempt not found"}).Once()

	_, err := service.GetResult(context.Background(), api, "learner-1", 404)
	require.Error(t, err)
	assert.True(t, IsLoad(err))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "The requested attempt could not be found.", UserMessage(err))
}

func TestAttemptService_History(t *testing.T) {
	api := new(MockRemoteAPI)
	service := NewAttemptService(nil, NewExportService(testLogger()), testLogger())

	api.On("ListAttemptHistory", mock.Anything).Return([]models.AttemptHistoryEntry{{ID: 1}, {ID: 2}}, nil).Once()
	entries, err := service.History(context.Background(), api, "learner-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	api.On("ListAttemptHistory", mock.Anything).Return(nil, quizapi.ErrRequestFailed).Once()
	_, err = service.History(context.Background(), api, "learner-1")
	assert.True(t, IsLoad(err))
	assert.Equal(t, "Unable to load attempt history. Please try again.", UserMessage(err))
}

func TestAttemptService_WithoutRepository(t *testing.T) {
	service := NewAttemptService(nil, NewExportService(testLogger()), testLogger())

	require.NoError(t, service.Archive(context.Background(), "learner-1", scoredResult(), 30))

	attempts, total, err := service.ListArchived(context.Background(), repositories.ArchiveFilters{Owner: "learner-1"})
	require.NoError(t, err)
	assert.Empty(t, attempts)
	assert.Zero(t, total)

	deleted, err := service.PruneArchive(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestAttemptService_PruneArchive(t *testing.T) {
	repo := new(MockAttemptArchiveRepository)
	service := NewAttemptService(repo, NewExportService(testLogger()), testLogger())

	before := time.Now().Add(-24 * time.Hour)
	repo.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		return !cutoff.Before(before) && cutoff.Before(time.Now())
	})).Return(int64(3), nil).Once()

	deleted, err := service.PruneArchive(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	// Zero retention keeps everything
	deleted, err = service.PruneArchive(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	repo.AssertNumberOfCalls(t, "DeleteOlderThan", 1)
}

func TestAttemptService_ExportResultFallsBackToArchive(t *testing.T) {
	api := new(MockRemoteAPI)
	repo := new(MockAttemptArchiveRepository)
	service := NewAttemptService(repo, NewExportService(testLogger()), testLogger())

	row, err := models.NewArchivedAttempt("learner-1", scoredResult(), 30)
	require.NoError(t, err)

	api.On("GetAttempt", mock.Anything, 42).Return(nil, quizapi.ErrRequestFailed).Once()
	repo.On("GetByAttemptID", mock.Anything, "learner-1", 42).Return(row, nil).Once()

	data, err := service.ExportResult(context.Background(), api, "learner-1", 42)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Algebra basics", title)
}

func TestAttemptService_ExportResultWithoutArchive(t *testing.T) {
	api := new(MockRemoteAPI)
	repo := new(MockAttemptArchiveRepository)
	service := NewAttemptService(repo, NewExportService(testLogger()), testLogger())

	api.On("GetAttempt", mock.Anything, 42).Return(nil, quizapi.ErrRequestFailed).Once()
	repo.On("GetByAttemptID", mock.Anything, "learner-1", 42).Return(nil, nil).Once()

	_, err := service.ExportResult(context.Background(), api, "learner-1", 42)
	require.Error(t, err)
	assert.True(t, IsLoad(err))
}

func TestAttemptService_ExportResultUnauthenticatedSkipsArchive(t *testing.T) {
	api := new(MockRemoteAPI)
	repo := new(MockAttemptArchiveRepository)
	service := NewAttemptService(repo, NewExportService(testLogger()), testLogger())

	api.On("GetAttempt", mock.Anything, 42).
		Return(nil, &quizapi.APIError{StatusCode: 401, Method: "GET", Path: "/attempts/42"}).Once()

	data, err := service.ExportResult(context.Background(), api, "learner-1", 42)
	assert.Nil(t, data)
	require.Error(t, err)
	assert.True(t, IsUnauthenticated(err))
	repo.AssertNotCalled(t, "GetByAttemptID", mock.Anything, mock.Anything, mock.Anything)
}
