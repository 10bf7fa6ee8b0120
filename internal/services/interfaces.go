package services

import (
	"context"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
)

// QuizAPI is the part of the backend a quiz session and attempt lookups need
type QuizAPI interface {
	GetQuiz(ctx context.Context, quizID int) (*models.Quiz, error)
	SubmitAttempt(ctx context.Context, req *models.SubmitAttemptRequest) (*models.AttemptResult, error)
	GetAttempt(ctx context.Context, attemptID int) (*models.AttemptResult, error)
	ListAttemptHistory(ctx context.Context) ([]models.AttemptHistoryEntry, error)
}

// BookmarkAPI is the bookmark part of the backend
type BookmarkAPI interface {
	ListBookmarkIDs(ctx context.Context) ([]int, error)
	ListBookmarks(ctx context.Context) ([]models.Bookmark, error)
	AddBookmark(ctx context.Context, questionID int) (*models.Bookmark, error)
	RemoveBookmark(ctx context.Context, questionID int) error
}

// CatalogAPI lists the quizzes a learner can start
type CatalogAPI interface {
	ListQuizzes(ctx context.Context) ([]models.QuizSummary, error)
}

// PracticeAPI serves subject question sets and the bookmark revision set
type PracticeAPI interface {
	ListPracticeSubjects(ctx context.Context) ([]models.PracticeSubjectSummary, error)
	GetPracticeSubject(ctx context.Context, slug string, limit int) (*models.PracticeSubjectDetail, error)
	GetBookmarkRevision(ctx context.Context, filter models.PracticeBookmarkFilter) (*models.PracticeSubjectDetail, error)
}

// RemoteAPI is the backend as seen by one authenticated learner
type RemoteAPI interface {
	CatalogAPI
	QuizAPI
	BookmarkAPI
	PracticeAPI
}

// AttemptRecorder receives every successfully submitted attempt
type AttemptRecorder interface {
	Archive(ctx context.Context, owner string, result *models.AttemptResult, durationSeconds int) error
}
