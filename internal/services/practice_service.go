package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
)

const (
	DefaultPracticeLimit = 50
	MaxPracticeLimit     = 200
)

// PracticeService serves the practice catalog and the bookmark revision set.
// Difficulty labels are recomputed from the questions the backend returns.
type PracticeService interface {
	Subjects(ctx context.Context, api PracticeAPI, owner string) ([]models.PracticeSubjectSummary, error)
	Subject(ctx context.Context, api PracticeAPI, owner, slug string, limit int) (*models.PracticeSubjectDetail, error)
	BookmarkRevision(ctx context.Context, api PracticeAPI, owner string, filter models.PracticeBookmarkFilter) (*models.PracticeSubjectDetail, error)
}

type practiceService struct {
	logger *ServiceLogger
}

func NewPracticeService(logger *slog.Logger) PracticeService {
	return &practiceService{
		logger: NewServiceLogger(logger, LogConfig{Service: "practice", Component: "catalog"}),
	}
}

func (s *practiceService) Subjects(ctx context.Context, api PracticeAPI, owner string) ([]models.PracticeSubjectSummary, error) {
	op := s.logger.WithOperation(ctx, "list_practice_subjects", owner)

	subjects, err := api.ListPracticeSubjects(ctx)
	if err != nil {
		loadErr := &LoadError{Resource: "practice subjects", Err: err}
		op.LogResult("", "subject", loadErr)
		return nil, loadErr
	}

	for i := range subjects {
		subjects[i].Normalize()
	}
	op.LogResult("", "subject", nil)
	return subjects, nil
}

func (s *practiceService) Subject(ctx context.Context, api PracticeAPI, owner, slug string, limit int) (*models.PracticeSubjectDetail, error) {
	op := s.logger.WithOperation(ctx, "get_practice_subject", owner)

	limit, err := practiceLimit(limit)
	if err != nil {
		op.LogResult(slug, "subject", err)
		return nil, err
	}

	detail, err := api.GetPracticeSubject(ctx, slug, limit)
	if err != nil {
		loadErr := &LoadError{Resource: "subject", Err: err}
		op.LogResult(slug, "subject", loadErr)
		return nil, loadErr
	}

	detail.Normalize()
	op.LogResult(slug, "subject", nil)
	return detail, nil
}

func (s *practiceService) BookmarkRevision(ctx context.Context, api PracticeAPI, owner string, filter models.PracticeBookmarkFilter) (*models.PracticeSubjectDetail, error) {
	op := s.logger.WithOperation(ctx, "get_bookmark_revision", owner)

	limit, err := practiceLimit(filter.Limit)
	if err != nil {
		op.LogResult("", "bookmark", err)
		return nil, err
	}
	filter.Limit = limit
	if filter.SubjectID != nil && *filter.SubjectID < 1 {
		err := ValidationErrors{{Field: "subject_id", Message: "must be at least 1", Rule: "min", Value: *filter.SubjectID}}
		op.LogResult("", "bookmark", err)
		return nil, err
	}

	detail, err := api.GetBookmarkRevision(ctx, filter)
	if err != nil {
		loadErr := &LoadError{Resource: "bookmark revision set", Err: err}
		op.LogResult("", "bookmark", loadErr)
		return nil, loadErr
	}

	detail.Normalize()
	op.LogResult("", "bookmark", nil)
	return detail, nil
}

// practiceLimit defaults an unset limit and rejects values outside 1..200
func practiceLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultPracticeLimit, nil
	case limit < 1 || limit > MaxPracticeLimit:
		return 0, ValidationErrors{{Field: "limit", Message: "must be between 1 and 200", Rule: "range", Value: limit}}
	default:
		return limit, nil
	}
}
