package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/repositories"
)

// AttemptService reads scored attempts from the backend and keeps a local
// archive of them
type AttemptService interface {
	GetResult(ctx context.Context, api QuizAPI, owner string, attemptID int) (*models.AttemptResult, error)
	History(ctx context.Context, api QuizAPI, owner string) ([]models.AttemptHistoryEntry, error)

	Archive(ctx context.Context, owner string, result *models.AttemptResult, durationSeconds int) error
	ListArchived(ctx context.Context, filters repositories.ArchiveFilters) ([]*models.ArchivedAttempt, int64, error)
	PruneArchive(ctx context.Context, retention time.Duration) (int64, error)

	ExportResult(ctx context.Context, api QuizAPI, owner string, attemptID int) ([]byte, error)
	ExportHistory(ctx context.Context, api QuizAPI, owner string) ([]byte, error)
}

type attemptService struct {
	repo     repositories.AttemptArchiveRepository
	exporter ExportService
	logger   *ServiceLogger
}

// NewAttemptService builds the service. repo may be nil, in which case
// archiving is disabled.
func NewAttemptService(repo repositories.AttemptArchiveRepository, exporter ExportService, logger *slog.Logger) AttemptService {
	return &attemptService{
		repo:     repo,
		exporter: exporter,
		logger:   NewServiceLogger(logger, LogConfig{Service: "practice", Component: "attempts"}),
	}
}

func (s *attemptService) GetResult(ctx context.Context, api QuizAPI, owner string, attemptID int) (*models.AttemptResult, error) {
	op := s.logger.WithOperation(ctx, "get_attempt_result", owner)

	result, err := api.GetAttempt(ctx, attemptID)
	if err != nil {
		loadErr := &LoadError{Resource: "attempt", ID: attemptID, Err: err}
		op.LogResult(strconv.Itoa(attemptID), "attempt", loadErr)
		return nil, loadErr
	}

	// Best effort, the result is already in hand
	if err := s.Archive(ctx, owner, result, 0); err != nil {
		s.logger.Logger().Warn("Failed to archive attempt result", "attempt_id", attemptID, "error", err)
	}

	op.LogResult(strconv.Itoa(attemptID), "attempt", nil)
	return result, nil
}

func (s *attemptService) History(ctx context.Context, api QuizAPI, owner string) ([]models.AttemptHistoryEntry, error) {
	op := s.logger.WithOperation(ctx, "get_attempt_history", owner)

	entries, err := api.ListAttemptHistory(ctx)
	if err != nil {
		loadErr := &LoadError{Resource: "attempt history", Err: err}
		op.LogResult("", "attempt", loadErr)
		return nil, loadErr
	}

	op.LogResult("", "attempt", nil)
	return entries, nil
}

func (s *attemptService) Archive(ctx context.Context, owner string, result *models.AttemptResult, durationSeconds int) error {
	if s.repo == nil {
		return nil
	}

	row, err := models.NewArchivedAttempt(owner, result, durationSeconds)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("failed to archive attempt %d: %w", result.ID, err)
	}
	return nil
}

func (s *attemptService) ListArchived(ctx context.Context, filters repositories.ArchiveFilters) ([]*models.ArchivedAttempt, int64, error) {
	if s.repo == nil {
		return []*models.ArchivedAttempt{}, 0, nil
	}

	attempts, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list archived attempts: %w", err)
	}
	return attempts, total, nil
}

// PruneArchive deletes archived attempts submitted before now-retention
func (s *attemptService) PruneArchive(ctx context.Context, retention time.Duration) (int64, error) {
	if s.repo == nil || retention <= 0 {
		return 0, nil
	}

	deleted, err := s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempt archive: %w", err)
	}
	if deleted > 0 {
		s.logger.Logger().Info("Pruned attempt archive", "deleted", deleted, "retention", retention)
	}
	return deleted, nil
}

// ExportResult exports the attempt, falling back to the local archive when the
// backend cannot be reached. Rejected credentials never fall back.
func (s *attemptService) ExportResult(ctx context.Context, api QuizAPI, owner string, attemptID int) ([]byte, error) {
	result, err := s.GetResult(ctx, api, owner, attemptID)
	if err != nil {
		if IsUnauthenticated(err) {
			return nil, err
		}
		archived, archiveErr := s.archived(ctx, owner, attemptID)
		if archiveErr != nil || archived == nil {
			return nil, err
		}
		s.logger.Logger().Info("Exporting attempt from archive", "attempt_id", attemptID)
		result = archived
	}

	return s.exporter.ExportResult(result)
}

func (s *attemptService) ExportHistory(ctx context.Context, api QuizAPI, owner string) ([]byte, error) {
	entries, err := s.History(ctx, api, owner)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportHistory(entries)
}

func (s *attemptService) archived(ctx context.Context, owner string, attemptID int) (*models.AttemptResult, error) {
	if s.repo == nil {
		return nil, ErrArchiveNotFound
	}

	row, err := s.repo.GetByAttemptID(ctx, owner, attemptID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrArchiveNotFound
	}
	return row.Result()
}
