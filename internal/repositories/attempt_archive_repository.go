package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
)

// AttemptArchiveRepository stores scored attempts locally, one row per
// (owner, attempt id).
type AttemptArchiveRepository interface {
	// Upsert inserts the attempt or refreshes the scored fields of an existing row
	Upsert(ctx context.Context, attempt *models.ArchivedAttempt) error
	// GetByAttemptID returns nil, nil when the attempt was never archived
	GetByAttemptID(ctx context.Context, owner string, attemptID int) (*models.ArchivedAttempt, error)
	List(ctx context.Context, filters ArchiveFilters) ([]*models.ArchivedAttempt, int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
