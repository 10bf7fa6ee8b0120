package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/models"
	"github.com/SAP-F-2025/quizhub-practice/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptArchivePostgreSQL struct {
	db *gorm.DB
}

func NewAttemptArchivePostgreSQL(db *gorm.DB) repositories.AttemptArchiveRepository {
	return &AttemptArchivePostgreSQL{
		db: db,
	}
}

func (a AttemptArchivePostgreSQL) Upsert(ctx context.Context, attempt *models.ArchivedAttempt) error {
	columns := []string{"quiz_title", "submitted_at", "total_questions", "correct_answers", "score", "answers", "updated_at"}
	// A zero duration means "unknown" (result fetched later), keep what was recorded at submit
	if attempt.DurationSeconds > 0 {
		columns = append(columns, "duration_seconds")
	}

	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner"}, {Name: "attempt_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(attempt).Error
}

func (a AttemptArchivePostgreSQL) GetByAttemptID(ctx context.Context, owner string, attemptID int) (*models.ArchivedAttempt, error) {
	var attempt models.ArchivedAttempt
	if err := a.db.WithContext(ctx).
		Where("owner = ? AND attempt_id = ?", owner, attemptID).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &attempt, nil
}

func (a AttemptArchivePostgreSQL) List(ctx context.Context, filters repositories.ArchiveFilters) ([]*models.ArchivedAttempt, int64, error) {
	var attempts []*models.ArchivedAttempt
	var total int64

	// apply filter first
	query := a.db.WithContext(ctx).Model(&models.ArchivedAttempt{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.applyPaginationAndSort(query, filters)

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptArchivePostgreSQL) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := a.db.WithContext(ctx).
		Where("submitted_at < ?", cutoff).
		Delete(&models.ArchivedAttempt{})
	return result.RowsAffected, result.Error
}

func (a AttemptArchivePostgreSQL) applyFilters(query *gorm.DB, filters repositories.ArchiveFilters) *gorm.DB {
	if filters.Owner != "" {
		query = query.Where("owner = ?", filters.Owner)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	return query
}

var archiveSortColumns = map[string]string{
	"submitted_at": "submitted_at",
	"score":        "score",
	"quiz_title":   "quiz_title",
}

func (a AttemptArchivePostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ArchiveFilters) *gorm.DB {
	column, ok := archiveSortColumns[filters.SortBy]
	if !ok {
		column = "submitted_at"
	}

	order := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		order = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", column, order)).Order("id DESC")

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	return query
}
