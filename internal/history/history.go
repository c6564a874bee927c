// Package history reads and appends the durable execution ledger: execution
// records, cycle leases and fact-check reports.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jimdaga/autoposter/internal/models"
)

// Store is the gorm-backed ledger.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that need transactions.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// LastExecution returns the time of the most recent record for the
// schedule, or nil when it has never run.
func (s *Store) LastExecution(ctx context.Context, scheduleID uint) (*time.Time, error) {
	var rec models.ExecutionRecord
	err := s.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("executed_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last execution: %w", err)
	}
	t := rec.ExecutedAt
	return &t, nil
}

// UsedValues projects every record of the schedule onto the value used in
// the given mode: keyword_used for keyword mode, article_title for title mode.
func (s *Store) UsedValues(ctx context.Context, scheduleID uint, mode string) ([]string, error) {
	column := "keyword_used"
	if mode == models.SelectionModeTitle {
		column = "article_title"
	}

	var values []string
	err := s.db.WithContext(ctx).
		Model(&models.ExecutionRecord{}).
		Where("schedule_id = ? AND "+column+" <> ''", scheduleID).
		Order("executed_at").
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load used values: %w", err)
	}
	return values, nil
}

// Append inserts an execution record.
func (s *Store) Append(ctx context.Context, rec *models.ExecutionRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append execution record: %w", err)
	}
	return nil
}

// ClaimLease inserts the lease for a firing cycle. It returns false when
// another invocation already owns the cycle.
func (s *Store) ClaimLease(ctx context.Context, scheduleID uint, cycleKey, runID string, now time.Time) (bool, error) {
	lease := models.ExecutionLease{
		ScheduleID: scheduleID,
		CycleKey:   cycleKey,
		RunID:      runID,
		ClaimedAt:  now,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&lease)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim lease: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// TouchLastExecuted updates the advisory last-run timestamp of a schedule.
func (s *Store) TouchLastExecuted(ctx context.Context, scheduleID uint, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Schedule{}).
		Where("id = ?", scheduleID).
		UpdateColumn("last_executed_at", at).Error
}

// SaveFactCheckReport appends a fact-check report.
func (s *Store) SaveFactCheckReport(ctx context.Context, report *models.FactCheckReport) error {
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to save fact-check report: %w", err)
	}
	return nil
}

// ListExecutions returns the newest records of a schedule.
func (s *Store) ListExecutions(ctx context.Context, scheduleID uint, limit int) ([]models.ExecutionRecord, error) {
	var records []models.ExecutionRecord
	err := s.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("executed_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return records, nil
}

// FactCheckReport returns the report of a run. gorm.ErrRecordNotFound is
// returned unwrapped when the run has none.
func (s *Store) FactCheckReport(ctx context.Context, runID string) (*models.FactCheckReport, error) {
	var report models.FactCheckReport
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}
