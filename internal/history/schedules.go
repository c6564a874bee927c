package history

import (
	"context"
	"fmt"

	"github.com/jimdaga/autoposter/internal/models"
)

// EnabledSchedules returns enabled schedules ordered by ID with their AI and
// site configurations loaded.
func (s *Store) EnabledSchedules(ctx context.Context) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := s.db.WithContext(ctx).
		Preload("AIConfiguration").
		Preload("SiteConfiguration").
		Where("enabled = ?", true).
		Order("id").
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	return schedules, nil
}

// Schedule loads one schedule with its configurations. gorm.ErrRecordNotFound
// is returned wrapped when it does not exist.
func (s *Store) Schedule(ctx context.Context, id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.db.WithContext(ctx).
		Preload("AIConfiguration").
		Preload("SiteConfiguration").
		First(&schedule, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule %d: %w", id, err)
	}
	return &schedule, nil
}
