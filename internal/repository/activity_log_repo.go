package repository

import (
	"context"
	"fmt"

	"github.com/jmylchreest/restreamr/internal/models"
	"gorm.io/gorm"
)

// activityLogRepo implements ActivityLogRepository using GORM.
type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(db *gorm.DB) *activityLogRepo {
	return &activityLogRepo{db: db}
}

// Create records a new activity log entry.
func (r *activityLogRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("creating activity log entry: %w", err)
	}
	return nil
}

// GetRecent returns the most recent entries, newest first.
func (r *activityLogRepo) GetRecent(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []*models.ActivityLog
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("getting recent activity: %w", err)
	}
	return entries, nil
}
