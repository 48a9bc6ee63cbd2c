package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/restreamr/internal/models"
	"gorm.io/gorm"
)

// streamSessionRepo implements StreamSessionRepository using GORM.
type streamSessionRepo struct {
	db *gorm.DB
}

// NewStreamSessionRepository creates a new StreamSessionRepository.
func NewStreamSessionRepository(db *gorm.DB) *streamSessionRepo {
	return &streamSessionRepo{db: db}
}

// Create creates a new stream session.
func (r *streamSessionRepo) Create(ctx context.Context, session *models.StreamSession) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("creating stream session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID. Returns (nil, nil) if not found.
func (r *streamSessionRepo) GetByID(ctx context.Context, id models.ULID) (*models.StreamSession, error) {
	var session models.StreamSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting stream session by ID: %w", err)
	}
	return &session, nil
}

// GetAll retrieves all sessions, newest first.
func (r *streamSessionRepo) GetAll(ctx context.Context) ([]*models.StreamSession, error) {
	var sessions []*models.StreamSession
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("getting all stream sessions: %w", err)
	}
	return sessions, nil
}

// GetRunning retrieves all sessions persisted with status running.
func (r *streamSessionRepo) GetRunning(ctx context.Context) ([]*models.StreamSession, error) {
	var sessions []*models.StreamSession
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusRunning).
		Order("start_time ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("getting running stream sessions: %w", err)
	}
	return sessions, nil
}

// MarkLaunched commits status=running, pid and start time in one update.
func (r *streamSessionRepo) MarkLaunched(ctx context.Context, id models.ULID, pid int, startTime time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.StreamSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.StatusRunning,
			"pid":        pid,
			"start_time": startTime,
			"end_time":   nil,
		})
	if res.Error != nil {
		return fmt.Errorf("marking session launched: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// FinalizeExit commits the terminal state for a natural process exit. The
// update is guarded on the session's pid still matching the exiting process,
// so a stop request or newer launch is never clobbered by a stale exit
// handler. Returns false when the guard does not match.
func (r *streamSessionRepo) FinalizeExit(ctx context.Context, id models.ULID, pid int, endTime time.Time, avgBitrate *string) (bool, error) {
	updates := map[string]any{
		"status":   models.StatusStopped,
		"pid":      nil,
		"end_time": endTime,
	}
	if avgBitrate != nil {
		updates["avg_bitrate"] = *avgBitrate
	}

	res := r.db.WithContext(ctx).Model(&models.StreamSession{}).
		Where("id = ? AND pid = ?", id, pid).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("finalizing session exit: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SwapPID replaces a running session's pid with a fresh one, guarded on the
// old pid still matching. A stop request that lands between the old process
// exiting and the swap leaves the guard unmatched and the swap is refused.
func (r *streamSessionRepo) SwapPID(ctx context.Context, id models.ULID, oldPID, newPID int, startTime time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.StreamSession{}).
		Where("id = ? AND pid = ? AND status = ?", id, oldPID, models.StatusRunning).
		Updates(map[string]any{
			"pid":        newPID,
			"start_time": startTime,
		})
	if res.Error != nil {
		return false, fmt.Errorf("swapping session pid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkStoppedNow immediately commits status=stopped with pid cleared.
// Stopping an already-stopped session is a no-op, not an error.
func (r *streamSessionRepo) MarkStoppedNow(ctx context.Context, id models.ULID, endTime time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.StreamSession{}).
		Where("id = ? AND status = ?", id, models.StatusRunning).
		Updates(map[string]any{
			"status":   models.StatusStopped,
			"pid":      nil,
			"end_time": endTime,
		})
	if res.Error != nil {
		return fmt.Errorf("marking session stopped: %w", res.Error)
	}
	return nil
}

// ClearPID nulls a stale pid without changing status.
func (r *streamSessionRepo) ClearPID(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Model(&models.StreamSession{}).
		Where("id = ?", id).
		Update("pid", nil).Error; err != nil {
		return fmt.Errorf("clearing session pid: %w", err)
	}
	return nil
}
