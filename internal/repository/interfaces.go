// Package repository provides data access interfaces and GORM implementations.
package repository

import (
	"context"
	"time"

	"github.com/jmylchreest/restreamr/internal/models"
)

// VideoRepository manages stored video records.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id models.ULID) (*models.Video, error)
	GetAll(ctx context.Context) ([]*models.Video, error)
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id models.ULID) error
}

// PlaylistRepository manages playlists and their ordered items.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	GetByID(ctx context.Context, id models.ULID) (*models.Playlist, error)
	GetAll(ctx context.Context) ([]*models.Playlist, error)
	Delete(ctx context.Context, id models.ULID) error

	// GetItemsOrdered returns a playlist's items sorted by ascending position
	// with each item's video preloaded.
	GetItemsOrdered(ctx context.Context, playlistID models.ULID) ([]*models.PlaylistItem, error)
	AddItem(ctx context.Context, item *models.PlaylistItem) error
	RemoveItem(ctx context.Context, playlistID, itemID models.ULID) error

	// Reorder replaces the playlist's item positions with the supplied item
	// id order. The id set must exactly match the playlist's current items;
	// on mismatch the whole operation fails with models.ErrReorderMismatch
	// and no positions change.
	Reorder(ctx context.Context, playlistID models.ULID, orderedItemIDs []models.ULID) error
}

// StreamSessionRepository manages stream session records. Status transitions
// and their accompanying fields always commit atomically together.
type StreamSessionRepository interface {
	Create(ctx context.Context, session *models.StreamSession) error
	GetByID(ctx context.Context, id models.ULID) (*models.StreamSession, error)
	GetAll(ctx context.Context) ([]*models.StreamSession, error)

	// GetRunning returns all sessions persisted with status running.
	GetRunning(ctx context.Context) ([]*models.StreamSession, error)

	// MarkLaunched commits the running state: status=running, pid, start
	// time set, end time cleared.
	MarkLaunched(ctx context.Context, id models.ULID, pid int, startTime time.Time) error

	// FinalizeExit commits the terminal state for a natural process exit,
	// but only if the session's current pid still equals the given pid.
	// Returns (false, nil) when the guard does not match, meaning a stop
	// request or newer launch already moved the session on.
	FinalizeExit(ctx context.Context, id models.ULID, pid int, endTime time.Time, avgBitrate *string) (bool, error)

	// SwapPID replaces a running session's pid with a fresh one, guarded on
	// the old pid still matching. Used when a looping session is relaunched
	// after a natural process exit. Returns (false, nil) when the guard does
	// not match.
	SwapPID(ctx context.Context, id models.ULID, oldPID, newPID int, startTime time.Time) (bool, error)

	// MarkStoppedNow immediately commits status=stopped with a cleared pid,
	// used by the stop request path. Idempotent.
	MarkStoppedNow(ctx context.Context, id models.ULID, endTime time.Time) error

	// ClearPID nulls a stale pid without changing status, used by the
	// startup recovery sweep before relaunching.
	ClearPID(ctx context.Context, id models.ULID) error
}

// ActivityLogRepository records user-visible actions.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	GetRecent(ctx context.Context, limit int) ([]*models.ActivityLog, error)
}
