package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *models.StreamSession {
	return &models.StreamSession{
		SourceType:  models.SourceVideo,
		SourceID:    models.NewULID(),
		Destination: "rtmp://live.example.com/app/key",
		Mode:        models.ModeOnce,
		Status:      models.StatusStopped,
	}
}

func TestStreamSessionRepo_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, repo.Create(ctx, session))
	assert.False(t, session.ID.IsZero())

	t.Run("validation", func(t *testing.T) {
		bad := newTestSession()
		bad.Destination = ""
		err := repo.Create(ctx, bad)
		assert.ErrorIs(t, err, models.ErrDestinationRequired)
	})
}

func TestStreamSessionRepo_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, repo.Create(ctx, session))

	t.Run("found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, session.Destination, found.Destination)
	})

	t.Run("not found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, models.NewULID())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestStreamSessionRepo_MarkLaunched(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, repo.Create(ctx, session))

	start := time.Now().Truncate(time.Second)
	require.NoError(t, repo.MarkLaunched(ctx, session.ID, 12345, start))

	found, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.StatusRunning, found.Status)
	require.NotNil(t, found.PID)
	assert.Equal(t, 12345, *found.PID)
	require.NotNil(t, found.StartTime)
	assert.Nil(t, found.EndTime)

	t.Run("unknown session", func(t *testing.T) {
		err := repo.MarkLaunched(ctx, models.NewULID(), 99, start)
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	})
}

func TestStreamSessionRepo_FinalizeExit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, repo.Create(ctx, session))
	require.NoError(t, repo.MarkLaunched(ctx, session.ID, 12345, time.Now()))

	t.Run("matching pid commits terminal state", func(t *testing.T) {
		bitrate := "2950.1kbits/s"
		done, err := repo.FinalizeExit(ctx, session.ID, 12345, time.Now(), &bitrate)
		require.NoError(t, err)
		assert.True(t, done)

		found, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusStopped, found.Status)
		assert.Nil(t, found.PID)
		require.NotNil(t, found.EndTime)
		require.NotNil(t, found.AvgBitrate)
		assert.Equal(t, bitrate, *found.AvgBitrate)
	})

	t.Run("stale pid does not clobber newer launch", func(t *testing.T) {
		// Relaunch under a fresh pid, then attempt to finalize with the
		// old one. The guard must reject it.
		require.NoError(t, repo.MarkLaunched(ctx, session.ID, 22222, time.Now()))

		done, err := repo.FinalizeExit(ctx, session.ID, 12345, time.Now(), nil)
		require.NoError(t, err)
		assert.False(t, done)

		found, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRunning, found.Status)
		require.NotNil(t, found.PID)
		assert.Equal(t, 22222, *found.PID)
	})
}

func TestStreamSessionRepo_MarkStoppedNow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, repo.Create(ctx, session))
	require.NoError(t, repo.MarkLaunched(ctx, session.ID, 777, time.Now()))

	require.NoError(t, repo.MarkStoppedNow(ctx, session.ID, time.Now()))

	found, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, found.Status)
	assert.Nil(t, found.PID)

	// Stopping again is a no-op, not an error.
	require.NoError(t, repo.MarkStoppedNow(ctx, session.ID, time.Now()))

	again, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, again.Status)
	assert.Nil(t, again.PID)
}

func TestStreamSessionRepo_SwapPID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, repo.Create(ctx, session))
	require.NoError(t, repo.MarkLaunched(ctx, session.ID, 3000, time.Now()))

	t.Run("matching pid swaps", func(t *testing.T) {
		ok, err := repo.SwapPID(ctx, session.ID, 3000, 3001, time.Now())
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, found.PID)
		assert.Equal(t, 3001, *found.PID)
		assert.Equal(t, models.StatusRunning, found.Status)
	})

	t.Run("stale pid is refused", func(t *testing.T) {
		ok, err := repo.SwapPID(ctx, session.ID, 3000, 3002, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stopped session is refused", func(t *testing.T) {
		require.NoError(t, repo.MarkStoppedNow(ctx, session.ID, time.Now()))
		ok, err := repo.SwapPID(ctx, session.ID, 3001, 3003, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStreamSessionRepo_GetRunning(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	running := newTestSession()
	require.NoError(t, repo.Create(ctx, running))
	require.NoError(t, repo.MarkLaunched(ctx, running.ID, 1001, time.Now()))

	stopped := newTestSession()
	require.NoError(t, repo.Create(ctx, stopped))

	found, err := repo.GetRunning(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, running.ID, found[0].ID)
}

func TestStreamSessionRepo_ClearPID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreamSessionRepository(db)
	ctx := context.Background()

	session := newTestSession()
	require.NoError(t, repo.Create(ctx, session))
	require.NoError(t, repo.MarkLaunched(ctx, session.ID, 555, time.Now()))

	require.NoError(t, repo.ClearPID(ctx, session.ID))

	found, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, found.PID)
	// Status is untouched; the recovery sweep relaunches afterward.
	assert.Equal(t, models.StatusRunning, found.Status)
}
