package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jmylchreest/restreamr/internal/config"
	"github.com/jmylchreest/restreamr/internal/hub"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
	"github.com/jmylchreest/restreamr/internal/restream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Video{},
		&models.Playlist{},
		&models.PlaylistItem{},
		&models.StreamSession{},
		&models.ActivityLog{},
	)
	require.NoError(t, err)

	return db
}

func setupStreamService(t *testing.T, db *gorm.DB) (*StreamService, *hub.Hub) {
	t.Helper()

	binary := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))

	sessions := repository.NewStreamSessionRepository(db)
	activity := repository.NewActivityLogRepository(db)
	resolver := restream.NewSourceResolver(
		repository.NewVideoRepository(db),
		repository.NewPlaylistRepository(db),
		t.TempDir(),
		nil,
	)
	events := hub.New(nil)
	encoder := config.EncoderConfig{VideoBitrate: 3000, AudioBitrate: 128, Preset: "veryfast"}
	sup := restream.NewSupervisor(sessions, resolver, events, encoder, binary, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sup.Shutdown(ctx)
	})

	return NewStreamService(sessions, activity, sup, events), events
}

func seedVideo(t *testing.T, db *gorm.DB) *models.Video {
	t.Helper()
	video := &models.Video{Filename: "clip.mp4", FilePath: "/data/videos/clip.mp4"}
	require.NoError(t, repository.NewVideoRepository(db).Create(context.Background(), video))
	return video
}

func TestStreamServiceStartStop(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := setupStreamService(t, db)
	ctx := context.Background()

	video := seedVideo(t, db)

	session, err := svc.Start(ctx, StartRequest{
		SourceType:  models.SourceVideo,
		SourceID:    video.ID,
		Destination: "rtmp://live.example.com/app/key",
		Mode:        models.ModeOnce,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, session.Status)
	require.NotNil(t, session.PID)
	require.NotNil(t, session.StartTime)

	stopped, err := svc.Stop(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, stopped.Status)
	assert.Nil(t, stopped.PID)

	// Stop is idempotent.
	again, err := svc.Stop(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, again.Status)
	assert.Nil(t, again.PID)

	entries, err := repository.NewActivityLogRepository(db).GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionStreamStopped, entries[0].Action)
	assert.Equal(t, models.ActionStreamStarted, entries[1].Action)
}

func TestStreamServiceStartMissingVideo(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := setupStreamService(t, db)
	ctx := context.Background()

	session, err := svc.Start(ctx, StartRequest{
		SourceType:  models.SourceVideo,
		SourceID:    models.NewULID(),
		Destination: "rtmp://live.example.com/app/key",
		Mode:        models.ModeOnce,
	})
	assert.ErrorIs(t, err, models.ErrVideoNotFound)
	require.NotNil(t, session)

	// The session record exists but is terminal with no pid.
	found, getErr := svc.Get(ctx, session.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusStopped, found.Status)
	assert.Nil(t, found.PID)
}

func TestStreamServiceStopUnknownSession(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := setupStreamService(t, db)

	_, err := svc.Stop(context.Background(), models.NewULID())
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestStreamServiceActive(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := setupStreamService(t, db)
	ctx := context.Background()

	video := seedVideo(t, db)

	session, err := svc.Start(ctx, StartRequest{
		SourceType:  models.SourceVideo,
		SourceID:    video.ID,
		Destination: "rtmp://live.example.com/app/key",
		Mode:        models.ModeOnce,
	})
	require.NoError(t, err)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, session.ID, active[0].ID)

	_, err = svc.Stop(ctx, session.ID)
	require.NoError(t, err)

	active, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
