package handlers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jmylchreest/restreamr/internal/config"
	"github.com/jmylchreest/restreamr/internal/hub"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
	"github.com/jmylchreest/restreamr/internal/restream"
	"github.com/jmylchreest/restreamr/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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

// testStack wires the full service stack against an in-memory database
// and a stub encoder binary.
type testStack struct {
	db       *gorm.DB
	events   *hub.Hub
	streams  *service.StreamService
	playlist *service.PlaylistService
	videos   *service.VideoService
	activity repository.ActivityLogRepository
}

func setupTestStack(t *testing.T) *testStack {
	t.Helper()

	db := setupTestDB(t)

	binary := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))

	videoRepo := repository.NewVideoRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)
	sessionRepo := repository.NewStreamSessionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	resolver := restream.NewSourceResolver(videoRepo, playlistRepo, t.TempDir(), nil)
	events := hub.New(nil)
	encoder := config.EncoderConfig{VideoBitrate: 3000, AudioBitrate: 128, Preset: "veryfast"}
	sup := restream.NewSupervisor(sessionRepo, resolver, events, encoder, binary, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sup.Shutdown(ctx)
	})

	return &testStack{
		db:       db,
		events:   events,
		streams:  service.NewStreamService(sessionRepo, activityRepo, sup, events),
		playlist: service.NewPlaylistService(playlistRepo, videoRepo, activityRepo),
		videos:   service.NewVideoService(videoRepo),
		activity: activityRepo,
	}
}

func seedVideo(t *testing.T, db *gorm.DB) *models.Video {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not a real video"), 0o644))

	video := &models.Video{Filename: "clip.mp4", FilePath: path}
	require.NoError(t, db.Create(video).Error)
	return video
}
