package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jmylchreest/restreamr/internal/models"
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
