package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/restreamr/internal/models"
	"gorm.io/gorm"
)

// playlistRepo implements PlaylistRepository using GORM.
type playlistRepo struct {
	db *gorm.DB
}

// NewPlaylistRepository creates a new PlaylistRepository.
func NewPlaylistRepository(db *gorm.DB) *playlistRepo {
	return &playlistRepo{db: db}
}

// Create creates a new playlist.
func (r *playlistRepo) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return fmt.Errorf("creating playlist: %w", err)
	}
	return nil
}

// GetByID retrieves a playlist by ID. Returns (nil, nil) if not found.
func (r *playlistRepo) GetByID(ctx context.Context, id models.ULID) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting playlist by ID: %w", err)
	}
	return &playlist, nil
}

// GetAll retrieves all playlists.
func (r *playlistRepo) GetAll(ctx context.Context) ([]*models.Playlist, error) {
	var playlists []*models.Playlist
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("getting all playlists: %w", err)
	}
	return playlists, nil
}

// Delete deletes a playlist and its items.
func (r *playlistRepo) Delete(ctx context.Context, id models.ULID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistItem{}).Error; err != nil {
			return fmt.Errorf("deleting playlist items: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Playlist{}).Error; err != nil {
			return fmt.Errorf("deleting playlist: %w", err)
		}
		return nil
	})
	return err
}

// GetItemsOrdered returns the playlist's items sorted by ascending position
// with videos preloaded.
func (r *playlistRepo) GetItemsOrdered(ctx context.Context, playlistID models.ULID) ([]*models.PlaylistItem, error) {
	var items []*models.PlaylistItem
	err := r.db.WithContext(ctx).
		Preload("Video").
		Where("playlist_id = ?", playlistID).
		Order("position ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("getting playlist items: %w", err)
	}
	return items, nil
}

// AddItem appends an item to the playlist. If the position is zero it is
// placed after the current last item.
func (r *playlistRepo) AddItem(ctx context.Context, item *models.PlaylistItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.Position == 0 {
			var maxPos int
			row := tx.Model(&models.PlaylistItem{}).
				Where("playlist_id = ?", item.PlaylistID).
				Select("COALESCE(MAX(position), 0)").
				Row()
			if err := row.Scan(&maxPos); err != nil {
				return fmt.Errorf("finding max position: %w", err)
			}
			item.Position = maxPos + 1
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("adding playlist item: %w", err)
		}
		return nil
	})
}

// RemoveItem removes one item from the playlist.
func (r *playlistRepo) RemoveItem(ctx context.Context, playlistID, itemID models.ULID) error {
	if err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND id = ?", playlistID, itemID).
		Delete(&models.PlaylistItem{}).Error; err != nil {
		return fmt.Errorf("removing playlist item: %w", err)
	}
	return nil
}

// Reorder replaces the playlist's item positions with the supplied order.
// The supplied id set must exactly match the playlist's current items; on
// mismatch nothing changes and models.ErrReorderMismatch is returned.
func (r *playlistRepo) Reorder(ctx context.Context, playlistID models.ULID, orderedItemIDs []models.ULID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []*models.PlaylistItem
		if err := tx.Where("playlist_id = ?", playlistID).Find(&items).Error; err != nil {
			return fmt.Errorf("loading playlist items: %w", err)
		}

		if len(items) != len(orderedItemIDs) {
			return models.ErrReorderMismatch
		}
		existing := make(map[models.ULID]bool, len(items))
		for _, item := range items {
			existing[item.ID] = true
		}
		for _, id := range orderedItemIDs {
			if !existing[id] {
				return models.ErrReorderMismatch
			}
			delete(existing, id)
		}

		// Two passes keep the unique (playlist_id, position) index happy
		// while positions move past each other.
		for i, id := range orderedItemIDs {
			if err := tx.Model(&models.PlaylistItem{}).
				Where("playlist_id = ? AND id = ?", playlistID, id).
				Update("position", -(i + 1)).Error; err != nil {
				return fmt.Errorf("staging position for item %s: %w", id, err)
			}
		}
		for i, id := range orderedItemIDs {
			if err := tx.Model(&models.PlaylistItem{}).
				Where("playlist_id = ? AND id = ?", playlistID, id).
				Update("position", i+1).Error; err != nil {
				return fmt.Errorf("setting position for item %s: %w", id, err)
			}
		}
		return nil
	})
}
