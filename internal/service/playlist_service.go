package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
)

// PlaylistService provides playlist management on top of the repository,
// adding activity logging for mutations.
type PlaylistService struct {
	playlists repository.PlaylistRepository
	videos    repository.VideoRepository
	activity  repository.ActivityLogRepository
	logger    *slog.Logger
}

// NewPlaylistService creates a PlaylistService.
func NewPlaylistService(playlists repository.PlaylistRepository, videos repository.VideoRepository, activity repository.ActivityLogRepository) *PlaylistService {
	return &PlaylistService{
		playlists: playlists,
		videos:    videos,
		activity:  activity,
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *PlaylistService) WithLogger(logger *slog.Logger) *PlaylistService {
	s.logger = logger
	return s
}

// Get returns one playlist with its ordered items.
func (s *PlaylistService) Get(ctx context.Context, id models.ULID) (*models.Playlist, []*models.PlaylistItem, error) {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if playlist == nil {
		return nil, nil, models.ErrPlaylistNotFound
	}
	items, err := s.playlists.GetItemsOrdered(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return playlist, items, nil
}

// List returns all playlists.
func (s *PlaylistService) List(ctx context.Context) ([]*models.Playlist, error) {
	return s.playlists.GetAll(ctx)
}

// Create creates a playlist.
func (s *PlaylistService) Create(ctx context.Context, playlist *models.Playlist) error {
	return s.playlists.Create(ctx, playlist)
}

// Delete deletes a playlist and its items.
func (s *PlaylistService) Delete(ctx context.Context, id models.ULID) error {
	return s.playlists.Delete(ctx, id)
}

// AddVideo appends a video to a playlist.
func (s *PlaylistService) AddVideo(ctx context.Context, playlistID, videoID models.ULID) (*models.PlaylistItem, error) {
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, models.ErrPlaylistNotFound
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, models.ErrVideoNotFound
	}

	item := &models.PlaylistItem{PlaylistID: playlistID, VideoID: videoID}
	if err := s.playlists.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem removes one item from a playlist.
func (s *PlaylistService) RemoveItem(ctx context.Context, playlistID, itemID models.ULID) error {
	return s.playlists.RemoveItem(ctx, playlistID, itemID)
}

// Reorder atomically replaces a playlist's item order. The supplied id set
// must exactly match the current items or nothing changes.
func (s *PlaylistService) Reorder(ctx context.Context, playlistID models.ULID, orderedItemIDs []models.ULID) error {
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist == nil {
		return models.ErrPlaylistNotFound
	}

	if err := s.playlists.Reorder(ctx, playlistID, orderedItemIDs); err != nil {
		return err
	}

	if s.activity != nil {
		entry := &models.ActivityLog{
			UserID:  playlist.OwnerID,
			Action:  models.ActionPlaylistReorder,
			Details: fmt.Sprintf("playlist %s reordered (%d items)", playlistID, len(orderedItemIDs)),
		}
		if err := s.activity.Create(ctx, entry); err != nil {
			s.logger.Warn("recording reorder activity failed", slog.String("error", err.Error()))
		}
	}
	return nil
}
