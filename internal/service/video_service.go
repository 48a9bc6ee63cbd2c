package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
)

// VideoService manages the video catalogue.
type VideoService struct {
	videos repository.VideoRepository
	logger *slog.Logger
}

// NewVideoService creates a VideoService.
func NewVideoService(videos repository.VideoRepository) *VideoService {
	return &VideoService{
		videos: videos,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *VideoService) WithLogger(logger *slog.Logger) *VideoService {
	s.logger = logger
	return s
}

// Get returns one video.
func (s *VideoService) Get(ctx context.Context, id models.ULID) (*models.Video, error) {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, models.ErrVideoNotFound
	}
	return video, nil
}

// List returns all videos.
func (s *VideoService) List(ctx context.Context) ([]*models.Video, error) {
	return s.videos.GetAll(ctx)
}

// Create registers a video. The file size is read from disk when not
// supplied; a missing file is not an error since videos may be
// registered ahead of upload.
func (s *VideoService) Create(ctx context.Context, video *models.Video) error {
	if video.SizeBytes == 0 && video.FilePath != "" {
		if info, err := os.Stat(video.FilePath); err == nil {
			video.SizeBytes = info.Size()
		}
	}
	return s.videos.Create(ctx, video)
}

// Delete removes a video record. The underlying file is left in place.
func (s *VideoService) Delete(ctx context.Context, id models.ULID) error {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if video == nil {
		return models.ErrVideoNotFound
	}
	return s.videos.Delete(ctx, id)
}
