// Package restream supervises FFmpeg re-streaming processes: it resolves
// session sources into encoder input arguments, launches and tracks the
// processes, and relays their telemetry to the subscriber hub.
package restream

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/repository"
)

// InputSource is the resolved encoder input for one session.
type InputSource struct {
	// Args are the input arguments placed before -i.
	Args []string
	// Input is the -i value: a video path or a concat index path.
	Input string
	// IndexPath is the ephemeral concat index file backing a playlist
	// source, empty for single-video sources. It must outlive the encoder
	// process; cleanup happens best-effort after exit.
	IndexPath string
}

// SourceResolver turns a session's source descriptor into encoder input
// arguments.
type SourceResolver struct {
	videos    repository.VideoRepository
	playlists repository.PlaylistRepository
	tempDir   string
	logger    *slog.Logger
}

// NewSourceResolver creates a SourceResolver writing concat index files to
// tempDir.
func NewSourceResolver(videos repository.VideoRepository, playlists repository.PlaylistRepository, tempDir string, logger *slog.Logger) *SourceResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceResolver{
		videos:    videos,
		playlists: playlists,
		tempDir:   tempDir,
		logger:    logger,
	}
}

// Resolve builds the encoder input for the session. The encoder always
// reads at real-time pacing since the destination is a live endpoint.
// Fails with models.ErrVideoNotFound or models.ErrPlaylistEmpty before any
// process is spawned.
func (r *SourceResolver) Resolve(ctx context.Context, session *models.StreamSession) (*InputSource, error) {
	switch session.SourceType {
	case models.SourceVideo:
		return r.resolveVideo(ctx, session)
	case models.SourcePlaylist:
		return r.resolvePlaylist(ctx, session)
	default:
		return nil, models.ErrInvalidSourceType
	}
}

func (r *SourceResolver) resolveVideo(ctx context.Context, session *models.StreamSession) (*InputSource, error) {
	video, err := r.videos.GetByID(ctx, session.SourceID)
	if err != nil {
		return nil, fmt.Errorf("resolving video source: %w", err)
	}
	if video == nil {
		return nil, models.ErrVideoNotFound
	}

	args := []string{"-re"}
	if session.Mode == models.ModeLoopVideo {
		args = append(args, "-stream_loop", "-1")
	}
	return &InputSource{Args: args, Input: video.FilePath}, nil
}

func (r *SourceResolver) resolvePlaylist(ctx context.Context, session *models.StreamSession) (*InputSource, error) {
	items, err := r.playlists.GetItemsOrdered(ctx, session.SourceID)
	if err != nil {
		return nil, fmt.Errorf("resolving playlist source: %w", err)
	}
	if len(items) == 0 {
		return nil, models.ErrPlaylistEmpty
	}

	indexPath, err := r.writeIndex(session.ID, items)
	if err != nil {
		return nil, err
	}

	return &InputSource{
		Args:      []string{"-re", "-f", "concat", "-safe", "0"},
		Input:     indexPath,
		IndexPath: indexPath,
	}, nil
}

// writeIndex materializes the playlist as an FFmpeg concat demuxer index,
// one "file '<path>'" line per item in position order.
func (r *SourceResolver) writeIndex(sessionID models.ULID, items []*models.PlaylistItem) (string, error) {
	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("file '")
		sb.WriteString(escapeConcatPath(item.Video.FilePath))
		sb.WriteString("'\n")
	}

	name := fmt.Sprintf("playlist-%s-%d.txt", sessionID, time.Now().UnixNano())
	path := filepath.Join(r.tempDir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing concat index: %w", err)
	}
	return path, nil
}

// escapeConcatPath escapes single quotes for the concat demuxer's quoted
// file syntax.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// CleanupIndex removes a concat index file. Best effort: the file may
// already be gone after an abnormal shutdown.
func (r *SourceResolver) CleanupIndex(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("removing concat index failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// SweepStaleIndexes removes concat index files in tempDir older than the
// retention window. Orphans appear when the orchestrator dies while
// sessions are live; the per-session cleanup never sees them.
func SweepStaleIndexes(tempDir string, retention time.Duration, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading temp dir: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "playlist-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("removing stale concat index failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("swept stale concat indexes", slog.Int("removed", removed))
	}
	return removed, nil
}
