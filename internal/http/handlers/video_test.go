package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoHandler_CreateFillsSizeFromDisk(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewVideoHandler(stack.videos)

	path := filepath.Join(t.TempDir(), "promo.mp4")
	require.NoError(t, os.WriteFile(path, []byte("twelve bytes"), 0o644))

	created, err := handler.Create(context.Background(), &CreateVideoInput{
		Body: CreateVideoRequest{Filename: "promo.mp4", FilePath: path},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), created.Body.SizeBytes)

	got, err := handler.GetByID(context.Background(), &GetVideoInput{ID: created.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, "promo.mp4", got.Body.Filename)
}

func TestVideoHandler_CreateMissingFields(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewVideoHandler(stack.videos)

	_, err := handler.Create(context.Background(), &CreateVideoInput{
		Body: CreateVideoRequest{Filename: "promo.mp4"},
	})
	requireStatusError(t, err, 400)
}

func TestVideoHandler_DeleteKeepsFile(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewVideoHandler(stack.videos)
	video := seedVideo(t, stack.db)

	_, err := handler.Delete(context.Background(), &DeleteVideoInput{ID: video.ID.String()})
	require.NoError(t, err)

	_, err = handler.GetByID(context.Background(), &GetVideoInput{ID: video.ID.String()})
	requireStatusError(t, err, 404)

	_, statErr := os.Stat(video.FilePath)
	assert.NoError(t, statErr)
}

func TestVideoHandler_DeleteUnknown(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewVideoHandler(stack.videos)

	_, err := handler.Delete(context.Background(), &DeleteVideoInput{ID: ulid.Make().String()})
	requireStatusError(t, err, 404)
}
