package handlers

import (
	"context"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireStatusError(t *testing.T, err error, status int) {
	t.Helper()

	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, status, se.GetStatus())
}

func TestStreamHandler_StartAndStop(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewStreamHandler(stack.streams)
	video := seedVideo(t, stack.db)

	started, err := handler.Start(context.Background(), &StartStreamInput{
		Body: StartStreamRequest{
			SourceType:  "video",
			SourceID:    video.ID.String(),
			Destination: "rtmp://live.example.com/app/key",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "running", started.Body.Status)
	assert.Equal(t, "once", started.Body.Mode)
	require.NotNil(t, started.Body.PID)
	require.NotNil(t, started.Body.StartTime)

	stats, err := handler.Stats(context.Background(), &StreamStatsInput{ID: started.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, "running", stats.Body.Status)

	stopped, err := handler.Stop(context.Background(), &StopStreamInput{ID: started.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, "stopped", stopped.Body.Status)
	assert.Nil(t, stopped.Body.PID)

	// Stopping again is a no-op.
	again, err := handler.Stop(context.Background(), &StopStreamInput{ID: started.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, "stopped", again.Body.Status)
}

func TestStreamHandler_StartMissingSource(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewStreamHandler(stack.streams)

	_, err := handler.Start(context.Background(), &StartStreamInput{
		Body: StartStreamRequest{
			SourceType:  "video",
			SourceID:    ulid.Make().String(),
			Destination: "rtmp://live.example.com/app/key",
		},
	})
	requireStatusError(t, err, 404)
}

func TestStreamHandler_StartInvalidSourceType(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewStreamHandler(stack.streams)
	video := seedVideo(t, stack.db)

	_, err := handler.Start(context.Background(), &StartStreamInput{
		Body: StartStreamRequest{
			SourceType:  "channel",
			SourceID:    video.ID.String(),
			Destination: "rtmp://live.example.com/app/key",
		},
	})
	requireStatusError(t, err, 400)
}

func TestStreamHandler_GetUnknown(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewStreamHandler(stack.streams)

	_, err := handler.GetByID(context.Background(), &GetStreamInput{ID: ulid.Make().String()})
	requireStatusError(t, err, 404)

	_, err = handler.GetByID(context.Background(), &GetStreamInput{ID: "not-a-ulid"})
	requireStatusError(t, err, 400)
}

func TestStreamHandler_ListAndActive(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewStreamHandler(stack.streams)
	video := seedVideo(t, stack.db)

	started, err := handler.Start(context.Background(), &StartStreamInput{
		Body: StartStreamRequest{
			SourceType:  "video",
			SourceID:    video.ID.String(),
			Destination: "rtmp://live.example.com/app/key",
		},
	})
	require.NoError(t, err)

	all, err := handler.List(context.Background(), &ListStreamsInput{})
	require.NoError(t, err)
	require.Len(t, all.Body.Sessions, 1)

	active, err := handler.Active(context.Background(), &ActiveStreamsInput{})
	require.NoError(t, err)
	require.Len(t, active.Body.Sessions, 1)
	assert.Equal(t, started.Body.ID, active.Body.Sessions[0].ID)

	_, err = handler.Stop(context.Background(), &StopStreamInput{ID: started.Body.ID})
	require.NoError(t, err)

	active, err = handler.Active(context.Background(), &ActiveStreamsInput{})
	require.NoError(t, err)
	assert.Empty(t, active.Body.Sessions)
}
