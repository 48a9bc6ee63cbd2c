package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/service"
)

// StreamHandler handles stream session API endpoints.
type StreamHandler struct {
	streamService *service.StreamService
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(streamService *service.StreamService) *StreamHandler {
	return &StreamHandler{
		streamService: streamService,
	}
}

// Register registers the stream routes with the API.
func (h *StreamHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listStreams",
		Method:      "GET",
		Path:        "/api/v1/streams",
		Summary:     "List stream sessions",
		Description: "Returns all stream sessions, running and stopped",
		Tags:        []string{"Streams"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "listActiveStreams",
		Method:      "GET",
		Path:        "/api/v1/streams/active",
		Summary:     "List active stream sessions",
		Tags:        []string{"Streams"},
	}, h.Active)

	huma.Register(api, huma.Operation{
		OperationID: "getStream",
		Method:      "GET",
		Path:        "/api/v1/streams/{id}",
		Summary:     "Get stream session",
		Tags:        []string{"Streams"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "startStream",
		Method:      "POST",
		Path:        "/api/v1/streams",
		Summary:     "Start a stream",
		Description: "Creates a stream session and launches its encoder; returns once the session is committed as running",
		Tags:        []string{"Streams"},
	}, h.Start)

	huma.Register(api, huma.Operation{
		OperationID: "stopStream",
		Method:      "POST",
		Path:        "/api/v1/streams/{id}/stop",
		Summary:     "Stop a stream",
		Description: "Terminates the session's encoder; stopping an already-stopped session is a no-op",
		Tags:        []string{"Streams"},
	}, h.Stop)

	huma.Register(api, huma.Operation{
		OperationID: "getStreamStats",
		Method:      "GET",
		Path:        "/api/v1/streams/{id}/stats",
		Summary:     "Get latest stream telemetry",
		Description: "Returns the most recent telemetry snapshot published for a running session",
		Tags:        []string{"Streams"},
	}, h.Stats)
}

// ListStreamsInput is the input for listing stream sessions.
type ListStreamsInput struct{}

// ListStreamsOutput is the output for listing stream sessions.
type ListStreamsOutput struct {
	Body struct {
		Sessions []StreamSessionResponse `json:"sessions"`
	}
}

// List returns all stream sessions.
func (h *StreamHandler) List(ctx context.Context, input *ListStreamsInput) (*ListStreamsOutput, error) {
	sessions, err := h.streamService.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list stream sessions", err)
	}

	resp := &ListStreamsOutput{}
	resp.Body.Sessions = make([]StreamSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp.Body.Sessions = append(resp.Body.Sessions, StreamSessionFromModel(s))
	}
	return resp, nil
}

// ActiveStreamsInput is the input for listing active sessions.
type ActiveStreamsInput struct{}

// ActiveStreamsOutput is the output for listing active sessions.
type ActiveStreamsOutput struct {
	Body struct {
		Sessions []StreamSessionResponse `json:"sessions"`
	}
}

// Active returns sessions currently running.
func (h *StreamHandler) Active(ctx context.Context, input *ActiveStreamsInput) (*ActiveStreamsOutput, error) {
	sessions, err := h.streamService.Active(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list active sessions", err)
	}

	resp := &ActiveStreamsOutput{}
	resp.Body.Sessions = make([]StreamSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp.Body.Sessions = append(resp.Body.Sessions, StreamSessionFromModel(s))
	}
	return resp, nil
}

// GetStreamInput is the input for getting a stream session.
type GetStreamInput struct {
	ID string `path:"id" doc:"Stream session ID (ULID)"`
}

// GetStreamOutput is the output for getting a stream session.
type GetStreamOutput struct {
	Body StreamSessionResponse
}

// GetByID returns a stream session by ID.
func (h *StreamHandler) GetByID(ctx context.Context, input *GetStreamInput) (*GetStreamOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	session, err := h.streamService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("stream session %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to get stream session", err)
	}

	return &GetStreamOutput{Body: StreamSessionFromModel(session)}, nil
}

// StartStreamRequest is the request body for starting a stream.
type StartStreamRequest struct {
	UserID      string `json:"user_id,omitempty" doc:"Requesting user ID (ULID)"`
	SourceType  string `json:"source_type" enum:"video,playlist" doc:"Source kind"`
	SourceID    string `json:"source_id" doc:"Video or playlist ID (ULID)"`
	Destination string `json:"destination" doc:"Destination URL, e.g. an RTMP ingest endpoint"`
	Mode        string `json:"mode,omitempty" enum:"once,loop_video,loop_playlist" doc:"Replay behaviour; defaults to once"`
}

// StartStreamInput is the input for starting a stream.
type StartStreamInput struct {
	Body StartStreamRequest
}

// StartStreamOutput is the output for starting a stream.
type StartStreamOutput struct {
	Body StreamSessionResponse
}

// Start creates and launches a stream session.
func (h *StreamHandler) Start(ctx context.Context, input *StartStreamInput) (*StartStreamOutput, error) {
	sourceID, err := models.ParseULID(input.Body.SourceID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid source_id format", err)
	}

	req := service.StartRequest{
		SourceType:  models.SourceType(input.Body.SourceType),
		SourceID:    sourceID,
		Destination: input.Body.Destination,
		Mode:        models.StreamMode(input.Body.Mode),
	}
	if req.Mode == "" {
		req.Mode = models.ModeOnce
	}
	if input.Body.UserID != "" {
		userID, err := models.ParseULID(input.Body.UserID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid user_id format", err)
		}
		req.UserID = &userID
	}

	session, err := h.streamService.Start(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDestinationRequired),
			errors.Is(err, models.ErrInvalidSourceType),
			errors.Is(err, models.ErrInvalidStreamMode):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, models.ErrVideoNotFound),
			errors.Is(err, models.ErrPlaylistNotFound):
			return nil, huma.Error404NotFound(err.Error())
		case errors.Is(err, models.ErrPlaylistEmpty):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to start stream", err)
	}

	return &StartStreamOutput{Body: StreamSessionFromModel(session)}, nil
}

// StopStreamInput is the input for stopping a stream.
type StopStreamInput struct {
	ID string `path:"id" doc:"Stream session ID (ULID)"`
}

// StopStreamOutput is the output for stopping a stream.
type StopStreamOutput struct {
	Body StreamSessionResponse
}

// Stop terminates a stream session's encoder.
func (h *StreamHandler) Stop(ctx context.Context, input *StopStreamInput) (*StopStreamOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	session, err := h.streamService.Stop(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("stream session %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to stop stream", err)
	}

	return &StopStreamOutput{Body: StreamSessionFromModel(session)}, nil
}

// StreamStatsInput is the input for fetching the latest telemetry.
type StreamStatsInput struct {
	ID string `path:"id" doc:"Stream session ID (ULID)"`
}

// StreamStatsOutput is the output for fetching the latest telemetry.
type StreamStatsOutput struct {
	Body struct {
		Bitrate       string `json:"bitrate,omitempty"`
		FPS           string `json:"fps,omitempty"`
		DroppedFrames string `json:"dropped_frames,omitempty"`
		Status        string `json:"status"`
	}
}

// Stats returns the latest telemetry snapshot for a session.
func (h *StreamHandler) Stats(ctx context.Context, input *StreamStatsInput) (*StreamStatsOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	// Ensure the session exists before reporting anything.
	session, err := h.streamService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("stream session %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to get stream session", err)
	}

	resp := &StreamStatsOutput{}
	resp.Body.Status = string(session.Status)
	if stats, ok := h.streamService.LatestStats(id); ok {
		resp.Body.Bitrate = stats.Bitrate
		resp.Body.FPS = stats.FPS
		resp.Body.DroppedFrames = stats.DroppedFrames
	}
	return resp, nil
}
