package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/service"
)

// VideoHandler handles video catalogue API endpoints.
type VideoHandler struct {
	videoService *service.VideoService
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
	}
}

// Register registers the video routes with the API.
func (h *VideoHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listVideos",
		Method:      "GET",
		Path:        "/api/v1/videos",
		Summary:     "List videos",
		Description: "Returns all registered videos",
		Tags:        []string{"Videos"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getVideo",
		Method:      "GET",
		Path:        "/api/v1/videos/{id}",
		Summary:     "Get video",
		Description: "Returns a video by ID",
		Tags:        []string{"Videos"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "createVideo",
		Method:      "POST",
		Path:        "/api/v1/videos",
		Summary:     "Register video",
		Description: "Registers a video file with the catalogue",
		Tags:        []string{"Videos"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "deleteVideo",
		Method:      "DELETE",
		Path:        "/api/v1/videos/{id}",
		Summary:     "Delete video",
		Description: "Removes a video record; the file on disk is kept",
		Tags:        []string{"Videos"},
	}, h.Delete)
}

// ListVideosInput is the input for listing videos.
type ListVideosInput struct{}

// ListVideosOutput is the output for listing videos.
type ListVideosOutput struct {
	Body struct {
		Videos []VideoResponse `json:"videos"`
	}
}

// List returns all videos.
func (h *VideoHandler) List(ctx context.Context, input *ListVideosInput) (*ListVideosOutput, error) {
	videos, err := h.videoService.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list videos", err)
	}

	resp := &ListVideosOutput{}
	resp.Body.Videos = make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		resp.Body.Videos = append(resp.Body.Videos, VideoFromModel(v))
	}
	return resp, nil
}

// GetVideoInput is the input for getting a video.
type GetVideoInput struct {
	ID string `path:"id" doc:"Video ID (ULID)"`
}

// GetVideoOutput is the output for getting a video.
type GetVideoOutput struct {
	Body VideoResponse
}

// GetByID returns a video by ID.
func (h *VideoHandler) GetByID(ctx context.Context, input *GetVideoInput) (*GetVideoOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	video, err := h.videoService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrVideoNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("video %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to get video", err)
	}

	return &GetVideoOutput{Body: VideoFromModel(video)}, nil
}

// CreateVideoRequest is the request body for registering a video.
type CreateVideoRequest struct {
	Filename   string `json:"filename" doc:"Original filename"`
	FilePath   string `json:"file_path" doc:"Absolute path to the file on disk"`
	UploadedBy string `json:"uploaded_by,omitempty" doc:"Uploading user ID (ULID)"`
}

// CreateVideoInput is the input for registering a video.
type CreateVideoInput struct {
	Body CreateVideoRequest
}

// CreateVideoOutput is the output for registering a video.
type CreateVideoOutput struct {
	Body VideoResponse
}

// Create registers a video with the catalogue.
func (h *VideoHandler) Create(ctx context.Context, input *CreateVideoInput) (*CreateVideoOutput, error) {
	video := &models.Video{
		Filename: input.Body.Filename,
		FilePath: input.Body.FilePath,
	}
	if input.Body.UploadedBy != "" {
		uploadedBy, err := models.ParseULID(input.Body.UploadedBy)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid uploaded_by format", err)
		}
		video.UploadedBy = &uploadedBy
	}

	if err := h.videoService.Create(ctx, video); err != nil {
		if errors.Is(err, models.ErrFilenameRequired) || errors.Is(err, models.ErrFilePathRequired) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to register video", err)
	}

	return &CreateVideoOutput{Body: VideoFromModel(video)}, nil
}

// DeleteVideoInput is the input for deleting a video.
type DeleteVideoInput struct {
	ID string `path:"id" doc:"Video ID (ULID)"`
}

// DeleteVideoOutput is the output for deleting a video.
type DeleteVideoOutput struct{}

// Delete removes a video record.
func (h *VideoHandler) Delete(ctx context.Context, input *DeleteVideoInput) (*DeleteVideoOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	if err := h.videoService.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrVideoNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("video %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to delete video", err)
	}

	return &DeleteVideoOutput{}, nil
}
