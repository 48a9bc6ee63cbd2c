package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/restreamr/internal/repository"
)

// ActivityHandler handles the activity log API endpoint.
type ActivityHandler struct {
	activity repository.ActivityLogRepository
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(activity repository.ActivityLogRepository) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
	}
}

// Register registers the activity routes with the API.
func (h *ActivityHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listActivity",
		Method:      "GET",
		Path:        "/api/v1/activity",
		Summary:     "Recent activity",
		Description: "Returns recent activity log entries, newest first",
		Tags:        []string{"Activity"},
	}, h.List)
}

// ListActivityInput is the input for listing activity.
type ListActivityInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum entries to return"`
}

// ListActivityOutput is the output for listing activity.
type ListActivityOutput struct {
	Body struct {
		Entries []ActivityLogResponse `json:"entries"`
	}
}

// List returns recent activity log entries.
func (h *ActivityHandler) List(ctx context.Context, input *ListActivityInput) (*ListActivityOutput, error) {
	entries, err := h.activity.GetRecent(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list activity", err)
	}

	resp := &ListActivityOutput{}
	resp.Body.Entries = make([]ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		resp.Body.Entries = append(resp.Body.Entries, ActivityLogFromModel(entry))
	}
	return resp, nil
}
