package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/restreamr/internal/models"
	"github.com/jmylchreest/restreamr/internal/service"
)

// PlaylistHandler handles playlist API endpoints.
type PlaylistHandler struct {
	playlistService *service.PlaylistService
}

// NewPlaylistHandler creates a new playlist handler.
func NewPlaylistHandler(playlistService *service.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{
		playlistService: playlistService,
	}
}

// Register registers the playlist routes with the API.
func (h *PlaylistHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listPlaylists",
		Method:      "GET",
		Path:        "/api/v1/playlists",
		Summary:     "List playlists",
		Description: "Returns all playlists",
		Tags:        []string{"Playlists"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getPlaylist",
		Method:      "GET",
		Path:        "/api/v1/playlists/{id}",
		Summary:     "Get playlist",
		Description: "Returns a playlist with its items in order",
		Tags:        []string{"Playlists"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "createPlaylist",
		Method:      "POST",
		Path:        "/api/v1/playlists",
		Summary:     "Create playlist",
		Tags:        []string{"Playlists"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "deletePlaylist",
		Method:      "DELETE",
		Path:        "/api/v1/playlists/{id}",
		Summary:     "Delete playlist",
		Description: "Deletes a playlist and all its items",
		Tags:        []string{"Playlists"},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "addPlaylistItem",
		Method:      "POST",
		Path:        "/api/v1/playlists/{id}/items",
		Summary:     "Add video to playlist",
		Description: "Appends a video to the end of a playlist",
		Tags:        []string{"Playlists"},
	}, h.AddItem)

	huma.Register(api, huma.Operation{
		OperationID: "removePlaylistItem",
		Method:      "DELETE",
		Path:        "/api/v1/playlists/{id}/items/{itemId}",
		Summary:     "Remove playlist item",
		Tags:        []string{"Playlists"},
	}, h.RemoveItem)

	huma.Register(api, huma.Operation{
		OperationID: "reorderPlaylist",
		Method:      "PUT",
		Path:        "/api/v1/playlists/{id}/order",
		Summary:     "Reorder playlist",
		Description: "Atomically replaces the playlist item order; the supplied item set must match exactly",
		Tags:        []string{"Playlists"},
	}, h.Reorder)
}

// ListPlaylistsInput is the input for listing playlists.
type ListPlaylistsInput struct{}

// ListPlaylistsOutput is the output for listing playlists.
type ListPlaylistsOutput struct {
	Body struct {
		Playlists []PlaylistResponse `json:"playlists"`
	}
}

// List returns all playlists.
func (h *PlaylistHandler) List(ctx context.Context, input *ListPlaylistsInput) (*ListPlaylistsOutput, error) {
	playlists, err := h.playlistService.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list playlists", err)
	}

	resp := &ListPlaylistsOutput{}
	resp.Body.Playlists = make([]PlaylistResponse, 0, len(playlists))
	for _, p := range playlists {
		resp.Body.Playlists = append(resp.Body.Playlists, PlaylistFromModel(p))
	}
	return resp, nil
}

// GetPlaylistInput is the input for getting a playlist.
type GetPlaylistInput struct {
	ID string `path:"id" doc:"Playlist ID (ULID)"`
}

// GetPlaylistOutput is the output for getting a playlist.
type GetPlaylistOutput struct {
	Body PlaylistResponse
}

// GetByID returns a playlist with its ordered items.
func (h *PlaylistHandler) GetByID(ctx context.Context, input *GetPlaylistInput) (*GetPlaylistOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	playlist, items, err := h.playlistService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrPlaylistNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("playlist %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to get playlist", err)
	}

	body := PlaylistFromModel(playlist)
	body.Items = make([]PlaylistItemResponse, 0, len(items))
	for _, item := range items {
		body.Items = append(body.Items, PlaylistItemFromModel(item))
	}
	return &GetPlaylistOutput{Body: body}, nil
}

// CreatePlaylistRequest is the request body for creating a playlist.
type CreatePlaylistRequest struct {
	Name    string `json:"name" doc:"Playlist name"`
	OwnerID string `json:"owner_id,omitempty" doc:"Owning user ID (ULID)"`
}

// CreatePlaylistInput is the input for creating a playlist.
type CreatePlaylistInput struct {
	Body CreatePlaylistRequest
}

// CreatePlaylistOutput is the output for creating a playlist.
type CreatePlaylistOutput struct {
	Body PlaylistResponse
}

// Create creates a new playlist.
func (h *PlaylistHandler) Create(ctx context.Context, input *CreatePlaylistInput) (*CreatePlaylistOutput, error) {
	playlist := &models.Playlist{Name: input.Body.Name}
	if input.Body.OwnerID != "" {
		ownerID, err := models.ParseULID(input.Body.OwnerID)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid owner_id format", err)
		}
		playlist.OwnerID = &ownerID
	}

	if err := h.playlistService.Create(ctx, playlist); err != nil {
		if errors.Is(err, models.ErrNameRequired) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "duplicate key") {
			return nil, huma.Error409Conflict("a playlist with this name already exists")
		}
		return nil, huma.Error500InternalServerError("failed to create playlist", err)
	}

	return &CreatePlaylistOutput{Body: PlaylistFromModel(playlist)}, nil
}

// DeletePlaylistInput is the input for deleting a playlist.
type DeletePlaylistInput struct {
	ID string `path:"id" doc:"Playlist ID (ULID)"`
}

// DeletePlaylistOutput is the output for deleting a playlist.
type DeletePlaylistOutput struct{}

// Delete deletes a playlist and its items.
func (h *PlaylistHandler) Delete(ctx context.Context, input *DeletePlaylistInput) (*DeletePlaylistOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	if err := h.playlistService.Delete(ctx, id); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete playlist", err)
	}
	return &DeletePlaylistOutput{}, nil
}

// AddPlaylistItemRequest is the request body for adding a video.
type AddPlaylistItemRequest struct {
	VideoID string `json:"video_id" doc:"Video ID (ULID)"`
}

// AddPlaylistItemInput is the input for adding a video to a playlist.
type AddPlaylistItemInput struct {
	ID   string `path:"id" doc:"Playlist ID (ULID)"`
	Body AddPlaylistItemRequest
}

// AddPlaylistItemOutput is the output for adding a video to a playlist.
type AddPlaylistItemOutput struct {
	Body PlaylistItemResponse
}

// AddItem appends a video to a playlist.
func (h *PlaylistHandler) AddItem(ctx context.Context, input *AddPlaylistItemInput) (*AddPlaylistItemOutput, error) {
	playlistID, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}
	videoID, err := models.ParseULID(input.Body.VideoID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid video_id format", err)
	}

	item, err := h.playlistService.AddVideo(ctx, playlistID, videoID)
	if err != nil {
		if errors.Is(err, models.ErrPlaylistNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("playlist %s not found", input.ID))
		}
		if errors.Is(err, models.ErrVideoNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("video %s not found", input.Body.VideoID))
		}
		return nil, huma.Error500InternalServerError("failed to add video to playlist", err)
	}

	return &AddPlaylistItemOutput{Body: PlaylistItemFromModel(item)}, nil
}

// RemovePlaylistItemInput is the input for removing a playlist item.
type RemovePlaylistItemInput struct {
	ID     string `path:"id" doc:"Playlist ID (ULID)"`
	ItemID string `path:"itemId" doc:"Playlist item ID (ULID)"`
}

// RemovePlaylistItemOutput is the output for removing a playlist item.
type RemovePlaylistItemOutput struct{}

// RemoveItem removes one item from a playlist.
func (h *PlaylistHandler) RemoveItem(ctx context.Context, input *RemovePlaylistItemInput) (*RemovePlaylistItemOutput, error) {
	playlistID, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}
	itemID, err := models.ParseULID(input.ItemID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid item ID format", err)
	}

	if err := h.playlistService.RemoveItem(ctx, playlistID, itemID); err != nil {
		return nil, huma.Error500InternalServerError("failed to remove playlist item", err)
	}
	return &RemovePlaylistItemOutput{}, nil
}

// ReorderPlaylistRequest is the request body for reordering a playlist.
type ReorderPlaylistRequest struct {
	ItemIDs []string `json:"item_ids" doc:"All playlist item IDs in their new order"`
}

// ReorderPlaylistInput is the input for reordering a playlist.
type ReorderPlaylistInput struct {
	ID   string `path:"id" doc:"Playlist ID (ULID)"`
	Body ReorderPlaylistRequest
}

// ReorderPlaylistOutput is the output for reordering a playlist.
type ReorderPlaylistOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// Reorder atomically replaces the playlist item order.
func (h *PlaylistHandler) Reorder(ctx context.Context, input *ReorderPlaylistInput) (*ReorderPlaylistOutput, error) {
	playlistID, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid ID format", err)
	}

	itemIDs := make([]models.ULID, 0, len(input.Body.ItemIDs))
	for _, raw := range input.Body.ItemIDs {
		itemID, err := models.ParseULID(raw)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("invalid item ID %q", raw), err)
		}
		itemIDs = append(itemIDs, itemID)
	}

	if err := h.playlistService.Reorder(ctx, playlistID, itemIDs); err != nil {
		if errors.Is(err, models.ErrPlaylistNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("playlist %s not found", input.ID))
		}
		if errors.Is(err, models.ErrReorderMismatch) {
			return nil, huma.Error409Conflict("item set does not match the playlist's current items")
		}
		return nil, huma.Error500InternalServerError("failed to reorder playlist", err)
	}

	resp := &ReorderPlaylistOutput{}
	resp.Body.Message = "playlist reordered"
	return resp, nil
}
