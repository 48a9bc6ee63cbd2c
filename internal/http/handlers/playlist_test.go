package handlers

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistHandler_CreateAndGet(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewPlaylistHandler(stack.playlist)

	created, err := handler.Create(context.Background(), &CreatePlaylistInput{
		Body: CreatePlaylistRequest{Name: "morning rotation"},
	})
	require.NoError(t, err)
	assert.Equal(t, "morning rotation", created.Body.Name)
	assert.NotEmpty(t, created.Body.ID)

	got, err := handler.GetByID(context.Background(), &GetPlaylistInput{ID: created.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Body.ID, got.Body.ID)
	assert.Empty(t, got.Body.Items)
}

func TestPlaylistHandler_CreateMissingName(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewPlaylistHandler(stack.playlist)

	_, err := handler.Create(context.Background(), &CreatePlaylistInput{
		Body: CreatePlaylistRequest{},
	})
	requireStatusError(t, err, 400)
}

func TestPlaylistHandler_AddRemoveItems(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewPlaylistHandler(stack.playlist)

	created, err := handler.Create(context.Background(), &CreatePlaylistInput{
		Body: CreatePlaylistRequest{Name: "rotation"},
	})
	require.NoError(t, err)

	first := seedVideo(t, stack.db)
	second := seedVideo(t, stack.db)

	itemA, err := handler.AddItem(context.Background(), &AddPlaylistItemInput{
		ID:   created.Body.ID,
		Body: AddPlaylistItemRequest{VideoID: first.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, itemA.Body.Position)

	itemB, err := handler.AddItem(context.Background(), &AddPlaylistItemInput{
		ID:   created.Body.ID,
		Body: AddPlaylistItemRequest{VideoID: second.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, itemB.Body.Position)

	// Unknown video is rejected.
	_, err = handler.AddItem(context.Background(), &AddPlaylistItemInput{
		ID:   created.Body.ID,
		Body: AddPlaylistItemRequest{VideoID: ulid.Make().String()},
	})
	requireStatusError(t, err, 404)

	_, err = handler.RemoveItem(context.Background(), &RemovePlaylistItemInput{
		ID:     created.Body.ID,
		ItemID: itemA.Body.ID,
	})
	require.NoError(t, err)

	got, err := handler.GetByID(context.Background(), &GetPlaylistInput{ID: created.Body.ID})
	require.NoError(t, err)
	require.Len(t, got.Body.Items, 1)
	assert.Equal(t, itemB.Body.ID, got.Body.Items[0].ID)
}

func TestPlaylistHandler_Reorder(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewPlaylistHandler(stack.playlist)

	created, err := handler.Create(context.Background(), &CreatePlaylistInput{
		Body: CreatePlaylistRequest{Name: "rotation"},
	})
	require.NoError(t, err)

	var itemIDs []string
	for i := 0; i < 3; i++ {
		video := seedVideo(t, stack.db)
		item, err := handler.AddItem(context.Background(), &AddPlaylistItemInput{
			ID:   created.Body.ID,
			Body: AddPlaylistItemRequest{VideoID: video.ID.String()},
		})
		require.NoError(t, err)
		itemIDs = append(itemIDs, item.Body.ID)
	}

	// Reverse the order.
	reversed := []string{itemIDs[2], itemIDs[1], itemIDs[0]}
	_, err = handler.Reorder(context.Background(), &ReorderPlaylistInput{
		ID:   created.Body.ID,
		Body: ReorderPlaylistRequest{ItemIDs: reversed},
	})
	require.NoError(t, err)

	got, err := handler.GetByID(context.Background(), &GetPlaylistInput{ID: created.Body.ID})
	require.NoError(t, err)
	require.Len(t, got.Body.Items, 3)
	for i, id := range reversed {
		assert.Equal(t, id, got.Body.Items[i].ID)
		assert.Equal(t, i+1, got.Body.Items[i].Position)
	}

	// A mismatched item set is rejected and changes nothing.
	_, err = handler.Reorder(context.Background(), &ReorderPlaylistInput{
		ID:   created.Body.ID,
		Body: ReorderPlaylistRequest{ItemIDs: []string{itemIDs[0], itemIDs[1], ulid.Make().String()}},
	})
	requireStatusError(t, err, 409)

	got, err = handler.GetByID(context.Background(), &GetPlaylistInput{ID: created.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, reversed[0], got.Body.Items[0].ID)
}

func TestPlaylistHandler_Delete(t *testing.T) {
	stack := setupTestStack(t)
	handler := NewPlaylistHandler(stack.playlist)

	created, err := handler.Create(context.Background(), &CreatePlaylistInput{
		Body: CreatePlaylistRequest{Name: "ephemeral"},
	})
	require.NoError(t, err)

	_, err = handler.Delete(context.Background(), &DeletePlaylistInput{ID: created.Body.ID})
	require.NoError(t, err)

	_, err = handler.GetByID(context.Background(), &GetPlaylistInput{ID: created.Body.ID})
	requireStatusError(t, err, 404)
}
