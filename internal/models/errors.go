package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common errors for models and the restream core.
var (
	// ErrVideoNotFound indicates the referenced video does not exist.
	ErrVideoNotFound = errors.New("video not found")

	// ErrPlaylistNotFound indicates the referenced playlist does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrPlaylistEmpty indicates a playlist has no items to stream.
	ErrPlaylistEmpty = errors.New("playlist has no items")

	// ErrSessionNotFound indicates the referenced stream session does not exist.
	ErrSessionNotFound = errors.New("stream session not found")

	// ErrSessionNotRunning indicates an operation requires a running session.
	ErrSessionNotRunning = errors.New("stream session is not running")

	// ErrDestinationRequired indicates a required destination field is empty.
	ErrDestinationRequired = errors.New("destination is required")

	// ErrInvalidSourceType indicates an invalid session source type.
	ErrInvalidSourceType = errors.New("invalid source type: must be 'video' or 'playlist'")

	// ErrInvalidStreamMode indicates an invalid session replay mode.
	ErrInvalidStreamMode = errors.New("invalid stream mode: must be 'once', 'loop_video' or 'loop_playlist'")

	// ErrFilenameRequired indicates a required filename field is empty.
	ErrFilenameRequired = errors.New("filename is required")

	// ErrFilePathRequired indicates a required file path field is empty.
	ErrFilePathRequired = errors.New("file_path is required")

	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrReorderMismatch indicates a reorder request whose id set does not
	// exactly match the playlist's current items.
	ErrReorderMismatch = errors.New("reorder set does not match playlist items")
)
