// Package handlers provides HTTP API handlers for restreamr.
package handlers

import (
	"time"

	"github.com/jmylchreest/restreamr/internal/models"
)

// VideoResponse is the API representation of a video.
type VideoResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"file_path"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VideoFromModel converts a video model to its API representation.
func VideoFromModel(v *models.Video) VideoResponse {
	resp := VideoResponse{
		ID:        v.ID.String(),
		Filename:  v.Filename,
		FilePath:  v.FilePath,
		SizeBytes: v.SizeBytes,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	if v.UploadedBy != nil {
		resp.UploadedBy = v.UploadedBy.String()
	}
	return resp
}

// PlaylistItemResponse is the API representation of a playlist item.
type PlaylistItemResponse struct {
	ID       string        `json:"id"`
	VideoID  string        `json:"video_id"`
	Position int           `json:"position"`
	Video    VideoResponse `json:"video"`
}

// PlaylistItemFromModel converts a playlist item model to its API
// representation.
func PlaylistItemFromModel(item *models.PlaylistItem) PlaylistItemResponse {
	return PlaylistItemResponse{
		ID:       item.ID.String(),
		VideoID:  item.VideoID.String(),
		Position: item.Position,
		Video:    VideoFromModel(&item.Video),
	}
}

// PlaylistResponse is the API representation of a playlist.
type PlaylistResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	OwnerID   string                 `json:"owner_id,omitempty"`
	Items     []PlaylistItemResponse `json:"items,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// PlaylistFromModel converts a playlist model to its API representation.
func PlaylistFromModel(p *models.Playlist) PlaylistResponse {
	resp := PlaylistResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.OwnerID != nil {
		resp.OwnerID = p.OwnerID.String()
	}
	return resp
}

// StreamSessionResponse is the API representation of a stream session.
type StreamSessionResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	SourceType  string     `json:"source_type"`
	SourceID    string     `json:"source_id"`
	Destination string     `json:"destination"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	PID         *int       `json:"pid,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	AvgBitrate  string     `json:"avg_bitrate,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// StreamSessionFromModel converts a stream session model to its API
// representation.
func StreamSessionFromModel(s *models.StreamSession) StreamSessionResponse {
	resp := StreamSessionResponse{
		ID:          s.ID.String(),
		SourceType:  string(s.SourceType),
		SourceID:    s.SourceID.String(),
		Destination: s.Destination,
		Mode:        string(s.Mode),
		Status:      string(s.Status),
		PID:         s.PID,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		CreatedAt:   s.CreatedAt,
	}
	if s.UserID != nil {
		resp.UserID = s.UserID.String()
	}
	if s.AvgBitrate != nil {
		resp.AvgBitrate = *s.AvgBitrate
	}
	return resp
}

// ActivityLogResponse is the API representation of an activity log entry.
type ActivityLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLogFromModel converts an activity log model to its API
// representation.
func ActivityLogFromModel(entry *models.ActivityLog) ActivityLogResponse {
	resp := ActivityLogResponse{
		ID:        entry.ID.String(),
		Action:    entry.Action,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
	if entry.UserID != nil {
		resp.UserID = entry.UserID.String()
	}
	return resp
}
