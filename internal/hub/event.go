// Package hub fans out stream lifecycle and telemetry events to the live
// subscribers of each session.
package hub

// Event types carried in the "type" field of outbound messages.
const (
	EventTypeStatus = "status"
	EventTypeStats  = "stats"
)

// StatusEvent is a lifecycle notification for a session.
type StatusEvent struct {
	Type        string `json:"type"`
	Status      string `json:"status"`
	Destination string `json:"destination"`
	AvgBitrate  string `json:"avg_bitrate,omitempty"`
}

// NewStatusEvent creates a lifecycle event.
func NewStatusEvent(status, destination, avgBitrate string) StatusEvent {
	return StatusEvent{
		Type:        EventTypeStatus,
		Status:      status,
		Destination: destination,
		AvgBitrate:  avgBitrate,
	}
}

// StatsEvent is a telemetry snapshot parsed from the encoder's diagnostics.
type StatsEvent struct {
	Type          string `json:"type"`
	Bitrate       string `json:"bitrate"`
	FPS           string `json:"fps"`
	DroppedFrames string `json:"dropped_frames,omitempty"`
	Destination   string `json:"destination"`
	Status        string `json:"status"`
}

// NewStatsEvent creates a telemetry event.
func NewStatsEvent(bitrate, fps, droppedFrames, destination, status string) StatsEvent {
	return StatsEvent{
		Type:          EventTypeStats,
		Bitrate:       bitrate,
		FPS:           fps,
		DroppedFrames: droppedFrames,
		Destination:   destination,
		Status:        status,
	}
}
