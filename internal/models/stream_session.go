package models

import "time"

// SourceType identifies what kind of source a stream session reads from.
type SourceType string

// Source types.
const (
	SourceVideo    SourceType = "video"
	SourcePlaylist SourceType = "playlist"
)

// StreamMode controls replay behaviour for a session's source.
type StreamMode string

// Stream modes. LoopPlaylist is implemented as a relaunch on natural
// process exit rather than a seamless concat loop.
const (
	ModeOnce         StreamMode = "once"
	ModeLoopVideo    StreamMode = "loop_video"
	ModeLoopPlaylist StreamMode = "loop_playlist"
)

// SessionStatus is the lifecycle status of a stream session.
type SessionStatus string

// Session statuses.
const (
	StatusRunning SessionStatus = "running"
	StatusStopped SessionStatus = "stopped"
)

// StreamSession is one orchestration instance mapping a source to a
// destination. PID is non-null exactly while Status is running; the two
// fields are always mutated together.
type StreamSession struct {
	BaseModel
	UserID      *ULID         `gorm:"type:varchar(26);index" json:"user_id,omitempty"`
	SourceType  SourceType    `gorm:"not null" json:"source_type"`
	SourceID    ULID          `gorm:"type:varchar(26);not null" json:"source_id"`
	Destination string        `gorm:"not null" json:"destination"`
	Mode        StreamMode    `gorm:"not null;default:once" json:"mode"`
	Status      SessionStatus `gorm:"not null;default:stopped;index" json:"status"`
	PID         *int          `gorm:"column:pid" json:"pid,omitempty"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	AvgBitrate  *string       `json:"avg_bitrate,omitempty"`
}

// Validate checks the session for required fields and valid enums.
func (s *StreamSession) Validate() error {
	if s.Destination == "" {
		return ErrDestinationRequired
	}
	switch s.SourceType {
	case SourceVideo, SourcePlaylist:
	default:
		return ErrInvalidSourceType
	}
	switch s.Mode {
	case ModeOnce, ModeLoopVideo, ModeLoopPlaylist:
	default:
		return ErrInvalidStreamMode
	}
	return nil
}

// IsRunning reports whether the session is in the running state.
func (s *StreamSession) IsRunning() bool {
	return s.Status == StatusRunning
}

// MarkRunning sets the running state with the given process id and start
// time. PID and status move together to keep the pid/status invariant.
func (s *StreamSession) MarkRunning(pid int, at time.Time) {
	s.Status = StatusRunning
	s.PID = &pid
	s.StartTime = &at
	s.EndTime = nil
}

// MarkStopped sets the terminal stopped state, clearing the pid and
// recording the end time and last observed bitrate if any.
func (s *StreamSession) MarkStopped(at time.Time, avgBitrate *string) {
	s.Status = StatusStopped
	s.PID = nil
	s.EndTime = &at
	if avgBitrate != nil {
		s.AvgBitrate = avgBitrate
	}
}
