package models

// Activity actions recorded in the log.
const (
	ActionStreamStarted   = "stream_started"
	ActionStreamStopped   = "stream_stopped"
	ActionStreamRecovered = "stream_recovered"
	ActionPlaylistReorder = "playlist_reordered"
)

// ActivityLog records a user-visible action against the system.
type ActivityLog struct {
	BaseModel
	UserID  *ULID  `gorm:"type:varchar(26);index" json:"user_id,omitempty"`
	Action  string `gorm:"not null;index" json:"action"`
	Details string `json:"details,omitempty"`
}
