package models

// Playlist is an ordered collection of videos streamed back to back.
type Playlist struct {
	BaseModel
	Name    string         `gorm:"not null" json:"name"`
	OwnerID *ULID          `gorm:"type:varchar(26);index" json:"owner_id,omitempty"`
	Items   []PlaylistItem `gorm:"foreignKey:PlaylistID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// Validate checks the playlist for required fields.
func (p *Playlist) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// PlaylistItem places one video at a position within a playlist.
// Positions are unique per playlist; reordering replaces the whole
// position set in one transaction or not at all.
type PlaylistItem struct {
	BaseModel
	PlaylistID ULID  `gorm:"type:varchar(26);not null;uniqueIndex:idx_playlist_position" json:"playlist_id"`
	VideoID    ULID  `gorm:"type:varchar(26);not null;index" json:"video_id"`
	Position   int   `gorm:"not null;uniqueIndex:idx_playlist_position" json:"position"`
	Video      Video `gorm:"foreignKey:VideoID" json:"video,omitempty"`
}
