package models

// Video represents a stored video file available for re-streaming.
type Video struct {
	BaseModel
	Filename   string `gorm:"not null" json:"filename"`
	FilePath   string `gorm:"not null" json:"file_path"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedBy *ULID  `gorm:"type:varchar(26);index" json:"uploaded_by,omitempty"`
}

// Validate checks the video for required fields.
func (v *Video) Validate() error {
	if v.Filename == "" {
		return ErrFilenameRequired
	}
	if v.FilePath == "" {
		return ErrFilePathRequired
	}
	return nil
}
