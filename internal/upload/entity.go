// AngelaMos | 2026
// entity.go

package upload

import (
	"time"
)

const Collection = "files"

const DefaultFileType = "brand-image"

// File describes one stored asset. Records are never edited; a replacement
// is a new upload.
type File struct {
	ID           string    `json:"id"`
	SubmissionID *string   `json:"submission_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	FileType     string    `json:"file_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
