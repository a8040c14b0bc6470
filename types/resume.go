package types

import "time"

// Resume is an uploaded CV. The file itself lives in object storage
// under ObjectKey; only metadata is kept in the database.
type Resume struct {
	// ID is the unique identifier of the resume (UUID string).
	ID string `json:"id" db:"id"`

	// UserID references the owning user.
	UserID string `json:"user_id" db:"user_id"`

	// Filename is the name the file was uploaded with.
	Filename string `json:"filename" db:"filename"`

	// ObjectKey is the object storage key of the file contents.
	ObjectKey string `json:"-" db:"object_key"`

	FileSize    int64  `json:"file_size" db:"file_size"`
	ContentType string `json:"content_type" db:"content_type"`

	// IsPrimary marks the resume used by default when applying.
	// At most one resume per user is primary.
	IsPrimary bool `json:"is_primary" db:"is_primary"`

	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}
