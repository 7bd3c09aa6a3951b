package models

import "time"

// File describes metadata for an uploaded binary object. The content itself
// lives in object storage under StorageKey; URL is the retrieval endpoint
// recorded at upload time.
type File struct {
	// ID is the server-assigned identifier.
	ID string
	// Name is the display name shown to the user (the original file name).
	Name string
	// Size is the content length in bytes.
	Size int64
	// ContentType is the MIME type reported at upload time.
	ContentType string
	// URL points at the stored object.
	URL string
	// StorageKey is the object-storage key (path) of the blob.
	StorageKey string
	// UserID is the owner of the file.
	UserID string
	// FolderID is the containing folder; nil means root level.
	FolderID *string

	CreatedAt time.Time
}
