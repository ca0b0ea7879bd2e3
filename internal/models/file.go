package models

import (
	"time"
)

type File struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	BlobID    string     `json:"blob_id"`
	UserID    string     `json:"user_id"`
	FolderID  *string    `json:"folder_id"`
	Size      int64      `json:"size"`
	Type      MediaType  `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Trashed reports whether the file is soft-deleted.
func (f File) Trashed() bool {
	return f.DeletedAt != nil
}

// FileView is a File as returned to clients, with a short-lived thumbnail link
// when one exists.
type FileView struct {
	File
	ThumbnailURL *string `json:"thumbnail_url"`
}
