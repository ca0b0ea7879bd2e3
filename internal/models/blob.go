package models

import "fmt"

// Blob is one physical object in the object store. It is shared by every File
// that references it and has no back-reference to them.
type Blob struct {
	ID           string `json:"id"`
	ContentKey   string `json:"s3_key"`
	Size         int64  `json:"size"`
	HasThumbnail bool   `json:"has_thumbnail"`
}

// ThumbnailKey is the content-address of the derived thumbnail for blobID.
func ThumbnailKey(blobID string) string {
	return fmt.Sprintf("thumbnails/%s.jpg", blobID)
}
