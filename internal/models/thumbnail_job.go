package models

// ThumbnailJob is the queue message produced for every thumbnailable upload.
// It is never persisted; its effect is recorded by Blob.HasThumbnail.
type ThumbnailJob struct {
	FileID     string `json:"fileId"`
	BlobID     string `json:"blobId"`
	ContentKey string `json:"s3Key"`
	Type       string `json:"type"`
}
