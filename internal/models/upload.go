package models

import "time"

type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
)

// Upload is a client's claim to write one object at StorageKey. Status moves
// pending -> completed or pending -> failed and never back.
type Upload struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	StorageKey string       `json:"-"`
	Expiry     int64        `json:"expiry"` // epoch milliseconds
	Status     UploadStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

// PresignedUpload is returned when a client asks for a write target.
type PresignedUpload struct {
	UploadID   string `json:"upload_id"`
	PresignURL string `json:"presign_url"`
	Expiry     int64  `json:"expiry"`
}
