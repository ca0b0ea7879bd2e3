package models

import "time"

type FileShare struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FileID    string    `json:"file_id"`
	Token     string    `json:"token"`
	Expiry    int64     `json:"expiry"` // epoch milliseconds
	CreatedAt time.Time `json:"created_at"`
}

type ShareLink struct {
	ShareURL string `json:"shareUrl"`
	Token    string `json:"token"`
}

// DownloadLink pairs file metadata with a presigned GET URL.
type DownloadLink struct {
	File        File   `json:"file"`
	DownloadURL string `json:"download_url"`
}
