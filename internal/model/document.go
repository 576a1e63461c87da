package model

import "time"

// Document represents an uploaded file's metadata record.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey is the only durable reference to the raw bytes in the blob store.
type Document struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	StorageKey  string    `json:"storage_key"`
	Size        int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
