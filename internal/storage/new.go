package storage

import (
	"fmt"

	"docsummarizer/internal/config"
)

// New builds the backend selected by cfg.Storage.Backend.
func New(cfg *config.AppConfig) (Storage, error) {
	switch cfg.Storage.Backend {
	case "", "minio":
		return NewMinIO(cfg.MinIO)
	case "local":
		return NewLocal(cfg.Storage.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
