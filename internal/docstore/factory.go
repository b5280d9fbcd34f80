package docstore

import (
	"fmt"

	"hydrantmap/internal/config"
	"hydrantmap/internal/hydrant"
)

// NewDocumentStoreFromConfig creates a DocumentStore based on the store config type.
func NewDocumentStoreFromConfig(cfg *config.Config, logger hydrant.Logger) (hydrant.DocumentStore, error) {
	switch cfg.Store.Type {
	case "memory":
		return NewMemoryDocumentStore(nil), nil
	case "filesystem", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("filesystem store requires data_dir to be set")
		}
		return NewOSDocumentStore(cfg.DataDir, logger)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}
