package artifact

import (
	"fmt"

	"repodigest/internal/config"
)

// New builds the configured store. The S3 backend is fronted by a read cache
// unless cfg.CacheSize <= 0.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "disk":
		return NewDiskStore(cfg.Dir)
	case "s3":
		s3, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, err
		}
		if cfg.CacheSize <= 0 {
			return s3, nil
		}
		return NewCachedStore(s3, CacheConfig{MaxEntries: cfg.CacheSize, TTL: cfg.CacheTTL}), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
