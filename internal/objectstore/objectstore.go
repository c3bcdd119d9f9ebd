// Package objectstore provides the bucket backends used to publish weather
// records: Amazon S3 (and S3-compatible stores) and Google Cloud Storage.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const contentTypeJSON = "application/json"

// Store is a weather.ObjectStore that holds a client connection.
type Store interface {
	weather.ObjectStore
	io.Closer
}

// Make sure both backends satisfy Store.
var (
	_ Store = (*S3Store)(nil)
	_ Store = (*GCSStore)(nil)
)

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case "", "s3":
		return NewS3Store(ctx, cfg, logger)
	case "gcs":
		return NewGCSStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
