package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// GCSStore implements weather.ObjectStore on Google Cloud Storage.
type GCSStore struct {
	client    *storage.Client
	projectID string
	location  string
	logger    *zap.Logger
}

// NewGCSStore uses Application Default Credentials.
func NewGCSStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiating storage client: %w", err)
	}

	return &GCSStore{
		client:    client,
		projectID: cfg.GCPProjectID,
		location:  cfg.GCSLocation,
		logger:    logger.Named("gcs"),
	}, nil
}

func (g *GCSStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	g.logger.Debug("checking bucket", zap.String("bucket", bucket))

	_, err := g.client.Bucket(bucket).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("bucket attrs %q: %w", bucket, err)
}

func (g *GCSStore) CreateBucket(ctx context.Context, bucket string) error {
	attrs := &storage.BucketAttrs{}
	if g.location != "" {
		attrs.Location = g.location
	}

	g.logger.Debug("creating bucket", zap.String("bucket", bucket), zap.String("project", g.projectID))

	if err := g.client.Bucket(bucket).Create(ctx, g.projectID, attrs); err != nil {
		if isGCSConflict(err) {
			return fmt.Errorf("create bucket %q: %w: %v", bucket, weather.ErrBucketAlreadyExists, err)
		}
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

func (g *GCSStore) Upload(ctx context.Context, path, bucket, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g.logger.Debug("uploading", zap.String("path", path), zap.String("bucket", bucket), zap.String("key", key))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeJSON
	if err := writeObject(w, cancel, f); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// writeObject copies src into w and commits it with Close. A failed copy
// cancels the writer's context instead, so no partial object is created.
func writeObject(w io.WriteCloser, cancel context.CancelFunc, src io.Reader) error {
	if _, err := io.Copy(w, src); err != nil {
		cancel()
		return err
	}
	return w.Close()
}

func (g *GCSStore) Close() error {
	return g.client.Close()
}

func isGCSConflict(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
