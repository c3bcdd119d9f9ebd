package weather

import (
	"context"
)

// Provider abstracts the weather data source (OpenWeatherMap).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, city string) (Observation, error)
}

// Store persists reduced records on local disk.
type Store interface {
	// Save writes the record for a city and returns the file path.
	Save(record Record, city string) (string, error)
}

// ObjectStore is the contract the S3 and GCS backends satisfy.
type ObjectStore interface {
	// BucketExists returns (false, nil) only when the backend explicitly
	// reports the bucket as missing.
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
	Upload(ctx context.Context, path, bucket, key string) error
}

// History keeps reports of past runs.
type History interface {
	SaveReport(report RunReport)
}
