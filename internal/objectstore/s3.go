package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// S3 rejects a LocationConstraint equal to its default region.
const s3DefaultRegion = "us-east-1"

// s3API is the part of *s3.Client we use.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements weather.ObjectStore on Amazon S3.
type S3Store struct {
	client s3API
	region string
	logger *zap.Logger
}

// NewS3Store loads credentials and region from the default AWS chain.
// cfg.Region, when set, overrides the chain's region.
func NewS3Store(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return newS3Store(client, awsCfg.Region, logger), nil
}

func newS3Store(client s3API, region string, logger *zap.Logger) *S3Store {
	return &S3Store{
		client: client,
		region: region,
		logger: logger.Named("s3"),
	}
}

// BucketExists issues HeadBucket. Only a not-found answer yields (false, nil).
func (s *S3Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	s.logger.Debug("checking bucket", zap.String("bucket", bucket))

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head bucket %q: %w", bucket, err)
}

// CreateBucket creates the bucket in the client's region.
func (s *S3Store) CreateBucket(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if s.region != "" && s.region != s3DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	s.logger.Debug("creating bucket", zap.String("bucket", bucket), zap.String("region", s.region))

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var taken *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &taken) {
			return fmt.Errorf("create bucket %q: %w: %v", bucket, weather.ErrBucketAlreadyExists, err)
		}
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}
	return nil
}

// Upload puts the file at key, replacing any existing object.
func (s *S3Store) Upload(ctx context.Context, path, bucket, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s.logger.Debug("uploading", zap.String("path", path), zap.String("bucket", bucket), zap.String("key", key))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentTypeJSON),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no resources to release.
func (s *S3Store) Close() error {
	return nil
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return true
	}

	// HeadBucket has no body, so some S3-compatible stores only give us the code.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
