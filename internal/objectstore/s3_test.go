package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// fakeS3 records calls and returns canned errors.
type fakeS3 struct {
	headErr   error
	createErr error
	putErr    error

	headCalls int
	created   []*s3.CreateBucketInput
	puts      map[string]string
	ctypes    map[string]string
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.headCalls++
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = make(map[string]string)
		f.ctypes = make(map[string]string)
	}
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.puts[key] = string(body)
	f.ctypes[key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3BucketExists(t *testing.T) {
	denied := &smithy.GenericAPIError{Code: "Forbidden", Message: "access denied"}

	tests := []struct {
		name       string
		headErr    error
		wantExists bool
		wantErr    bool
	}{
		{name: "exists", wantExists: true},
		{name: "typed not found", headErr: &types.NotFound{}},
		{name: "no such bucket", headErr: &types.NoSuchBucket{}},
		{name: "generic not found code", headErr: &smithy.GenericAPIError{Code: "NotFound"}},
		{name: "forbidden", headErr: denied, wantErr: true},
		{name: "network", headErr: errors.New("dial tcp: connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newS3Store(&fakeS3{headErr: tt.headErr}, "eu-west-1", zap.NewNop())

			exists, err := s.BucketExists(context.Background(), "weather-bucket")
			if exists != tt.wantExists {
				t.Errorf("exists = %v, want %v", exists, tt.wantExists)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestS3CreateBucket_LocationConstraint(t *testing.T) {
	tests := []struct {
		region string
		want   types.BucketLocationConstraint
		unset  bool
	}{
		{region: "eu-west-1", want: types.BucketLocationConstraintEuWest1},
		{region: "us-east-1", unset: true},
		{region: "", unset: true},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			fake := &fakeS3{}
			s := newS3Store(fake, tt.region, zap.NewNop())

			if err := s.CreateBucket(context.Background(), "weather-bucket"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(fake.created) != 1 {
				t.Fatalf("expected one CreateBucket call, got %d", len(fake.created))
			}
			in := fake.created[0]
			if aws.ToString(in.Bucket) != "weather-bucket" {
				t.Errorf("bucket = %q", aws.ToString(in.Bucket))
			}
			if tt.unset {
				if in.CreateBucketConfiguration != nil {
					t.Errorf("expected no location constraint, got %+v", in.CreateBucketConfiguration)
				}
				return
			}
			if in.CreateBucketConfiguration == nil || in.CreateBucketConfiguration.LocationConstraint != tt.want {
				t.Errorf("location constraint = %+v, want %q", in.CreateBucketConfiguration, tt.want)
			}
		})
	}
}

func TestS3CreateBucket_Errors(t *testing.T) {
	tests := []struct {
		name        string
		createErr   error
		wantExisted bool
	}{
		{name: "owned by you", createErr: &types.BucketAlreadyOwnedByYou{}, wantExisted: true},
		{name: "taken", createErr: &types.BucketAlreadyExists{}, wantExisted: true},
		{name: "other", createErr: &smithy.GenericAPIError{Code: "InvalidLocationConstraint"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newS3Store(&fakeS3{createErr: tt.createErr}, "eu-west-1", zap.NewNop())

			err := s.CreateBucket(context.Background(), "weather-bucket")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, weather.ErrBucketAlreadyExists); got != tt.wantExisted {
				t.Errorf("errors.Is(ErrBucketAlreadyExists) = %v, want %v (%v)", got, tt.wantExisted, err)
			}
		})
	}
}

func TestS3Upload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "London_weather.json")
	if err := os.WriteFile(path, []byte(`{"name": "London"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeS3{}
	s := newS3Store(fake, "eu-west-1", zap.NewNop())

	if err := s.Upload(context.Background(), path, "weather-bucket", "weather-data/London_weather.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := "weather-bucket/weather-data/London_weather.json"
	if fake.puts[key] != `{"name": "London"}` {
		t.Errorf("uploaded body = %q", fake.puts[key])
	}
	if fake.ctypes[key] != "application/json" {
		t.Errorf("content type = %q", fake.ctypes[key])
	}
}

func TestS3Upload_Errors(t *testing.T) {
	s := newS3Store(&fakeS3{}, "eu-west-1", zap.NewNop())
	if err := s.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "b", "k"); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "Oslo_weather.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	putErr := errors.New("request timeout")
	s = newS3Store(&fakeS3{putErr: putErr}, "eu-west-1", zap.NewNop())
	if err := s.Upload(context.Background(), path, "b", "k"); !errors.Is(err, putErr) {
		t.Errorf("expected wrapped put error, got %v", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &config.AppConfig{StorageBackend: "ftp"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
