package weather

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/config"
)

// ErrBucketAlreadyExists is returned by ObjectStore.CreateBucket when the
// bucket is already there (owned by us or not).
var ErrBucketAlreadyExists = errors.New("bucket already exists")

// FileName is the file and object base name used for a city.
func FileName(city string) string {
	return city + "_weather.json"
}

// ObjectKey returns the bucket key for a city under the given prefix.
func ObjectKey(prefix, city string) string {
	if prefix == "" {
		return FileName(city)
	}
	return path.Join(prefix, FileName(city))
}

// Service sequences fetch, reduce, save and upload for every configured city.
type Service struct {
	cfg      *config.AppConfig
	provider Provider
	store    Store
	objects  ObjectStore
	history  History
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new Service. history may be nil.
func NewService(cfg *config.AppConfig, provider Provider, store Store, objects ObjectStore, history History, logger *zap.Logger) *Service {
	return &Service{
		cfg:      cfg,
		provider: provider,
		store:    store,
		objects:  objects,
		history:  history,
		logger:   logger.With(zap.String("component", "weather-service")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run processes every city once, in list order. Per-city failures are
// recorded in the report and never stop the loop.
func (s *Service) Run(ctx context.Context) *RunReport {
	report := &RunReport{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		Bucket:    s.cfg.BucketName,
		Cities:    make([]CityResult, 0, len(s.cfg.Cities)),
	}
	logger := s.logger.With(zap.String("run_id", report.ID))
	logger.Info("run started",
		zap.String("provider", s.provider.Name()),
		zap.Int("cities", len(s.cfg.Cities)),
	)

	report.BucketState = s.ensureBucket(ctx, report, logger)

	for _, city := range s.cfg.Cities {
		report.Cities = append(report.Cities, s.processCity(ctx, city, logger))
	}

	report.FinishedAt = s.now()
	logger.Info("run finished",
		zap.Int("uploaded", report.Uploaded()),
		zap.Int("failed", len(report.Cities)-report.Uploaded()),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)

	if s.history != nil {
		s.history.SaveReport(*report)
	}
	return report
}

// ensureBucket creates the bucket unless the backend confirms it exists.
// A failed existence check counts as absent; the error is kept on the report.
func (s *Service) ensureBucket(ctx context.Context, report *RunReport, logger *zap.Logger) BucketState {
	bucket := s.cfg.BucketName
	logger = logger.With(zap.String("bucket", bucket))

	exists, err := s.objects.BucketExists(ctx, bucket)
	if err != nil {
		logger.Warn("could not determine whether bucket exists; attempting creation", zap.Error(err))
		report.addBucketError(fmt.Errorf("check bucket %q: %w", bucket, err))
	}
	if exists {
		logger.Info("bucket exists")
		return BucketExisted
	}

	logger.Info("creating bucket")
	if err := s.objects.CreateBucket(ctx, bucket); err != nil {
		if errors.Is(err, ErrBucketAlreadyExists) {
			logger.Info("bucket already exists", zap.Error(err))
			return BucketExisted
		}
		logger.Error("bucket creation failed; continuing", zap.Error(err))
		report.addBucketError(fmt.Errorf("create bucket %q: %w", bucket, err))
		return BucketCreateFailed
	}

	logger.Info("bucket created")
	return BucketCreated
}

func (s *Service) processCity(ctx context.Context, city string, logger *zap.Logger) CityResult {
	logger = logger.With(zap.String("city", city))
	res := CityResult{City: city, Stage: StagePending}

	logger.Info("processing city")

	obs, err := s.provider.Fetch(ctx, city)
	if err != nil {
		return s.fail(res, logger, "fetch", err)
	}
	res.Stage = StageFetched

	rec := Reduce(obs)
	res.Record = &rec
	logger.Debug("extracted record", zap.Any("record", rec))

	localPath, err := s.store.Save(rec, city)
	if err != nil {
		return s.fail(res, logger, "save", err)
	}
	res.Stage = StageSaved
	res.LocalPath = localPath

	key := ObjectKey(s.cfg.KeyPrefix, city)
	if err := s.objects.Upload(ctx, localPath, s.cfg.BucketName, key); err != nil {
		return s.fail(res, logger, "upload", err)
	}
	res.Stage = StageUploaded
	res.ObjectKey = key

	logger.Info("city uploaded", zap.String("path", localPath), zap.String("key", key))
	return res
}

func (s *Service) fail(res CityResult, logger *zap.Logger, step string, err error) CityResult {
	res.err = fmt.Errorf("%s %s: %w", step, res.City, err)
	res.Error = res.err.Error()
	logger.Warn(step+" failed; skipping city", zap.String("stage", string(res.Stage)), zap.Error(err))
	return res
}
