package weather

import (
	"time"

	"github.com/fishy/errbatch"
)

// Observation is the subset of the OpenWeatherMap current-weather payload we consume.
// Every field is optional upstream, so everything is a pointer or a slice.
type Observation struct {
	Name    *string `json:"name"`
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
}

// Record is the reduced weather record written to disk and uploaded.
// Missing values serialize as null.
type Record struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Temp        *float64 `json:"temp"`
	FeelsLike   *float64 `json:"feels_like"`
	Humidity    *float64 `json:"humidity"`
}

// Stage is the last per-city step that completed.
type Stage string

const (
	StagePending  Stage = "pending"
	StageFetched  Stage = "fetched"
	StageSaved    Stage = "saved"
	StageUploaded Stage = "uploaded"
)

// BucketState describes what happened to the output bucket at the start of a run.
type BucketState string

const (
	BucketExisted      BucketState = "existed"
	BucketCreated      BucketState = "created"
	BucketCreateFailed BucketState = "create_failed"
)

// CityResult is the outcome of processing a single city.
type CityResult struct {
	City      string  `json:"city"`
	Stage     Stage   `json:"stage"`
	Record    *Record `json:"record,omitempty"`
	LocalPath string  `json:"localPath,omitempty"`
	ObjectKey string  `json:"objectKey,omitempty"`
	Error     string  `json:"error,omitempty"`

	err error
}

// OK reports whether the city made it all the way to the bucket.
func (r CityResult) OK() bool {
	return r.Stage == StageUploaded
}

// RunReport summarizes one pass over the configured cities.
type RunReport struct {
	ID          string       `json:"id"`
	StartedAt   time.Time    `json:"startedAt"` // always UTC
	FinishedAt  time.Time    `json:"finishedAt"`
	Bucket      string       `json:"bucket"`
	BucketState BucketState  `json:"bucketState"`
	BucketError string       `json:"bucketError,omitempty"`
	Cities      []CityResult `json:"cities"`

	bucketErrs []error
}

// Uploaded returns how many cities reached the bucket.
func (r *RunReport) Uploaded() int {
	n := 0
	for _, c := range r.Cities {
		if c.OK() {
			n++
		}
	}
	return n
}

// Errors returns every bucket and per-city error of the run, bucket errors
// first. Use it with errors.Is/As; the combined Err value does not unwrap.
func (r *RunReport) Errors() []error {
	var errs []error
	errs = append(errs, r.bucketErrs...)
	for _, c := range r.Cities {
		if c.err != nil {
			errs = append(errs, c.err)
		}
	}
	return errs
}

// Err combines the run's errors into one value for logging.
// It returns nil when nothing failed.
func (r *RunReport) Err() error {
	var batch errbatch.ErrBatch
	for _, err := range r.Errors() {
		batch.Add(err)
	}
	return batch.Compile()
}

func (r *RunReport) addBucketError(err error) {
	r.bucketErrs = append(r.bucketErrs, err)
	if r.BucketError == "" {
		r.BucketError = err.Error()
	} else {
		r.BucketError += "; " + err.Error()
	}
}
