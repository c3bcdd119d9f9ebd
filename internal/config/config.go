package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// ErrMissingRequired is returned when S3_BUCKET_NAME or API_KEY is not set.
	ErrMissingRequired = errors.New("missing required configuration")

	validate = validator.New()
)

// DefaultCities is the list processed when WEATHER_CITIES is not set.
var DefaultCities = []string{"London", "New York", "Amsterdam", "Delhi", "Oslo"}

type AppConfig struct {
	BucketName string `validate:"required"`
	APIKey     string `validate:"required"`

	// Cities are processed in this order.
	Cities []string `validate:"min=1,dive,required"`

	OpenWeatherBaseURL string        `validate:"required,url"`
	Units              string        `validate:"omitempty,oneof=standard metric imperial"`
	HTTPTimeout        time.Duration `validate:"gte=0"` // 0 = http.Client default
	BreakerMaxFailures int           `validate:"min=1"`

	OutputDir string `validate:"required"`
	KeyPrefix string

	StorageBackend string `validate:"oneof=s3 gcs"`
	Region         string
	S3Endpoint     string `validate:"omitempty,url"`
	S3UsePathStyle bool
	GCPProjectID   string `validate:"required_if=StorageBackend gcs"`
	GCSLocation    string

	// FetchInterval switches to service mode when non-zero.
	FetchInterval time.Duration `validate:"gte=0"`
	RunHistory    int           `validate:"min=1"`
	Port          string        `validate:"required,numeric"`

	LogLevel  string
	LogFormat string `validate:"oneof=console json"`
}

// Load reads configuration from the environment and an optional config.yaml.
// Environment variables win over the file.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("WEATHER_CITIES", strings.Join(DefaultCities, ","))
	v.SetDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("WEATHER_UNITS", "")
	v.SetDefault("HTTP_TIMEOUT", "0s")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("OUTPUT_DIR", "weather_data")
	v.SetDefault("OBJECT_KEY_PREFIX", "weather-data")
	v.SetDefault("STORAGE_BACKEND", "s3")
	v.SetDefault("AWS_REGION", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_USE_PATH_STYLE", false)
	v.SetDefault("GCP_PROJECT_ID", "")
	v.SetDefault("GCS_LOCATION", "")
	v.SetDefault("FETCH_INTERVAL", "0s")
	v.SetDefault("RUN_HISTORY", 50)
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.AutomaticEnv()
	_ = v.BindEnv("S3_BUCKET_NAME")
	_ = v.BindEnv("API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &AppConfig{
		BucketName:         strings.TrimSpace(v.GetString("S3_BUCKET_NAME")),
		APIKey:             strings.TrimSpace(v.GetString("API_KEY")),
		Cities:             parseCities(v.GetString("WEATHER_CITIES")),
		OpenWeatherBaseURL: v.GetString("OPENWEATHER_BASE_URL"),
		Units:              v.GetString("WEATHER_UNITS"),
		BreakerMaxFailures: v.GetInt("BREAKER_MAX_FAILURES"),
		OutputDir:          v.GetString("OUTPUT_DIR"),
		KeyPrefix:          strings.Trim(v.GetString("OBJECT_KEY_PREFIX"), "/"),
		StorageBackend:     strings.ToLower(v.GetString("STORAGE_BACKEND")),
		Region:             v.GetString("AWS_REGION"),
		S3Endpoint:         v.GetString("S3_ENDPOINT"),
		S3UsePathStyle:     v.GetBool("S3_USE_PATH_STYLE"),
		GCPProjectID:       v.GetString("GCP_PROJECT_ID"),
		GCSLocation:        v.GetString("GCS_LOCATION"),
		RunHistory:         v.GetInt("RUN_HISTORY"),
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	var missing []string
	if cfg.BucketName == "" {
		missing = append(missing, "S3_BUCKET_NAME")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	var err error
	if cfg.HTTPTimeout, err = time.ParseDuration(v.GetString("HTTP_TIMEOUT")); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if cfg.FetchInterval, err = time.ParseDuration(v.GetString("FETCH_INTERVAL")); err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ServiceMode reports whether runs should repeat on a schedule.
func (c *AppConfig) ServiceMode() bool {
	return c.FetchInterval > 0
}

// ServerAddr returns the status API address in the format ":port".
func (c *AppConfig) ServerAddr() string {
	return ":" + c.Port
}

// NewLogger creates a zap logger from the log level and format settings.
func (c *AppConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if c.LogFormat != "json" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return zcfg.Build()
}

func parseCities(raw string) []string {
	var cities []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}
