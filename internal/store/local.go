package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrInvalidCity is returned for city names that are not a plain file name.
var ErrInvalidCity = errors.New("invalid city name")

// LocalStore writes one JSON file per city into a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a LocalStore rooted at dir. The directory is
// created on first Save.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Dir returns the output directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Path returns the file path used for a city.
func (s *LocalStore) Path(city string) string {
	return filepath.Join(s.dir, weather.FileName(city))
}

// Save writes the record as indented JSON, replacing any previous file for the city.
func (s *LocalStore) Save(record weather.Record, city string) (string, error) {
	if err := checkCity(city); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode record for %q: %w", city, err)
	}

	path := s.Path(city)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Load reads back the record last saved for a city.
func (s *LocalStore) Load(city string) (weather.Record, error) {
	if err := checkCity(city); err != nil {
		return weather.Record{}, err
	}
	data, err := os.ReadFile(s.Path(city))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return weather.Record{}, ErrNotFound
		}
		return weather.Record{}, err
	}

	var rec weather.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return weather.Record{}, fmt.Errorf("decode record for %q: %w", city, err)
	}
	return rec, nil
}

// checkCity keeps every file inside the output directory.
func checkCity(city string) error {
	if city == "" || city == "." || city == ".." || strings.ContainsAny(city, `/\`) || filepath.Base(city) != city {
		return fmt.Errorf("%w: %q", ErrInvalidCity, city)
	}
	return nil
}
