package store

import (
	"errors"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when nothing has been stored yet for a lookup.
	ErrNotFound = errors.New("no weather data found")
)

// MemoryStore is a concurrency-safe in-memory history of run reports.
type MemoryStore struct {
	mu sync.RWMutex

	// oldest first
	reports []weather.RunReport

	// max number of reports kept
	maxHistory int
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
	}
}

// SaveReport appends a report and enforces retention.
func (s *MemoryStore) SaveReport(report weather.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, report)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.reports) > s.maxHistory {
		over := len(s.reports) - s.maxHistory
		s.reports = append([]weather.RunReport(nil), s.reports[over:]...)
	}
}

// Latest returns the most recent report.
func (s *MemoryStore) Latest() (weather.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return weather.RunReport{}, ErrNotFound
	}
	return s.reports[len(s.reports)-1], nil
}

// Recent returns up to limit reports, newest first.
func (s *MemoryStore) Recent(limit int) ([]weather.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return nil, ErrNotFound
	}
	if limit <= 0 || limit > len(s.reports) {
		limit = len(s.reports)
	}

	result := make([]weather.RunReport, 0, limit)
	for i := len(s.reports) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.reports[i])
	}
	return result, nil
}
