package dataset

import (
	"errors"
	"sync"

	"backend-dtg/internal/telemetry"
)

// ErrNoDataset means no dataset was ever loaded for the vehicle. Distinct
// from ErrExhausted so callers can keep a trip alive on synthetic data.
var ErrNoDataset = errors.New("no dataset for vehicle")

// ErrExhausted means every recorded sample for the vehicle has been consumed.
// The cursor never moves past the end; only Reset makes samples readable again.
var ErrExhausted = errors.New("dataset exhausted")

type vehicleData struct {
	samples []telemetry.Sample
	cursor  int
}

// Store holds the ordered recorded samples per vehicle together with a read
// cursor. Datasets are immutable once loaded; only the cursor moves.
type Store struct {
	mu       sync.RWMutex
	vehicles map[string]*vehicleData
}

func NewStore() *Store {
	return &Store{vehicles: map[string]*vehicleData{}}
}

// Load registers the samples for a vehicle, replacing any previous dataset
// and resetting the cursor to the first sample.
func (s *Store) Load(vehicleID string, samples []telemetry.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[vehicleID] = &vehicleData{samples: samples}
}

// Next returns the sample at the cursor and advances by one.
func (s *Store) Next(vehicleID string) (telemetry.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[vehicleID]
	if !ok {
		return telemetry.Sample{}, ErrNoDataset
	}
	if v.cursor >= len(v.samples) {
		return telemetry.Sample{}, ErrExhausted
	}
	sample := v.samples[v.cursor]
	v.cursor++
	return sample, nil
}

// Reset moves the vehicle's cursor back to the first sample. The dataset
// itself is untouched. Unknown vehicles are a no-op.
func (s *Store) Reset(vehicleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vehicles[vehicleID]; ok {
		v.cursor = 0
	}
}

// IsExhausted reports whether the vehicle has no further recorded samples.
// Unknown and empty datasets count as exhausted.
func (s *Store) IsExhausted(vehicleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[vehicleID]
	if !ok || len(v.samples) == 0 {
		return true
	}
	return v.cursor >= len(v.samples)
}

// Has reports whether a dataset was loaded for the vehicle.
func (s *Store) Has(vehicleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vehicles[vehicleID]
	return ok
}

func (s *Store) Size(vehicleID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vehicles[vehicleID]; ok {
		return len(v.samples)
	}
	return 0
}

func (s *Store) Cursor(vehicleID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vehicles[vehicleID]; ok {
		return v.cursor
	}
	return 0
}

// VehicleIDs lists every vehicle with a loaded dataset.
func (s *Store) VehicleIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.vehicles))
	for id := range s.vehicles {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles)
}
