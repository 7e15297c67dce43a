package trip

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks the active trip session per vehicle. It is keyed by vehicle
// id, so at most one session exists per vehicle at any instant.
type Registry struct {
	mu     sync.RWMutex
	active map[string]*TripSession
}

func NewRegistry() *Registry {
	return &Registry{active: map[string]*TripSession{}}
}

// Start creates a fresh ACTIVE session for the vehicle and returns its trip
// id. A prior session for the same vehicle is silently replaced.
func (r *Registry) Start(req StartRequest) string {
	session := &TripSession{
		TripID:         uuid.NewString(),
		VehicleID:      req.VehicleID,
		PlateNo:        req.PlateNo,
		DriverID:       req.DriverID,
		StartLatitude:  deref(req.StartLatitude),
		StartLongitude: deref(req.StartLongitude),
		Destination:    req.Destination,
		Purpose:        req.Purpose,
		StartTime:      time.Now(),
		Status:         StatusActive,
	}

	r.mu.Lock()
	r.active[req.VehicleID] = session
	r.mu.Unlock()
	return session.TripID
}

// End removes the vehicle's session, stamps it ENDED and returns the
// finalized copy. The second return is false when no active session exists.
func (r *Registry) End(vehicleID string, endLat, endLng float64, reason string) (TripSession, bool) {
	r.mu.Lock()
	session, ok := r.active[vehicleID]
	if ok {
		delete(r.active, vehicleID)
	}
	r.mu.Unlock()

	if !ok {
		return TripSession{}, false
	}
	session.EndTime = time.Now()
	session.EndLatitude = endLat
	session.EndLongitude = endLng
	session.EndReason = reason
	session.Status = StatusEnded
	return *session, true
}

// Get returns a snapshot of the vehicle's active session.
func (r *Registry) Get(vehicleID string) (TripSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.active[vehicleID]
	if !ok {
		return TripSession{}, false
	}
	return *session, true
}

// ListActive returns a point-in-time copy of every active session. Starts and
// ends after the call do not affect the returned map.
func (r *Registry) ListActive() map[string]TripSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]TripSession, len(r.active))
	for id, session := range r.active {
		out[id] = *session
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
