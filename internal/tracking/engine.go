package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"backend-dtg/internal/dataset"
	"backend-dtg/internal/shared/geo"
	"backend-dtg/internal/sink"
	"backend-dtg/internal/stream"
	"backend-dtg/internal/telemetry"
	"backend-dtg/internal/trip"
)

// Altitude reported for recorded samples, which carry no altitude column.
const defaultAltitude = 50.0

// Engine drives the trip lifecycle and the periodic playback tick. All
// session state lives in the registry; the engine reads and mutates it only
// through registry operations.
type Engine struct {
	registry *trip.Registry
	datasets *dataset.Store
	hub      *stream.Hub
	notifier sink.TripNotifier
	sinks    []sink.TelemetrySink
	recorder sink.TripRecorder

	replayEnabled bool
	tickInterval  time.Duration
	sinkTimeout   time.Duration

	now func() time.Time
}

type Options struct {
	// ReplayEnabled selects recorded-data playback. When false every vehicle
	// runs on synthetic samples and trips never auto-end.
	ReplayEnabled bool
	TickInterval  time.Duration
	SinkTimeout   time.Duration
}

func NewEngine(registry *trip.Registry, datasets *dataset.Store, hub *stream.Hub,
	notifier sink.TripNotifier, sinks []sink.TelemetrySink, recorder sink.TripRecorder,
	opts Options) *Engine {

	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 3 * time.Second
	}
	return &Engine{
		registry:      registry,
		datasets:      datasets,
		hub:           hub,
		notifier:      notifier,
		sinks:         sinks,
		recorder:      recorder,
		replayEnabled: opts.ReplayEnabled,
		tickInterval:  opts.TickInterval,
		sinkTimeout:   opts.SinkTimeout,
		now:           time.Now,
	}
}

// StartTrip registers a new active session and returns its trip id. The
// downstream notification is fire-and-forget; its failure never reaches the
// caller and is never retried.
func (e *Engine) StartTrip(req trip.StartRequest) string {
	tripID := e.registry.Start(req)
	log.Printf("tracking: trip started vehicle=%s driver=%s trip=%s", req.VehicleID, req.DriverID, tripID)

	if e.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.sinkTimeout)
			defer cancel()
			if err := e.notifier.NotifyTripStarted(ctx, req.VehicleID, req); err != nil {
				log.Printf("tracking: trip start notification failed for vehicle %s: %v", req.VehicleID, err)
			}
		}()
	}
	return tripID
}

// EndTrip closes the vehicle's session and returns the finalized copy. A
// duplicate or unknown end is a logged no-op reported through the second
// return; the notifier is not invoked for it.
func (e *Engine) EndTrip(req trip.EndRequest) (trip.TripSession, bool) {
	endLat, endLng := 0.0, 0.0
	if req.EndLatitude != nil {
		endLat = *req.EndLatitude
	}
	if req.EndLongitude != nil {
		endLng = *req.EndLongitude
	}

	session, ok := e.registry.End(req.VehicleID, endLat, endLng, req.EndReason)
	if !ok {
		log.Printf("tracking: no active trip for vehicle=%s", req.VehicleID)
		return trip.TripSession{}, false
	}
	distance := geo.HaversineKm(session.StartLatitude, session.StartLongitude, session.EndLatitude, session.EndLongitude)
	log.Printf("tracking: trip ended vehicle=%s trip=%s reason=%q distanceKm=%.2f", session.VehicleID, session.TripID, session.EndReason, distance)

	if e.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.sinkTimeout)
			defer cancel()
			if err := e.notifier.NotifyTripEnded(ctx, req.VehicleID, req); err != nil {
				log.Printf("tracking: trip end notification failed for vehicle %s: %v", req.VehicleID, err)
			}
		}()
	}
	if e.recorder != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.sinkTimeout)
			defer cancel()
			if err := e.recorder.RecordTripCompletion(ctx, session); err != nil {
				log.Printf("tracking: trip completion record failed for vehicle %s: %v", session.VehicleID, err)
			}
		}()
	}
	return session, true
}

// ActiveTrips returns a point-in-time copy of all active sessions.
func (e *Engine) ActiveTrips() map[string]trip.TripSession {
	return e.registry.ListActive()
}

// Session returns a snapshot of the vehicle's active session.
func (e *Engine) Session(vehicleID string) (trip.TripSession, bool) {
	return e.registry.Get(vehicleID)
}

// Run fires the playback tick at a fixed rate until ctx is cancelled. The
// ticker drops ticks when processing overruns the interval; API calls never
// wait on tick processing.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	log.Printf("tracking: playback engine running, interval=%s replay=%v", e.tickInterval, e.replayEnabled)
	for {
		select {
		case <-ctx.Done():
			log.Printf("tracking: playback engine stopped")
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick processes every active session once. Each vehicle runs in its own
// goroutine so one vehicle's slow or failing sink cannot hold up the rest.
func (e *Engine) Tick() {
	snapshot := e.registry.ListActive()

	var wg sync.WaitGroup
	for vehicleID, session := range snapshot {
		wg.Add(1)
		go func(vehicleID string, session trip.TripSession) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("tracking: tick panic for vehicle %s: %v", vehicleID, r)
				}
			}()
			e.processVehicle(vehicleID, session)
		}(vehicleID, session)
	}
	wg.Wait()
}

func (e *Engine) processVehicle(vehicleID string, session trip.TripSession) {
	if !e.replayEnabled {
		e.emit(e.synthesize(session))
		return
	}

	sample, err := e.datasets.Next(vehicleID)
	switch {
	case err == nil:
		sample.PlateNo = session.PlateNo
		sample.TripID = session.TripID
		sample.Timestamp = e.now()
		if sample.Altitude == 0 {
			sample.Altitude = defaultAltitude
		}
		e.emit(sample)
	case errors.Is(err, dataset.ErrNoDataset):
		// No recorded data for this vehicle at all: keep the trip alive on
		// synthetic samples.
		e.emit(e.synthesize(session))
	case errors.Is(err, dataset.ErrExhausted):
		log.Printf("tracking: dataset for vehicle %s exhausted, ending trip", vehicleID)
		e.autoEnd(session)
	}
}

func (e *Engine) synthesize(session trip.TripSession) telemetry.Sample {
	return telemetry.Synthesize(session.VehicleID, session.PlateNo, session.TripID,
		session.StartLatitude, session.StartLongitude, e.now())
}

// autoEnd closes an exhausted trip using its own start position as the end
// position. Only a confirmed exhausted dataset triggers this path.
func (e *Engine) autoEnd(session trip.TripSession) {
	lat, lng := session.StartLatitude, session.StartLongitude
	e.EndTrip(trip.EndRequest{
		VehicleID:    session.VehicleID,
		EndLatitude:  &lat,
		EndLongitude: &lng,
		EndReason:    trip.EndReasonExhausted,
	})
}

func (e *Engine) emit(sample telemetry.Sample) {
	ctx, cancel := context.WithTimeout(context.Background(), e.sinkTimeout)
	defer cancel()

	for _, s := range e.sinks {
		if err := s.SendSample(ctx, sample); err != nil {
			log.Printf("tracking: sample delivery failed for vehicle %s: %v", sample.VehicleID, err)
		}
	}

	if e.hub != nil {
		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("tracking: sample encode failed for vehicle %s: %v", sample.VehicleID, err)
			return
		}
		e.hub.Broadcast(sample.VehicleID, payload)
	}
}
