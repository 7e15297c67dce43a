package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"backend-dtg/internal/dataset"
	"backend-dtg/internal/sink"
	"backend-dtg/internal/stream"
	"backend-dtg/internal/telemetry"
	"backend-dtg/internal/trip"
)

type recordingSink struct {
	mu      sync.Mutex
	samples []telemetry.Sample
	failFor string
}

func (s *recordingSink) SendSample(_ context.Context, sample telemetry.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor != "" && sample.VehicleID == s.failFor {
		return errors.New("sink unreachable")
	}
	s.samples = append(s.samples, sample)
	return nil
}

func (s *recordingSink) byVehicle(vehicleID string) []telemetry.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []telemetry.Sample
	for _, sample := range s.samples {
		if sample.VehicleID == vehicleID {
			out = append(out, sample)
		}
	}
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	started []trip.StartRequest
	ended   []trip.EndRequest
}

func (n *recordingNotifier) NotifyTripStarted(_ context.Context, _ string, req trip.StartRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, req)
	return nil
}

func (n *recordingNotifier) NotifyTripEnded(_ context.Context, _ string, req trip.EndRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ended = append(n.ended, req)
	return nil
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.started), len(n.ended)
}

type recordingRecorder struct {
	mu       sync.Mutex
	sessions []trip.TripSession
}

func (r *recordingRecorder) RecordTripCompletion(_ context.Context, session trip.TripSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *recordingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func ptr(f float64) *float64 { return &f }

func startReq(vehicleID string) trip.StartRequest {
	return trip.StartRequest{
		VehicleID:      vehicleID,
		PlateNo:        "12A 3456",
		DriverID:       "driver-1",
		StartLatitude:  ptr(37.5),
		StartLongitude: ptr(127.0),
	}
}

func newEngine(store *dataset.Store, notifier sink.TripNotifier, sinks []sink.TelemetrySink, recorder sink.TripRecorder, replay bool) (*Engine, *trip.Registry) {
	registry := trip.NewRegistry()
	engine := NewEngine(registry, store, nil, notifier, sinks, recorder, Options{ReplayEnabled: replay})
	return engine, registry
}

func TestTickEmitsRecordedSample(t *testing.T) {
	store := dataset.NewStore()
	store.Load("V1", []telemetry.Sample{
		{VehicleID: "V1", Speed: 42, Latitude: 37.1, Longitude: 127.1},
		{VehicleID: "V1", Speed: 43},
	})
	out := &recordingSink{}
	engine, _ := newEngine(store, nil, []sink.TelemetrySink{out}, nil, true)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	tripID := engine.StartTrip(startReq("V1"))
	engine.Tick()

	samples := out.byVehicle("V1")
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	got := samples[0]
	if got.Speed != 42 || got.Latitude != 37.1 {
		t.Fatalf("expected first recorded sample, got %+v", got)
	}
	if got.PlateNo != "12A 3456" || got.TripID != tripID {
		t.Fatalf("identity not stamped: %+v", got)
	}
	if !got.Timestamp.Equal(fixed) {
		t.Fatalf("transmitted timestamp must be emit time, got %v", got.Timestamp)
	}
	if got.Altitude != 50 {
		t.Fatalf("expected default altitude, got %v", got.Altitude)
	}
	if store.Cursor("V1") != 1 {
		t.Fatalf("cursor not advanced")
	}
}

func TestTickExhaustionAutoEndsTrip(t *testing.T) {
	store := dataset.NewStore()
	store.Load("V1", []telemetry.Sample{{VehicleID: "V1", Speed: 42}})
	out := &recordingSink{}
	notifier := &recordingNotifier{}
	recorder := &recordingRecorder{}
	engine, registry := newEngine(store, notifier, []sink.TelemetrySink{out}, recorder, true)

	engine.StartTrip(startReq("V1"))
	engine.Tick() // consumes the only sample
	engine.Tick() // dataset exhausted: auto-end

	if registry.Len() != 0 {
		t.Fatalf("expected trip to be ended")
	}

	waitFor(t, func() bool { _, ended := notifier.counts(); return ended == 1 })
	notifier.mu.Lock()
	end := notifier.ended[0]
	notifier.mu.Unlock()
	if end.EndReason != trip.EndReasonExhausted {
		t.Fatalf("unexpected end reason: %q", end.EndReason)
	}
	if end.EndLatitude == nil || *end.EndLatitude != 37.5 || *end.EndLongitude != 127.0 {
		t.Fatalf("auto-end must use the start position: %+v", end)
	}

	waitFor(t, func() bool { return recorder.count() == 1 })

	// the vehicle is gone, the next tick must not touch it
	engine.Tick()
	if len(out.byVehicle("V1")) != 1 {
		t.Fatalf("ended vehicle processed again")
	}
}

func TestTickNoDatasetSynthesizes(t *testing.T) {
	store := dataset.NewStore()
	out := &recordingSink{}
	engine, registry := newEngine(store, nil, []sink.TelemetrySink{out}, nil, true)

	engine.StartTrip(startReq("V1"))
	for i := 0; i < 5; i++ {
		engine.Tick()
	}

	samples := out.byVehicle("V1")
	if len(samples) != 5 {
		t.Fatalf("expected 5 synthetic samples, got %d", len(samples))
	}
	if registry.Len() != 1 {
		t.Fatalf("vehicle without a dataset must never auto-end")
	}
	for _, s := range samples {
		if s.EngineStatus != telemetry.EngineOn {
			t.Fatalf("synthetic sample without engine ON: %+v", s)
		}
		if s.Latitude < 37.49 || s.Latitude > 37.51 {
			t.Fatalf("synthetic position too far from start: %+v", s)
		}
	}
}

func TestTickReplayDisabled(t *testing.T) {
	store := dataset.NewStore()
	store.Load("V1", []telemetry.Sample{{VehicleID: "V1", Speed: 42}})
	out := &recordingSink{}
	engine, _ := newEngine(store, nil, []sink.TelemetrySink{out}, nil, false)

	engine.StartTrip(startReq("V1"))
	engine.Tick()

	samples := out.byVehicle("V1")
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Latitude < 37.49 || samples[0].Latitude > 37.51 {
		t.Fatalf("expected a synthetic sample near the start position: %+v", samples[0])
	}
	if store.Cursor("V1") != 0 {
		t.Fatalf("replay disabled must not touch the dataset")
	}
}

func TestSinkFailureDoesNotBlockOtherVehicles(t *testing.T) {
	store := dataset.NewStore()
	store.Load("A", []telemetry.Sample{{VehicleID: "A"}})
	store.Load("B", []telemetry.Sample{{VehicleID: "B"}})
	failing := &recordingSink{failFor: "A"}
	out := &recordingSink{}
	engine, _ := newEngine(store, nil, []sink.TelemetrySink{failing, out}, nil, true)

	engine.StartTrip(startReq("A"))
	engine.StartTrip(startReq("B"))
	engine.Tick()

	if len(out.byVehicle("B")) != 1 {
		t.Fatalf("vehicle B sample lost to vehicle A's failure")
	}
	if len(out.byVehicle("A")) != 1 {
		t.Fatalf("the second sink must still receive vehicle A")
	}
}

func TestStartTripNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, _ := newEngine(dataset.NewStore(), notifier, nil, nil, true)

	engine.StartTrip(startReq("V1"))
	waitFor(t, func() bool { started, _ := notifier.counts(); return started == 1 })
}

func TestEndTripUnknownVehicleIsNoOp(t *testing.T) {
	notifier := &recordingNotifier{}
	recorder := &recordingRecorder{}
	engine, registry := newEngine(dataset.NewStore(), notifier, nil, recorder, true)

	if _, ok := engine.EndTrip(trip.EndRequest{VehicleID: "ghost", EndLatitude: ptr(0), EndLongitude: ptr(0)}); ok {
		t.Fatalf("expected no session")
	}
	time.Sleep(50 * time.Millisecond)
	if _, ended := notifier.counts(); ended != 0 {
		t.Fatalf("notifier must not fire for unknown vehicle")
	}
	if recorder.count() != 0 {
		t.Fatalf("recorder must not fire for unknown vehicle")
	}
	if registry.Len() != 0 {
		t.Fatalf("registry must stay empty")
	}
}

func TestEndTripNotifiesAndRecords(t *testing.T) {
	notifier := &recordingNotifier{}
	recorder := &recordingRecorder{}
	engine, _ := newEngine(dataset.NewStore(), notifier, nil, recorder, true)

	engine.StartTrip(startReq("V1"))
	session, ok := engine.EndTrip(trip.EndRequest{
		VehicleID:    "V1",
		EndLatitude:  ptr(35.1),
		EndLongitude: ptr(129.0),
		EndReason:    "arrived",
	})
	if !ok || session.Status != trip.StatusEnded {
		t.Fatalf("expected ended session, got %+v", session)
	}
	waitFor(t, func() bool { _, ended := notifier.counts(); return ended == 1 })
	waitFor(t, func() bool { return recorder.count() == 1 })
}

func TestTickBroadcastsToHub(t *testing.T) {
	store := dataset.NewStore()
	store.Load("V1", []telemetry.Sample{{VehicleID: "V1", Speed: 42}})
	hub := stream.NewHub(nil)
	registry := trip.NewRegistry()
	engine := NewEngine(registry, store, hub, nil, nil, nil, Options{ReplayEnabled: true})

	client := hub.Register("V1")
	defer hub.Unregister(client)

	engine.StartTrip(startReq("V1"))
	engine.Tick()

	select {
	case payload := <-client.Send:
		var got telemetry.Sample
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("broadcast payload not json: %v", err)
		}
		if got.VehicleID != "V1" || got.Speed != 42 {
			t.Fatalf("unexpected broadcast: %+v", got)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := dataset.NewStore()
	out := &recordingSink{}
	registry := trip.NewRegistry()
	engine := NewEngine(registry, store, nil, nil, []sink.TelemetrySink{out}, nil, Options{
		ReplayEnabled: true,
		TickInterval:  5 * time.Millisecond,
	})

	engine.StartTrip(startReq("V1"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return len(out.byVehicle("V1")) > 0 })
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("run did not stop on cancel")
	}
}
