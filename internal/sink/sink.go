// Package sink holds the adapters for downstream consumers of trip events
// and telemetry samples. Every delivery is at-most-once and best-effort:
// adapters bound their work with the caller's context, report failure as a
// plain error, and the caller logs and moves on. Nothing here retries.
package sink

import (
	"context"

	"backend-dtg/internal/telemetry"
	"backend-dtg/internal/trip"
)

// TripNotifier receives trip lifecycle events.
type TripNotifier interface {
	NotifyTripStarted(ctx context.Context, vehicleID string, req trip.StartRequest) error
	NotifyTripEnded(ctx context.Context, vehicleID string, req trip.EndRequest) error
}

// TelemetrySink receives one sample per vehicle per tick.
type TelemetrySink interface {
	SendSample(ctx context.Context, sample telemetry.Sample) error
}

// TripRecorder receives finalized sessions for analytics.
type TripRecorder interface {
	RecordTripCompletion(ctx context.Context, session trip.TripSession) error
}
