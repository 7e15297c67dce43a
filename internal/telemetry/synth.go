package telemetry

import (
	"math/rand"
	"time"
)

// Synthesize produces a plausible sample near the given base position, used
// when a vehicle has no recorded data or replay is disabled. The position
// jitter stays within roughly 100 m of the base point.
func Synthesize(vehicleID, plateNo, tripID string, baseLat, baseLng float64, now time.Time) Sample {
	return Sample{
		VehicleID:    vehicleID,
		PlateNo:      plateNo,
		TripID:       tripID,
		Latitude:     baseLat + (rand.Float64()-0.5)*0.001,
		Longitude:    baseLng + (rand.Float64()-0.5)*0.001,
		Speed:        30 + rand.Float64()*40,
		Heading:      rand.Float64() * 360,
		Altitude:     50 + rand.Float64()*20,
		FuelLevel:    80 + rand.Float64()*20,
		EngineStatus: EngineOn,
		Timestamp:    now,
	}
}
