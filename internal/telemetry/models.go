package telemetry

import "time"

// Engine status values reported by DTG devices.
const (
	EngineOn      = "ON"
	EngineOff     = "OFF"
	EngineRunning = "RUNNING"
	EngineUnknown = "UNKNOWN"
)

// Sample is one telemetry reading for a vehicle. A sample is built once and
// never mutated after ingestion; the engine stamps a copy before emitting.
type Sample struct {
	VehicleID        string    `json:"vehicleId"`
	VehicleName      string    `json:"vehicleName,omitempty"`
	PlateNo          string    `json:"plateNo,omitempty"`
	TripID           string    `json:"tripId,omitempty"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Speed            float64   `json:"speed"`
	Heading          float64   `json:"heading"`
	Altitude         float64   `json:"altitude"`
	FuelLevel        float64   `json:"fuelLevel"`
	EngineStatus     string    `json:"engineStatus"`
	Status           string    `json:"status,omitempty"`
	RoadCondition    string    `json:"roadCondition,omitempty"`
	TrafficCondition string    `json:"trafficCondition,omitempty"`
	RouteName        string    `json:"routeName,omitempty"`
	// Timestamp is the transmission time, stamped at emit. The originally
	// recorded instant is kept separately and never sent downstream.
	Timestamp  time.Time `json:"timestamp"`
	RecordedAt time.Time `json:"-"`
}
