package trip

import "time"

// Session status values. A session moves ACTIVE -> ENDED exactly once.
const (
	StatusActive = "ACTIVE"
	StatusEnded  = "ENDED"
)

// EndReasonExhausted marks trips closed automatically once the vehicle's
// recorded dataset runs out.
const EndReasonExhausted = "dataset exhausted"

// TripSession is the live record of one vehicle trip. The registry is its
// single owner; callers only ever see value copies.
type TripSession struct {
	TripID         string    `json:"tripId"`
	VehicleID      string    `json:"vehicleId"`
	PlateNo        string    `json:"plateNo"`
	DriverID       string    `json:"driverId"`
	StartLatitude  float64   `json:"startLatitude"`
	StartLongitude float64   `json:"startLongitude"`
	Destination    string    `json:"destination,omitempty"`
	Purpose        string    `json:"purpose,omitempty"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime,omitempty"`
	EndLatitude    float64   `json:"endLatitude,omitempty"`
	EndLongitude   float64   `json:"endLongitude,omitempty"`
	EndReason      string    `json:"endReason,omitempty"`
	Status         string    `json:"status"`
}

// StartRequest carries the fields of a trip start call. Coordinates are
// pointers so the handler can tell a missing value from latitude zero.
type StartRequest struct {
	VehicleID      string   `json:"vehicleId"`
	PlateNo        string   `json:"plateNo"`
	DriverID       string   `json:"driverId"`
	StartLatitude  *float64 `json:"startLatitude"`
	StartLongitude *float64 `json:"startLongitude"`
	Destination    string   `json:"destination,omitempty"`
	Purpose        string   `json:"purpose,omitempty"`
}

type EndRequest struct {
	VehicleID    string   `json:"vehicleId"`
	EndLatitude  *float64 `json:"endLatitude"`
	EndLongitude *float64 `json:"endLongitude"`
	EndReason    string   `json:"endReason,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
