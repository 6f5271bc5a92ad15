package model

import "time"

// Report is the telemetry computed for one simulator cycle. Latitude and
// Longitude are in the wire coordinate convention (DDMM.MMMM), not decimal
// degrees.
type Report struct {
	DeviceID       string
	Time           time.Time
	Index          int
	Latitude       float64
	Longitude      float64
	Course         float64
	Speed          float64
	Alarm          bool
	Ignition       bool
	Accuracy       float64
	RPM            int
	Fuel           int
	DriverUniqueID string // empty when unset
}
