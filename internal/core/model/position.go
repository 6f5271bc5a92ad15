package model

import (
	"time"
	"trackgen/internal/core/util"
)

type Position struct {
	ID        string                 `json:"id" bson:"_id"`
	DeviceID  string                 `json:"deviceId" bson:"deviceid"`
	Timestamp time.Time              `json:"timestamp" bson:"timestamp"`
	Received  time.Time              `json:"received" bson:"received"`
	Latitude  float64                `json:"latitude" bson:"latitude"`
	Longitude float64                `json:"longitude" bson:"longitude"`
	Speed     float64                `json:"speed" bson:"speed"`   // km/h
	Course    float64                `json:"course" bson:"course"` // degrees
	Protocol  string                 `json:"protocol" bson:"protocol"`
	Valid     bool                   `json:"valid" bson:"valid"`             // GPS fix validity
	Status    map[string]interface{} `json:"status,omitempty" bson:"status"` // Additional status information
}

func NewPosition(deviceID string, lat, lon float64) *Position {
	now := time.Now()
	return &Position{
		ID:        util.GenerateID(),
		DeviceID:  deviceID,
		Timestamp: now,
		Received:  now,
		Latitude:  lat,
		Longitude: lon,
		Protocol:  "unknown",
		Valid:     true,
		Status:    make(map[string]interface{}),
	}
}
