package gps103

import (
	"errors"
	"testing"
	"time"
)

func TestGPS103Decoder(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    *GPS103Data
		wantErr error
	}{
		{
			name: "reference location record",
			data: []byte("imei:1234567890123,tracker,151030080103,,F,000101.000,A,4851.2268,N,220.6608,E,40,0;"),
			want: &GPS103Data{
				Type:      LocationMessage,
				IMEI:      "1234567890123",
				Keyword:   "tracker",
				Valid:     true,
				Latitude:  48.85378,
				Longitude: 2.344347,
				Speed:     74.08, // 40 knots * 1.852
				Course:    0,
				Timestamp: time.Date(2015, 10, 30, 0, 1, 1, 0, time.UTC),
			},
		},
		{
			name: "alarm record in the southern and western hemispheres",
			data: []byte("imei:359710049090001,help me,161003044810,,F,044810.000,V,3345.1234,S,07037.5678,W,0,123.50;"),
			want: &GPS103Data{
				Type:      LocationMessage,
				IMEI:      "359710049090001",
				Keyword:   "help me",
				Valid:     false,
				Latitude:  -33.752057,
				Longitude: -70.626130,
				Course:    123.5,
				Timestamp: time.Date(2016, 10, 3, 4, 48, 10, 0, time.UTC),
				Status:    map[string]interface{}{"alarm": "sos"},
			},
		},
		{
			name: "ignition off record without terminator",
			data: []byte("imei:1234567890123,acc off,151030080103,,F,000101.000,A,4851.2268,N,220.6608,E,0,0"),
			want: &GPS103Data{
				Type:      LocationMessage,
				IMEI:      "1234567890123",
				Keyword:   "acc off",
				Valid:     true,
				Latitude:  48.85378,
				Longitude: 2.344347,
				Timestamp: time.Date(2015, 10, 30, 0, 1, 1, 0, time.UTC),
				Status:    map[string]interface{}{"ignition": false},
			},
		},
		{
			name: "login",
			data: []byte("##,imei:1234567890123,A;"),
			want: &GPS103Data{Type: LoginMessage, IMEI: "1234567890123"},
		},
		{
			name: "heartbeat",
			data: []byte("1234567890123;"),
			want: &GPS103Data{Type: HeartbeatMessage, IMEI: "1234567890123"},
		},
		{
			name:    "invalid header",
			data:    []byte("*HQ,V1,123456789012345,A,2237.7514,N"),
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "packet too short",
			data:    []byte("imei;"),
			wantErr: ErrPacketTooShort,
		},
		{
			name:    "malformed record",
			data:    []byte("imei:1234567890123,tracker,151030080103;"),
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "malformed login",
			data:    []byte("##,1234567890123,A;"),
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "invalid coordinate format",
			data:    []byte("imei:1234567890123,tracker,151030080103,,F,000101.000,A,INVALID,N,220.6608,E,40,0;"),
			wantErr: ErrInvalidCoordinate,
		},
		{
			name:    "minutes out of range",
			data:    []byte("imei:1234567890123,tracker,151030080103,,F,000101.000,A,4875.0000,N,220.6608,E,40,0;"),
			wantErr: ErrInvalidCoordinate,
		},
		{
			name:    "latitude out of range",
			data:    []byte("imei:1234567890123,tracker,151030080103,,F,000101.000,A,9230.0000,N,220.6608,E,40,0;"),
			wantErr: ErrInvalidCoordinate,
		},
		{
			name:    "unknown hemisphere",
			data:    []byte("imei:1234567890123,tracker,151030080103,,F,000101.000,A,4851.2268,X,220.6608,E,40,0;"),
			wantErr: ErrInvalidCoordinate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := NewDecoder()
			decoder.EnableDebug(true)

			got, err := decoder.Decode(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Decode() expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}

			compareGPS103Data(t, got, tt.want)
		})
	}
}

func TestTimestampFallback(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	got, err := NewDecoder().Decode([]byte("imei:1,tracker,bogus,,F,xx,A,4851.2268,N,220.6608,E,40,0;"))
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	if got.Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want current time", got.Timestamp)
	}
}

func TestToPosition(t *testing.T) {
	decoder := NewDecoder()
	data, err := decoder.Decode([]byte("imei:1234567890123,help me,151030080103,,F,000101.000,A,4851.2268,N,220.6608,E,10,90.00;"))
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}

	pos := decoder.ToPosition(data)
	if pos.DeviceID != "1234567890123" {
		t.Errorf("DeviceID = %q", pos.DeviceID)
	}
	if pos.Protocol != "gps103" {
		t.Errorf("Protocol = %q, want gps103", pos.Protocol)
	}
	if pos.ID == "" {
		t.Errorf("ID is empty")
	}
	if !almostEqual(pos.Course, 90, 0.001) {
		t.Errorf("Course = %v, want 90", pos.Course)
	}
	if pos.Status["alarm"] != "sos" || pos.Status["keyword"] != "help me" {
		t.Errorf("Status = %v", pos.Status)
	}
	if !pos.Timestamp.Equal(data.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", pos.Timestamp, data.Timestamp)
	}
}

func compareGPS103Data(t *testing.T, got, want *GPS103Data) {
	t.Helper()
	if got.Type != want.Type {
		t.Errorf("Type = %v, want %v", got.Type, want.Type)
	}
	if got.IMEI != want.IMEI {
		t.Errorf("IMEI = %q, want %q", got.IMEI, want.IMEI)
	}
	if got.Keyword != want.Keyword {
		t.Errorf("Keyword = %q, want %q", got.Keyword, want.Keyword)
	}
	if got.Valid != want.Valid {
		t.Errorf("Valid = %v, want %v", got.Valid, want.Valid)
	}
	if !almostEqual(got.Latitude, want.Latitude, 0.0001) {
		t.Errorf("Latitude = %v, want %v", got.Latitude, want.Latitude)
	}
	if !almostEqual(got.Longitude, want.Longitude, 0.0001) {
		t.Errorf("Longitude = %v, want %v", got.Longitude, want.Longitude)
	}
	if !almostEqual(got.Speed, want.Speed, 0.1) {
		t.Errorf("Speed = %v, want %v", got.Speed, want.Speed)
	}
	if !almostEqual(got.Course, want.Course, 0.1) {
		t.Errorf("Course = %v, want %v", got.Course, want.Course)
	}
	if !want.Timestamp.IsZero() && !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	for k, v := range want.Status {
		if got.Status[k] != v {
			t.Errorf("Status[%s] = %v, want %v", k, got.Status[k], v)
		}
	}
}

// Helper function for floating point comparison
func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
