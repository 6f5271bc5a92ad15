package gps103

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
	"trackgen/internal/core/model"
)

var (
	ErrPacketTooShort    = errors.New("data too short for GPS103 protocol")
	ErrInvalidHeader     = errors.New("invalid GPS103 protocol header")
	ErrInvalidFormat     = errors.New("invalid GPS103 data format")
	ErrInvalidCoordinate = errors.New("invalid GPS103 coordinate")
)

type Decoder struct {
	debug bool
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) EnableDebug(enable bool) {
	d.debug = enable
}

func (d *Decoder) logDebug(format string, v ...interface{}) {
	if d.debug {
		log.Printf("[GPS103] "+format, v...)
	}
}

// MessageType distinguishes the three record shapes a GPS103 tracker sends.
type MessageType int

const (
	LocationMessage MessageType = iota
	LoginMessage
	HeartbeatMessage
)

type GPS103Data struct {
	Type      MessageType
	IMEI      string
	Keyword   string
	Latitude  float64
	Longitude float64
	Speed     float64 // km/h
	Course    float64
	Timestamp time.Time
	Valid     bool
	Status    map[string]interface{}
}

// GPS103 protocol constants
const (
	imeiPrefix  = "imei:"
	loginPrefix = "##,"
	terminator  = ";"
	minLength   = 5

	// Location record layout
	fieldIMEI      = 0
	fieldKeyword   = 1
	fieldDate      = 2
	fieldTime      = 5
	fieldValidity  = 6
	fieldLatitude  = 7
	fieldLatHemi   = 8
	fieldLongitude = 9
	fieldLonHemi   = 10
	fieldSpeed     = 11
	fieldCourse    = 12
	minFields      = 12

	knotsToKmh = 1.852
)

// Decode parses a single record. The trailing ';' is optional.
func (d *Decoder) Decode(data []byte) (*GPS103Data, error) {
	data = bytes.TrimSpace(data)
	data = bytes.TrimSuffix(data, []byte(terminator))
	if len(data) < minLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrPacketTooShort, len(data))
	}

	record := string(data)
	d.logDebug("decoding %q", record)

	switch {
	case strings.HasPrefix(record, loginPrefix):
		return d.decodeLogin(record)
	case strings.HasPrefix(record, imeiPrefix):
		return d.decodeLocation(record)
	case isDigits(record):
		return &GPS103Data{
			Type:   HeartbeatMessage,
			IMEI:   record,
			Status: make(map[string]interface{}),
		}, nil
	default:
		return nil, ErrInvalidHeader
	}
}

func (d *Decoder) decodeLogin(record string) (*GPS103Data, error) {
	// ##,imei:<id>,A
	parts := strings.Split(record, ",")
	if len(parts) < 2 || !strings.HasPrefix(parts[1], imeiPrefix) {
		return nil, fmt.Errorf("%w: login record %q", ErrInvalidFormat, record)
	}
	return &GPS103Data{
		Type:   LoginMessage,
		IMEI:   strings.TrimPrefix(parts[1], imeiPrefix),
		Status: make(map[string]interface{}),
	}, nil
}

func (d *Decoder) decodeLocation(record string) (*GPS103Data, error) {
	parts := strings.Split(record, ",")
	if len(parts) < minFields {
		return nil, fmt.Errorf("%w: got %d fields, need at least %d", ErrInvalidFormat, len(parts), minFields)
	}

	result := &GPS103Data{
		Type:    LocationMessage,
		IMEI:    strings.TrimPrefix(parts[fieldIMEI], imeiPrefix),
		Keyword: parts[fieldKeyword],
		Valid:   parts[fieldValidity] == "A",
		Status:  make(map[string]interface{}),
	}
	if result.IMEI == "" {
		return nil, fmt.Errorf("%w: empty IMEI", ErrInvalidFormat)
	}

	lat, err := parseCoordinate(parts[fieldLatitude], parts[fieldLatHemi], 90)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q: %v", ErrInvalidCoordinate, parts[fieldLatitude], err)
	}
	result.Latitude = lat

	lon, err := parseCoordinate(parts[fieldLongitude], parts[fieldLonHemi], 180)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q: %v", ErrInvalidCoordinate, parts[fieldLongitude], err)
	}
	result.Longitude = lon

	// Parse speed (in knots, convert to km/h)
	if speed, err := strconv.ParseFloat(parts[fieldSpeed], 64); err == nil {
		result.Speed = speed * knotsToKmh
	}

	// Parse course (heading)
	if len(parts) > fieldCourse {
		if course, err := strconv.ParseFloat(parts[fieldCourse], 64); err == nil {
			result.Course = course
		}
	}

	result.Timestamp = parseTimestamp(parts[fieldDate], parts[fieldTime])

	switch result.Keyword {
	case "tracker":
	case "help me":
		result.Status["alarm"] = "sos"
	case "acc on":
		result.Status["ignition"] = true
	case "acc off":
		result.Status["ignition"] = false
	case "low battery":
		result.Status["alarm"] = "lowBattery"
	case "speed":
		result.Status["alarm"] = "overspeed"
	default:
		result.Status["alarm"] = result.Keyword
	}

	return result, nil
}

// parseCoordinate converts (D)DDMM.MMMM plus hemisphere to decimal degrees.
func parseCoordinate(coord, hemisphere string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(coord, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, errors.New("not a positive finite number")
	}

	degrees := math.Floor(v / 100)
	minutes := v - degrees*100
	if minutes >= 60 {
		return 0, fmt.Errorf("minutes %v out of range", minutes)
	}

	value := degrees + minutes/60
	if value > limit {
		return 0, fmt.Errorf("%v exceeds %v", value, limit)
	}

	switch hemisphere {
	case "N", "E":
	case "S", "W":
		value = -value
	default:
		return 0, fmt.Errorf("unknown hemisphere %q", hemisphere)
	}
	return value, nil
}

// parseTimestamp combines the yyMMdd date prefix with the HHmmss time of
// day. Unparseable fields fall back to the current time.
func parseTimestamp(date, clock string) time.Time {
	if len(date) < 6 || len(clock) < 6 {
		return time.Now().UTC()
	}
	day, err := time.Parse("060102", date[:6])
	if err != nil {
		return time.Now().UTC()
	}
	tod, err := time.Parse("150405", clock[:6])
	if err != nil {
		return time.Now().UTC()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (d *Decoder) ToPosition(data *GPS103Data) *model.Position {
	position := model.NewPosition(data.IMEI, data.Latitude, data.Longitude)
	position.Timestamp = data.Timestamp
	position.Speed = data.Speed
	position.Course = data.Course
	position.Valid = data.Valid
	position.Protocol = "gps103"

	if data.Keyword != "" {
		position.Status["keyword"] = data.Keyword
	}
	for k, v := range data.Status {
		if _, exists := position.Status[k]; !exists {
			position.Status[k] = v
		}
	}

	return position
}
