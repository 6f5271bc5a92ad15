package gps103

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"trackgen/internal/core/model"
)

// Format selects how much of a Report reaches the wire.
type Format string

const (
	// FormatReference writes only position and speed, with the fixed
	// date and time literals the simulator has always sent.
	FormatReference Format = "reference"
	// FormatExtended writes the report time, course and an alarm keyword.
	FormatExtended Format = "extended"
)

const (
	referenceDate = "151030080103"
	referenceTime = "000101.000"
)

type Encoder struct {
	format Format
}

func NewEncoder(format Format) (*Encoder, error) {
	switch format {
	case "":
		format = FormatReference
	case FormatReference, FormatExtended:
	default:
		return nil, fmt.Errorf("unknown GPS103 format %q", format)
	}
	return &Encoder{format: format}, nil
}

func (e *Encoder) Format() Format {
	return e.format
}

// Encode renders r as one ';'-terminated record.
func (e *Encoder) Encode(r model.Report) []byte {
	var b strings.Builder
	b.WriteString(imeiPrefix)
	b.WriteString(r.DeviceID)

	if e.format == FormatReference {
		b.WriteString(",tracker,")
		b.WriteString(referenceDate)
		b.WriteString(",,F,")
		b.WriteString(referenceTime)
		b.WriteString(",A,")
		b.WriteString(formatCoordinate(r.Latitude))
		b.WriteString(",N,")
		b.WriteString(formatCoordinate(r.Longitude))
		b.WriteString(",E,")
		b.WriteString(strconv.FormatFloat(r.Speed, 'f', -1, 64))
		b.WriteString(",0;")
		return []byte(b.String())
	}

	ts := r.Time.UTC()
	latHemi, lonHemi := "N", "E"
	lat, lon := r.Latitude, r.Longitude
	if lat < 0 {
		latHemi, lat = "S", -lat
	}
	if lon < 0 {
		lonHemi, lon = "W", -lon
	}

	fmt.Fprintf(&b, ",%s,%s,,F,%s.000,A,%s,%s,%s,%s,%s,%s;",
		keyword(r),
		ts.Format("060102150405"),
		ts.Format("150405"),
		formatCoordinate(lat), latHemi,
		formatCoordinate(lon), lonHemi,
		strconv.FormatFloat(r.Speed, 'f', -1, 64),
		strconv.FormatFloat(r.Course, 'f', 2, 64),
	)
	return []byte(b.String())
}

func keyword(r model.Report) string {
	switch {
	case r.Alarm:
		return "help me"
	case !r.Ignition:
		return "acc off"
	default:
		return "tracker"
	}
}

// formatCoordinate prints the shortest representation that round-trips,
// always keeping a fractional part.
func formatCoordinate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") && !math.IsInf(v, 0) && !math.IsNaN(v) {
		s += ".0"
	}
	return s
}
