// Package simulator drives a single simulated tracker around a Track,
// writing one report per period to the server connection while a second
// goroutine drains whatever the server sends back.
//
// The sender goroutine is the only writer of the connection and the only
// user of the cursor and random source. The receiver goroutine is the only
// reader. The two share nothing else, so no lock is taken.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"trackgen/internal/core/model"
	"trackgen/internal/protocol/gps103"
	"trackgen/internal/track"
)

var (
	ErrInvalidOptions = errors.New("invalid simulator options")
	ErrTransport      = errors.New("transport error")
	ErrReceive        = errors.New("receive error")
)

const (
	minRPM       = 500
	maxRPM       = 4000
	maxFuel      = 80
	alarmEvery   = 10
	goodAccuracy = 100
	poorAccuracy = 0

	receiveBufferSize = 8196

	defaultReadPoll    = 500 * time.Millisecond
	defaultReadBackoff = 100 * time.Millisecond
)

// Conn is the duplex channel to the tracking server. net.Conn satisfies it.
type Conn interface {
	io.ReadWriter
	SetReadDeadline(t time.Time) error
}

type Options struct {
	DeviceID string
	DriverID string
	Period   time.Duration
	Speed    float64

	// Reports stops the sender after this many reports. Zero means forever.
	Reports int

	// ReadPoll bounds each blocking read so the receiver notices
	// cancellation. ReadBackoff is the pause after a transient read error.
	ReadPoll    time.Duration
	ReadBackoff time.Duration

	Encoder *gps103.Encoder
	Rand    *rand.Rand
	Now     func() time.Time

	// Received is called with a copy of every chunk read from the server.
	// It defaults to logging the bytes.
	Received func(p []byte)
}

type Simulator struct {
	conn    Conn
	track   *track.Track
	opts    Options
	encoder *gps103.Encoder
	rnd     *rand.Rand

	cursor int
	sent   int
}

func New(conn Conn, trk *track.Track, opts Options) (*Simulator, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: nil connection", ErrInvalidOptions)
	}
	if trk == nil || trk.Len() == 0 {
		return nil, fmt.Errorf("%w: empty track", ErrInvalidOptions)
	}
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("%w: device id required", ErrInvalidOptions)
	}
	if opts.Period <= 0 {
		return nil, fmt.Errorf("%w: period must be positive, got %v", ErrInvalidOptions, opts.Period)
	}
	if opts.Reports < 0 {
		return nil, fmt.Errorf("%w: negative report limit %d", ErrInvalidOptions, opts.Reports)
	}

	if opts.ReadPoll <= 0 {
		opts.ReadPoll = defaultReadPoll
	}
	if opts.ReadBackoff <= 0 {
		opts.ReadBackoff = defaultReadBackoff
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Received == nil {
		opts.Received = func(p []byte) {
			log.Printf("[simulator] receiving: %q", p)
		}
	}

	encoder := opts.Encoder
	if encoder == nil {
		encoder, _ = gps103.NewEncoder(gps103.FormatReference)
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Simulator{
		conn:    conn,
		track:   trk,
		opts:    opts,
		encoder: encoder,
		rnd:     rnd,
	}, nil
}

// Cursor returns the track index of the next report. Only meaningful from
// the sender goroutine or after Send has returned.
func (s *Simulator) Cursor() int {
	return s.cursor
}

// Report computes the telemetry for track index index modulo the track
// length. It draws from the simulator's random source and so must only be
// called from the sender goroutine.
func (s *Simulator) Report(index int) model.Report {
	n := s.track.Len()
	i := index % n
	if i < 0 {
		i += n
	}

	from, to := s.track.At(i), s.track.At(i+1)
	r := model.Report{
		DeviceID:  s.opts.DeviceID,
		Time:      s.opts.Now(),
		Index:     i,
		Latitude:  from.Lat,
		Longitude: from.Lon,
		Course:    track.Bearing(from, to),
		Speed:     s.opts.Speed,
		Ignition:  i != 0,
		Accuracy:  poorAccuracy,
		RPM:       minRPM + s.rnd.Intn(maxRPM-minRPM+1),
		Fuel:      s.rnd.Intn(maxFuel + 1),
	}

	// The device is parked with the engine off at the start of the loop.
	if i == 0 {
		r.Speed = 0
		r.DriverUniqueID = s.opts.DriverID
	}
	if i%alarmEvery == 0 {
		r.Alarm = true
		r.Accuracy = goodAccuracy
	}
	return r
}

// Step sends the report at the cursor and advances the cursor by one.
func (s *Simulator) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	report := s.Report(s.cursor)
	if _, err := s.conn.Write(s.encoder.Encode(report)); err != nil {
		return fmt.Errorf("%w: write report at index %d: %v", ErrTransport, s.cursor, err)
	}

	s.cursor = (s.cursor + 1) % s.track.Len()
	s.sent++
	return nil
}

// Send steps once per period until ctx is done, a write fails, or the
// report limit is reached. The period is measured from the start of each
// cycle; a slow write delays the next report rather than compressing the
// schedule.
func (s *Simulator) Send(ctx context.Context) error {
	log.Printf("[simulator] device %s: driving %d-point track, one report every %v (%s format)",
		s.opts.DeviceID, s.track.Len(), s.opts.Period, s.encoder.Format())

	timer := time.NewTimer(s.opts.Period)
	defer timer.Stop()

	for {
		if err := s.Step(ctx); err != nil {
			return err
		}
		if s.opts.Reports > 0 && s.sent >= s.opts.Reports {
			log.Printf("[simulator] device %s: sent %d reports, stopping", s.opts.DeviceID, s.sent)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		timer.Reset(s.opts.Period)
	}
}

// Run starts the sender and receiver and waits for both. A fatal error in
// either stops the other. Run returns nil when the report limit is reached
// and ctx.Err() when the caller cancels.
func (s *Simulator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A finished sender ends the run.
		defer cancel()
		return s.Send(gctx)
	})
	g.Go(func() error {
		return s.Listen(gctx)
	})
	return g.Wait()
}
