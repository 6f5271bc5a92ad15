package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"syscall"
	"time"
)

type readOutcome int

const (
	readRetry readOutcome = iota
	readBackoff
	readFatal
)

// classifyRead sorts read errors into the benign (deadline expired, retry
// at once), the fatal (peer gone or connection closed) and everything else,
// which is retried after a short pause.
func classifyRead(err error) readOutcome {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return readRetry
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return readRetry
	}

	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE):
		return readFatal
	}
	return readBackoff
}

// Listen reads from the connection until ctx is done or the connection
// fails. Cancellation is not an error.
func (s *Simulator) Listen(ctx context.Context) error {
	buf := make([]byte, receiveBufferSize)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadPoll)); err != nil {
			return fmt.Errorf("%w: set read deadline: %v", ErrReceive, err)
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.opts.Received(chunk)
		}
		if err == nil {
			continue
		}

		switch classifyRead(err) {
		case readRetry:
			continue
		case readFatal:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrReceive, err)
		default:
			log.Printf("[simulator] read failed, retrying in %v: %v", s.opts.ReadBackoff, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.opts.ReadBackoff):
			}
		}
	}
}
