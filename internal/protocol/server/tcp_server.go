package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
	"trackgen/internal/core/service"
	"trackgen/internal/protocol/gps103"
)

const (
	// GPS103 records are short; anything longer than this without a
	// terminator is not a tracker talking.
	maxRecordSize = 4096
	idleTimeout   = 5 * time.Minute

	replyLogin = "LOAD"
	replyAck   = "ON"
)

type TCPServer struct {
	address         string
	listener        net.Listener
	positionService service.PositionService

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewTCPServer(address string, positionService service.PositionService) *TCPServer {
	return &TCPServer{
		address:         address,
		positionService: positionService,
		conns:           make(map[net.Conn]struct{}),
	}
}

func (s *TCPServer) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}

	log.Printf("TCP server listening on %s", s.listener.Addr())

	s.wg.Add(1)
	go s.acceptConnections()
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// handlers to return.
func (s *TCPServer) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Error accepting connection: %v", err)
			continue
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	remote := conn.RemoteAddr().String()
	log.Printf("New connection from %s", remote)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 512), maxRecordSize)
	scanner.Split(splitRecords)

	for {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))
		if !scanner.Scan() {
			break
		}

		record := scanner.Bytes()
		if len(record) == 0 {
			continue
		}

		decoded, position, err := s.positionService.ProcessRawData(context.Background(), record)
		if err != nil {
			log.Printf("[tcp] %s: error decoding GPS103 data %q: %v", remote, record, err)
			continue
		}

		reply := replyAck
		switch decoded.Type {
		case gps103.LoginMessage:
			reply = replyLogin
			log.Printf("[tcp] %s: login from %s", remote, decoded.IMEI)
		case gps103.LocationMessage:
			log.Printf("[tcp] %s: position from %s: lat=%f, lon=%f, speed=%.1f",
				remote, position.DeviceID, position.Latitude, position.Longitude, position.Speed)
		}

		if _, err := conn.Write([]byte(reply)); err != nil {
			log.Printf("[tcp] %s: error writing reply: %v", remote, err)
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
		log.Printf("[tcp] %s: error reading from connection: %v", remote, err)
	}
	log.Printf("[tcp] %s: connection closed", remote)
}

// splitRecords is a bufio.SplitFunc for ';'-terminated records. Surrounding
// whitespace, including the newlines some trackers add, is dropped.
func splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == ';' {
			return i + 1, trimSpace(data[:i]), nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), trimSpace(data), nil
	}
	return 0, nil, nil
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\r' || b == '\t'
}
