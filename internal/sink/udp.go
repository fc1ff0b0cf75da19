// SPDX-License-Identifier: MIT
package sink

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"featex/internal/dsp"
	applog "featex/internal/log"
)

/*
UDP packet layout (BigEndian):

	| Field        | Type      | Size (bytes)  |
	|--------------|-----------|---------------|
	| Sequence     | uint32    | 4             |
	| Timestamp    | int64     | 8             | nanoseconds since epoch
	| Value        | float64   | 8             |
	| Vector Count | uint16    | 2             | number of floats (N)
	| Vector       | []float32 | N * 4         |
*/

// UDPSink packs each FeatureResult into a binary packet and sends it
// to a fixed target address. The packet buffer is reused across
// deliveries.
type UDPSink struct {
	conn   *net.UDPConn
	mu     sync.Mutex // guards conn, packet, and closed
	packet *bytes.Buffer
	vec32  []float32
	closed bool
}

// NewUDPSink dials the target ("host:port") and returns the sink.
func NewUDPSink(targetAddress string) (*UDPSink, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target %q: %w", targetAddress, err)
	}

	applog.Infof("sink: UDP connection established to %s", conn.RemoteAddr())
	return &UDPSink{
		conn:   conn,
		packet: new(bytes.Buffer),
	}, nil
}

// Deliver packs and sends one result. Send errors are returned but
// non-fatal; the dispatcher logs and moves on.
func (s *UDPSink) Deliver(res dsp.FeatureResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("UDP sink is closed")
	}

	if cap(s.vec32) < len(res.Vector) {
		s.vec32 = make([]float32, len(res.Vector))
	}
	s.vec32 = s.vec32[:len(res.Vector)]
	for i, v := range res.Vector {
		s.vec32[i] = float32(v)
	}

	s.packet.Reset()
	err := binary.Write(s.packet, binary.BigEndian, uint32(res.Seq))
	if err == nil {
		err = binary.Write(s.packet, binary.BigEndian, res.Timestamp.UnixNano())
	}
	if err == nil {
		err = binary.Write(s.packet, binary.BigEndian, res.Value)
	}
	if err == nil {
		err = binary.Write(s.packet, binary.BigEndian, uint16(len(s.vec32)))
	}
	if err == nil && len(s.vec32) > 0 {
		err = binary.Write(s.packet, binary.BigEndian, s.vec32)
	}
	if err != nil {
		return fmt.Errorf("failed to pack UDP packet: %w", err)
	}

	if _, err := s.conn.Write(s.packet.Bytes()); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying connection. Idempotent.
func (s *UDPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close UDP connection: %w", err)
		}
	}
	return nil
}

var _ Sink = (*UDPSink)(nil)
