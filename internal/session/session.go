// Package session follows captured TCP connections, detects the protocol
// handshake (optionally behind a SOCKS5 proxy), restores segment order per
// direction and feeds the bytes to the protocol streams.
package session

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"time"

	"mapletap/internal/capture"
	"mapletap/internal/flog"
	"mapletap/internal/protocol"
	"mapletap/internal/protocol/maple"
	"mapletap/internal/socks"
)

const (
	DefaultIdleTimeout        = 5 * time.Second
	DefaultMaxPendingSegments = 4096
)

type Result int

const (
	ResultContinue Result = iota
	// ResultTerminated keeps the session around; it accepts no more segments.
	ResultTerminated
	// ResultCloseMe asks the caller to drop the session.
	ResultCloseMe
)

func (r Result) String() string {
	switch r {
	case ResultContinue:
		return "continue"
	case ResultTerminated:
		return "terminated"
	case ResultCloseMe:
		return "close"
	}
	return "Result(" + strconv.Itoa(int(r)) + ")"
}

type Config struct {
	// Parser turns the first server payload into a protocol.
	Parser protocol.HandshakeParser
	// IdleTimeout is how long a session may stay without packets before CloseMe reports true.
	IdleTimeout time.Duration
	// MaxPendingSegments caps the out of order segments held per direction.
	MaxPendingSegments int
}

func (c *Config) setDefaults() {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.MaxPendingSegments <= 0 {
		c.MaxPendingSegments = DefaultMaxPendingSegments
	}
}

// flow is the reassembly state of one direction.
type flow struct {
	outbound bool
	expected uint32
	pending  map[uint32][]byte
	stream   protocol.Stream
}

// ahead reports whether a comes after b in 32-bit sequence space.
func ahead(a, b uint32) bool { return int32(a-b) > 0 }

type Session struct {
	cfg Config

	localEndpoint  string
	remoteEndpoint string
	proxyEndpoint  string
	localPort      uint16
	remotePort     uint16
	proxyPort      uint16

	outbound flow
	inbound  flow

	sniffer    socks.Sniffer
	proto      protocol.Protocol
	packets    []*protocol.Packet
	opcodes    map[protocol.Opcode]struct{}
	terminated bool
	startTime  time.Time
}

func New(cfg Config) *Session {
	cfg.setDefaults()
	return &Session{
		cfg:      cfg,
		outbound: flow{outbound: true, pending: make(map[uint32][]byte)},
		inbound:  flow{outbound: false, pending: make(map[uint32][]byte)},
		opcodes:  make(map[protocol.Opcode]struct{}),
	}
}

// Process handles one segment to completion and returns the packets it
// completed. A decode failure terminates the session and is returned with
// ResultTerminated.
func (s *Session) Process(seg *capture.Segment) (Result, []*protocol.Packet, error) {
	if s.terminated {
		return ResultTerminated, nil, nil
	}
	if seg.FIN || seg.RST {
		s.terminated = true
		if len(s.packets) == 0 {
			return ResultCloseMe, nil, nil
		}
		return ResultTerminated, nil, nil
	}
	if seg.SYN && !seg.ACK {
		s.localPort = seg.SrcPort
		s.remotePort = seg.DstPort
		s.outbound.expected = seg.Seq + 1
		s.startTime = seg.Timestamp
		s.localEndpoint = seg.Src()
		s.remoteEndpoint = seg.Dst()
		flog.Infof("[CONNECTION] From %s to %s", s.localEndpoint, s.remoteEndpoint)
		return ResultContinue, nil, nil
	}
	if seg.SYN && seg.ACK {
		s.inbound.expected = seg.Seq + 1
		return ResultContinue, nil, nil
	}
	if len(seg.Payload) == 0 {
		return ResultContinue, nil, nil
	}

	if s.proto == nil {
		return s.detect(seg)
	}

	f := &s.inbound
	if seg.SrcPort == s.localPort {
		f = &s.outbound
	}
	return s.processSegment(f, seg)
}

// detect handles payloads seen before the protocol is known.
func (s *Session) detect(seg *capture.Segment) (Result, []*protocol.Packet, error) {
	data := seg.Payload
	if seg.SrcPort == s.localPort {
		s.outbound.expected += uint32(len(data))
	} else {
		s.inbound.expected += uint32(len(data))
	}

	if !plausibleHandshake(data) {
		if s.sniffer.Active() {
			if dst, ok := s.sniffer.Observe(data); ok {
				s.proxyEndpoint = s.remoteEndpoint
				s.remoteEndpoint = dst.String()
				s.proxyPort = s.remotePort
				s.remotePort = dst.Port
				flog.Infof("[socks5] From %s to %s (Proxy %s)", s.localEndpoint, s.remoteEndpoint, s.proxyEndpoint)
			}
			return ResultContinue, nil, nil
		}
		if socks.IsGreeting(data) {
			s.sniffer.Begin()
			return ResultContinue, nil, nil
		}
		flog.Infof("Connection on port %s did not have a MapleStory Handshake", s.localEndpoint)
		return ResultCloseMe, nil, nil
	}

	proto, hs, err := s.cfg.Parser(data, seg.Timestamp)
	if err != nil {
		flog.Warnf("Connection %s sent an unusable handshake: %v", s.localEndpoint, err)
		return ResultCloseMe, nil, nil
	}
	s.proto = proto
	s.outbound.stream = proto.Outbound()
	s.inbound.stream = proto.Inbound()
	s.record(hs)
	return ResultContinue, []*protocol.Packet{hs}, nil
}

// plausibleHandshake checks the declared size against the payload length.
func plausibleHandshake(data []byte) bool {
	if len(data) < maple.MinHandshakeSize {
		return false
	}
	return int(binary.LittleEndian.Uint16(data))+2 == len(data)
}

// processSegment returns every packet completed before a failure together
// with that failure.
func (s *Session) processSegment(f *flow, seg *capture.Segment) (Result, []*protocol.Packet, error) {
	appendErr := s.reorder(f, seg.Seq, seg.Payload)

	var out []*protocol.Packet
	for {
		p, err := f.stream.Read(seg.Timestamp)
		if err != nil {
			return s.fail(f, out, err)
		}
		if p == nil {
			break
		}
		s.record(p)
		out = append(out, p)
	}
	if appendErr != nil {
		return s.fail(f, out, appendErr)
	}
	return ResultContinue, out, nil
}

func (s *Session) fail(f *flow, out []*protocol.Packet, err error) (Result, []*protocol.Packet, error) {
	err = fmt.Errorf("%s %s stream: %w", s.Title(), dirName(f.outbound), err)
	s.terminated = true
	flog.Errorf("%v", err)
	return ResultTerminated, out, err
}

// reorder appends data to the stream once everything before seq was seen,
// holding it back otherwise. Bytes already consumed are skipped.
func (s *Session) reorder(f *flow, seq uint32, data []byte) error {
	if ahead(seq, f.expected) {
		if err := s.drainPending(f); err != nil {
			return err
		}
		if ahead(seq, f.expected) {
			s.hold(f, seq, data)
			return nil
		}
	}
	if err := accept(f, seq, data); err != nil {
		return err
	}
	return s.drainPending(f)
}

// accept appends the part of data past the expected cursor; seq must not be
// ahead of it.
func accept(f *flow, seq uint32, data []byte) error {
	skip := f.expected - seq
	if uint64(skip) >= uint64(len(data)) {
		return nil
	}
	suffix := data[skip:]
	if err := f.stream.Append(suffix); err != nil {
		return err
	}
	f.expected += uint32(len(suffix))
	return nil
}

// drainPending appends held segments as long as one starts at or before the
// cursor. Stale entries are consumed the same way.
func (s *Session) drainPending(f *flow) error {
	for len(f.pending) > 0 {
		if data, ok := f.pending[f.expected]; ok {
			delete(f.pending, f.expected)
			if err := accept(f, f.expected, data); err != nil {
				return err
			}
			continue
		}
		progressed := false
		for seq, data := range f.pending {
			if ahead(seq, f.expected) {
				continue
			}
			delete(f.pending, seq)
			if err := accept(f, seq, data); err != nil {
				return err
			}
			progressed = true
			break
		}
		if !progressed {
			return nil
		}
	}
	return nil
}

func (s *Session) hold(f *flow, seq uint32, data []byte) {
	if old, ok := f.pending[seq]; ok && len(old) >= len(data) {
		return
	}
	if _, ok := f.pending[seq]; !ok && len(f.pending) >= s.cfg.MaxPendingSegments {
		far, farDist := seq, seq-f.expected
		for k := range f.pending {
			if d := k - f.expected; d > farDist {
				far, farDist = k, d
			}
		}
		flog.Warnf("%s %s: pending segment limit %d reached, dropping seq %d", s.Title(), dirName(f.outbound), s.cfg.MaxPendingSegments, far)
		if far == seq {
			return
		}
		delete(f.pending, far)
	}
	f.pending[seq] = bytes.Clone(data)
}

func (s *Session) record(p *protocol.Packet) {
	s.packets = append(s.packets, p)
	s.opcodes[p.Key()] = struct{}{}
}

// MatchSegment reports whether seg belongs to this connection. A detected
// proxy port stands in for the remote port.
func (s *Session) MatchSegment(seg *capture.Segment) bool {
	if s.terminated {
		return false
	}
	remote := s.remotePort
	if s.proxyPort > 0 {
		remote = s.proxyPort
	}
	if seg.SrcPort == s.localPort && seg.DstPort == remote {
		return true
	}
	return seg.SrcPort == remote && seg.DstPort == s.localPort
}

// CloseMe reports whether the session produced nothing within the idle timeout.
func (s *Session) CloseMe(now time.Time) bool {
	return len(s.packets) == 0 && now.Sub(s.startTime) >= s.cfg.IdleTimeout
}

// Opcodes lists every direction and opcode seen, ordered by opcode.
func (s *Session) Opcodes() []protocol.Opcode {
	out := make([]protocol.Opcode, 0, len(s.opcodes))
	for op := range s.opcodes {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Header != out[j].Header {
			return out[i].Header < out[j].Header
		}
		return !out[i].Outbound && out[j].Outbound
	})
	return out
}

// Info describes the session for display.
func (s *Session) Info() map[string]string {
	info := map[string]string{
		"Local Endpoint":  s.localEndpoint,
		"Remote Endpoint": s.remoteEndpoint,
		"Packets":         strconv.Itoa(len(s.packets)),
	}
	if s.proxyEndpoint != "" {
		info["Proxy Endpoint"] = s.proxyEndpoint
	}
	if !s.startTime.IsZero() {
		info["Start Time"] = s.startTime.Format(protocol.TimestampLayout)
	}
	if s.proto != nil {
		s.proto.EnrichSessionInfo(info)
	}
	return info
}

func (s *Session) Title() string {
	title := fmt.Sprintf("Port %d - %d", s.localPort, s.remotePort)
	if s.proxyPort > 0 {
		title += fmt.Sprintf(" (Proxy %d)", s.proxyPort)
	}
	if s.terminated {
		title += " (Terminated)"
	}
	return title
}

func (s *Session) Packets() []*protocol.Packet {
	return append([]*protocol.Packet(nil), s.packets...)
}

func (s *Session) Protocol() protocol.Protocol { return s.proto }
func (s *Session) Terminated() bool            { return s.terminated }
func (s *Session) StartTime() time.Time        { return s.startTime }
func (s *Session) LocalEndpoint() string       { return s.localEndpoint }
func (s *Session) RemoteEndpoint() string      { return s.remoteEndpoint }
func (s *Session) ProxyEndpoint() string       { return s.proxyEndpoint }

// Pending is the number of segments held back in one direction.
func (s *Session) Pending(outbound bool) int {
	if outbound {
		return len(s.outbound.pending)
	}
	return len(s.inbound.pending)
}

// Expected is the next sequence number wanted in one direction.
func (s *Session) Expected(outbound bool) uint32 {
	if outbound {
		return s.outbound.expected
	}
	return s.inbound.expected
}

func dirName(outbound bool) string {
	if outbound {
		return "outbound"
	}
	return "inbound"
}
