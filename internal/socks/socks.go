// Package socks recognises a SOCKS5 negotiation at the start of a captured
// connection and recovers the destination the client asked the proxy for.
package socks

import (
	"bytes"
	"encoding/binary"
	"net"
	"strconv"

	"github.com/txthinking/socks5"
)

// MaxSteps bounds how many payloads are inspected once a greeting was seen.
const MaxSteps = 7

// Destination is the target of a CONNECT request.
type Destination struct {
	Host string
	Port uint16
	Atyp byte
}

func (d Destination) String() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(int(d.Port)))
}

// IsGreeting reports whether data is a client greeting offering one method.
func IsGreeting(data []byte) bool {
	r := bytes.NewReader(data)
	req, err := socks5.NewNegotiationRequestFrom(r)
	if err != nil {
		return false
	}
	return req.NMethods == 1 && r.Len() == 0
}

// Sniffer follows the negotiation payloads of one connection.
type Sniffer struct {
	step int
}

// Begin starts tracking after a greeting.
func (s *Sniffer) Begin() { s.step = 1 }

// Active is true while negotiation payloads are still expected.
func (s *Sniffer) Active() bool { return s.step > 0 && s.step < MaxSteps }

func (s *Sniffer) Step() int { return s.step }

// Observe consumes one negotiation payload and returns the destination when
// the payload is a CONNECT request.
func (s *Sniffer) Observe(data []byte) (Destination, bool) {
	s.step++
	return ParseConnect(data)
}

// ParseConnect decodes a CONNECT request: ver | cmd | rsv | atyp | addr | port(be).
func ParseConnect(data []byte) (Destination, bool) {
	if len(data) < 2 || data[0] != socks5.Ver || data[1] != socks5.CmdConnect {
		return Destination{}, false
	}
	req, err := socks5.NewRequestFrom(bytes.NewReader(data))
	if err != nil {
		return Destination{}, false
	}
	host, _, err := net.SplitHostPort(req.Address())
	if err != nil {
		return Destination{}, false
	}
	return Destination{
		Host: host,
		Port: binary.BigEndian.Uint16(req.DstPort),
		Atyp: req.Atyp,
	}, true
}
