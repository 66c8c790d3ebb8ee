// Package capture reads TCP segments out of pcap and pcapng files.
package capture

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

// Segment is one captured TCP segment.
type Segment struct {
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   uint16
	DstPort   uint16
	Seq       uint32
	Ack       uint32
	SYN       bool
	ACK       bool
	FIN       bool
	RST       bool
	PSH       bool
	Payload   []byte
	Timestamp time.Time
}

func (s *Segment) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d seq=%d len=%d", s.SrcIP, s.SrcPort, s.DstIP, s.DstPort, s.Seq, len(s.Payload))
}

type source interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Reader yields the TCP segments of a capture in file order.
type Reader struct {
	src    source
	filter *matcher
	closer io.Closer
}

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

// Open reads the capture at path, returning only segments accepted by f.
func Open(path string, f Filter) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(file, f)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to open capture %s: %w", path, err)
	}
	r.closer = file
	return r, nil
}

// NewReader detects pcap or pcapng from the file magic.
func NewReader(r io.Reader, f Filter) (*Reader, error) {
	m, err := f.compile()
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	var src source
	if bytes.Equal(magic, pcapngMagic) {
		src, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, err
	}

	return &Reader{src: src, filter: m}, nil
}

// Next returns the next TCP segment or io.EOF.
func (r *Reader) Next() (*Segment, error) {
	for {
		data, ci, err := r.src.ReadPacketData()
		if err != nil {
			return nil, err
		}
		seg := decode(data, r.src.LinkType())
		if seg == nil || !r.filter.match(seg) {
			continue
		}
		seg.Timestamp = ci.Timestamp
		return seg, nil
	}
}

func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func decode(data []byte, link layers.LinkType) *Segment {
	p := gopacket.NewPacket(data, link, gopacket.Default)
	seg := &Segment{}

	netLayer := p.NetworkLayer()
	if netLayer == nil {
		return nil
	}
	switch netLayer.LayerType() {
	case layers.LayerTypeIPv4:
		ipv4 := netLayer.(*layers.IPv4)
		seg.SrcIP = ipv4.SrcIP
		seg.DstIP = ipv4.DstIP
	case layers.LayerTypeIPv6:
		ipv6 := netLayer.(*layers.IPv6)
		seg.SrcIP = ipv6.SrcIP
		seg.DstIP = ipv6.DstIP
	default:
		return nil
	}

	trLayer := p.TransportLayer()
	if trLayer == nil || trLayer.LayerType() != layers.LayerTypeTCP {
		return nil
	}
	tcp := trLayer.(*layers.TCP)
	seg.SrcPort = uint16(tcp.SrcPort)
	seg.DstPort = uint16(tcp.DstPort)
	seg.Seq = tcp.Seq
	seg.Ack = tcp.Ack
	seg.SYN = tcp.SYN
	seg.ACK = tcp.ACK
	seg.FIN = tcp.FIN
	seg.RST = tcp.RST
	seg.PSH = tcp.PSH

	if app := p.ApplicationLayer(); app != nil {
		seg.Payload = app.Payload()
	}
	return seg
}

// FlowKey identifies a connection independently of segment direction.
type FlowKey struct {
	A, B string
}

func endpoint(ip net.IP, port uint16) string {
	return net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
}

// Src and Dst render the segment endpoints as host:port.
func (s *Segment) Src() string { return endpoint(s.SrcIP, s.SrcPort) }
func (s *Segment) Dst() string { return endpoint(s.DstIP, s.DstPort) }

// Flow returns the key of the segment's connection; both directions map to
// the same key.
func (s *Segment) Flow() FlowKey {
	a, b := s.Src(), s.Dst()
	if lessEndpoint(s.SrcIP, s.SrcPort, s.DstIP, s.DstPort) {
		return FlowKey{A: a, B: b}
	}
	return FlowKey{A: b, B: a}
}

func lessEndpoint(ipA net.IP, portA uint16, ipB net.IP, portB uint16) bool {
	if c := bytes.Compare(ipA.To16(), ipB.To16()); c != 0 {
		return c < 0
	}
	return portA <= portB
}
