package capture

import (
	"fmt"
	"net"
	"net/netip"

	"go4.org/netipx"
)

// Filter selects the segments a Reader returns. The zero value accepts every
// TCP segment.
type Filter struct {
	// Ports keeps segments from or to one of these ports.
	Ports []int
	// Networks keeps segments with an endpoint inside one of these CIDR
	// prefixes or addresses.
	Networks []string
}

type matcher struct {
	ports map[uint16]struct{}
	nets  *netipx.IPSet
}

// Validate reports malformed ports or networks.
func (f Filter) Validate() error {
	_, err := f.compile()
	return err
}

func (f Filter) compile() (*matcher, error) {
	m := &matcher{}
	if len(f.Ports) > 0 {
		m.ports = make(map[uint16]struct{}, len(f.Ports))
		for _, p := range f.Ports {
			if p < 1 || p > 65535 {
				return nil, fmt.Errorf("invalid port %d", p)
			}
			m.ports[uint16(p)] = struct{}{}
		}
	}
	if len(f.Networks) > 0 {
		var b netipx.IPSetBuilder
		for _, n := range f.Networks {
			if prefix, err := netip.ParsePrefix(n); err == nil {
				b.AddPrefix(prefix.Masked())
				continue
			}
			addr, err := netip.ParseAddr(n)
			if err != nil {
				return nil, fmt.Errorf("invalid network %q", n)
			}
			b.Add(addr.Unmap())
		}
		set, err := b.IPSet()
		if err != nil {
			return nil, err
		}
		m.nets = set
	}
	return m, nil
}

func (m *matcher) match(seg *Segment) bool {
	if m.ports != nil {
		_, src := m.ports[seg.SrcPort]
		_, dst := m.ports[seg.DstPort]
		if !src && !dst {
			return false
		}
	}
	if m.nets != nil {
		return m.nets.Contains(toAddr(seg.SrcIP)) || m.nets.Contains(toAddr(seg.DstIP))
	}
	return true
}

func toAddr(ip net.IP) netip.Addr {
	addr, _ := netip.AddrFromSlice(ip)
	return addr.Unmap()
}
