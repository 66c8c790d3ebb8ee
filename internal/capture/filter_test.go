package capture

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatch(t *testing.T) {
	seg := &Segment{SrcIP: clientIP, DstIP: serverIP, SrcPort: 50000, DstPort: 8484}
	v6 := &Segment{SrcIP: net.ParseIP("2001:db8::2"), DstIP: net.ParseIP("2001:db8::1"), SrcPort: 50000, DstPort: 8484}

	tests := []struct {
		name   string
		filter Filter
		seg    *Segment
		want   bool
	}{
		{name: "zero value", filter: Filter{}, seg: seg, want: true},
		{name: "port hit", filter: Filter{Ports: []int{8484}}, seg: seg, want: true},
		{name: "port miss", filter: Filter{Ports: []int{8585}}, seg: seg, want: false},
		{name: "network hit", filter: Filter{Networks: []string{"8.31.96.0/21"}}, seg: seg, want: true},
		{name: "address hit", filter: Filter{Networks: []string{"192.168.1.20"}}, seg: seg, want: true},
		{name: "network miss", filter: Filter{Networks: []string{"10.0.0.0/8"}}, seg: seg, want: false},
		{name: "port and network", filter: Filter{Ports: []int{8484}, Networks: []string{"10.0.0.0/8"}}, seg: seg, want: false},
		{name: "ipv6 network", filter: Filter{Networks: []string{"2001:db8::/64"}}, seg: v6, want: true},
		{name: "ipv4 mapped", filter: Filter{Networks: []string{"8.31.99.141"}}, seg: &Segment{SrcIP: net.ParseIP("::ffff:8.31.99.141"), DstIP: clientIP}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.filter.compile()
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.match(tt.seg))
		})
	}
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{Ports: []int{1, 65535}, Networks: []string{"::1", "10.0.0.0/8"}}.Validate())
	assert.Error(t, Filter{Ports: []int{0}}.Validate())
	assert.Error(t, Filter{Networks: []string{"10.0.0.0/33"}}.Validate())
	assert.Error(t, Filter{Networks: []string{"maple.nexon.net"}}.Validate())

	var buf bytes.Buffer
	writePcap(t, &buf, false)
	_, err := NewReader(&buf, Filter{Ports: []int{70000}})
	assert.Error(t, err)
}

func TestReaderNetworkFilter(t *testing.T) {
	var buf bytes.Buffer
	writePcap(t, &buf, true)

	data := buf.Bytes()

	for cidr, want := range map[string]int{"8.31.99.0/24": 4, "10.0.0.0/8": 0} {
		r, err := NewReader(bytes.NewReader(data), Filter{Networks: []string{cidr}})
		require.NoError(t, err)
		assert.Len(t, readAll(t, r), want, cidr)
	}
}
