package socks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txthinking/socks5"
)

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "no auth", data: []byte{0x05, 0x01, 0x00}, want: true},
		{name: "user pass", data: []byte{0x05, 0x01, 0x02}, want: true},
		{name: "two methods", data: []byte{0x05, 0x02, 0x00, 0x02}, want: false},
		{name: "socks4", data: []byte{0x04, 0x01, 0x00}, want: false},
		{name: "truncated", data: []byte{0x05, 0x01}, want: false},
		{name: "trailing bytes", data: []byte{0x05, 0x01, 0x00, 0x00}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGreeting(tt.data))
		})
	}
}

func TestParseConnect(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		want   Destination
		wantOK bool
	}{
		{
			name:   "ipv4",
			data:   []byte{0x05, 0x01, 0x00, 0x01, 8, 31, 99, 141, 0x21, 0x24},
			want:   Destination{Host: "8.31.99.141", Port: 8484, Atyp: socks5.ATYPIPv4},
			wantOK: true,
		},
		{
			name:   "domain",
			data:   append(append([]byte{0x05, 0x01, 0x00, 0x03, 11}, "example.org"...), 0x1F, 0x90),
			want:   Destination{Host: "example.org", Port: 8080, Atyp: socks5.ATYPDomain},
			wantOK: true,
		},
		{
			name:   "ipv6",
			data:   append(append([]byte{0x05, 0x01, 0x00, 0x04}, make([]byte, 15)...), 0x01, 0x00, 0x50),
			want:   Destination{Host: "::1", Port: 80, Atyp: socks5.ATYPIPv6},
			wantOK: true,
		},
		{name: "bind command", data: []byte{0x05, 0x02, 0x00, 0x01, 1, 2, 3, 4, 0, 80}},
		{name: "server reply", data: []byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}},
		{name: "truncated", data: []byte{0x05, 0x01, 0x00, 0x01, 1, 2}},
		{name: "method reply", data: []byte{0x05, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseConnect(tt.data)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSnifferSteps(t *testing.T) {
	var s Sniffer
	assert.False(t, s.Active())

	s.Begin()
	for i := 1; i < MaxSteps; i++ {
		require.True(t, s.Active(), "step %d", i)
		_, ok := s.Observe([]byte{0x05, 0x00})
		assert.False(t, ok)
	}
	assert.False(t, s.Active())
	assert.Equal(t, MaxSteps, s.Step())
}

func TestDestinationString(t *testing.T) {
	assert.Equal(t, "10.0.0.1:0", Destination{Host: "10.0.0.1"}.String())
	assert.Equal(t, "[::1]:65535", Destination{Host: "::1", Port: 65535}.String())
}
