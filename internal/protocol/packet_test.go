package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacketIsImmutable(t *testing.T) {
	payload := []byte{1, 2, 3}
	p := NewPacket(Meta{Opcode: 0x10}, payload)
	payload[0] = 0xFF

	got := p.Payload()
	assert.Equal(t, []byte{1, 2, 3}, got)
	got[1] = 0xFF
	assert.Equal(t, []byte{1, 2, 3}, p.Payload())

	r1, r2 := p.Reader(), p.Reader()
	_, _ = r1.ReadByte()
	assert.Equal(t, 1, r1.Cursor())
	assert.Zero(t, r2.Cursor(), "readers are independent")
}

func TestPacketFields(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.UTC)
	p := NewPacket(Meta{
		Timestamp:    ts,
		Outbound:     true,
		Opcode:       0x2A,
		Name:         "Login",
		PostDecodeIV: 0xAB,
	}, make([]byte, 12))

	assert.Equal(t, []string{"2024-03-09 14:05:07.123", "Outbound", "12", "0x002A", "Login", "000000AB"}, p.Fields())
	assert.Equal(t, Opcode{Outbound: true, Header: 0x2A}, p.Key())
	assert.Equal(t, "Outbound 0x002A", p.Key().String())
}
