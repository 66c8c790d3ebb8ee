package maple

import (
	"testing"
	"time"

	"mapletap/internal/definition"
	"mapletap/internal/pkg/buffer"
	"mapletap/internal/protocol"
	"mapletap/internal/protocol/maple/mapletest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIV = [4]byte{0x10, 0x20, 0x30, 0x40}

func clearConfig() Config {
	return Config{Cipher: "clear"}
}

func drain(t *testing.T, s *Stream, ts time.Time) []*protocol.Packet {
	t.Helper()
	var out []*protocol.Packet
	for {
		p, err := s.Read(ts)
		require.NoError(t, err)
		if p == nil {
			return out
		}
		out = append(out, p)
	}
}

func TestStreamReadsWholeFrames(t *testing.T) {
	s, err := NewStream(true, 90, Taiwan, testIV, 1, clearConfig())
	require.NoError(t, err)
	sealer := mapletest.NewSealer(true, 90, testIV)

	var wire []byte
	wire = append(wire, sealer.Frame(0x0014, []byte("first"))...)
	wire = append(wire, sealer.Frame(0x0203, nil)...)
	wire = append(wire, sealer.Frame(0x0001, []byte{9, 9})...)

	ts := time.Unix(1700000000, 0)
	var got []*protocol.Packet
	for i := 0; i < len(wire); i++ {
		require.NoError(t, s.Append(wire[i:i+1]))
		got = append(got, drain(t, s, ts)...)
	}

	require.Len(t, got, 3)
	assert.Equal(t, uint16(0x0014), got[0].Opcode)
	assert.Equal(t, []byte("first"), got[0].Payload())
	assert.Equal(t, uint16(0x0203), got[1].Opcode)
	assert.Zero(t, got[1].Len())
	assert.Equal(t, []byte{9, 9}, got[2].Payload())

	for _, p := range got {
		assert.True(t, p.Outbound)
		assert.Equal(t, uint16(90), p.Version)
		assert.Equal(t, byte(Taiwan), p.Locale)
		assert.Equal(t, ts, p.Timestamp)
		assert.Equal(t, p.PreDecodeIV+1, p.PostDecodeIV, "IV advances once per frame")
	}
	assert.Equal(t, got[0].PostDecodeIV, got[1].PreDecodeIV)
	assert.Zero(t, s.Buffered())
}

func TestStreamWaitsForHeaderAndBody(t *testing.T) {
	s, err := NewStream(false, 90, Taiwan, testIV, 1, clearConfig())
	require.NoError(t, err)
	frame := mapletest.NewSealer(false, 90, testIV).Frame(0x0010, []byte{1, 2, 3, 4})

	require.NoError(t, s.Append(frame[:3]))
	p, err := s.Read(time.Now())
	require.NoError(t, err)
	assert.Nil(t, p, "fewer than 4 bytes")

	require.NoError(t, s.Append(frame[3:len(frame)-1]))
	p, err = s.Read(time.Now())
	require.NoError(t, err)
	assert.Nil(t, p, "body incomplete")
	assert.Equal(t, len(frame)-1, s.Buffered())

	require.NoError(t, s.Append(frame[len(frame)-1:]))
	p, err = s.Read(time.Now())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.Outbound)
	assert.Equal(t, []byte{1, 2, 3, 4}, p.Payload())
}

func TestStreamSeedsDirectionsDifferently(t *testing.T) {
	s, err := NewStream(false, 90, Taiwan, testIV, 1, clearConfig())
	require.NoError(t, err)
	require.NoError(t, s.Append(mapletest.NewSealer(true, 90, testIV).Frame(0x0010, nil)))

	_, err = s.Read(time.Now())
	assert.ErrorIs(t, err, ErrHeaderMismatch, "outbound frame must not confirm on the inbound stream")
}

func TestStreamByteHeader(t *testing.T) {
	s, err := NewStream(true, 255, KoreaTest, testIV, 1, clearConfig())
	require.NoError(t, err)
	require.True(t, s.UsesByteHeader())

	sealer := mapletest.NewSealer(true, 255, testIV).Legacy()
	require.NoError(t, s.Append(sealer.ByteFrame(0x7F, []byte{0xAB, 0xCD})))

	got := drain(t, s, time.Now())
	require.Len(t, got, 1)
	assert.Equal(t, uint16(0x7F), got[0].Opcode)
	assert.Equal(t, []byte{0xAB, 0xCD}, got[0].Payload())
	assert.Equal(t, got[0].PreDecodeIV+1, got[0].PostDecodeIV)
}

func TestStreamShortFrame(t *testing.T) {
	s, err := NewStream(true, 90, Taiwan, testIV, 1, clearConfig())
	require.NoError(t, err)
	require.NoError(t, s.Append(mapletest.NewSealer(true, 90, testIV).Seal([]byte{0x01})))

	_, err = s.Read(time.Now())
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestStreamCascadeOutput(t *testing.T) {
	s, err := NewStream(true, 95, Global, testIV, 1, clearConfig())
	require.NoError(t, err)
	require.Equal(t, AES|MapleCrypto|ShiftIV, s.Methods())

	cipherText := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F}
	require.NoError(t, s.Append(mapletest.NewSealer(true, 95, testIV).Seal(cipherText)))

	got := drain(t, s, time.Now())
	require.Len(t, got, 1)
	assert.Equal(t, uint16(0x06F8), got[0].Opcode)
	assert.Equal(t, []byte{0x06, 0x52, 0xE0, 0xC1, 0xC2, 0xA4, 0x61, 0x35, 0x05, 0x61, 0x18, 0xA3, 0x36, 0x12}, got[0].Payload())
}

func TestStreamNamesFromDefinitions(t *testing.T) {
	cfg := clearConfig()
	cfg.Definitions = definition.New(definition.Definition{Build: 90, Locale: byte(Taiwan), Outbound: true, Opcode: 0x0014, Name: "Ping"})
	s, err := NewStream(true, 90, Taiwan, testIV, 1, cfg)
	require.NoError(t, err)

	sealer := mapletest.NewSealer(true, 90, testIV)
	require.NoError(t, s.Append(sealer.Frame(0x0014, nil)))
	require.NoError(t, s.Append(sealer.Frame(0x0015, nil)))

	got := drain(t, s, time.Now())
	require.Len(t, got, 2)
	assert.Equal(t, "Ping", got[0].Name)
	assert.Empty(t, got[1].Name)
}

func TestStreamBufferLimit(t *testing.T) {
	cfg := clearConfig()
	cfg.MaxBufferBytes = 8
	s, err := NewStream(true, 90, Taiwan, testIV, 1, cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Append(make([]byte, 9)), buffer.ErrOverflow)
}

func TestNewStreamUnknownCipher(t *testing.T) {
	_, err := NewStream(true, 90, Taiwan, testIV, 1, Config{Cipher: "missing"})
	assert.Error(t, err)
}
