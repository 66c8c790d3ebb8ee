package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("aes-gcm", Params{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Contains(t, Providers(), "clear")
}

func TestClearHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		length int
		legacy bool
	}{
		{name: "masked", length: 1234},
		{name: "masked zero", length: 0},
		{name: "legacy", length: 77, legacy: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("clear", Params{Version: 95, IV: [4]byte{1, 2, 3, 4}})
			require.NoError(t, err)
			cl := c.(*Clear)

			hdr := cl.Seal(tt.length, tt.legacy)
			assert.True(t, c.ConfirmHeader(hdr, 0))
			assert.Equal(t, tt.length, c.HeaderLength(hdr, 0, tt.legacy))
		})
	}
}

func TestClearShiftIVInvalidatesHeader(t *testing.T) {
	c, err := NewClear(Params{Version: 0xFFFF - 95, IV: [4]byte{0xFF, 0xFF, 0, 0}})
	require.NoError(t, err)
	hdr := c.(*Clear).Seal(10, false)
	before := c.IV()

	c.ShiftIV()
	assert.Equal(t, before+1, c.IV())
	assert.Equal(t, uint32(0x10000), c.IV())
	assert.False(t, c.ConfirmHeader(hdr, 0), "header sealed under an older IV must be rejected")
	assert.False(t, c.ConfirmHeader(hdr[:3], 0))
}
