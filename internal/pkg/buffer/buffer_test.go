package buffer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamGrowth(t *testing.T) {
	s := NewStream(0)
	require.Equal(t, DefaultSize, s.Cap())

	require.NoError(t, s.Append(make([]byte, DefaultSize)))
	assert.Equal(t, DefaultSize, s.Cap(), "exact fit must not grow")

	require.NoError(t, s.Append([]byte{1}))
	assert.Equal(t, 2*DefaultSize, s.Cap())

	require.NoError(t, s.Append(make([]byte, 5*DefaultSize)))
	assert.Equal(t, 8*DefaultSize, s.Cap(), "doubling repeats until the segment fits")
	assert.Equal(t, 6*DefaultSize+1, s.Len())
}

func TestStreamConsumeKeepsOrder(t *testing.T) {
	s := NewStream(0)
	require.NoError(t, s.Append([]byte("hello ")))
	require.NoError(t, s.AppendRange([]byte("xxworldxx"), 2, 5))
	assert.Equal(t, []byte("hello world"), s.Bytes())

	capBefore := s.Cap()
	s.Consume(6)
	assert.Equal(t, []byte("world"), s.Bytes())
	assert.Equal(t, capBefore, s.Cap(), "backing storage never shrinks")

	s.Consume(100)
	assert.Zero(t, s.Len())
}

func TestStreamDrainsToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		appends []int
		drains  []int
	}{
		{name: "single", appends: []int{10}, drains: []int{10}},
		{name: "many small appends one drain", appends: []int{1, 2, 3, 4, 5}, drains: []int{15}},
		{name: "one append many drains", appends: []int{9000}, drains: []int{1, 4000, 4999}},
		{name: "interleaved sizes", appends: []int{4096, 1, 8191}, drains: []int{7, 7, 12274}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStream(0)
			var want []byte
			for i, n := range tt.appends {
				chunk := bytes.Repeat([]byte{byte(i + 1)}, n)
				want = append(want, chunk...)
				require.NoError(t, s.Append(chunk))
			}
			for _, n := range tt.drains {
				require.Equal(t, want[:n], s.Bytes()[:n])
				want = want[n:]
				s.Consume(n)
			}
			assert.Zero(t, s.Len())
		})
	}
}

func TestStreamLimit(t *testing.T) {
	s := NewStream(8)
	require.NoError(t, s.Append(make([]byte, 8)))
	err := s.Append([]byte{0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOverflow))
	assert.Equal(t, 8, s.Len(), "rejected append leaves the stream untouched")
}

func TestStreamAppendRangeBounds(t *testing.T) {
	s := NewStream(0)
	assert.Error(t, s.AppendRange([]byte{1, 2, 3}, 2, 5))
	assert.Zero(t, s.Len())
}
