package buffer

import (
	"errors"
	"fmt"
)

// DefaultSize is the initial backing capacity of a Stream.
const DefaultSize = 4096

var ErrOverflow = errors.New("stream exceeds buffer limit")

// Stream is an append-only byte accumulator. Appended bytes stay available,
// in order, until Consume removes them from the front. The backing array
// grows by doubling and is never shrunk.
type Stream struct {
	buf   []byte
	n     int
	limit int
}

// NewStream returns an empty stream. A limit <= 0 means unbounded.
func NewStream(limit int) *Stream {
	return &Stream{
		buf:   make([]byte, DefaultSize),
		limit: limit,
	}
}

func (s *Stream) Append(p []byte) error {
	return s.AppendRange(p, 0, len(p))
}

func (s *Stream) AppendRange(p []byte, start, length int) error {
	if start < 0 || length < 0 || start+length > len(p) {
		return fmt.Errorf("append range [%d:%d] out of bounds for %d bytes", start, start+length, len(p))
	}
	if s.limit > 0 && s.n+length > s.limit {
		return fmt.Errorf("%w: %d buffered + %d appended > %d", ErrOverflow, s.n, length, s.limit)
	}
	if len(s.buf)-s.n < length {
		size := len(s.buf) * 2
		if size == 0 {
			size = DefaultSize
		}
		for size < s.n+length {
			size *= 2
		}
		grown := make([]byte, size)
		copy(grown, s.buf[:s.n])
		s.buf = grown
	}
	copy(s.buf[s.n:], p[start:start+length])
	s.n += length
	return nil
}

// Bytes returns the live region. The slice aliases internal storage and is
// only valid until the next Append or Consume.
func (s *Stream) Bytes() []byte { return s.buf[:s.n] }

func (s *Stream) Len() int { return s.n }

func (s *Stream) Cap() int { return len(s.buf) }

// Consume drops the first n live bytes and shifts the remainder to offset 0.
func (s *Stream) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= s.n {
		s.n = 0
		return
	}
	copy(s.buf, s.buf[n:s.n])
	s.n -= n
}
