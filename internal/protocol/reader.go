package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrEndOfBuffer is returned by every Reader method when the requested width
// does not fit in the remaining bytes. The cursor is not moved in that case.
var ErrEndOfBuffer = errors.New("end of buffer")

// Reader is a bounds-checked little-endian cursor over an immutable buffer.
// A Reader is owned by a single consumer at a time.
type Reader struct {
	buf    []byte
	cursor int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Len() int       { return len(r.buf) }
func (r *Reader) Cursor() int    { return r.cursor }
func (r *Reader) Remaining() int { return len(r.buf) - r.cursor }
func (r *Reader) Rewind()        { r.cursor = 0 }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.cursor+n > len(r.buf) {
		return nil, ErrEndOfBuffer
	}
	b := r.buf[r.cursor : r.cursor+n]
	r.cursor += n
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadByte()
	return int8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFlippedInt64 reads a 64-bit value stored as its high 32-bit half
// followed by its low half, each half little-endian.
func (r *Reader) ReadFlippedInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	hi := uint64(binary.LittleEndian.Uint32(b[0:4]))
	lo := uint64(binary.LittleEndian.Uint32(b[4:8]))
	return int64(hi<<32 | lo), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadInto fills p completely or not at all.
func (r *Reader) ReadInto(p []byte) error {
	b, err := r.take(len(p))
	if err != nil {
		return err
	}
	copy(p, b)
	return nil
}

// ReadPaddedString reads a fixed width, zero padded ASCII field. The cursor
// always advances by width.
func (r *Reader) ReadPaddedString(width int) (string, error) {
	b, err := r.take(width)
	if err != nil {
		return "", err
	}
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n]), nil
}

// ReadMapleString reads an ASCII string prefixed by its uint16 length.
func (r *Reader) ReadMapleString() (string, error) {
	if r.Remaining() < 2 {
		return "", ErrEndOfBuffer
	}
	n := int(binary.LittleEndian.Uint16(r.buf[r.cursor:]))
	if r.Remaining() < 2+n {
		return "", ErrEndOfBuffer
	}
	r.cursor += 2
	b, _ := r.take(n)
	return string(b), nil
}
