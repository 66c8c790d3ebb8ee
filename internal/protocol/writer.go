package protocol

import (
	"encoding/binary"
	"math"
)

// Writer builds little-endian buffers in the layout Reader consumes.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) WriteUint8(v byte) { w.buf = append(w.buf, v) }

func (w *Writer) WriteUint16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) WriteUint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) WriteUint64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *Writer) WriteFlippedInt64(v int64) {
	w.WriteUint32(uint32(uint64(v) >> 32))
	w.WriteUint32(uint32(v))
}

func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

func (w *Writer) WriteBytes(p []byte) { w.buf = append(w.buf, p...) }

func (w *Writer) WriteMapleString(s string) {
	w.WriteUint16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WritePaddedString writes s truncated or zero padded to width bytes.
func (w *Writer) WritePaddedString(s string, width int) {
	field := make([]byte, width)
	copy(field, s)
	w.buf = append(w.buf, field...)
}
