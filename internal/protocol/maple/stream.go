package maple

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"mapletap/internal/cipher"
	"mapletap/internal/definition"
	"mapletap/internal/flog"
	"mapletap/internal/pkg/buffer"
	"mapletap/internal/protocol"
)

const headerSize = 4

var (
	ErrHeaderMismatch = errors.New("failed to confirm packet header")
	ErrShortFrame     = errors.New("frame shorter than its opcode")
)

// Config carries what every stream of a session needs besides its handshake values.
type Config struct {
	// Cipher names the cipher.Registry provider.
	Cipher string
	// MaxBufferBytes caps the bytes buffered per direction; <= 0 is unbounded.
	MaxBufferBytes int
	Definitions    *definition.Repository
}

// Stream frames and decrypts one direction of a connection.
type Stream struct {
	outbound   bool
	build      uint16
	locale     Locale
	byteHeader bool
	legacy     bool

	buf      *buffer.Stream
	pipeline *Pipeline
	defs     *definition.Repository
}

// NewStream seeds the cipher with build for the outbound direction and
// 0xFFFF-build for the inbound one.
func NewStream(outbound bool, build uint16, locale Locale, iv [4]byte, subVersion byte, cfg Config) (*Stream, error) {
	seed := build
	if !outbound {
		seed = 0xFFFF - build
	}
	c, err := cipher.New(cfg.Cipher, cipher.Params{
		Version:    seed,
		Locale:     byte(locale),
		IV:         iv,
		SubVersion: subVersion,
	})
	if err != nil {
		return nil, err
	}

	methods, byteHeader := SelectTransform(build, locale)
	flog.Debugf("Using transform methods: %s (locale %s, build %d)", methods, locale, build)

	return &Stream{
		outbound:   outbound,
		build:      build,
		locale:     locale,
		byteHeader: byteHeader,
		legacy:     build == 255 && locale == KoreaTest,
		buf:        buffer.NewStream(cfg.MaxBufferBytes),
		pipeline:   NewPipeline(c, methods),
		defs:       cfg.Definitions,
	}, nil
}

func (s *Stream) Append(p []byte) error { return s.buf.Append(p) }

func (s *Stream) Methods() TransformMethod { return s.pipeline.Methods() }

func (s *Stream) UsesByteHeader() bool { return s.byteHeader }

// Buffered is the number of bytes waiting for a complete frame.
func (s *Stream) Buffered() int { return s.buf.Len() }

func (s *Stream) Read(ts time.Time) (*protocol.Packet, error) {
	data := s.buf.Bytes()
	if len(data) < headerSize {
		return nil, nil
	}
	c := s.pipeline.c
	if !c.ConfirmHeader(data, 0) {
		return nil, ErrHeaderMismatch
	}
	size := c.HeaderLength(data, 0, s.legacy)
	if size < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrHeaderMismatch, size)
	}
	if len(data) < size+headerSize {
		return nil, nil
	}

	frame := make([]byte, size)
	copy(frame, data[headerSize:headerSize+size])

	preIV := s.pipeline.IV()
	s.pipeline.Decrypt(frame)
	postIV := s.pipeline.IV()

	s.buf.Consume(size + headerSize)

	var opcode uint16
	width := 2
	if s.byteHeader {
		width = 1
	}
	if len(frame) < width {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame))
	}
	if s.byteHeader {
		opcode = uint16(frame[0])
	} else {
		opcode = binary.LittleEndian.Uint16(frame)
	}

	return protocol.NewPacket(protocol.Meta{
		Timestamp:    ts,
		Outbound:     s.outbound,
		Version:      s.build,
		Locale:       byte(s.locale),
		Opcode:       opcode,
		Name:         s.defs.Name(s.build, byte(s.locale), s.outbound, opcode),
		PreDecodeIV:  preIV,
		PostDecodeIV: postIV,
	}, frame[width:]), nil
}
