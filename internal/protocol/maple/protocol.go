// Package maple implements the MapleStory session protocol: handshake
// parsing, per-locale transform selection and frame decoding.
package maple

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"mapletap/internal/definition"
	"mapletap/internal/flog"
	"mapletap/internal/protocol"
)

const (
	// HandshakeOpcode is the reserved opcode of the synthesized handshake packet.
	HandshakeOpcode uint16 = 0xFFFF
	HandshakeName          = "Maple Handshake"

	// MinHandshakeSize is the smallest first payload considered a handshake.
	MinHandshakeSize = 13
)

var (
	ErrMalformedHandshake = errors.New("malformed handshake")
	ErrLocaleOutOfRange   = errors.New("handshake locale out of range")
)

type Protocol struct {
	version       uint16
	subVersion    byte
	locale        Locale
	patchLocation string

	inbound  *Stream
	outbound *Stream
}

func (p *Protocol) Name() string { return "MapleStory" }

func (p *Protocol) Inbound() protocol.Stream  { return p.inbound }
func (p *Protocol) Outbound() protocol.Stream { return p.outbound }

func (p *Protocol) InboundStream() *Stream  { return p.inbound }
func (p *Protocol) OutboundStream() *Stream { return p.outbound }

func (p *Protocol) Version() uint16       { return p.version }
func (p *Protocol) SubVersion() byte      { return p.subVersion }
func (p *Protocol) Locale() Locale        { return p.locale }
func (p *Protocol) PatchLocation() string { return p.patchLocation }

func (p *Protocol) OpcodeWidth() int {
	if p.outbound.UsesByteHeader() {
		return 1
	}
	return 2
}

// ScriptLocation is the relative path of the field layout script of a packet.
func (p *Protocol) ScriptLocation(pk *protocol.Packet) string {
	return filepath.Join(
		strconv.Itoa(int(pk.Locale)),
		strconv.Itoa(int(pk.Version)),
		pk.Direction(),
		fmt.Sprintf("0x%04X.txt", pk.Opcode),
	)
}

func (p *Protocol) CommonScriptLocation() string {
	return filepath.Join(strconv.Itoa(int(p.locale)), strconv.Itoa(int(p.version)), "Common.txt")
}

func (p *Protocol) EnrichSessionInfo(info map[string]string) {
	info["Protocol"] = p.Name()
	info["Version"] = strconv.Itoa(int(p.version))
	info["Sub Version"] = strconv.Itoa(int(p.subVersion))
	info["Locale"] = p.locale.String()
	info["Patch Location"] = p.patchLocation
	info["Transform"] = p.outbound.Methods().String()
}

// Factory builds protocols from handshakes with a shared stream configuration.
// It is not safe for concurrent use.
type Factory struct {
	cfg Config
}

func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg}
}

// Parser adapts the factory to the session layer.
func (f *Factory) Parser() protocol.HandshakeParser {
	return func(data []byte, ts time.Time) (protocol.Protocol, *protocol.Packet, error) {
		p, hs, err := f.ParseHandshake(data, ts)
		if err != nil {
			return nil, nil, err
		}
		return p, hs, nil
	}
}

// Definitions is the current snapshot, including handshake definitions
// registered by ParseHandshake.
func (f *Factory) Definitions() *definition.Repository { return f.cfg.Definitions }

// ParseHandshake decodes the server hello:
//
//	u16 size | u16 version | u16-prefixed patch location | 4 local IV | 4 remote IV | u8 locale
func (f *Factory) ParseHandshake(data []byte, ts time.Time) (*Protocol, *protocol.Packet, error) {
	r := protocol.NewReader(data)
	if _, err := r.ReadUint16(); err != nil {
		return nil, nil, fmt.Errorf("%w: size: %v", ErrMalformedHandshake, err)
	}
	version, err := r.ReadUint16()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: version: %v", ErrMalformedHandshake, err)
	}
	patchLocation, err := r.ReadMapleString()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: patch location: %v", ErrMalformedHandshake, err)
	}
	var localIV, remoteIV [4]byte
	if err := r.ReadInto(localIV[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: local iv: %v", ErrMalformedHandshake, err)
	}
	if err := r.ReadInto(remoteIV[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: remote iv: %v", ErrMalformedHandshake, err)
	}
	b, err := r.ReadByte()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: locale: %v", ErrMalformedHandshake, err)
	}
	locale := Locale(b)
	if locale > MaxLocale {
		return nil, nil, fmt.Errorf("%w: %d", ErrLocaleOutOfRange, locale)
	}

	subVersion := byte(1)
	if packedVersion(locale, version) {
		packed, err := strconv.ParseInt(patchLocation, 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: packed version %q: %v", ErrMalformedHandshake, patchLocation, err)
		}
		version = uint16(packed & 0x7FFF)
		subVersion = byte(packed >> 16)
	} else if isDigits(patchLocation) {
		v, err := strconv.ParseUint(patchLocation, 10, 8)
		if err != nil {
			flog.Warnf("Failed to parse subVersion from %q: %v", patchLocation, err)
			subVersion = 0
		} else {
			subVersion = byte(v)
		}
	}

	if _, ok := f.cfg.Definitions.Lookup(version, byte(locale), false, HandshakeOpcode); !ok {
		f.cfg.Definitions = f.cfg.Definitions.With(definition.Definition{
			Build:  version,
			Locale: byte(locale),
			Opcode: HandshakeOpcode,
			Name:   HandshakeName,
		})
	}

	outbound, err := NewStream(true, version, locale, localIV, subVersion, f.cfg)
	if err != nil {
		return nil, nil, err
	}
	inbound, err := NewStream(false, version, locale, remoteIV, subVersion, f.cfg)
	if err != nil {
		return nil, nil, err
	}
	p := &Protocol{
		version:       version,
		subVersion:    subVersion,
		locale:        locale,
		patchLocation: patchLocation,
		inbound:       inbound,
		outbound:      outbound,
	}

	name := f.cfg.Definitions.Name(version, byte(locale), false, HandshakeOpcode)
	hs := protocol.NewPacket(protocol.Meta{
		Timestamp:    ts,
		Outbound:     false,
		Version:      version,
		Locale:       byte(locale),
		Opcode:       HandshakeOpcode,
		Name:         name,
		PostDecodeIV: binary.LittleEndian.Uint32(remoteIV[:]),
	}, data)
	return p, hs, nil
}

// isDigits is true for the empty string, matching how the announced patch
// location is classified.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
