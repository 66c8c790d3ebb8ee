package cipher

import "encoding/binary"

// Clear frames traffic whose payload is not encrypted. The header is masked
// with the IV and version the same way as the encrypted variants, so header
// confirmation still detects stream desynchronisation. Payload transforms are
// no-ops and the IV advances as a little-endian counter.
type Clear struct {
	version uint16
	iv      [4]byte
}

func NewClear(p Params) (Cipher, error) {
	return &Clear{version: p.Version, iv: p.IV}, nil
}

func (c *Clear) tag() uint16 {
	return (uint16(c.iv[2]) | uint16(c.iv[3])<<8) ^ c.version
}

func (c *Clear) ConfirmHeader(buf []byte, offset int) bool {
	if offset < 0 || len(buf) < offset+4 {
		return false
	}
	return binary.LittleEndian.Uint16(buf[offset:]) == c.tag()
}

// HeaderLength unmasks the length word. Legacy headers carry it in clear.
func (c *Clear) HeaderLength(buf []byte, offset int, legacy bool) int {
	if offset < 0 || len(buf) < offset+4 {
		return 0
	}
	length := binary.LittleEndian.Uint16(buf[offset+2:])
	if legacy {
		return int(length)
	}
	return int(length ^ binary.LittleEndian.Uint16(buf[offset:]))
}

// Seal builds the header for a payload of the given length under the current IV.
func (c *Clear) Seal(length int, legacy bool) []byte {
	tag := c.tag()
	word := uint16(length)
	if !legacy {
		word ^= tag
	}
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint16(hdr[0:], tag)
	binary.LittleEndian.PutUint16(hdr[2:], word)
	return hdr
}

func (c *Clear) TransformAES([]byte)    {}
func (c *Clear) TransformKMS([]byte)    {}
func (c *Clear) TransformOldKMS([]byte) {}

func (c *Clear) ShiftIV() {
	binary.LittleEndian.PutUint32(c.iv[:], binary.LittleEndian.Uint32(c.iv[:])+1)
}

func (c *Clear) ShiftIVOld() { c.ShiftIV() }

func (c *Clear) IV() uint32 { return binary.LittleEndian.Uint32(c.iv[:]) }
