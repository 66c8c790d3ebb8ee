// Package mapletest builds handshakes and clear-cipher frames for tests.
// Frames are only readable by streams whose transform set leaves the payload
// untouched under the clear provider, i.e. sets without MAPLE_CRYPTO.
package mapletest

import (
	"mapletap/internal/cipher"
	"mapletap/internal/protocol"
)

// Handshake encodes a server hello including its leading size field.
func Handshake(version uint16, patchLocation string, localIV, remoteIV [4]byte, locale byte) []byte {
	body := protocol.NewWriter()
	body.WriteUint16(version)
	body.WriteMapleString(patchLocation)
	body.WriteBytes(localIV[:])
	body.WriteBytes(remoteIV[:])
	body.WriteUint8(locale)

	w := protocol.NewWriter()
	w.WriteUint16(uint16(body.Len()))
	w.WriteBytes(body.Bytes())
	return w.Bytes()
}

// Sealer produces consecutive frames of one direction.
type Sealer struct {
	c      *cipher.Clear
	legacy bool
}

func NewSealer(outbound bool, build uint16, iv [4]byte) *Sealer {
	seed := build
	if !outbound {
		seed = 0xFFFF - build
	}
	c, _ := cipher.NewClear(cipher.Params{Version: seed, IV: iv})
	return &Sealer{c: c.(*cipher.Clear)}
}

// Legacy switches to headers with an unmasked length word.
func (s *Sealer) Legacy() *Sealer {
	s.legacy = true
	return s
}

// Seal frames plain as is and advances the IV.
func (s *Sealer) Seal(plain []byte) []byte {
	out := append(s.c.Seal(len(plain), s.legacy), plain...)
	s.c.ShiftIV()
	return out
}

func (s *Sealer) Frame(opcode uint16, body []byte) []byte {
	w := protocol.NewWriter()
	w.WriteUint16(opcode)
	w.WriteBytes(body)
	return s.Seal(w.Bytes())
}

func (s *Sealer) ByteFrame(opcode byte, body []byte) []byte {
	return s.Seal(append([]byte{opcode}, body...))
}

// IV is the IV the next frame will be sealed under.
func (s *Sealer) IV() uint32 { return s.c.IV() }
