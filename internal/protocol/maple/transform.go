package maple

import (
	"strings"

	"mapletap/internal/cipher"
)

// TransformMethod is the set of stages applied to every frame of a stream.
type TransformMethod int

const (
	AES TransformMethod = 1 << (iota + 1)
	MapleCrypto
	OldKMSCrypto
	KMSCrypto
	ShiftIV
	ShiftIVOld

	None TransformMethod = 0
)

var methodNames = []struct {
	m    TransformMethod
	name string
}{
	{AES, "AES"},
	{MapleCrypto, "MAPLE_CRYPTO"},
	{KMSCrypto, "KMS_CRYPTO"},
	{OldKMSCrypto, "OLD_KMS_CRYPTO"},
	{ShiftIV, "SHIFT_IV"},
	{ShiftIVOld, "SHIFT_IV_OLD"},
}

func (m TransformMethod) Has(o TransformMethod) bool { return m&o != 0 }

func (m TransformMethod) String() string {
	if m == None {
		return "NONE"
	}
	var parts []string
	for _, n := range methodNames {
		if m.Has(n.m) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " | ")
}

// SelectTransform resolves the stages for a client build and locale, and
// whether frames use a single byte opcode.
func SelectTransform(build uint16, locale Locale) (TransformMethod, bool) {
	switch {
	case (locale == Tespia && build == 40) || (locale == SouthEastAsia && build == 15):
		return MapleCrypto | ShiftIV, true
	case locale == KoreaTest && build == 255:
		return OldKMSCrypto | ShiftIVOld, true
	case locale == Taiwan, locale == China, locale == Tespia, locale == Japan,
		locale == Global && int16(build) >= 149,
		locale == Korea && build >= 221,
		locale == SouthEastAsia && build >= 144:
		return AES | ShiftIV, false
	case locale == Korea, locale == KoreaTest:
		return KMSCrypto, false
	}
	return AES | MapleCrypto | ShiftIV, false
}

// Pipeline runs the selected stages over a frame. The IV is advanced by the
// shift stages only, once per Decrypt call.
type Pipeline struct {
	c       cipher.Cipher
	methods TransformMethod
}

func NewPipeline(c cipher.Cipher, methods TransformMethod) *Pipeline {
	return &Pipeline{c: c, methods: methods}
}

func (p *Pipeline) Methods() TransformMethod { return p.methods }

func (p *Pipeline) IV() uint32 { return p.c.IV() }

func (p *Pipeline) Decrypt(buf []byte) {
	if p.methods.Has(AES) {
		p.c.TransformAES(buf)
	}
	if p.methods.Has(MapleCrypto) {
		decryptCascade(buf)
	}
	if p.methods.Has(KMSCrypto) {
		p.c.TransformKMS(buf)
	}
	if p.methods.Has(OldKMSCrypto) {
		p.c.TransformOldKMS(buf)
	}
	if p.methods.Has(ShiftIV) {
		p.c.ShiftIV()
	}
	if p.methods.Has(ShiftIVOld) {
		p.c.ShiftIVOld()
	}
}
