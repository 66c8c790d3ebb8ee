package cipher

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownProvider = errors.New("unknown cipher provider")

// Cipher is the per-direction transform state of a game stream. Implementations
// own the rolling 4-byte IV; the decoder only decides which transforms to run.
type Cipher interface {
	// ConfirmHeader reports whether the 4-byte frame header at offset matches
	// the current IV and version.
	ConfirmHeader(buf []byte, offset int) bool
	// HeaderLength returns the payload length encoded in the frame header.
	HeaderLength(buf []byte, offset int, legacy bool) int

	TransformAES(buf []byte)
	TransformKMS(buf []byte)
	TransformOldKMS(buf []byte)

	ShiftIV()
	ShiftIVOld()

	// IV returns the current IV read as a little-endian uint32.
	IV() uint32
}

// Params seed a new cipher. Version is already direction adjusted by the caller.
type Params struct {
	Version    uint16
	Locale     byte
	IV         [4]byte
	SubVersion byte
}

// NewFunc is a constructor function for creating ciphers
type NewFunc func(p Params) (Cipher, error)

// Registry maps provider names to constructor functions
var Registry = map[string]NewFunc{
	"clear": NewClear,
}

// New creates a cipher from the named provider
func New(name string, p Params) (Cipher, error) {
	fn, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return fn(p)
}

// Providers lists the registered provider names in sorted order.
func Providers() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
