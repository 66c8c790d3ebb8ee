package maple

import (
	"fmt"
	"strconv"
	"strings"
)

// Locale is the region byte announced in the handshake.
type Locale byte

const (
	Global        Locale = 0x00
	KoreaTest     Locale = 0x01
	Korea         Locale = 0x02
	Japan         Locale = 0x03
	China         Locale = 0x04
	Tespia        Locale = 0x05
	Taiwan        Locale = 0x06
	SouthEastAsia Locale = 0x07

	// MaxLocale is the highest locale value accepted in a handshake.
	MaxLocale Locale = 0x12
)

var localeNames = map[Locale]string{
	Global:        "Global",
	KoreaTest:     "KoreaTest",
	Korea:         "Korea",
	Japan:         "Japan",
	China:         "China",
	Tespia:        "Tespia",
	Taiwan:        "Taiwan",
	SouthEastAsia: "SouthEastAsia",
}

func (l Locale) String() string {
	if name, ok := localeNames[l]; ok {
		return name
	}
	return "Locale(" + strconv.Itoa(int(l)) + ")"
}

// packedVersion reports whether the handshake of this locale carries the real
// version packed into the patch location string.
func packedVersion(l Locale, version uint16) bool {
	return l == Korea || (l == KoreaTest && version > 255)
}

// ParseLocale accepts a locale name, case insensitive, or its numeric value.
func ParseLocale(s string) (Locale, error) {
	for l, name := range localeNames {
		if strings.EqualFold(name, s) {
			return l, nil
		}
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown locale %q", s)
	}
	if Locale(n) > MaxLocale {
		return 0, fmt.Errorf("%w: %d", ErrLocaleOutOfRange, n)
	}
	return Locale(n), nil
}
