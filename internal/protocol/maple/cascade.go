package maple

func rollLeft(b byte, n int) byte {
	n %= 8
	return b<<n | b>>(8-n)
}

func rollRight(b byte, n int) byte {
	n %= 8
	return b>>n | b<<(8-n)
}

// decryptCascade undoes the keyless six round whitening layer in place.
// Even rounds walk forward, odd rounds walk backward.
func decryptCascade(buf []byte) {
	for round := 1; round <= 6; round++ {
		var first, second byte
		length := byte(len(buf))
		if round%2 == 0 {
			for i := 0; i < len(buf); i++ {
				b := buf[i]
				b -= 0x48
				b = ^b
				b = rollLeft(b, int(length))
				second = b
				b ^= first
				first = second
				b -= length
				b = rollRight(b, 3)
				buf[i] = b
				length--
			}
		} else {
			for i := len(buf) - 1; i >= 0; i-- {
				b := buf[i]
				b = rollLeft(b, 3)
				b ^= 0x13
				second = b
				b ^= first
				first = second
				b -= length
				b = rollRight(b, 4)
				buf[i] = b
				length--
			}
		}
	}
}
