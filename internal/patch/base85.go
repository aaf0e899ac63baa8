package patch

import (
	"errors"
	"math"
)

// base85Alphabet is git's base85 alphabet, which differs from ascii85.
const base85Alphabet = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"!#$%&()*+-;<=>?@^_`{|}~"

var errInvalidBase85 = errors.New("invalid base85 input")

// base85Decode maps a byte to its digit value plus one; zero marks a byte
// outside the alphabet.
var base85Decode = func() [256]byte {
	var t [256]byte
	for i := 0; i < len(base85Alphabet); i++ {
		t[base85Alphabet[i]] = byte(i + 1)
	}
	return t
}()

// decodeBase85 decodes src, a multiple of five characters, into exactly n
// bytes. Each five-character group yields four big-endian bytes; the last
// group may be truncated to n.
func decodeBase85(src []byte, n int) ([]byte, error) {
	if len(src)%5 != 0 || n > len(src)/5*4 {
		return nil, errInvalidBase85
	}

	out := make([]byte, 0, n)
	for len(out) < n {
		var acc uint32
		for i := 0; i < 4; i++ {
			d := base85Decode[src[i]]
			if d == 0 {
				return nil, errInvalidBase85
			}
			acc = acc*85 + uint32(d-1)
		}

		d := base85Decode[src[4]]
		if d == 0 {
			return nil, errInvalidBase85
		}
		if acc > math.MaxUint32/85 || math.MaxUint32-uint32(d-1) < acc*85 {
			return nil, errInvalidBase85
		}
		acc = acc*85 + uint32(d-1)
		src = src[5:]

		for i := 0; i < 4 && len(out) < n; i++ {
			out = append(out, byte(acc>>24))
			acc <<= 8
		}
	}
	return out, nil
}
