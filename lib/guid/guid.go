/*
	Tiny workhorse for producing guids.

	The content is half time-based (so, ids sort roughly by creation)
	and half random (so, don't worry about collisions).  The exact
	format is not a promise; treat these as opaque.
*/
package guid

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

const size = 21

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

func New() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	t := uint64(time.Now().UnixNano() / int64(time.Millisecond))
	r := binary.BigEndian.Uint64(buf[:])
	return string(append(encode(t, 8), encode(r, 13)...))
}

// encode the low 5*n bits of x as n chars, most significant first.
func encode(x uint64, n int) []byte {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = alphabet[x&31]
		x >>= 5
	}
	return out
}
