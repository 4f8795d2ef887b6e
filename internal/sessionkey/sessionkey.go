// Package sessionkey encodes the 64-bit correlation seed attached to every GWT-RPC call.
package sessionkey

// DefaultSeed is the seed the client tags its calls with unless configured otherwise.
const DefaultSeed uint64 = 0xC0FFEE

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789$_"

// Encode converts seed into the variable-length radix-64 token the backend expects.
// Leading zero groups are suppressed; the last two groups are always written.
func Encode(seed uint64) string {
	high := uint32(seed >> 32)
	low := uint32(seed)

	groups := [11]uint32{
		high >> 28 & 0xF,
		high >> 22 & 0x3F,
		high >> 16 & 0x3F,
		high >> 10 & 0x3F,
		high >> 4 & 0x3F,
		(high&0xF)<<2 | low>>30&0x3,
		low >> 24 & 0x3F,
		low >> 18 & 0x3F,
		low >> 12 & 0x3F,
		low >> 6 & 0x3F,
		low & 0x3F,
	}

	buf := make([]byte, 0, len(groups))
	started := false
	for i, g := range groups {
		if g != 0 || i >= len(groups)-2 {
			started = true
		}
		if started {
			buf = append(buf, alphabet[g])
		}
	}
	return string(buf)
}
