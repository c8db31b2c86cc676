package hwio

// word is the value of a register or of a bus access.
type word interface {
	~uint8 | ~uint16 | ~uint32
}

// Bit reports whether bit n of v is set.
func Bit[T word](v T, n uint) bool {
	return v>>n&1 != 0
}

// Bits returns the width bits of v starting at bit lo.
func Bits[T word](v T, lo, width uint) T {
	return v >> lo & (1<<width - 1)
}

// SetBit sets bit n of v to b.
func SetBit[T word](v *T, n uint, b bool) {
	if b {
		*v |= 1 << n
	} else {
		*v &^= 1 << n
	}
}
