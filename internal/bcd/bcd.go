// internal/bcd/bcd.go

// Package bcd converts between binary and packed binary-coded decimal bytes.
package bcd

// FromBinary packs v (0..99) as two decimal digits, tens in the high nibble.
func FromBinary(v byte) byte {
	return (v/10)<<4 | v%10
}

// ToBinary unpacks a two digit BCD byte.
func ToBinary(b byte) byte {
	return 10*(b>>4) + b&0x0F
}

// Valid reports whether both nibbles of b are decimal digits.
func Valid(b byte) bool {
	return b>>4 <= 9 && b&0x0F <= 9
}
