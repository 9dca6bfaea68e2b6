// Package bitfield manipulates bit fields within single register bytes.
// Every CAP1203 setting lives in a field of 1-3 bits at a fixed offset
// inside one byte-wide register; no field spans two registers.
package bitfield

// Get extracts a width-bit field starting at bit offset (0 = LSB),
// right-justified. Callers must keep offset+width <= 8.
func Get(register byte, offset, width int) byte {
	mask := byte(1<<width - 1)
	return (register >> offset) & mask
}

// Set clears the target span and ORs in value shifted to offset, returning
// the updated byte. Values wider than the field are truncated to width bits
// (mask-then-OR), so a caller can pass a full byte and keep only the field.
func Set(register, value byte, offset, width int) byte {
	mask := byte(1<<width - 1)
	register &^= mask << offset
	return register | (value&mask)<<offset
}

// GetFlag reads a single-bit field as a boolean.
func GetFlag(register byte, offset int) bool {
	return Get(register, offset, 1) != 0
}

// SetFlag writes a single-bit field from a boolean.
func SetFlag(register byte, value bool, offset int) byte {
	var v byte
	if value {
		v = 1
	}
	return Set(register, v, offset, 1)
}
