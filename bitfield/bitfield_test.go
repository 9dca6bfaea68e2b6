package bitfield

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		register byte
		offset   int
		width    int
		expected byte
	}{
		{0b10110100, 2, 3, 0b101},
		{0b10110100, 0, 3, 0b100},
		{0b10110100, 4, 3, 0b011},
		{0b10110100, 7, 1, 0b1},
		{0b10110100, 0, 8, 0b10110100},
		{0x00, 3, 4, 0x00},
		{0xFF, 5, 3, 0b111},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%08b@%d:%d", test.register, test.offset, test.width), func(t *testing.T) {
			assert.Equal(t, test.expected, Get(test.register, test.offset, test.width))
		})
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		register byte
		value    byte
		offset   int
		width    int
		expected byte
	}{
		{0x00, 0b111, 0, 3, 0b00000111},
		{0xFF, 0b000, 0, 3, 0b11111000},
		{0b00100000, 0b110, 4, 3, 0b01100000},
		{0b10110100, 0b1, 0, 1, 0b10110101},
		// value wider than the field is truncated to width bits
		{0x00, 0xFF, 2, 3, 0b00011100},
		{0b01010101, 0xAB, 0, 8, 0xAB},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%08b<-%08b@%d:%d", test.register, test.value, test.offset, test.width), func(t *testing.T) {
			assert.Equal(t, test.expected, Set(test.register, test.value, test.offset, test.width))
		})
	}
}

// Round trip: whatever Set stores, Get returns, modulo width truncation.
func TestSetGetRoundTrip(t *testing.T) {
	registers := []byte{0x00, 0xFF, 0b10101010, 0b01010101, 0x3C}
	values := []byte{0x00, 0x01, 0x07, 0xFF, 0xA5}
	for offset := 0; offset < 8; offset++ {
		for width := 1; offset+width <= 8; width++ {
			mask := byte(1<<width-1) << offset
			for _, reg := range registers {
				for _, val := range values {
					got := Set(reg, val, offset, width)
					assert.Equal(t, val&byte(1<<width-1), Get(got, offset, width),
						"round trip reg=%08b val=%08b offset=%d width=%d", reg, val, offset, width)
					// bits outside the field must survive untouched
					assert.Equal(t, reg&^mask, got&^mask,
						"outside bits reg=%08b val=%08b offset=%d width=%d", reg, val, offset, width)
				}
			}
		}
	}
}

func TestFlags(t *testing.T) {
	for offset := 0; offset < 8; offset++ {
		assert.True(t, GetFlag(0xFF, offset))
		assert.False(t, GetFlag(0x00, offset))
		assert.Equal(t, byte(1)<<offset, SetFlag(0x00, true, offset))
		assert.Equal(t, byte(0xFF)&^(1<<offset), SetFlag(0xFF, false, offset))
	}
	// width-1 reads are strictly 0 or 1
	for reg := 0; reg < 256; reg++ {
		for offset := 0; offset < 8; offset++ {
			got := Get(byte(reg), offset, 1)
			assert.LessOrEqual(t, got, byte(1))
		}
	}
}
