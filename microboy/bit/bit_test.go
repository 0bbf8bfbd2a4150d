package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineAndSplit(t *testing.T) {
	testCases := []struct {
		desc      string
		high, low uint8
		word      uint16
	}{
		{"mixed", 0xAB, 0xCD, 0xABCD},
		{"zero", 0x00, 0x00, 0x0000},
		{"all ones", 0xFF, 0xFF, 0xFFFF},
		{"high only", 0x80, 0x00, 0x8000},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.word, Combine(tc.high, tc.low))
			assert.Equal(t, tc.high, High(tc.word))
			assert.Equal(t, tc.low, Low(tc.word))
		})
	}
}

func TestBitOps(t *testing.T) {
	assert.True(t, IsSet(1, 0b10101010))
	assert.False(t, IsSet(0, 0b10101010))
	assert.True(t, IsSet16(15, 0x8000))
	assert.False(t, IsSet16(14, 0x8000))

	assert.Equal(t, uint8(0b00000101), Set(2, 0b00000001))
	assert.Equal(t, uint8(0b00000001), Reset(2, 0b00000101))
	assert.Equal(t, uint8(0x80), SetTo(7, 0x00, true))
	assert.Equal(t, uint8(0x00), SetTo(7, 0x80, false))

	assert.Equal(t, uint8(1), Value(3, 0x08))
	assert.Equal(t, uint8(0), Value(4, 0x08))
}

func TestExtract(t *testing.T) {
	testCases := []struct {
		desc      string
		value     uint8
		high, low uint8
		expected  uint8
	}{
		{"middle bits", 0b11010110, 6, 4, 0b101},
		{"low nibble", 0xA5, 3, 0, 0x5},
		{"high nibble", 0xA5, 7, 4, 0xA},
		{"single bit", 0x80, 7, 7, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, Extract(tc.value, tc.high, tc.low))
		})
	}
}
