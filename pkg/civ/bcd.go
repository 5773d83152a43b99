package civ

import (
	"errors"
	"fmt"
)

// Frequency field widths in bytes.
const (
	FreqLen    = 5 // up to 9.999999999 GHz
	FreqLen731 = 4 // IC-731 dialect
)

// ErrInvalidBCD indicates a nibble outside 0-9.
var ErrInvalidBCD = errors.New("civ: invalid BCD digit")

// ToBCD packs v into n bytes of BCD, least significant digit pair first.
// Digits that do not fit into n bytes are discarded.
func ToBCD(v uint64, n int) []byte {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		lo := v % 10
		v /= 10
		hi := v % 10
		v /= 10
		b[i] = byte(hi<<4 | lo)
	}
	return b
}

// FromBCD unpacks little-endian BCD.
func FromBCD(b []byte) (uint64, error) {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		hi, lo := b[i]>>4, b[i]&0x0f
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidBCD, b[i], i)
		}
		v = v*100 + uint64(hi)*10 + uint64(lo)
	}
	return v, nil
}

// ToBCDBE packs v into n bytes of BCD, most significant digit pair first.
func ToBCDBE(v uint64, n int) []byte {
	b := ToBCD(v, n)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// FromBCDBE unpacks big-endian BCD.
func FromBCDBE(b []byte) (uint64, error) {
	var v uint64
	for i, c := range b {
		hi, lo := c>>4, c&0x0f
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("%w: 0x%02x at offset %d", ErrInvalidBCD, c, i)
		}
		v = v*100 + uint64(hi)*10 + uint64(lo)
	}
	return v, nil
}

// EncodeFreq encodes a frequency in Hz for the wire.
func EncodeFreq(hz uint64, civ731 bool) []byte {
	if civ731 {
		return ToBCD(hz, FreqLen731)
	}
	return ToBCD(hz, FreqLen)
}

// DecodeFreq decodes a wire frequency in Hz.
func DecodeFreq(b []byte) (uint64, error) {
	if len(b) != FreqLen && len(b) != FreqLen731 {
		return 0, fmt.Errorf("%w: frequency field is %d bytes", ErrMalformedFrame, len(b))
	}
	return FromBCD(b)
}

func validBCD(b []byte) bool {
	for _, c := range b {
		if c>>4 > 9 || c&0x0f > 9 {
			return false
		}
	}
	return true
}
