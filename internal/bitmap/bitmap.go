// Package bitmap implements the NSEC/NSEC3/CSYNC type-bitmap wire
// format from RFC 4034 §4.1.2: a sequence of windows, each a
// (window number, bitmap length, bitmap octets) triple covering 256
// contiguous type numbers, MSB-first within each octet.
package bitmap

import (
	"sort"

	"github.com/nazarii-m/dnscore/internal/errs"
)

const (
	minWindowLength = 1
	maxWindowLength = 32
)

// Encode converts a set of 16-bit type numbers into RFC 4034 §4.1.2
// wire format: types are deduplicated, grouped by window (types
// 0-255 in window 0, 256-511 in window 1, ...), and each window's
// bitmap is trimmed of trailing zero octets.
func Encode(types []uint16) []byte {
	windows := map[uint8][256]bool{}
	order := []uint8{}
	for _, t := range types {
		w := uint8(t >> 8)
		bit := uint8(t)
		bits, ok := windows[w]
		if !ok {
			order = append(order, w)
		}
		bits[bit] = true
		windows[w] = bits
	}
	// window numbers must be strictly increasing on the wire.
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	var out []byte
	for _, w := range order {
		bits := windows[w]
		octets := make([]byte, 32)
		maxSet := -1
		for i := 0; i < 256; i++ {
			if bits[i] {
				octets[i/8] |= 0x80 >> uint(i%8)
				maxSet = i / 8
			}
		}
		length := maxSet + 1
		if length < minWindowLength {
			continue
		}
		out = append(out, w, byte(length))
		out = append(out, octets[:length]...)
	}
	return out
}

// Decode parses RFC 4034 §4.1.2 wire format back into a sorted,
// deduplicated list of type numbers.
func Decode(b []byte) ([]uint16, error) {
	var types []uint16
	lastWindow := -1
	i := 0
	for i < len(b) {
		if i+2 > len(b) {
			return nil, &errs.EncodingError{Op: "decode bitmap", Offset: i, Msg: "truncated window header"}
		}
		window := int(b[i])
		length := int(b[i+1])
		if window <= lastWindow {
			return nil, &errs.EncodingError{Op: "decode bitmap", Offset: i, Msg: "windows must be strictly increasing"}
		}
		if length < minWindowLength || length > maxWindowLength {
			return nil, &errs.EncodingError{Op: "decode bitmap", Offset: i, Msg: "window length out of [1,32]"}
		}
		i += 2
		if i+length > len(b) {
			return nil, &errs.EncodingError{Op: "decode bitmap", Offset: i, Msg: "truncated window bitmap"}
		}
		for j := 0; j < length; j++ {
			octet := b[i+j]
			for bit := 0; bit < 8; bit++ {
				if octet&(0x80>>uint(bit)) != 0 {
					types = append(types, uint16(window)<<8|uint16(j*8+bit))
				}
			}
		}
		lastWindow = window
		i += length
	}
	return types, nil
}

// HasType reports whether the encoded bitmap covers the given type
// number, with a constant number of comparisons per window (the
// windows list is scanned, but within a window the bit test is O(1)).
func HasType(b []byte, t uint16) bool {
	window := uint8(t >> 8)
	bit := uint8(t)
	i := 0
	for i < len(b) {
		if i+2 > len(b) {
			return false
		}
		w := b[i]
		length := int(b[i+1])
		i += 2
		if i+length > len(b) {
			return false
		}
		if w == window {
			idx := int(bit) / 8
			if idx >= length {
				return false
			}
			return b[i+idx]&(0x80>>uint(bit%8)) != 0
		}
		i += length
	}
	return false
}
