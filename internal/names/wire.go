package names

import "github.com/nazarii-m/dnscore/internal/errs"

// Encode appends the wire-format encoding of n to dst, using comp to
// compress any suffix already seen earlier in the same message.
// comp may be nil to disable compression entirely (e.g. names that
// RFC 3597 requires newer RR types to leave uncompressed).
//
// This is invoked identically during the message codec's size pass
// and write pass; the caller is responsible for starting each pass
// with a freshly cleared comp so both passes agree.
func Encode(dst []byte, n Name, comp CompressionMap) []byte {
	labels := n.Labels
	keys := n.suffixKeys()
	for i := 0; i < len(labels); i++ {
		if comp != nil {
			if ptr, ok := comp[lowerKey(keys[i])]; ok {
				dst = append(dst, byte(pointerMask|(ptr>>8)), byte(ptr))
				return dst
			}
			if off := len(dst); off <= maxOffset {
				comp[lowerKey(keys[i])] = off
			}
		}
		dst = append(dst, byte(len(labels[i])))
		dst = append(dst, labels[i]...)
	}
	return append(dst, 0)
}

func lowerKey(k string) string {
	b := make([]byte, len(k))
	for i := 0; i < len(k); i++ {
		b[i] = asciiLower(k[i])
	}
	return string(b)
}

// Size returns the number of bytes Encode(dst, n, comp) would append,
// without mutating dst. comp IS mutated exactly as Encode would
// mutate it, so a size pass and a write pass using the same
// (initially identical) comp map agree on every offset.
func Size(n Name, atOffset int, comp CompressionMap) int {
	labels := n.Labels
	keys := n.suffixKeys()
	size := 0
	off := atOffset
	for i := 0; i < len(labels); i++ {
		if comp != nil {
			if _, ok := comp[lowerKey(keys[i])]; ok {
				return size + 2
			}
			if off <= maxOffset {
				comp[lowerKey(keys[i])] = off
			}
		}
		n := 1 + len(labels[i])
		size += n
		off += n
	}
	return size + 1
}

// Decode parses a name starting at offset within msg, following
// compression pointers per RFC 1035 §4.1.4. It rejects more than 10 pointer
// jumps, forward/self pointers, label lengths with reserved high
// bits, and names exceeding 255 wire octets.
func Decode(msg []byte, offset int) (Name, int, error) {
	if offset < 0 || offset >= len(msg) {
		return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: offset, Msg: "offset out of bounds"}
	}
	var labels []string
	pos := offset
	end := -1
	jumps := 0
	wireLen := 0
	for {
		if pos >= len(msg) {
			return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: pos, Msg: "truncated name"}
		}
		lead := msg[pos]
		switch lead & pointerMask {
		case pointerMask: // 11xxxxxx: compression pointer
			if pos+1 >= len(msg) {
				return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: pos, Msg: "truncated compression pointer"}
			}
			ptr := int(lead&^pointerMask)<<8 | int(msg[pos+1])
			if ptr >= pos {
				return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: pos, Msg: "compression pointer does not point backward"}
			}
			if end == -1 {
				end = pos + 2
			}
			jumps++
			if jumps > maxPointers {
				return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: pos, Msg: "too many compression pointers (loop?)"}
			}
			pos = ptr
			continue
		case 0x40, 0x80: // 01xxxxxx / 10xxxxxx: reserved label bits
			return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: pos, Msg: "reserved label length bits"}
		}
		length := int(lead)
		if length == 0 {
			if end == -1 {
				end = pos + 1
			}
			if len(labels) == 0 {
				return Name{}, end, nil
			}
			return Name{Labels: labels}, end, nil
		}
		if length > MaxLabelLength {
			return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: pos, Msg: "label exceeds 63 octets"}
		}
		if pos+1+length > len(msg) {
			return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: pos, Msg: "truncated label"}
		}
		labels = append(labels, string(msg[pos+1:pos+1+length]))
		wireLen += length + 1
		if wireLen+1 > MaxNameLength {
			return Name{}, offset, &errs.EncodingError{Op: "decode name", Offset: offset, Msg: "name exceeds 255 wire octets"}
		}
		pos += 1 + length
	}
}
