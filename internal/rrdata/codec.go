package rrdata

import (
	"encoding/binary"
	"net"

	"github.com/nazarii-m/dnscore/internal/bitmap"
	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
)

// Value is the decoded representation of one rdata field. Concrete
// types per Kind:
//
//	KindName, KindTarget(name case)   names.Name
//	KindServers                       []names.Name
//	KindInet4, KindInet6, KindInet,
//	KindTarget(addr case)             net.IP
//	KindU8, KindProtocol              uint8
//	KindU16, KindTypeNumber           uint16
//	KindU32, KindNID32                uint32
//	KindU48, KindU64, KindNID64       uint64
//	KindHex, KindHexEnd, KindBase32Hex,
//	KindBase64, KindBase64End, KindRaw,
//	KindNSAP, KindATMA, KindWKS,
//	KindEUI48, KindEUI64              []byte
//	KindCharString                    string
//	KindTXT                           []string
//	KindNSECBitmap                    []uint16
//	KindKeyTagList                    []uint16
//	KindSigTime                       uint32 (wire seconds; see time.go)
//	KindAPL                           []APLItem
type Value any

// APLItem is one RFC 3123 address prefix list entry.
type APLItem struct {
	Family uint16
	Prefix uint8
	Negate bool
	AFD    []byte
}

// RData is the decoded field set for one resource record, keyed by
// the Field.Name values from its Schema. A Type with no Registry
// entry decodes to a nil map with Opaque holding the raw rdata bytes.
type RData struct {
	Type   Type
	Fields map[string]Value
	Opaque []byte // populated only when Type has no Schema (RFC 3597 §3)
}

type cursor struct {
	msg []byte
	pos int
	end int
}

func (c *cursor) remaining() int { return c.end - c.pos }

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > c.end {
		return nil, &errs.EncodingError{Op: "decode rdata", Offset: c.pos, Msg: "field extends past rdata end"}
	}
	b := c.msg[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) u48() (uint64, error) {
	b, err := c.bytes(6)
	if err != nil {
		return 0, err
	}
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 | uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5]), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c *cursor) name() (names.Name, error) {
	n, end, err := names.Decode(c.msg, c.pos)
	if err != nil {
		return names.Name{}, err
	}
	c.pos = end
	return n, nil
}

// Decode parses the rdata of one resource record according to its
// type's Schema. msg is the full message (so name fields can follow
// compression pointers outside the rdata span); rdStart/rdLen bound
// the record's rdata within it.
func Decode(t Type, msg []byte, rdStart, rdLen int) (RData, error) {
	if rdStart < 0 || rdLen < 0 || rdStart+rdLen > len(msg) {
		return RData{}, &errs.EncodingError{Op: "decode rdata", Offset: rdStart, Msg: "rdlength out of bounds"}
	}
	schema, ok := Registry[t]
	if !ok {
		return RData{Type: t, Opaque: append([]byte(nil), msg[rdStart:rdStart+rdLen]...)}, nil
	}
	c := &cursor{msg: msg, pos: rdStart, end: rdStart + rdLen}
	values := map[string]Value{}
	for i, field := range schema.Fields {
		last := i == len(schema.Fields)-1
		if field.Optional && c.remaining() == 0 {
			continue
		}
		v, err := decodeField(c, field, values, last)
		if err != nil {
			if field.Optional {
				continue
			}
			return RData{}, err
		}
		values[field.Name] = v
	}
	return RData{Type: t, Fields: values}, nil
}

func decodeField(c *cursor, field Field, values map[string]Value, last bool) (Value, error) {
	switch field.Kind {
	case KindName, KindServers:
		if field.Kind == KindServers {
			var out []names.Name
			for c.remaining() > 0 {
				n, err := c.name()
				if err != nil {
					return nil, err
				}
				out = append(out, n)
			}
			return out, nil
		}
		return c.name()
	case KindInet4:
		b, err := c.bytes(4)
		if err != nil {
			return nil, err
		}
		return net.IP(append([]byte(nil), b...)), nil
	case KindInet6:
		b, err := c.bytes(16)
		if err != nil {
			return nil, err
		}
		return net.IP(append([]byte(nil), b...)), nil
	case KindInet:
		b, err := c.bytes(c.remaining())
		if err != nil {
			return nil, err
		}
		return net.IP(append([]byte(nil), b...)), nil
	case KindTarget:
		return decodeGateway(c, values)
	case KindU8, KindProtocol:
		return c.u8()
	case KindU16, KindTypeNumber:
		return c.u16()
	case KindU32, KindSigTime, KindNID32:
		return c.u32()
	case KindU48:
		return c.u48()
	case KindU64, KindNID64:
		return c.u64()
	case KindEUI48:
		b, err := c.bytes(6)
		return append([]byte(nil), b...), err
	case KindEUI64:
		b, err := c.bytes(8)
		return append([]byte(nil), b...), err
	case KindCharString:
		return decodeCharString(c)
	case KindHex:
		n, err := c.u8()
		if err != nil {
			return nil, err
		}
		b, err := c.bytes(int(n))
		return append([]byte(nil), b...), err
	case KindBase32Hex:
		n, err := c.u8()
		if err != nil {
			return nil, err
		}
		b, err := c.bytes(int(n))
		return append([]byte(nil), b...), err
	case KindBase64:
		n, err := c.u16()
		if err != nil {
			return nil, err
		}
		b, err := c.bytes(int(n))
		return append([]byte(nil), b...), err
	case KindHexEnd, KindBase64End, KindRaw, KindNSAP, KindATMA, KindWKS:
		b, err := c.bytes(c.remaining())
		return append([]byte(nil), b...), err
	case KindTXT:
		var out []string
		for c.remaining() > 0 {
			s, err := decodeCharString(c)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case KindNSECBitmap:
		b, err := c.bytes(c.remaining())
		if err != nil {
			return nil, err
		}
		return bitmap.Decode(b)
	case KindKeyTagList:
		var out []uint16
		for c.remaining() > 0 {
			v, err := c.u16()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case KindAPL:
		var out []APLItem
		for c.remaining() > 0 {
			fam, err := c.u16()
			if err != nil {
				return nil, err
			}
			prefix, err := c.u8()
			if err != nil {
				return nil, err
			}
			nb, err := c.u8()
			if err != nil {
				return nil, err
			}
			negate := nb&0x80 != 0
			afdlen := int(nb &^ 0x80)
			afd, err := c.bytes(afdlen)
			if err != nil {
				return nil, err
			}
			out = append(out, APLItem{Family: fam, Prefix: prefix, Negate: negate, AFD: append([]byte(nil), afd...)})
		}
		return out, nil
	default:
		return nil, &errs.EncodingError{Op: "decode rdata", Offset: c.pos, Msg: "unhandled field kind"}
	}
}

func decodeCharString(c *cursor) (string, error) {
	n, err := c.u8()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeGateway handles IPSECKEY's gateway field, whose wire shape
// (absent / IPv4 / IPv6 / name) is selected by the preceding
// GatewayType field rather than a length prefix of its own.
func decodeGateway(c *cursor, values map[string]Value) (Value, error) {
	gt, _ := values["GatewayType"].(uint8)
	switch gt {
	case 0:
		return nil, nil
	case 1:
		b, err := c.bytes(4)
		if err != nil {
			return nil, err
		}
		return net.IP(append([]byte(nil), b...)), nil
	case 2:
		b, err := c.bytes(16)
		if err != nil {
			return nil, err
		}
		return net.IP(append([]byte(nil), b...)), nil
	case 3:
		return c.name()
	default:
		return nil, &errs.FormatError{Op: "decode rdata", Msg: "unknown gateway type"}
	}
}

// Size returns the rdata length Encode would produce for r, mutating
// comp exactly as Encode's name fields would, so a size pass and
// write pass using the same comp map agree.
func Size(r RData, atOffset int, comp names.CompressionMap) (int, error) {
	schema, ok := Registry[r.Type]
	if !ok {
		return len(r.Opaque), nil
	}
	fields := r.Fields
	size := 0
	off := atOffset
	for _, field := range schema.Fields {
		v, present := fields[field.Name]
		if !present {
			if field.Optional {
				continue
			}
			return 0, &errs.EncodingError{Op: "size rdata", Msg: "missing required field " + field.Name}
		}
		n, err := sizeField(field, v, off, comp)
		if err != nil {
			return 0, err
		}
		size += n
		off += n
	}
	return size, nil
}

func sizeField(field Field, v Value, off int, comp names.CompressionMap) (int, error) {
	switch field.Kind {
	case KindName:
		n := v.(names.Name)
		var m names.CompressionMap
		if field.Compressible {
			m = comp
		}
		return names.Size(n, off, m), nil
	case KindTarget:
		switch g := v.(type) {
		case nil:
			return 0, nil
		case net.IP:
			if ip4 := g.To4(); ip4 != nil {
				return 4, nil
			}
			return 16, nil
		case names.Name:
			return names.Size(g, off, nil), nil
		}
		return 0, &errs.EncodingError{Op: "size rdata", Msg: "invalid gateway value"}
	case KindServers:
		total := 0
		for _, n := range v.([]names.Name) {
			total += names.Size(n, off+total, nil)
		}
		return total, nil
	case KindInet4:
		return 4, nil
	case KindInet6:
		return 16, nil
	case KindInet:
		ip := v.(net.IP)
		if ip.To4() != nil {
			return 4, nil
		}
		return 16, nil
	case KindU8, KindProtocol:
		return 1, nil
	case KindU16, KindTypeNumber:
		return 2, nil
	case KindU32, KindSigTime, KindNID32:
		return 4, nil
	case KindU48:
		return 6, nil
	case KindU64, KindNID64:
		return 8, nil
	case KindEUI48:
		return 6, nil
	case KindEUI64:
		return 8, nil
	case KindCharString:
		return 1 + len(v.(string)), nil
	case KindHex, KindBase32Hex:
		return 1 + len(v.([]byte)), nil
	case KindBase64:
		return 2 + len(v.([]byte)), nil
	case KindHexEnd, KindBase64End, KindRaw, KindNSAP, KindATMA, KindWKS:
		return len(v.([]byte)), nil
	case KindTXT:
		total := 0
		for _, s := range v.([]string) {
			total += 1 + len(s)
		}
		return total, nil
	case KindNSECBitmap:
		return len(bitmap.Encode(v.([]uint16))), nil
	case KindKeyTagList:
		return 2 * len(v.([]uint16)), nil
	case KindAPL:
		total := 0
		for _, item := range v.([]APLItem) {
			total += 4 + len(item.AFD)
		}
		return total, nil
	default:
		return 0, &errs.EncodingError{Op: "size rdata", Msg: "unhandled field kind"}
	}
}

// Encode appends the wire encoding of r to dst, using the same comp
// map (and atOffset convention) as a prior Size call.
func Encode(r RData, dst []byte, atOffset int, comp names.CompressionMap) ([]byte, error) {
	schema, ok := Registry[r.Type]
	if !ok {
		return append(dst, r.Opaque...), nil
	}
	fields := r.Fields
	off := atOffset
	for _, field := range schema.Fields {
		v, present := fields[field.Name]
		if !present {
			if field.Optional {
				continue
			}
			return nil, &errs.EncodingError{Op: "encode rdata", Msg: "missing required field " + field.Name}
		}
		before := len(dst)
		var err error
		dst, err = encodeField(dst, field, v, off, comp)
		if err != nil {
			return nil, err
		}
		off += len(dst) - before
	}
	return dst, nil
}

func encodeField(dst []byte, field Field, v Value, off int, comp names.CompressionMap) ([]byte, error) {
	switch field.Kind {
	case KindName:
		n := v.(names.Name)
		var m names.CompressionMap
		if field.Compressible {
			m = comp
		}
		return names.Encode(dst, n, m), nil
	case KindTarget:
		switch g := v.(type) {
		case nil:
			return dst, nil
		case net.IP:
			if ip4 := g.To4(); ip4 != nil {
				return append(dst, ip4...), nil
			}
			return append(dst, g.To16()...), nil
		case names.Name:
			return names.Encode(dst, g, nil), nil
		}
		return nil, &errs.EncodingError{Op: "encode rdata", Msg: "invalid gateway value"}
	case KindServers:
		for _, n := range v.([]names.Name) {
			dst = names.Encode(dst, n, nil)
		}
		return dst, nil
	case KindInet4:
		ip := v.(net.IP).To4()
		if ip == nil {
			return nil, &errs.EncodingError{Op: "encode rdata", Msg: "not an IPv4 address"}
		}
		return append(dst, ip...), nil
	case KindInet6:
		ip := v.(net.IP).To16()
		if ip == nil {
			return nil, &errs.EncodingError{Op: "encode rdata", Msg: "not an IPv6 address"}
		}
		return append(dst, ip...), nil
	case KindInet:
		ip := v.(net.IP)
		if ip4 := ip.To4(); ip4 != nil {
			return append(dst, ip4...), nil
		}
		return append(dst, ip.To16()...), nil
	case KindU8, KindProtocol:
		return append(dst, v.(uint8)), nil
	case KindU16, KindTypeNumber:
		return binary.BigEndian.AppendUint16(dst, v.(uint16)), nil
	case KindU32, KindSigTime, KindNID32:
		return binary.BigEndian.AppendUint32(dst, v.(uint32)), nil
	case KindU48:
		val := v.(uint64)
		return append(dst, byte(val>>40), byte(val>>32), byte(val>>24), byte(val>>16), byte(val>>8), byte(val)), nil
	case KindU64, KindNID64:
		return binary.BigEndian.AppendUint64(dst, v.(uint64)), nil
	case KindEUI48, KindEUI64:
		return append(dst, v.([]byte)...), nil
	case KindCharString:
		s := v.(string)
		if len(s) > 255 {
			return nil, &errs.EncodingError{Op: "encode rdata", Msg: "character-string exceeds 255 octets"}
		}
		dst = append(dst, byte(len(s)))
		return append(dst, s...), nil
	case KindHex, KindBase32Hex:
		b := v.([]byte)
		if len(b) > 255 {
			return nil, &errs.EncodingError{Op: "encode rdata", Msg: "field exceeds 255 octets"}
		}
		dst = append(dst, byte(len(b)))
		return append(dst, b...), nil
	case KindBase64:
		b := v.([]byte)
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(b)))
		return append(dst, b...), nil
	case KindHexEnd, KindBase64End, KindRaw, KindNSAP, KindATMA, KindWKS:
		return append(dst, v.([]byte)...), nil
	case KindTXT:
		for _, s := range v.([]string) {
			if len(s) > 255 {
				return nil, &errs.EncodingError{Op: "encode rdata", Msg: "character-string exceeds 255 octets"}
			}
			dst = append(dst, byte(len(s)))
			dst = append(dst, s...)
		}
		return dst, nil
	case KindNSECBitmap:
		return append(dst, bitmap.Encode(v.([]uint16))...), nil
	case KindKeyTagList:
		for _, tag := range v.([]uint16) {
			dst = binary.BigEndian.AppendUint16(dst, tag)
		}
		return dst, nil
	case KindAPL:
		for _, item := range v.([]APLItem) {
			dst = binary.BigEndian.AppendUint16(dst, item.Family)
			dst = append(dst, item.Prefix)
			nb := byte(len(item.AFD))
			if item.Negate {
				nb |= 0x80
			}
			dst = append(dst, nb)
			dst = append(dst, item.AFD...)
		}
		return dst, nil
	default:
		return nil, &errs.EncodingError{Op: "encode rdata", Msg: "unhandled field kind"}
	}
}
