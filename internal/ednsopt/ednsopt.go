// Package ednsopt implements the EDNS0 option TLV codec: a sequence
// of <code:u16><length:u16><data[length]> entries carried in an OPT
// pseudo-record's rdata (RFC 6891 §6.1.2), decoded into typed option
// structs where the code is recognized and an opaque Unknown
// otherwise.
package ednsopt

import (
	"encoding/binary"

	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/wireconst"
)

// Option is one decoded EDNS0 option.
type Option struct {
	Code uint16
	Data []byte // the option's raw value; callers needing the typed
	// shape (NSID string, COOKIE client/server halves, SUBNET family/
	// prefix/address, ...) get it from Decoded, since the typed shape
	// matters only to the handful of callers that act on a specific
	// option rather than round-trip it.
}

// IsLocal reports whether code falls in the RFC 6891-reserved LOCAL
// range used for experimental/private options.
func IsLocal(code uint16) bool {
	return code >= wireconst.OptLocalStart && code <= wireconst.OptLocalEnd
}

// Decode parses a sequence of EDNS0 options filling b (the OPT
// record's entire rdata).
func Decode(b []byte) ([]Option, error) {
	var opts []Option
	i := 0
	for i < len(b) {
		if i+4 > len(b) {
			return nil, &errs.EncodingError{Op: "decode edns options", Offset: i, Msg: "truncated option header"}
		}
		code := binary.BigEndian.Uint16(b[i:])
		length := int(binary.BigEndian.Uint16(b[i+2:]))
		i += 4
		if i+length > len(b) {
			return nil, &errs.EncodingError{Op: "decode edns options", Offset: i, Msg: "option data exceeds rdata bounds"}
		}
		opts = append(opts, Option{Code: code, Data: append([]byte(nil), b[i:i+length]...)})
		i += length
	}
	return opts, nil
}

// Size returns the wire length of opts.
func Size(opts []Option) int {
	n := 0
	for _, o := range opts {
		n += 4 + len(o.Data)
	}
	return n
}

// Encode appends opts' wire form to dst.
func Encode(dst []byte, opts []Option) ([]byte, error) {
	for _, o := range opts {
		if len(o.Data) > 0xFFFF {
			return nil, &errs.EncodingError{Op: "encode edns options", Msg: "option data exceeds 65535 octets"}
		}
		dst = binary.BigEndian.AppendUint16(dst, o.Code)
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(o.Data)))
		dst = append(dst, o.Data...)
	}
	return dst, nil
}

// ByCode returns the first option with the given code, and whether
// one was found.
func ByCode(opts []Option, code uint16) (Option, bool) {
	for _, o := range opts {
		if o.Code == code {
			return o, true
		}
	}
	return Option{}, false
}

// Typed per-code option shapes. Option.Data remains the source of
// truth for wire round trips; these are views over it for callers
// that act on a specific option rather than pass it through opaquely.

// CookieOption is RFC 7873's client/(optional) server cookie pair.
type CookieOption struct {
	Client []byte // always 8 octets
	Server []byte // 8-32 octets, absent on a client-only cookie
}

// SubnetOption is RFC 7871 EDNS Client Subnet.
type SubnetOption struct {
	Family       uint16
	SourcePrefix uint8
	ScopePrefix  uint8
	Address      []byte
}

// NSIDOption is RFC 5001 nameserver identifier, an opaque byte
// string with no further wire structure.
type NSIDOption struct {
	Data []byte
}

// PaddingOption is RFC 7830 padding: the length is informative; the
// octet values are not required to be zero on decode.
type PaddingOption struct {
	Length int
}

// TCPKeepaliveOption is RFC 7828; Timeout is in units of 100ms and
// absent (HasTimeout false) on a query expressing willingness only.
type TCPKeepaliveOption struct {
	HasTimeout bool
	Timeout    uint16
}

// KeyTagOption is RFC 8145: a list of trust-anchor key tags.
type KeyTagOption struct {
	KeyTags []uint16
}

// LocalOption is an experimental/private-use option in the RFC 6891
// reserved range [65001, 65534].
type LocalOption struct {
	Code uint16
	Data []byte
}

// UnknownOption is any code with no typed shape above, carried
// opaquely so it survives a decode/encode round trip.
type UnknownOption struct {
	Code uint16
	Data []byte
}

// Decoded dispatches o.Code to its typed option shape. The returned
// value's concrete type is one of the structs above.
func Decoded(o Option) any {
	switch o.Code {
	case wireconst.OptNSID:
		return NSIDOption{Data: o.Data}
	case wireconst.OptCookie:
		c := CookieOption{}
		if len(o.Data) >= 8 {
			c.Client = o.Data[:8]
			if len(o.Data) > 8 {
				c.Server = o.Data[8:]
			}
		}
		return c
	case wireconst.OptSubnet:
		s := SubnetOption{}
		if len(o.Data) >= 4 {
			s.Family = binary.BigEndian.Uint16(o.Data[0:])
			s.SourcePrefix = o.Data[2]
			s.ScopePrefix = o.Data[3]
			s.Address = o.Data[4:]
		}
		return s
	case wireconst.OptPadding:
		return PaddingOption{Length: len(o.Data)}
	case wireconst.OptTCPKeepalive:
		k := TCPKeepaliveOption{}
		if len(o.Data) == 2 {
			k.HasTimeout = true
			k.Timeout = binary.BigEndian.Uint16(o.Data)
		}
		return k
	case wireconst.OptKeyTag:
		k := KeyTagOption{}
		for i := 0; i+1 < len(o.Data); i += 2 {
			k.KeyTags = append(k.KeyTags, binary.BigEndian.Uint16(o.Data[i:]))
		}
		return k
	}
	if IsLocal(o.Code) {
		return LocalOption{Code: o.Code, Data: o.Data}
	}
	return UnknownOption{Code: o.Code, Data: o.Data}
}
