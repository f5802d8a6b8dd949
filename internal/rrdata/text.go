package rrdata

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"net"
	"strconv"
	"strings"

	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
)

var base32HexNoPad = base32.HexEncoding.WithPadding(base32.NoPadding)

// Format renders r's fields as a space-separated presentation-format
// rdata string, in schema field order, for the zone-file and
// dig-transcript codecs in internal/presentation. An unknown type
// (r.Opaque set) renders in RFC 3597 generic form.
func Format(r RData) (string, error) {
	schema, ok := Registry[r.Type]
	if !ok {
		return "\\# " + strconv.Itoa(len(r.Opaque)) + " " + hex.EncodeToString(r.Opaque), nil
	}
	var parts []string
	for _, field := range schema.Fields {
		v, present := r.Fields[field.Name]
		if !present {
			if field.Optional {
				continue
			}
			return "", &errs.EncodingError{Op: "format rdata", Msg: "missing field " + field.Name}
		}
		s, err := formatField(field, v)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

func formatField(field Field, v Value) (string, error) {
	switch field.Kind {
	case KindName, KindServers:
		if field.Kind == KindServers {
			ns := v.([]names.Name)
			ss := make([]string, len(ns))
			for i, n := range ns {
				ss[i] = n.String()
			}
			return strings.Join(ss, " "), nil
		}
		return v.(names.Name).String(), nil
	case KindTarget:
		switch g := v.(type) {
		case nil:
			return "", nil
		case net.IP:
			return g.String(), nil
		case names.Name:
			return g.String(), nil
		}
		return "", &errs.EncodingError{Op: "format rdata", Msg: "invalid gateway value"}
	case KindInet4, KindInet6, KindInet:
		return v.(net.IP).String(), nil
	case KindU8, KindProtocol:
		return strconv.Itoa(int(v.(uint8))), nil
	case KindU16:
		return strconv.Itoa(int(v.(uint16))), nil
	case KindTypeNumber:
		return Type(v.(uint16)).String(), nil
	case KindU32, KindNID32:
		return strconv.FormatUint(uint64(v.(uint32)), 10), nil
	case KindSigTime:
		return FormatSigTime(v.(uint32)), nil
	case KindU48, KindU64:
		return strconv.FormatUint(v.(uint64), 10), nil
	case KindNID64:
		val := v.(uint64)
		return strings.Join([]string{
			strconv.FormatUint(val>>48&0xFFFF, 16), strconv.FormatUint(val>>32&0xFFFF, 16),
			strconv.FormatUint(val>>16&0xFFFF, 16), strconv.FormatUint(val&0xFFFF, 16),
		}, ":"), nil
	case KindEUI48, KindEUI64:
		return colonHex(v.([]byte)), nil
	case KindCharString:
		return quote(v.(string)), nil
	case KindHex:
		return hex.EncodeToString(v.([]byte)), nil
	case KindBase32Hex:
		return base32HexNoPad.EncodeToString(v.([]byte)), nil
	case KindBase64, KindBase64End:
		return base64.StdEncoding.EncodeToString(v.([]byte)), nil
	case KindHexEnd, KindNSAP, KindATMA:
		return "0x" + hex.EncodeToString(v.([]byte)), nil
	case KindRaw:
		return quote(string(v.([]byte))), nil
	case KindTXT:
		ss := v.([]string)
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = quote(s)
		}
		return strings.Join(out, " "), nil
	case KindNSECBitmap:
		types := v.([]uint16)
		out := make([]string, len(types))
		for i, t := range types {
			out[i] = Type(t).String()
		}
		return strings.Join(out, " "), nil
	case KindKeyTagList:
		tags := v.([]uint16)
		out := make([]string, len(tags))
		for i, t := range tags {
			out[i] = strconv.Itoa(int(t))
		}
		return strings.Join(out, " "), nil
	case KindWKS:
		return hex.EncodeToString(v.([]byte)), nil
	case KindAPL:
		items := v.([]APLItem)
		out := make([]string, len(items))
		for i, it := range items {
			prefix := ""
			if it.Negate {
				prefix = "!"
			}
			out[i] = prefix + strconv.Itoa(int(it.Family)) + ":" + hex.EncodeToString(it.AFD) + "/" + strconv.Itoa(int(it.Prefix))
		}
		return strings.Join(out, " "), nil
	default:
		return "", &errs.EncodingError{Op: "format rdata", Msg: "unhandled field kind"}
	}
}

func colonHex(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = hex.EncodeToString([]byte{v})
	}
	return strings.Join(parts, ":")
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ParseFields parses presentation-format tokens (already split on
// whitespace with quoted character-strings kept as single tokens,
// per the tokenizer in internal/presentation) into an RData field
// set for t.
func ParseFields(t Type, tokens []string) (RData, error) {
	schema, ok := Registry[t]
	if !ok {
		return RData{}, &errs.FormatError{Op: "parse rdata", Msg: "no schema for " + t.String() + "; use generic \\# form"}
	}
	values := map[string]Value{}
	i := 0
	for _, field := range schema.Fields {
		if i >= len(tokens) {
			if field.Optional {
				continue
			}
			return RData{}, &errs.FormatError{Op: "parse rdata", Msg: "too few fields for " + t.String()}
		}
		consumed, v, err := parseField(field, tokens[i:])
		if err != nil {
			return RData{}, err
		}
		values[field.Name] = v
		i += consumed
	}
	return RData{Type: t, Fields: values}, nil
}

func parseField(field Field, toks []string) (int, Value, error) {
	switch field.Kind {
	case KindServers, KindTXT, KindNSECBitmap, KindKeyTagList, KindRaw, KindAPL:
		return parseRemainder(field, toks)
	}
	if len(toks) == 0 {
		return 0, nil, &errs.FormatError{Op: "parse rdata", Msg: "missing token for " + field.Name}
	}
	tok := toks[0]
	switch field.Kind {
	case KindName, KindTarget:
		if field.Kind == KindTarget {
			if ip := net.ParseIP(tok); ip != nil {
				return 1, ip, nil
			}
		}
		n, err := names.Parse(tok)
		return 1, n, err
	case KindInet4, KindInet6, KindInet:
		ip := net.ParseIP(tok)
		if ip == nil {
			return 0, nil, &errs.FormatError{Op: "parse rdata", Msg: "invalid address " + tok}
		}
		return 1, ip, nil
	case KindU8, KindProtocol:
		n, err := strconv.ParseUint(tok, 10, 8)
		return 1, uint8(n), wrapFormatErr(err, tok)
	case KindU16:
		n, err := strconv.ParseUint(tok, 10, 16)
		return 1, uint16(n), wrapFormatErr(err, tok)
	case KindTypeNumber:
		ty, ok := ParseType(tok)
		if !ok {
			return 0, nil, &errs.FormatError{Op: "parse rdata", Msg: "unknown type mnemonic " + tok}
		}
		return 1, uint16(ty), nil
	case KindU32, KindNID32:
		n, err := strconv.ParseUint(tok, 10, 32)
		return 1, uint32(n), wrapFormatErr(err, tok)
	case KindSigTime:
		v, err := ParseSigTime(tok)
		return 1, v, err
	case KindU48, KindU64:
		n, err := strconv.ParseUint(tok, 10, 64)
		return 1, n, wrapFormatErr(err, tok)
	case KindNID64:
		n, err := parseColonHex64(tok)
		return 1, n, err
	case KindEUI48, KindEUI64:
		b, err := parseColonHexBytes(tok)
		return 1, b, err
	case KindCharString:
		return 1, unquote(tok), nil
	case KindHex:
		b, err := hex.DecodeString(tok)
		return 1, b, wrapFormatErr(err, tok)
	case KindBase32Hex:
		b, err := base32HexNoPad.DecodeString(strings.ToUpper(tok))
		return 1, b, wrapFormatErr(err, tok)
	case KindBase64, KindBase64End:
		b, err := base64.StdEncoding.DecodeString(tok)
		return 1, b, wrapFormatErr(err, tok)
	case KindHexEnd, KindNSAP, KindATMA, KindWKS:
		b, err := hex.DecodeString(strings.TrimPrefix(tok, "0x"))
		return 1, b, wrapFormatErr(err, tok)
	default:
		return 0, nil, &errs.EncodingError{Op: "parse rdata", Msg: "unhandled field kind"}
	}
}

func parseRemainder(field Field, toks []string) (int, Value, error) {
	switch field.Kind {
	case KindServers:
		out := make([]names.Name, len(toks))
		for i, tok := range toks {
			n, err := names.Parse(tok)
			if err != nil {
				return 0, nil, err
			}
			out[i] = n
		}
		return len(toks), out, nil
	case KindTXT:
		out := make([]string, len(toks))
		for i, tok := range toks {
			out[i] = unquote(tok)
		}
		return len(toks), out, nil
	case KindRaw:
		return len(toks), []byte(strings.Join(mapUnquote(toks), " ")), nil
	case KindNSECBitmap:
		out := make([]uint16, len(toks))
		for i, tok := range toks {
			ty, ok := ParseType(tok)
			if !ok {
				return 0, nil, &errs.FormatError{Op: "parse rdata", Msg: "unknown type mnemonic " + tok}
			}
			out[i] = uint16(ty)
		}
		return len(toks), out, nil
	case KindKeyTagList:
		out := make([]uint16, len(toks))
		for i, tok := range toks {
			n, err := strconv.ParseUint(tok, 10, 16)
			if err != nil {
				return 0, nil, &errs.FormatError{Op: "parse rdata", Msg: "invalid key tag " + tok}
			}
			out[i] = uint16(n)
		}
		return len(toks), out, nil
	case KindAPL:
		out := make([]APLItem, len(toks))
		for i, tok := range toks {
			item, err := parseAPLItem(tok)
			if err != nil {
				return 0, nil, err
			}
			out[i] = item
		}
		return len(toks), out, nil
	}
	return 0, nil, &errs.EncodingError{Op: "parse rdata", Msg: "unhandled remainder kind"}
}

func mapUnquote(toks []string) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = unquote(t)
	}
	return out
}

func parseAPLItem(tok string) (APLItem, error) {
	negate := strings.HasPrefix(tok, "!")
	tok = strings.TrimPrefix(tok, "!")
	parts := strings.SplitN(tok, ":", 2)
	if len(parts) != 2 {
		return APLItem{}, &errs.FormatError{Op: "parse rdata", Msg: "malformed APL item " + tok}
	}
	fam, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return APLItem{}, &errs.FormatError{Op: "parse rdata", Msg: "malformed APL family " + tok}
	}
	afdPart, prefixPart, ok := strings.Cut(parts[1], "/")
	if !ok {
		return APLItem{}, &errs.FormatError{Op: "parse rdata", Msg: "malformed APL item " + tok}
	}
	prefix, err := strconv.ParseUint(prefixPart, 10, 8)
	if err != nil {
		return APLItem{}, &errs.FormatError{Op: "parse rdata", Msg: "malformed APL prefix " + tok}
	}
	afd, err := hex.DecodeString(afdPart)
	if err != nil {
		return APLItem{}, &errs.FormatError{Op: "parse rdata", Msg: "malformed APL address " + tok}
	}
	return APLItem{Family: uint16(fam), Prefix: uint8(prefix), Negate: negate, AFD: afd}, nil
}

func parseColonHex64(tok string) (uint64, error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 4 {
		return 0, &errs.FormatError{Op: "parse rdata", Msg: "malformed 64-bit identifier " + tok}
	}
	var v uint64
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 16, 16)
		if err != nil {
			return 0, &errs.FormatError{Op: "parse rdata", Msg: "malformed 64-bit identifier " + tok}
		}
		v = v<<16 | n
	}
	return v, nil
}

func parseColonHexBytes(tok string) ([]byte, error) {
	parts := strings.Split(tok, ":")
	out := make([]byte, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, &errs.FormatError{Op: "parse rdata", Msg: "malformed hex identifier " + tok}
		}
		out[i] = byte(n)
	}
	return out, nil
}

func wrapFormatErr(err error, tok string) error {
	if err == nil {
		return nil
	}
	return &errs.FormatError{Op: "parse rdata", Line: tok, Msg: "invalid value", Err: err}
}
