package rrdata

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net"

	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
)

// MarshalJSON renders r as a JSON object keyed by schema field name:
// names and binary fields as strings (hex or base64 matching their
// presentation form), numeric fields as numbers, and list-valued
// fields as arrays. Unknown types marshal as
// {"type": N, "rdata": "<hex>"}.
func (r RData) MarshalJSON() ([]byte, error) {
	schema, ok := Registry[r.Type]
	if !ok {
		return json.Marshal(map[string]any{
			"type":  uint16(r.Type),
			"rdata": hex.EncodeToString(r.Opaque),
		})
	}
	out := map[string]any{"type": r.Type.String()}
	for _, field := range schema.Fields {
		v, present := r.Fields[field.Name]
		if !present {
			continue
		}
		jv, err := fieldToJSON(field, v)
		if err != nil {
			return nil, err
		}
		out[field.Name] = jv
	}
	return json.Marshal(out)
}

func fieldToJSON(field Field, v Value) (any, error) {
	switch field.Kind {
	case KindName, KindTarget:
		switch g := v.(type) {
		case nil:
			return nil, nil
		case net.IP:
			return g.String(), nil
		case names.Name:
			return g.String(), nil
		}
	case KindServers:
		ns := v.([]names.Name)
		out := make([]string, len(ns))
		for i, n := range ns {
			out[i] = n.String()
		}
		return out, nil
	case KindInet4, KindInet6, KindInet:
		return v.(net.IP).String(), nil
	case KindU8, KindProtocol:
		return v.(uint8), nil
	case KindU16, KindTypeNumber:
		return v.(uint16), nil
	case KindU32, KindSigTime, KindNID32:
		if field.Kind == KindSigTime {
			return FormatSigTime(v.(uint32)), nil
		}
		return v.(uint32), nil
	case KindU48, KindU64, KindNID64:
		return v.(uint64), nil
	case KindEUI48, KindEUI64:
		return colonHex(v.([]byte)), nil
	case KindCharString:
		return v.(string), nil
	case KindHex:
		return hex.EncodeToString(v.([]byte)), nil
	case KindBase32Hex:
		return base32.HexEncoding.WithPadding(base32.NoPadding).EncodeToString(v.([]byte)), nil
	case KindBase64, KindBase64End:
		return base64.StdEncoding.EncodeToString(v.([]byte)), nil
	case KindHexEnd, KindRaw, KindNSAP, KindATMA, KindWKS:
		return hex.EncodeToString(v.([]byte)), nil
	case KindTXT:
		return v.([]string), nil
	case KindNSECBitmap:
		types := v.([]uint16)
		out := make([]string, len(types))
		for i, t := range types {
			out[i] = Type(t).String()
		}
		return out, nil
	case KindKeyTagList:
		return v.([]uint16), nil
	case KindAPL:
		items := v.([]APLItem)
		out := make([]map[string]any, len(items))
		for i, it := range items {
			out[i] = map[string]any{
				"family": it.Family, "prefix": it.Prefix, "negate": it.Negate,
				"afd": hex.EncodeToString(it.AFD),
			}
		}
		return out, nil
	}
	return nil, &errs.EncodingError{Op: "marshal rdata json", Msg: "unhandled field kind"}
}
