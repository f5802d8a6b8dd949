package rrdata

// FieldKind is the interpretation applied to one rdata field by the
// generic binary/presentation/JSON engine in codec.go, text.go, and
// json.go.
type FieldKind int

const (
	KindName         FieldKind = iota // a domain name, possibly compressible
	KindServers                       // space-separated list of names (remainder of rdata)
	KindInet4                         // 4-octet IPv4 address
	KindInet6                         // 16-octet IPv6 address
	KindInet                          // IPv4 or IPv6, sized by remaining rdata
	KindTarget                        // IP address or name (IPSECKEY gateway)
	KindHex                           // fixed/length-prefixed raw bytes, presented as hex
	KindHexEnd                        // remainder of rdata, presented as hex
	KindBase32Hex                     // one-octet length-prefixed bytes, presented as base32hex (NSEC3 hashes)
	KindBase64                        // length-prefixed bytes, presented as base64
	KindBase64End                     // remainder of rdata, presented as base64
	KindCharString                    // one length-prefixed character-string
	KindRaw                           // remainder of rdata, opaque bytes (quoted text in presentation)
	KindTXT                           // one or more character-strings filling the remainder
	KindNSECBitmap                    // NSEC/NSEC3/CSYNC type bitmap (remainder)
	KindKeyTagList                    // remainder as a list of u16 key tags
	KindSigTime                       // u32 wire, YYYYMMDDHHMMSS presentation (serial arithmetic)
	KindTypeNumber                    // u16 wire, mnemonic presentation
	KindU8
	KindU16
	KindU32
	KindU48
	KindU64
	KindNID32 // L32-style 32-bit node/locator identifier, decimal presentation
	KindNID64 // NID/L64-style 64-bit identifier, colon-hex presentation
	KindEUI48
	KindEUI64
	KindAPL      // list of RFC 3123 address prefix list items (remainder)
	KindNSAP     // NSAP address, "0x"-prefixed hex presentation
	KindATMA     // ATM address, "0x"-prefixed hex presentation whatever the format octet
	KindProtocol // 8-bit IP protocol number (WKS)
	KindWKS      // WKS bitmap remainder (paired with a preceding KindProtocol field)
)

// Field is one entry in an RR type's fixed-format schema.
type Field struct {
	Name string
	Kind FieldKind
	// Compressible marks a KindName field whose wire encoding may
	// reuse the message-wide compression map. Only the RFC 1035-era
	// types compress their name fields; newer types leave names
	// uncompressed so naive clients can reparse them (RFC 3597 §4).
	Compressible bool
	// Optional fields are populated from whatever rdata remains;
	// if the rdata is exhausted first they are left zero-valued
	// rather than erroring (e.g. ISDN's subaddress).
	Optional bool
}

// Schema is the fixed-format field list for one RR type.
type Schema struct {
	Type   Type
	Fields []Field
}

func nf(name string) Field               { return Field{Name: name, Kind: KindName} }
func cnf(name string) Field              { return Field{Name: name, Kind: KindName, Compressible: true} }
func f(name string, k FieldKind) Field   { return Field{Name: name, Kind: k} }
func opt(name string, k FieldKind) Field { return Field{Name: name, Kind: k, Optional: true} }

// Registry maps every RR type with a defined wire rdata shape to its
// Schema. Types absent from this table (and OPT, handled as an
// EDNS0 pseudo-record by internal/ednsopt/internal/dnsmsg rather than
// generic rdata) decode to the opaque RData variant.
var Registry = buildRegistry()

func buildRegistry() map[Type]Schema {
	reg := map[Type]Schema{}
	add := func(t Type, fields ...Field) {
		reg[t] = Schema{Type: t, Fields: fields}
	}

	add(TypeA, f("Address", KindInet4))
	add(TypeNS, cnf("Ns"))
	add(TypeMD, cnf("Madname"))
	add(TypeMF, cnf("Madname"))
	add(TypeCNAME, cnf("Target"))
	add(TypeSOA, cnf("Ns"), cnf("Mbox"), f("Serial", KindU32), f("Refresh", KindU32), f("Retry", KindU32), f("Expire", KindU32), f("Minttl", KindU32))
	add(TypeMB, cnf("Madname"))
	add(TypeMG, cnf("Mgmname"))
	add(TypeMR, cnf("Newname"))
	add(TypeNULL, f("Data", KindRaw))
	add(TypeWKS, f("Address", KindInet4), f("Protocol", KindProtocol), f("Bitmap", KindWKS))
	add(TypePTR, cnf("Ptrdname"))
	add(TypeHINFO, f("Cpu", KindCharString), f("Os", KindCharString))
	add(TypeMINFO, cnf("Rmailbx"), cnf("Emailbx"))
	add(TypeMX, f("Preference", KindU16), cnf("Exchange"))
	add(TypeTXT, f("Txt", KindTXT))
	add(TypeRP, nf("Mbox"), nf("Txtdname"))
	add(TypeAFSDB, f("Subtype", KindU16), nf("Hostname"))
	add(TypeX25, f("PsdnAddress", KindCharString))
	add(TypeISDN, f("Address", KindCharString), opt("Sa", KindCharString))
	add(TypeRT, f("Preference", KindU16), nf("Intermediate"))
	add(TypeNSAP, f("Nsap", KindNSAP))
	add(TypeNSAPPTR, nf("Owner"))
	add(TypeSIG, sigFields()...)
	add(TypeRRSIG, sigFields()...)
	add(TypeKEY, keyFields()...)
	add(TypeDNSKEY, keyFields()...)
	add(TypeCDNSKEY, keyFields()...)
	add(TypePX, f("Preference", KindU16), nf("Map822"), nf("Mapx400"))
	add(TypeGPOS, f("Longitude", KindCharString), f("Latitude", KindCharString), f("Altitude", KindCharString))
	add(TypeAAAA, f("Address", KindInet6))
	add(TypeLOC, f("Version", KindU8), f("Size", KindU8), f("HorizPre", KindU8), f("VertPre", KindU8), f("Latitude", KindU32), f("Longitude", KindU32), f("Altitude", KindU32))
	add(TypeNXT, cnf("Next"), f("Bitmap", KindNSECBitmap))
	add(TypeEID, f("Data", KindHexEnd))
	add(TypeNIMLOC, f("Data", KindHexEnd))
	add(TypeSRV, f("Priority", KindU16), f("Weight", KindU16), f("Port", KindU16), nf("Target"))
	add(TypeATMA, f("Format", KindU8), f("Address", KindATMA))
	add(TypeNAPTR, f("Order", KindU16), f("Preference", KindU16), f("Flags", KindCharString), f("Services", KindCharString), f("Regexp", KindCharString), nf("Replacement"))
	add(TypeKX, f("Preference", KindU16), nf("Exchanger"))
	add(TypeCERT, f("Type", KindU16), f("KeyTag", KindU16), f("Algorithm", KindU8), f("Certificate", KindBase64End))
	add(TypeA6, f("PrefixLen", KindU8), f("AddressSuffix", KindInet6), nf("PrefixName"))
	add(TypeDNAME, nf("Target"))
	add(TypeAPL, f("Items", KindAPL))
	add(TypeDS, dsFields()...)
	add(TypeCDS, dsFields()...)
	add(TypeTA, dsFields()...)
	add(TypeDLV, dsFields()...)
	add(TypeSSHFP, f("Algorithm", KindU8), f("Type", KindU8), f("Fingerprint", KindHexEnd))
	add(TypeIPSECKEY, f("Precedence", KindU8), f("GatewayType", KindU8), f("Algorithm", KindU8), f("Gateway", KindTarget), f("PublicKey", KindBase64End))
	add(TypeNSEC, nf("NextDomain"), f("TypeBitmap", KindNSECBitmap))
	add(TypeDHCID, f("Digest", KindBase64End))
	add(TypeNSEC3, f("Hash", KindU8), f("Flags", KindU8), f("Iterations", KindU16), f("Salt", KindHex), f("NextHashedOwnerName", KindBase32Hex), f("TypeBitmap", KindNSECBitmap))
	add(TypeNSEC3PARAM, f("Hash", KindU8), f("Flags", KindU8), f("Iterations", KindU16), f("Salt", KindHex))
	add(TypeTLSA, tlsaFields()...)
	add(TypeSMIMEA, tlsaFields()...)
	add(TypeHIP, f("PublicKeyAlgorithm", KindU8), f("Hit", KindHex), f("PublicKey", KindBase64), f("RendezvousServers", KindServers))
	add(TypeNINFO, f("ZSData", KindTXT))
	add(TypeRKEY, f("Flags", KindU16), f("Protocol", KindU8), f("Algorithm", KindU8), f("PublicKey", KindBase64End))
	add(TypeTALINK, nf("PreviousName"), nf("NextName"))
	add(TypeOPENPGPKEY, f("PublicKey", KindBase64End))
	add(TypeCSYNC, f("Serial", KindU32), f("Flags", KindU16), f("TypeBitmap", KindNSECBitmap))
	add(TypeSPF, f("Txt", KindTXT))
	add(TypeUINFO, f("Data", KindRaw))
	add(TypeUID, f("Data", KindRaw))
	add(TypeGID, f("Data", KindRaw))
	add(TypeUNSPEC, f("Data", KindRaw))
	add(TypeNID, f("Preference", KindU16), f("NodeID", KindNID64))
	add(TypeL32, f("Preference", KindU16), f("Locator32", KindInet4))
	add(TypeL64, f("Preference", KindU16), f("Locator64", KindNID64))
	add(TypeLP, f("Preference", KindU16), nf("Fqdn"))
	add(TypeEUI48, f("Address", KindEUI48))
	add(TypeEUI64, f("Address", KindEUI64))
	add(TypeTKEY, f("Algorithm", KindName), f("Inception", KindU32), f("Expiration", KindU32), f("Mode", KindU16), f("Error", KindU16), f("Key", KindBase64), f("OtherData", KindBase64End))
	add(TypeTSIG, f("AlgorithmName", KindName), f("TimeSigned", KindU48), f("Fudge", KindU16), f("MAC", KindBase64), f("OrigID", KindU16), f("Error", KindU16), f("OtherData", KindBase64End))
	add(TypeURI, f("Priority", KindU16), f("Weight", KindU16), f("Target", KindRaw))
	add(TypeCAA, f("Flags", KindU8), f("Tag", KindCharString), f("Value", KindRaw))
	add(TypeAVC, f("Txt", KindTXT))
	add(TypeDOA, f("EnterpriseID", KindU32), f("DataType", KindU32), f("Location", KindU8), f("MediaType", KindCharString), f("Data", KindBase64End))

	return reg
}

func sigFields() []Field {
	return []Field{
		f("TypeCovered", KindTypeNumber), f("Algorithm", KindU8), f("Labels", KindU8),
		f("OriginalTTL", KindU32), f("Expiration", KindSigTime), f("Inception", KindSigTime),
		f("KeyTag", KindU16), nf("SignerName"), f("Signature", KindBase64End),
	}
}

func keyFields() []Field {
	return []Field{
		f("Flags", KindU16), f("Protocol", KindU8), f("Algorithm", KindU8),
		f("PublicKey", KindBase64End),
	}
}

func dsFields() []Field {
	return []Field{
		f("KeyTag", KindU16), f("Algorithm", KindU8), f("DigestType", KindU8),
		f("Digest", KindHexEnd),
	}
}

func tlsaFields() []Field {
	return []Field{
		f("Usage", KindU8), f("Selector", KindU8), f("MatchingType", KindU8),
		f("Certificate", KindHexEnd),
	}
}
