// Package rrdata is the per-type RR registry: a schema table of
// (field name, field kind) pairs per RR type that drives a single
// generic binary/presentation/JSON codec, rather than one
// hand-written struct per type. Families that share a wire shape
// (KEY/DNSKEY/CDNSKEY, DS/CDS/TA/DLV, SIG/RRSIG, TLSA/SMIMEA,
// TXT/SPF/AVC) share one schema, so their encode/decode paths cannot
// drift apart.
package rrdata

import "strconv"

// Type is a 16-bit DNS resource record type number.
type Type uint16

// Resource record type numbers from the IANA registry. There is no
// wire number for "unknown": any Type with no Schema entry decodes
// to an opaque RData carrying the raw rdata bytes (RFC 3597).
const (
	TypeA          Type = 1
	TypeNS         Type = 2
	TypeMD         Type = 3
	TypeMF         Type = 4
	TypeCNAME      Type = 5
	TypeSOA        Type = 6
	TypeMB         Type = 7
	TypeMG         Type = 8
	TypeMR         Type = 9
	TypeNULL       Type = 10
	TypeWKS        Type = 11
	TypePTR        Type = 12
	TypeHINFO      Type = 13
	TypeMINFO      Type = 14
	TypeMX         Type = 15
	TypeTXT        Type = 16
	TypeRP         Type = 17
	TypeAFSDB      Type = 18
	TypeX25        Type = 19
	TypeISDN       Type = 20
	TypeRT         Type = 21
	TypeNSAP       Type = 22
	TypeNSAPPTR    Type = 23
	TypeSIG        Type = 24
	TypeKEY        Type = 25
	TypePX         Type = 26
	TypeGPOS       Type = 27
	TypeAAAA       Type = 28
	TypeLOC        Type = 29
	TypeNXT        Type = 30
	TypeEID        Type = 31
	TypeNIMLOC     Type = 32
	TypeSRV        Type = 33
	TypeATMA       Type = 34
	TypeNAPTR      Type = 35
	TypeKX         Type = 36
	TypeCERT       Type = 37
	TypeA6         Type = 38
	TypeDNAME      Type = 39
	TypeOPT        Type = 41
	TypeAPL        Type = 42
	TypeDS         Type = 43
	TypeSSHFP      Type = 44
	TypeIPSECKEY   Type = 45
	TypeRRSIG      Type = 46
	TypeNSEC       Type = 47
	TypeDNSKEY     Type = 48
	TypeDHCID      Type = 49
	TypeNSEC3      Type = 50
	TypeNSEC3PARAM Type = 51
	TypeTLSA       Type = 52
	TypeSMIMEA     Type = 53
	TypeHIP        Type = 55
	TypeNINFO      Type = 56
	TypeRKEY       Type = 57
	TypeTALINK     Type = 58
	TypeCDS        Type = 59
	TypeCDNSKEY    Type = 60
	TypeOPENPGPKEY Type = 61
	TypeCSYNC      Type = 62
	TypeSPF        Type = 99
	TypeUINFO      Type = 100
	TypeUID        Type = 101
	TypeGID        Type = 102
	TypeUNSPEC     Type = 103
	TypeNID        Type = 104
	TypeL32        Type = 105
	TypeL64        Type = 106
	TypeLP         Type = 107
	TypeEUI48      Type = 108
	TypeEUI64      Type = 109
	TypeTKEY       Type = 249
	TypeTSIG       Type = 250
	TypeURI        Type = 256
	TypeCAA        Type = 257
	TypeAVC        Type = 258
	TypeDOA        Type = 259
	TypeANY        Type = 255
	TypeTA         Type = 32768
	TypeDLV        Type = 32769
)

var typeNames = map[Type]string{
	TypeA: "A", TypeNS: "NS", TypeMD: "MD", TypeMF: "MF", TypeCNAME: "CNAME",
	TypeSOA: "SOA", TypeMB: "MB", TypeMG: "MG", TypeMR: "MR", TypeNULL: "NULL",
	TypeWKS: "WKS", TypePTR: "PTR", TypeHINFO: "HINFO", TypeMINFO: "MINFO",
	TypeMX: "MX", TypeTXT: "TXT", TypeRP: "RP", TypeAFSDB: "AFSDB", TypeX25: "X25",
	TypeISDN: "ISDN", TypeRT: "RT", TypeNSAP: "NSAP", TypeNSAPPTR: "NSAP-PTR",
	TypeSIG: "SIG", TypeKEY: "KEY", TypePX: "PX", TypeGPOS: "GPOS", TypeAAAA: "AAAA",
	TypeLOC: "LOC", TypeNXT: "NXT", TypeEID: "EID", TypeNIMLOC: "NIMLOC",
	TypeSRV: "SRV", TypeATMA: "ATMA", TypeNAPTR: "NAPTR", TypeKX: "KX",
	TypeCERT: "CERT", TypeA6: "A6", TypeDNAME: "DNAME", TypeOPT: "OPT",
	TypeAPL: "APL", TypeDS: "DS", TypeSSHFP: "SSHFP", TypeIPSECKEY: "IPSECKEY",
	TypeRRSIG: "RRSIG", TypeNSEC: "NSEC", TypeDNSKEY: "DNSKEY", TypeDHCID: "DHCID",
	TypeNSEC3: "NSEC3", TypeNSEC3PARAM: "NSEC3PARAM", TypeTLSA: "TLSA",
	TypeSMIMEA: "SMIMEA", TypeHIP: "HIP", TypeNINFO: "NINFO", TypeRKEY: "RKEY",
	TypeTALINK: "TALINK", TypeCDS: "CDS", TypeCDNSKEY: "CDNSKEY",
	TypeOPENPGPKEY: "OPENPGPKEY", TypeCSYNC: "CSYNC", TypeSPF: "SPF",
	TypeUINFO: "UINFO", TypeUID: "UID", TypeGID: "GID", TypeUNSPEC: "UNSPEC",
	TypeNID: "NID", TypeL32: "L32", TypeL64: "L64", TypeLP: "LP",
	TypeEUI48: "EUI48", TypeEUI64: "EUI64", TypeTKEY: "TKEY", TypeTSIG: "TSIG",
	TypeURI: "URI", TypeCAA: "CAA", TypeAVC: "AVC", TypeDOA: "DOA", TypeANY: "ANY",
	TypeTA: "TA", TypeDLV: "DLV",
}

var nameTypes = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	return m
}()

// String returns the mnemonic name for a known type, or RFC 3597's
// generic "TYPE<n>" form for one the registry does not recognize.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "TYPE" + strconv.Itoa(int(t))
}

// ParseType parses a mnemonic ("A", "AAAA", ...) or RFC 3597 generic
// "TYPE<n>" form back into a Type.
func ParseType(s string) (Type, bool) {
	if t, ok := nameTypes[s]; ok {
		return t, true
	}
	if len(s) > 4 && s[:4] == "TYPE" {
		if n, err := strconv.Atoi(s[4:]); err == nil && n >= 0 && n <= 0xFFFF {
			return Type(n), true
		}
	}
	return 0, false
}
