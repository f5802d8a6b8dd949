// Package dnsmsg implements the message codec: the 12-byte header,
// four sections, and the EDNS0/TSIG/SIG(0) pseudo-section extraction
// layered on top of the additional section, plus the two-pass
// size-bounded encoder that truncates with TC when a message would
// exceed its size budget.
package dnsmsg

import (
	"encoding/binary"

	"github.com/nazarii-m/dnscore/internal/ednsopt"
	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
	"github.com/nazarii-m/dnscore/internal/wireconst"
)

// EDNS is the typed view of an OPT pseudo-record (RFC 6891).
type EDNS struct {
	Enabled  bool
	UDPSize  uint16
	ExtRCode uint8
	Version  uint8
	Flags    uint16
	Options  []ednsopt.Option
}

// Message is a fully decoded DNS message: header fields, the four
// sections, and the EDNS/TSIG/SIG0 pseudo-sections promoted out of
// additional.
type Message struct {
	ID     uint16
	QR     bool
	Opcode wireconst.Opcode
	RCode  wireconst.RCode // logical 12-bit code, high bits spliced from EDNS

	AA, TC, RD, RA, AD, CD bool

	Question   []rrframe.Question
	Answer     []rrframe.Record
	Authority  []rrframe.Record
	Additional []rrframe.Record

	EDNS *EDNS
	TSIG *rrframe.Record
	SIG0 *rrframe.Record

	// Size is the octet length observed on decode.
	Size int
	// Trailing preserves bytes beyond the structured content some
	// servers append; observable but non-fatal.
	Trailing []byte
}

const headerLen = 12

func packFlags(m *Message) uint16 {
	var f uint16
	if m.QR {
		f |= wireconst.FlagQR
	}
	f |= uint16(m.Opcode) << 11
	if m.AA {
		f |= wireconst.FlagAA
	}
	if m.TC {
		f |= wireconst.FlagTC
	}
	if m.RD {
		f |= wireconst.FlagRD
	}
	if m.RA {
		f |= wireconst.FlagRA
	}
	if m.AD {
		f |= wireconst.FlagAD
	}
	if m.CD {
		f |= wireconst.FlagCD
	}
	f |= uint16(m.RCode) & 0x0F
	return f
}

func unpackFlags(f uint16) (qr bool, op wireconst.Opcode, aa, tc, rd, ra, ad, cd bool, rcodeLow uint8) {
	qr = f&wireconst.FlagQR != 0
	op = wireconst.Opcode((f >> 11) & 0x0F)
	aa = f&wireconst.FlagAA != 0
	tc = f&wireconst.FlagTC != 0
	rd = f&wireconst.FlagRD != 0
	ra = f&wireconst.FlagRA != 0
	ad = f&wireconst.FlagAD != 0
	cd = f&wireconst.FlagCD != 0
	rcodeLow = uint8(f & 0x0F)
	return
}

// Decode parses a complete wire message. If the header's TC bit is
// set and a record in the answer or authority section is truncated
// mid-stream, Decode returns the partial message decoded so far with
// no error — that is what a truncated-over-UDP response looks like,
// and the caller is expected to retry over TCP. If TC is not set, the
// same mid-record failure (a malformed record, a bad compression
// pointer, and so on) is fatal: Decode returns the error instead of a
// silently partial or misaligned message.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < headerLen {
		return nil, &errs.EncodingError{Op: "decode message", Offset: 0, Msg: "message shorter than 12-byte header"}
	}
	m := &Message{Size: len(buf)}
	m.ID = binary.BigEndian.Uint16(buf[0:])
	flags := binary.BigEndian.Uint16(buf[2:])
	var rcodeLow uint8
	m.QR, m.Opcode, m.AA, m.TC, m.RD, m.RA, m.AD, m.CD, rcodeLow = unpackFlags(flags)
	m.RCode = wireconst.RCode(rcodeLow)
	qd := binary.BigEndian.Uint16(buf[4:])
	an := binary.BigEndian.Uint16(buf[6:])
	ns := binary.BigEndian.Uint16(buf[8:])
	ar := binary.BigEndian.Uint16(buf[10:])

	pos := headerLen
	for i := 0; i < int(qd); i++ {
		q, next, err := rrframe.DecodeQuestion(buf, pos)
		if err != nil {
			return nil, err
		}
		m.Question = append(m.Question, q)
		pos = next
	}

	var truncated bool
	var err error
	m.Answer, pos, truncated, err = decodeRecordsTolerant(buf, pos, int(an), m.TC)
	if err != nil {
		return nil, err
	}
	if !truncated {
		m.Authority, pos, truncated, err = decodeRecordsTolerant(buf, pos, int(ns), m.TC)
		if err != nil {
			return nil, err
		}
	}
	if !truncated {
		m.Additional, pos, _, err = decodeRecordsTolerant(buf, pos, int(ar), false)
		if err != nil {
			return nil, err
		}
	}

	promoteEDNSAndSigs(m)

	if pos < len(buf) {
		m.Trailing = append([]byte(nil), buf[pos:]...)
	}
	return m, nil
}

// decodeRecordsTolerant decodes count records starting at pos. If a
// record fails to decode and tolerate is true (the message's TC bit
// is set), it stops and returns the records decoded so far with
// truncated=true and no error; this leniency applies only to the
// answer/authority sections. If tolerate is false, the same decode
// failure is fatal: the error is returned up to the caller instead of
// being silently absorbed into a shorter, possibly misaligned record
// list. A zero count yields a nil slice, as an encoded message with an
// empty section had before encoding.
func decodeRecordsTolerant(buf []byte, pos, count int, tolerate bool) ([]rrframe.Record, int, bool, error) {
	if count == 0 {
		return nil, pos, false, nil
	}
	recs := make([]rrframe.Record, 0, count)
	for i := 0; i < count; i++ {
		r, next, err := rrframe.DecodeRecord(buf, pos)
		if err != nil {
			if tolerate {
				return recs, pos, true, nil
			}
			return recs, pos, false, err
		}
		recs = append(recs, r)
		pos = next
	}
	return recs, pos, false, nil
}

// promoteEDNSAndSigs extracts the EDNS OPT record (the first one
// found), and a tail TSIG or SIG(0) record, out of Additional. Per
// the lenient-on-receive rule, TSIG/SIG0 are searched for anywhere in
// the additional section, not just its last element.
func promoteEDNSAndSigs(m *Message) {
	var kept []rrframe.Record
	var ednsRec *rrframe.Record
	for i := range m.Additional {
		r := m.Additional[i]
		if ednsRec == nil && r.Type == rrdata.TypeOPT {
			rc := r
			ednsRec = &rc
			continue
		}
		kept = append(kept, r)
	}
	if ednsRec != nil {
		m.EDNS = &EDNS{
			Enabled:  true,
			UDPSize:  ednsRec.Class,
			ExtRCode: uint8(ednsRec.TTL >> 24),
			Version:  uint8(ednsRec.TTL >> 16),
			Flags:    uint16(ednsRec.TTL),
			Options:  nil,
		}
		if opts, err := ednsopt.Decode(ednsRec.Data.Opaque); err == nil {
			m.EDNS.Options = opts
		}
		m.RCode = wireconst.RCode(uint16(m.EDNS.ExtRCode)<<4 | uint16(m.RCode))
	}

	var final []rrframe.Record
	for i := range kept {
		r := kept[i]
		if m.TSIG == nil && r.Type == rrdata.TypeTSIG {
			rc := r
			m.TSIG = &rc
			continue
		}
		if m.SIG0 == nil && r.Type == rrdata.TypeSIG && len(r.Name.Labels) == 0 {
			if tc, ok := r.Data.Fields["TypeCovered"]; ok && tc.(uint16) == 0 {
				rc := r
				m.SIG0 = &rc
				continue
			}
		}
		final = append(final, r)
	}
	m.Additional = final
}

// synthesizeEDNSRecord builds the wire OPT record for m.EDNS, if set.
func synthesizeEDNSRecord(m *Message) *rrframe.Record {
	if m.EDNS == nil || !m.EDNS.Enabled {
		return nil
	}
	opts, err := ednsopt.Encode(nil, m.EDNS.Options)
	if err != nil {
		opts = nil
	}
	ttl := uint32(m.EDNS.ExtRCode)<<24 | uint32(m.EDNS.Version)<<16 | uint32(m.EDNS.Flags)
	return &rrframe.Record{
		Name: names.Root, Type: rrdata.TypeOPT, Class: m.EDNS.UDPSize, TTL: ttl,
		Data: rrdata.RData{Type: rrdata.TypeOPT, Opaque: opts},
	}
}

// Encode performs the two-pass size-bounded serialization.
// maxSize is the wire size budget (512 for plain UDP, the EDNS
// advertised size if larger, or a value large enough not to bind for
// TCP). Encode never returns more than maxSize bytes unless even the
// header plus question section alone exceeds it, in which case it
// returns an error rather than silently violating the budget.
func Encode(m *Message, maxSize int) ([]byte, error) {
	comp := names.CompressionMap{}
	tail := tailRecords(m)

	fixedSize := headerLen
	for _, q := range m.Question {
		fixedSize += rrframe.SizeQuestion(q, fixedSize, comp)
	}
	if fixedSize > maxSize {
		return nil, &errs.PolicyError{Limit: "max_size", Msg: "header and question section alone exceed the size budget"}
	}

	answer, size, truncated := fitRecords(m.Answer, fixedSize, maxSize, comp)
	authority := m.Authority
	truncatedAuthority := truncated
	if !truncated {
		authority, size, truncatedAuthority = fitRecords(m.Authority, size, maxSize, comp)
	} else {
		authority = nil
	}

	var additional []rrframe.Record
	droppedAdditional := truncatedAuthority
	if !truncatedAuthority {
		allAdditional := append(append([]rrframe.Record(nil), m.Additional...), tail...)
		addSize, err := bulkSize(allAdditional, size, comp)
		if err == nil && size+addSize <= maxSize {
			additional = allAdditional
			size += addSize
		} else {
			droppedAdditional = len(allAdditional) > 0
		}
	}

	tc := truncated || truncatedAuthority || droppedAdditional

	// Write pass: fresh compression map so size-pass pointer offsets
	// and write-pass pointer offsets agree from byte 0.
	wcomp := names.CompressionMap{}
	dst := make([]byte, headerLen, size)
	binary.BigEndian.PutUint16(dst[0:], m.ID)
	mm := *m
	mm.TC = tc
	binary.BigEndian.PutUint16(dst[2:], packFlags(&mm))
	binary.BigEndian.PutUint16(dst[4:], uint16(len(m.Question)))
	binary.BigEndian.PutUint16(dst[6:], uint16(len(answer)))
	binary.BigEndian.PutUint16(dst[8:], uint16(len(authority)))
	binary.BigEndian.PutUint16(dst[10:], uint16(len(additional)))

	for _, q := range m.Question {
		dst = rrframe.EncodeQuestion(dst, q, wcomp)
	}
	var err error
	for _, sections := range [][]rrframe.Record{answer, authority, additional} {
		for _, r := range sections {
			dst, err = rrframe.EncodeRecord(dst, r, wcomp)
			if err != nil {
				return nil, err
			}
		}
	}
	return dst, nil
}

// tailRecords synthesizes the wire records for the EDNS/TSIG/SIG0
// pseudo-sections, which are always emitted last within additional
// (RFC 2845 requires TSIG last; SIG(0) likewise).
func tailRecords(m *Message) []rrframe.Record {
	var tail []rrframe.Record
	if r := synthesizeEDNSRecord(m); r != nil {
		tail = append(tail, *r)
	}
	if m.TSIG != nil {
		tail = append(tail, *m.TSIG)
	}
	if m.SIG0 != nil {
		tail = append(tail, *m.SIG0)
	}
	return tail
}

func fitRecords(recs []rrframe.Record, startOffset, maxSize int, comp names.CompressionMap) ([]rrframe.Record, int, bool) {
	off := startOffset
	fitted := make([]rrframe.Record, 0, len(recs))
	for i, r := range recs {
		n, err := rrframe.SizeRecord(r, off, comp)
		if err != nil || off+n > maxSize {
			return fitted, off, i < len(recs)
		}
		off += n
		fitted = append(fitted, r)
	}
	return fitted, off, false
}

func bulkSize(recs []rrframe.Record, startOffset int, comp names.CompressionMap) (int, error) {
	off := startOffset
	total := 0
	for _, r := range recs {
		n, err := rrframe.SizeRecord(r, off, comp)
		if err != nil {
			return 0, err
		}
		total += n
		off += n
	}
	return total, nil
}
