// Package rrframe implements the question and resource record wire
// envelopes from RFC 1035 §4.1.2/§4.1.3: the (name, type, class)
// question triple and the (name, type, class, ttl, rdlength, rdata)
// record sextuple that wrap every rdata payload internal/rrdata knows
// how to read and write.
package rrframe

import (
	"encoding/binary"

	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
)

// Question is one entry of the question section.
type Question struct {
	Name  names.Name
	Type  rrdata.Type
	Class uint16
}

// Record is one entry of the answer, authority, or additional
// section: a parsed, typed resource record.
type Record struct {
	Name  names.Name
	Type  rrdata.Type
	Class uint16
	TTL   uint32
	Data  rrdata.RData
}

// DecodeQuestion reads one question entry starting at offset and
// returns the offset just past it.
func DecodeQuestion(msg []byte, offset int) (Question, int, error) {
	name, pos, err := names.Decode(msg, offset)
	if err != nil {
		return Question{}, offset, err
	}
	if pos+4 > len(msg) {
		return Question{}, offset, &errs.EncodingError{Op: "decode question", Offset: pos, Msg: "truncated qtype/qclass"}
	}
	qtype := binary.BigEndian.Uint16(msg[pos:])
	qclass := binary.BigEndian.Uint16(msg[pos+2:])
	return Question{Name: name, Type: rrdata.Type(qtype), Class: qclass}, pos + 4, nil
}

// SizeQuestion mirrors EncodeQuestion's byte count, mutating comp
// identically so the size and write passes agree.
func SizeQuestion(q Question, atOffset int, comp names.CompressionMap) int {
	return names.Size(q.Name, atOffset, comp) + 4
}

// EncodeQuestion appends q's wire form to dst.
func EncodeQuestion(dst []byte, q Question, comp names.CompressionMap) []byte {
	dst = names.Encode(dst, q.Name, comp)
	dst = binary.BigEndian.AppendUint16(dst, uint16(q.Type))
	return binary.BigEndian.AppendUint16(dst, q.Class)
}

// DecodeRecord reads one resource record starting at offset and
// returns the offset just past it. rdlength is validated against the
// remaining message length before rrdata.Decode is invoked, so a
// corrupt rdlength cannot make rrdata.Decode read past the record's
// own bounds (it can still legitimately follow a compression pointer
// backward into earlier message bytes for name-bearing rdata fields).
func DecodeRecord(msg []byte, offset int) (Record, int, error) {
	name, pos, err := names.Decode(msg, offset)
	if err != nil {
		return Record{}, offset, err
	}
	if pos+10 > len(msg) {
		return Record{}, offset, &errs.EncodingError{Op: "decode record", Offset: pos, Msg: "truncated type/class/ttl/rdlength"}
	}
	typ := rrdata.Type(binary.BigEndian.Uint16(msg[pos:]))
	class := binary.BigEndian.Uint16(msg[pos+2:])
	ttl := binary.BigEndian.Uint32(msg[pos+4:])
	rdlength := int(binary.BigEndian.Uint16(msg[pos+8:]))
	rdStart := pos + 10
	if rdStart+rdlength > len(msg) {
		return Record{}, offset, &errs.EncodingError{Op: "decode record", Offset: rdStart, Msg: "rdlength exceeds message bounds"}
	}
	data, err := rrdata.Decode(typ, msg, rdStart, rdlength)
	if err != nil {
		return Record{}, offset, err
	}
	return Record{Name: name, Type: typ, Class: class, TTL: ttl, Data: data}, rdStart + rdlength, nil
}

// SizeRecord returns the wire size of r, mutating comp as
// EncodeRecord would.
func SizeRecord(r Record, atOffset int, comp names.CompressionMap) (int, error) {
	nameSize := names.Size(r.Name, atOffset, comp)
	rdSize, err := rrdata.Size(r.Data, atOffset+nameSize+10, comp)
	if err != nil {
		return 0, err
	}
	return nameSize + 10 + rdSize, nil
}

// EncodeRecord appends r's wire form to dst. The rdlength field is
// patched in from the actual encoded rdata length, not recomputed via
// SizeRecord, so the written length can never disagree with the
// written bytes even when name compression inside rdata makes the
// length depend on message position (RFC 3597 §4 notes this
// dependency for compressible name fields).
func EncodeRecord(dst []byte, r Record, comp names.CompressionMap) ([]byte, error) {
	dst = names.Encode(dst, r.Name, comp)
	dst = binary.BigEndian.AppendUint16(dst, uint16(r.Type))
	dst = binary.BigEndian.AppendUint16(dst, r.Class)
	dst = binary.BigEndian.AppendUint32(dst, r.TTL)
	lenPos := len(dst)
	dst = append(dst, 0, 0) // rdlength placeholder, patched below
	rdStart := len(dst)
	dst, err := rrdata.Encode(r.Data, dst, rdStart, comp)
	if err != nil {
		return nil, err
	}
	rdlen := len(dst) - rdStart
	if rdlen > 0xFFFF {
		return nil, &errs.EncodingError{Op: "encode record", Msg: "rdata exceeds 65535 octets"}
	}
	binary.BigEndian.PutUint16(dst[lenPos:], uint16(rdlen))
	return dst, nil
}
