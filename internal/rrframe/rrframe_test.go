package rrframe

import (
	"net"
	"testing"

	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
)

func mustName(t *testing.T, s string) names.Name {
	t.Helper()
	n, err := names.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

func TestQuestionRoundTrip(t *testing.T) {
	q := Question{Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1}
	comp := names.CompressionMap{}
	size := SizeQuestion(q, 0, comp)
	buf := EncodeQuestion(nil, q, names.CompressionMap{})
	if len(buf) != size {
		t.Fatalf("size=%d encoded=%d", size, len(buf))
	}
	got, end, err := DecodeQuestion(buf, 0)
	if err != nil {
		t.Fatalf("DecodeQuestion: %v", err)
	}
	if end != len(buf) || got.Type != rrdata.TypeA || got.Class != 1 {
		t.Fatalf("got %+v end=%d", got, end)
	}
	if !names.EqualFold(got.Name, q.Name) {
		t.Errorf("Name = %v, want %v", got.Name, q.Name)
	}
}

func TestRecordRoundTripA(t *testing.T) {
	rec := Record{
		Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1, TTL: 300,
		Data: rrdata.RData{Type: rrdata.TypeA, Fields: map[string]rrdata.Value{"Address": net.ParseIP("192.0.2.1")}},
	}
	comp := names.CompressionMap{}
	size, err := SizeRecord(rec, 0, comp)
	if err != nil {
		t.Fatalf("SizeRecord: %v", err)
	}
	buf, err := EncodeRecord(nil, rec, names.CompressionMap{})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if len(buf) != size {
		t.Fatalf("size=%d encoded=%d", size, len(buf))
	}
	got, end, err := DecodeRecord(buf, 0)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if end != len(buf) || got.TTL != 300 {
		t.Fatalf("got %+v end=%d", got, end)
	}
	ip := got.Data.Fields["Address"].(net.IP)
	if !ip.Equal(net.ParseIP("192.0.2.1")) {
		t.Errorf("Address = %v", ip)
	}
}

func TestRecordRejectsOversizedRdlength(t *testing.T) {
	rec := Record{
		Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1, TTL: 300,
		Data: rrdata.RData{Type: rrdata.TypeA, Fields: map[string]rrdata.Value{"Address": net.ParseIP("192.0.2.1")}},
	}
	buf, err := EncodeRecord(nil, rec, names.CompressionMap{})
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	// Corrupt rdlength to claim more bytes than remain.
	buf[len(buf)-6] = 0xFF
	buf[len(buf)-5] = 0xFF
	if _, _, err := DecodeRecord(buf, 0); err == nil {
		t.Fatal("expected error for oversized rdlength")
	}
}

func TestCompressionSharedAcrossQuestionAndRecord(t *testing.T) {
	q := Question{Name: mustName(t, "www.example.com."), Type: rrdata.TypeA, Class: 1}
	rec := Record{
		Name: mustName(t, "example.com."), Type: rrdata.TypeNS, Class: 1, TTL: 300,
		Data: rrdata.RData{Type: rrdata.TypeNS, Fields: map[string]rrdata.Value{"Ns": mustName(t, "ns1.example.com.")}},
	}
	comp := names.CompressionMap{}
	var buf []byte
	buf = EncodeQuestion(buf, q, comp)
	before := len(buf)
	buf, err := EncodeRecord(buf, rec, comp)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if len(buf)-before >= 40 {
		t.Errorf("expected record's owner name to compress against the question: grew by %d bytes", len(buf)-before)
	}
}
