package rrdata

import (
	"net"
	"reflect"
	"testing"

	"github.com/nazarii-m/dnscore/internal/names"
)

func roundTrip(t *testing.T, typ Type, fields map[string]Value) map[string]Value {
	t.Helper()
	r := RData{Type: typ, Fields: fields}
	size, err := Size(r, 0, nil)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	buf, err := Encode(r, nil, 0, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != size {
		t.Fatalf("Size()=%d but Encode produced %d bytes", size, len(buf))
	}
	got, err := Decode(typ, buf, 0, len(buf))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got.Fields
}

func mustName(t *testing.T, s string) names.Name {
	t.Helper()
	n, err := names.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

func TestRoundTripA(t *testing.T) {
	ip := net.ParseIP("192.0.2.1")
	got := roundTrip(t, TypeA, map[string]Value{"Address": ip})
	if !got["Address"].(net.IP).Equal(ip) {
		t.Errorf("Address = %v, want %v", got["Address"], ip)
	}
}

func TestRoundTripAAAA(t *testing.T) {
	ip := net.ParseIP("2001:db8::1")
	got := roundTrip(t, TypeAAAA, map[string]Value{"Address": ip})
	if !got["Address"].(net.IP).Equal(ip) {
		t.Errorf("Address = %v, want %v", got["Address"], ip)
	}
}

func TestRoundTripSOA(t *testing.T) {
	fields := map[string]Value{
		"Ns": mustName(t, "ns1.example.com."), "Mbox": mustName(t, "hostmaster.example.com."),
		"Serial": uint32(2024010100), "Refresh": uint32(3600), "Retry": uint32(600),
		"Expire": uint32(604800), "Minttl": uint32(300),
	}
	got := roundTrip(t, TypeSOA, fields)
	if got["Serial"].(uint32) != 2024010100 {
		t.Errorf("Serial = %v", got["Serial"])
	}
	if !names.EqualFold(got["Ns"].(names.Name), fields["Ns"].(names.Name)) {
		t.Errorf("Ns = %v, want %v", got["Ns"], fields["Ns"])
	}
}

func TestRoundTripMX(t *testing.T) {
	fields := map[string]Value{"Preference": uint16(10), "Exchange": mustName(t, "mail.example.com.")}
	got := roundTrip(t, TypeMX, fields)
	if got["Preference"].(uint16) != 10 {
		t.Errorf("Preference = %v", got["Preference"])
	}
}

func TestRoundTripTXT(t *testing.T) {
	fields := map[string]Value{"Txt": []string{"hello", "world", ""}}
	got := roundTrip(t, TypeTXT, fields)
	if !reflect.DeepEqual(got["Txt"], fields["Txt"]) {
		t.Errorf("Txt = %v, want %v", got["Txt"], fields["Txt"])
	}
}

func TestRoundTripSRV(t *testing.T) {
	fields := map[string]Value{
		"Priority": uint16(10), "Weight": uint16(20), "Port": uint16(5060),
		"Target": mustName(t, "sipserver.example.com."),
	}
	got := roundTrip(t, TypeSRV, fields)
	if got["Port"].(uint16) != 5060 {
		t.Errorf("Port = %v", got["Port"])
	}
}

func TestRoundTripDS(t *testing.T) {
	fields := map[string]Value{
		"KeyTag": uint16(12345), "Algorithm": uint8(8), "DigestType": uint8(2),
		"Digest": []byte{0xde, 0xad, 0xbe, 0xef},
	}
	got := roundTrip(t, TypeDS, fields)
	if !reflect.DeepEqual(got["Digest"], fields["Digest"]) {
		t.Errorf("Digest = %x, want %x", got["Digest"], fields["Digest"])
	}
}

func TestRoundTripNSEC(t *testing.T) {
	fields := map[string]Value{
		"NextDomain": mustName(t, "b.example.com."),
		"TypeBitmap": []uint16{1, 15, 16, 28, 46},
	}
	got := roundTrip(t, TypeNSEC, fields)
	if !reflect.DeepEqual(got["TypeBitmap"], fields["TypeBitmap"]) {
		t.Errorf("TypeBitmap = %v, want %v", got["TypeBitmap"], fields["TypeBitmap"])
	}
}

func TestRoundTripRRSIG(t *testing.T) {
	fields := map[string]Value{
		"TypeCovered": uint16(TypeA), "Algorithm": uint8(8), "Labels": uint8(2),
		"OriginalTTL": uint32(3600), "Expiration": uint32(1893456000), "Inception": uint32(1861920000),
		"KeyTag": uint16(54321), "SignerName": mustName(t, "example.com."),
		"Signature": []byte{1, 2, 3, 4, 5, 6, 7, 8},
	}
	got := roundTrip(t, TypeRRSIG, fields)
	if got["KeyTag"].(uint16) != 54321 {
		t.Errorf("KeyTag = %v", got["KeyTag"])
	}
}

func TestDecodeOpaqueUnknownType(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	got, err := Decode(Type(65000), raw, 0, len(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got.Opaque, raw) {
		t.Errorf("Opaque = %v, want %v", got.Opaque, raw)
	}
	out, err := Encode(got, nil, 0, nil)
	if err != nil || !reflect.DeepEqual(out, raw) {
		t.Errorf("Encode(opaque) = %v, %v; want %v, nil", out, err, raw)
	}
}

func TestRoundTripCAA(t *testing.T) {
	fields := map[string]Value{"Flags": uint8(0), "Tag": "issue", "Value": []byte("letsencrypt.org")}
	got := roundTrip(t, TypeCAA, fields)
	if string(got["Value"].([]byte)) != "letsencrypt.org" {
		t.Errorf("Value = %q", got["Value"])
	}
}

func TestDecodeTruncatedRData(t *testing.T) {
	if _, err := Decode(TypeA, []byte{1, 2, 3}, 0, 3); err == nil {
		t.Fatal("expected error decoding truncated A record")
	}
}
