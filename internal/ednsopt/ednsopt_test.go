package ednsopt

import (
	"reflect"
	"testing"

	"github.com/nazarii-m/dnscore/internal/wireconst"
)

func TestRoundTrip(t *testing.T) {
	opts := []Option{
		{Code: wireconst.OptNSID, Data: []byte("resolver-1")},
		{Code: wireconst.OptCookie, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{Code: 65010, Data: []byte{0xAA}},
	}
	buf, err := Encode(nil, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != Size(opts) {
		t.Fatalf("Size=%d Encode=%d", Size(opts), len(buf))
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, opts) {
		t.Errorf("got %+v, want %+v", got, opts)
	}
}

func TestIsLocal(t *testing.T) {
	if !IsLocal(65001) || !IsLocal(65534) {
		t.Error("boundary of local range should be local")
	}
	if IsLocal(65000) || IsLocal(65535) {
		t.Error("just outside local range should not be local")
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, err := Decode([]byte{0, 10, 0, 5, 1, 2}); err == nil {
		t.Fatal("expected error for option data shorter than declared length")
	}
}

func TestDecodedDispatch(t *testing.T) {
	cookie := Decoded(Option{Code: wireconst.OptCookie, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}})
	co, ok := cookie.(CookieOption)
	if !ok || len(co.Client) != 8 || len(co.Server) != 2 {
		t.Errorf("Decoded(COOKIE) = %+v", cookie)
	}

	subnet := Decoded(Option{Code: wireconst.OptSubnet, Data: []byte{0, 1, 24, 0, 192, 0, 2}})
	so, ok := subnet.(SubnetOption)
	if !ok || so.Family != 1 || so.SourcePrefix != 24 {
		t.Errorf("Decoded(SUBNET) = %+v", subnet)
	}

	local := Decoded(Option{Code: 65010, Data: []byte{0xAA}})
	if _, ok := local.(LocalOption); !ok {
		t.Errorf("Decoded(65010) = %T, want LocalOption", local)
	}

	unknown := Decoded(Option{Code: 99, Data: []byte{1}})
	if _, ok := unknown.(UnknownOption); !ok {
		t.Errorf("Decoded(99) = %T, want UnknownOption", unknown)
	}
}

func TestByCode(t *testing.T) {
	opts := []Option{{Code: wireconst.OptNSID, Data: []byte("x")}}
	if _, ok := ByCode(opts, wireconst.OptCookie); ok {
		t.Error("ByCode should not find an absent code")
	}
	o, ok := ByCode(opts, wireconst.OptNSID)
	if !ok || string(o.Data) != "x" {
		t.Errorf("ByCode = %+v, %v", o, ok)
	}
}
