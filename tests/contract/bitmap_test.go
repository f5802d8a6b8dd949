package contract

import (
	"sort"
	"testing"

	"github.com/nazarii-m/dnscore/internal/bitmap"
)

// TestBitmapRoundTrip checks that decoding an encoded type set yields
// the set sorted and deduplicated.
func TestBitmapRoundTrip(t *testing.T) {
	cases := [][]uint16{
		nil,
		{1},
		{1, 2, 6, 15, 16, 28, 33, 46, 47, 48},
		{0, 255, 256, 511, 512, 65535},
		{65535, 0, 256}, // unsorted input
		{1, 1, 1, 2},    // duplicates
	}
	for i, types := range cases {
		want := append([]uint16(nil), types...)
		sort.Slice(want, func(a, b int) bool { return want[a] < want[b] })
		want = dedupe(want)

		enc := bitmap.Encode(types)
		got, err := bitmap.Decode(enc)
		if err != nil {
			t.Fatalf("case %d: Decode: %v", i, err)
		}
		if len(got) != len(want) {
			t.Fatalf("case %d: got %v, want %v", i, got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("case %d: got %v, want %v", i, got, want)
			}
		}
		for _, tv := range want {
			if !bitmap.HasType(enc, tv) {
				t.Errorf("case %d: HasType(%d) = false, want true", i, tv)
			}
		}
	}
}

func dedupe(sorted []uint16) []uint16 {
	var out []uint16
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// TestBitmapWindowOrdering checks that window numbers must appear
// strictly increasing on the wire; a hand-built bitmap that violates
// this must be rejected rather than silently accepted.
func TestBitmapWindowOrdering(t *testing.T) {
	bad := []byte{1, 1, 0x80, 0, 1, 0x80} // window 1, then window 0
	if _, err := bitmap.Decode(bad); err == nil {
		t.Error("expected an error decoding out-of-order windows")
	}
}
