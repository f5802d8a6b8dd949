// Package contract holds RFC-conformance black-box tests against the
// codec's public surface (names, rrframe, dnsmsg, presentation,
// bitmap): round-trip properties, boundary sizes, and malformed-input
// rejection.
package contract

import (
	"strings"
	"testing"

	"github.com/nazarii-m/dnscore/internal/names"
)

func mustName(t *testing.T, s string) names.Name {
	t.Helper()
	n, err := names.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

// TestNameRoundTrip checks that decoding an encoded name reproduces
// it exactly, including escaped labels.
func TestNameRoundTrip(t *testing.T) {
	cases := []string{
		".", "com.", "example.com.", "www.example.com.",
		"a.b.c.d.e.f.example.com.",
		`My\032Printer.local.`,
	}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			n := mustName(t, s)
			buf := names.Encode(nil, n, nil)
			got, next, err := names.Decode(buf, 0)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if next != len(buf) {
				t.Errorf("Decode consumed %d bytes, want %d", next, len(buf))
			}
			if !names.EqualFold(got, n) {
				t.Errorf("got %q, want %q", got.String(), n.String())
			}
		})
	}
}

// TestNameCompressionDiscipline checks that the second occurrence of
// any repeated suffix is emitted as a pointer to the first.
func TestNameCompressionDiscipline(t *testing.T) {
	comp := names.CompressionMap{}
	first := mustName(t, "www.example.com.")
	second := mustName(t, "mail.example.com.")

	buf := names.Encode(nil, first, comp)
	firstLen := len(buf)
	buf = names.Encode(buf, second, comp)

	// second shares the "example.com." suffix with first; its
	// encoding must be "mail" literal plus a 2-byte pointer, not a
	// full uncompressed repeat of "example.com.".
	secondBytes := buf[firstLen:]
	wantUncompressed := 1 + len("mail") + 1 + len("example") + 1 + len("com") + 1
	if len(secondBytes) >= wantUncompressed {
		t.Errorf("second name was not compressed: %d bytes (uncompressed would be %d)", len(secondBytes), wantUncompressed)
	}

	gotFirst, off1, err := names.Decode(buf, 0)
	if err != nil {
		t.Fatalf("Decode first: %v", err)
	}
	if off1 != firstLen {
		t.Fatalf("first name end offset = %d, want %d", off1, firstLen)
	}
	gotSecond, _, err := names.Decode(buf, firstLen)
	if err != nil {
		t.Fatalf("Decode second: %v", err)
	}
	if !names.EqualFold(gotFirst, first) || !names.EqualFold(gotSecond, second) {
		t.Fatalf("round trip mismatch: %q / %q", gotFirst.String(), gotSecond.String())
	}
}

// TestNameCompressionSizeWriteAgree checks the two-pass encode
// contract directly: a size-pass comp map and a write-pass comp map,
// each starting empty, must produce the same byte length for the
// same sequence of names.
func TestNameCompressionSizeWriteAgree(t *testing.T) {
	seq := []names.Name{
		mustName(t, "a.example.com."),
		mustName(t, "b.example.com."),
		mustName(t, "c.example.com."),
	}
	sizeComp := names.CompressionMap{}
	total := 0
	for _, n := range seq {
		total += names.Size(n, total, sizeComp)
	}

	writeComp := names.CompressionMap{}
	var buf []byte
	for _, n := range seq {
		buf = names.Encode(buf, n, writeComp)
	}
	if len(buf) != total {
		t.Errorf("write pass produced %d bytes, size pass predicted %d", len(buf), total)
	}
}

// TestNameBoundaries exercises a name exactly at 255 wire octets, and
// labels of 0 and 63 octets.
func TestNameBoundaries(t *testing.T) {
	// 63-octet label repeated to approach the 255-octet ceiling:
	// 3*(63+1) + 1 (root) = 193, plus one more 61-octet label to land
	// exactly on 255: 193 + 61 + 1 = 255.
	label63 := strings.Repeat("a", 63)
	label61 := strings.Repeat("b", 61)
	s := label63 + "." + label63 + "." + label63 + "." + label61 + "."
	n, err := names.Parse(s)
	if err != nil {
		t.Fatalf("Parse 255-octet name: %v", err)
	}
	buf := names.Encode(nil, n, nil)
	if len(buf) != 255 {
		t.Fatalf("wire length = %d, want 255", len(buf))
	}

	tooLong := s + "c."
	if _, err := names.Parse(tooLong); err == nil {
		t.Error("expected name exceeding 255 octets to be rejected")
	}

	label64 := strings.Repeat("a", 64)
	if _, err := names.Parse(label64 + "."); err == nil {
		t.Error("expected a 64-octet label to be rejected")
	}

	if _, err := names.Parse("a..b."); err == nil {
		t.Error("expected an empty label (consecutive dots) to be rejected")
	}
}

// TestNameEscaping round-trips a single-octet label through \DDD
// escaping for all 256 octet values.
func TestNameEscaping(t *testing.T) {
	for v := 0; v < 256; v++ {
		label := string([]byte{byte(v)})
		presentation := escapeOctet(byte(v)) + "."
		n, err := names.Parse(presentation)
		if err != nil {
			t.Fatalf("Parse(%q) (octet %d): %v", presentation, v, err)
		}
		if len(n.Labels) != 1 || n.Labels[0] != label {
			t.Fatalf("octet %d: got labels %v, want [%q]", v, n.Labels, label)
		}
	}
}

// escapeOctet mirrors names.Name.String's escaping rules for a single
// octet, used to build presentation input for TestNameEscaping
// without depending on an unexported helper.
func escapeOctet(c byte) string {
	reserved := map[byte]bool{
		'.': true, '(': true, ')': true, ';': true, ' ': true,
		'@': true, '"': true, '\\': true,
	}
	switch {
	case reserved[c]:
		return `\` + string(c)
	case c < 0x20 || c > 0x7E:
		return `\` + pad3(int(c))
	default:
		return string(c)
	}
}

func pad3(v int) string {
	digits := [3]byte{'0', '0', '0'}
	digits[2] = byte('0' + v%10)
	v /= 10
	digits[1] = byte('0' + v%10)
	v /= 10
	digits[0] = byte('0' + v%10)
	return string(digits[:])
}
