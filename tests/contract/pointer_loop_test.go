package contract

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/nazarii-m/dnscore/internal/dnsmsg"
	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
)

// header builds a minimal 12-byte DNS header with the given section
// counts, used to hand-assemble malformed messages byte-for-byte.
func header(qd, an, ns, ar uint16) []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint16(b[4:], qd)
	binary.BigEndian.PutUint16(b[6:], an)
	binary.BigEndian.PutUint16(b[8:], ns)
	binary.BigEndian.PutUint16(b[10:], ar)
	return b
}

// TestDecodeRejectsSelfPointer checks that a compression pointer
// referencing itself fails with an encoding error rather than
// hanging the decoder.
func TestDecodeRejectsSelfPointer(t *testing.T) {
	msg := header(1, 0, 0, 0)
	// a question name at offset 12 that points at itself (offset 12).
	selfPtr := []byte{0xC0, 12}
	msg = append(msg, selfPtr...)
	msg = append(msg, 0, 1, 0, 1) // type A, class IN

	done := make(chan struct{})
	go func() {
		_, err := dnsmsg.Decode(msg)
		if err == nil {
			t.Error("expected an error decoding a self-referencing pointer")
		}
		var encErr *errs.EncodingError
		if !errors.As(err, &encErr) {
			t.Errorf("got %T, want *errs.EncodingError", err)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Decode did not return: suspected infinite loop on a self-pointer")
	}
}

// TestDecodeRejectsTransitivePointerLoop covers the "transitively"
// half of the same property: two pointers that reference each other.
func TestDecodeRejectsTransitivePointerLoop(t *testing.T) {
	// offset 12: pointer -> 14; offset 14: pointer -> 12.
	msg := header(1, 0, 0, 0)
	msg = append(msg, 0xC0, 14)
	msg = append(msg, 0xC0, 12)
	msg = append(msg, 0, 1, 0, 1)

	done := make(chan struct{})
	go func() {
		_, err := dnsmsg.Decode(msg)
		if err == nil {
			t.Error("expected an error decoding a transitive pointer loop")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Decode did not return: suspected infinite loop on a transitive pointer cycle")
	}
}

// TestDecodeRejectsForwardPointer checks that a pointer referencing a
// position at or past itself is rejected; pointers may only reference
// prior positions.
func TestDecodeRejectsForwardPointer(t *testing.T) {
	msg := header(1, 0, 0, 0)
	// pointer at offset 12 pointing forward to offset 20, which is
	// past the end of this short message entirely.
	msg = append(msg, 0xC0, 20)
	msg = append(msg, 0, 1, 0, 1)

	if _, err := dnsmsg.Decode(msg); err == nil {
		t.Error("expected an error decoding a forward-referencing pointer")
	}
}

// TestDecodeRejectsReservedLabelBits checks that length bytes with
// the 10 or 01 high-bit combination are rejected.
func TestDecodeRejectsReservedLabelBits(t *testing.T) {
	for _, lead := range []byte{0x40, 0x80} {
		msg := header(1, 0, 0, 0)
		msg = append(msg, lead, 'x')
		msg = append(msg, 0, 1, 0, 1)
		if _, _, err := names.Decode(msg, 12); err == nil {
			t.Errorf("lead byte %#x: expected reserved-bits rejection", lead)
		}
	}
}
