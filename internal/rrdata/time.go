package rrdata

import (
	"fmt"
	"time"

	"github.com/nazarii-m/dnscore/internal/errs"
)

const sigTimeLayout = "20060102150405"

// FormatSigTime renders a SIG/RRSIG inception or expiration field (a
// u32 wire value, RFC 2535 §4.1.3's "number of seconds since
// 1-Jan-1970" with no epoch rollover handling on the wire) as the
// YYYYMMDDHHMMSS presentation form.
func FormatSigTime(wire uint32) string {
	return time.Unix(int64(wire), 0).UTC().Format(sigTimeLayout)
}

// ParseSigTime parses a YYYYMMDDHHMMSS presentation timestamp back
// into its u32 wire value. Values are truncated mod 2^32 on the wire;
// RFC 2535 §4.1.3's 32-bit serial-number arithmetic for interpreting
// a wire value relative to "now" lives in SigTimeAfterNow below, not
// here — this is a plain timestamp round trip.
func ParseSigTime(s string) (uint32, error) {
	t, err := time.Parse(sigTimeLayout, s)
	if err != nil {
		return 0, &errs.FormatError{Op: "parse sig time", Line: s, Msg: fmt.Sprintf("invalid YYYYMMDDHHMMSS timestamp: %v", err)}
	}
	return uint32(t.Unix()), nil
}

// SigTimeAfterNow reports whether wire time t is in the future
// relative to now, using RFC 2535 §4.1.3 serial-number arithmetic
// (modular comparison over 2^32) rather than a naive integer
// comparison — required because the field wraps in 2106 and a naive
// "t > now" comparison breaks the moment now itself has wrapped but
// t has not, or vice versa.
func SigTimeAfterNow(t uint32, now time.Time) bool {
	n := uint32(now.Unix())
	return int32(t-n) > 0
}

// SigTimeBeforeNow is the inception-side counterpart of
// SigTimeAfterNow: true once t is no longer in the future.
func SigTimeBeforeNow(t uint32, now time.Time) bool {
	return !SigTimeAfterNow(t, now)
}
