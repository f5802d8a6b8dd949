package resolver

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"

	"github.com/nazarii-m/dnscore/internal/names"
)

// randomID returns a cryptographically random 16-bit query id, drawn
// fresh per attempt so a response forger cannot predict it.
func randomID() uint16 {
	var b [2]byte
	// crypto/rand.Read on a 2-byte buffer does not fail in practice on
	// any supported platform; a zero id on the vanishingly rare error
	// path is still a valid (if weak) id rather than a reason to
	// surface an error from every single query attempt.
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint16(b[:])
}

// stableIndex deterministically maps name to a starting offset into a
// set of n candidates: pseudo-random across names to spread load, but
// stable for any one name so its retries start from the same server
// before rotating on failure.
func stableIndex(name names.Name, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	for _, l := range name.Lower().Labels {
		_, _ = h.Write([]byte(l))
		_, _ = h.Write([]byte{0})
	}
	return int(h.Sum32() % uint32(n))
}
