package resolver

import (
	"net"

	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
	"github.com/nazarii-m/dnscore/internal/wireconst"
)

// Question identifies one resolution request.
type Question struct {
	Name  names.Name
	Type  rrdata.Type
	Class uint16
}

// Result is the outcome of a successful Resolve call: the answer
// records accumulated along any CNAME chain, and the logical RCODE
// (NOERROR/NXDOMAIN/NODATA-as-NOERROR-with-empty-answer).
type Result struct {
	Answer []rrframe.Record
	RCode  wireconst.RCode
}

// nameserver is one candidate server within a referral's current set.
type nameserver struct {
	name     string
	ip       net.IP
	failures int
}
