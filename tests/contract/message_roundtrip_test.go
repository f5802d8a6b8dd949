package contract

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nazarii-m/dnscore/internal/dnsmsg"
	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
	"github.com/nazarii-m/dnscore/internal/wireconst"
)

var cmpMessage = cmpopts.IgnoreFields(dnsmsg.Message{}, "Size", "Trailing")

// TestMessageRoundTrip checks that decoding an encoded message
// reproduces its header fields and question section exactly.
func TestMessageRoundTrip(t *testing.T) {
	m := &dnsmsg.Message{
		ID: 0x1234, AA: true, TC: false, RD: false,
		Question: []rrframe.Question{
			{Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1},
		},
	}
	buf, err := dnsmsg.Encode(m, 512)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := dnsmsg.Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(m, got, cmpMessage); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestMessageRoundTripWithAnswer exercises a fuller message: a CNAME
// answer pointing at an A record, the shape a resolver sees when
// following an alias.
func TestMessageRoundTripWithAnswer(t *testing.T) {
	m := &dnsmsg.Message{
		ID: 1, QR: true, RA: true, RD: true,
		Question: []rrframe.Question{{Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1}},
		Answer: []rrframe.Record{
			{
				Name: mustName(t, "example.com."), Type: rrdata.TypeCNAME, Class: 1, TTL: 3600,
				Data: rrdata.RData{Type: rrdata.TypeCNAME, Fields: map[string]rrdata.Value{"Target": mustName(t, "www.example.com.")}},
			},
			{
				Name: mustName(t, "www.example.com."), Type: rrdata.TypeA, Class: 1, TTL: 3600,
				Data: rrdata.RData{Type: rrdata.TypeA, Fields: map[string]rrdata.Value{"Address": net.ParseIP("93.184.216.34")}},
			},
		},
	}
	buf, err := dnsmsg.Encode(m, 512)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := dnsmsg.Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Answer) != 2 {
		t.Fatalf("got %d answers, want 2", len(got.Answer))
	}
	target := got.Answer[0].Data.Fields["Target"].(names.Name)
	if target.String() != "www.example.com." {
		t.Errorf("CNAME target = %q", target.String())
	}
	ip := got.Answer[1].Data.Fields["Address"].(net.IP)
	if !ip.Equal(net.ParseIP("93.184.216.34")) {
		t.Errorf("A address = %v", ip)
	}
}

// TestMessageSizeBoundariesSetTC checks the 512- and 4096-octet size
// budgets: TC must be set iff records were dropped to fit.
func TestMessageSizeBoundariesSetTC(t *testing.T) {
	for _, budget := range []int{512, 4096} {
		t.Run(budgetLabel(budget), func(t *testing.T) {
			m := &dnsmsg.Message{ID: 1, QR: true, Question: []rrframe.Question{{Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1}}}
			for i := 0; i < 500; i++ {
				m.Answer = append(m.Answer, rrframe.Record{
					Name: mustName(t, "example.com."), Type: rrdata.TypeTXT, Class: 1, TTL: 300,
					Data: rrdata.RData{Type: rrdata.TypeTXT, Fields: map[string]rrdata.Value{"Txt": []string{"padding to force truncation past the size budget, repeated many times over"}}},
				})
			}
			buf, err := dnsmsg.Encode(m, budget)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if len(buf) > budget {
				t.Fatalf("encoded %d bytes, exceeds budget %d", len(buf), budget)
			}
			got, err := dnsmsg.Decode(buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			wantTC := len(got.Answer) < len(m.Answer)
			if got.TC != wantTC {
				t.Errorf("TC = %v, want %v (fit %d/%d answers)", got.TC, wantTC, len(got.Answer), len(m.Answer))
			}
		})
	}
}

// TestMessageNoTruncationWhenItFits covers the converse: a message
// that fits within its budget must not set TC.
func TestMessageNoTruncationWhenItFits(t *testing.T) {
	m := &dnsmsg.Message{
		ID: 1, QR: true, AA: true,
		Question: []rrframe.Question{{Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1}},
		Answer: []rrframe.Record{
			{Name: mustName(t, "example.com."), Type: rrdata.TypeA, Class: 1, TTL: 300,
				Data: rrdata.RData{Type: rrdata.TypeA, Fields: map[string]rrdata.Value{"Address": net.ParseIP("93.184.216.34")}}},
		},
	}
	buf, err := dnsmsg.Encode(m, 512)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := dnsmsg.Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.TC {
		t.Error("TC set on a message well within budget")
	}
	if wireconst.RCode(got.RCode) != wireconst.RCodeNoError {
		t.Errorf("RCode = %v", got.RCode)
	}
}

func budgetLabel(n int) string {
	if n == 512 {
		return "512"
	}
	return "4096"
}
