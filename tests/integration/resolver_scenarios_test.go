// Package integration runs the resolver's public API end to end over
// a fake transport, replaying the referral and denial shapes real
// root and TLD servers produce.
package integration

import (
	"context"
	"net"
	"testing"

	"github.com/nazarii-m/dnscore/internal/dnsmsg"
	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
	"github.com/nazarii-m/dnscore/internal/transport"
	"github.com/nazarii-m/dnscore/internal/wireconst"
	"github.com/nazarii-m/dnscore/resolver"
)

// scriptedTransport and scriptedDialer mirror the resolver package's
// own test doubles (see resolver/resolver_test.go): the handler reads
// the query id off the decoded query and stamps it onto the reply, so
// a single handler can serve every attempt without knowing the random
// id in advance.
type scriptedTransport struct {
	handler func(query *dnsmsg.Message) *dnsmsg.Message
	sent    *dnsmsg.Message
}

func (s *scriptedTransport) Send(_ context.Context, packet []byte, _ net.Addr) error {
	m, err := dnsmsg.Decode(packet)
	if err != nil {
		return err
	}
	s.sent = m
	return nil
}

func (s *scriptedTransport) Receive(_ context.Context) ([]byte, net.Addr, error) {
	resp := s.handler(s.sent)
	resp.ID = s.sent.ID
	resp.QR = true
	resp.Question = s.sent.Question
	buf, err := dnsmsg.Encode(resp, 0xFFFF)
	return buf, nil, err
}

func (s *scriptedTransport) Close() error { return nil }

var _ transport.Transport = (*scriptedTransport)(nil)

type scriptedDialer struct {
	handlers map[string]func(query *dnsmsg.Message) *dnsmsg.Message
}

func newScriptedDialer() *scriptedDialer {
	return &scriptedDialer{handlers: map[string]func(query *dnsmsg.Message) *dnsmsg.Message{}}
}

func (d *scriptedDialer) on(ip string, h func(query *dnsmsg.Message) *dnsmsg.Message) {
	d.handlers[ip] = h
}

func (d *scriptedDialer) dial(ip net.IP) (transport.Transport, error) {
	h, ok := d.handlers[ip.String()]
	if !ok {
		return nil, &net.AddrError{Err: "no handler scripted", Addr: ip.String()}
	}
	return &scriptedTransport{handler: h}, nil
}

func (d *scriptedDialer) DialUDP(_ context.Context, addr *net.UDPAddr) (transport.Transport, error) {
	return d.dial(addr.IP)
}

func (d *scriptedDialer) DialTCP(_ context.Context, addr *net.TCPAddr) (transport.Transport, error) {
	return d.dial(addr.IP)
}

func mustName(t *testing.T, s string) names.Name {
	t.Helper()
	n, err := names.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

func gtldNS(t *testing.T, letter byte) rrframe.Record {
	t.Helper()
	return rrframe.Record{
		Name: mustName(t, "com."), Type: rrdata.TypeNS, Class: uint16(wireconst.ClassINET), TTL: 172800,
		Data: rrdata.RData{Type: rrdata.TypeNS, Fields: map[string]rrdata.Value{
			"Ns": mustName(t, string(letter)+".gtld-servers.net."),
		}},
	}
}

// TestResolveComNSAtRoot walks the resolver through a root referral:
// the root refers it to the gtld-servers, which answer the (com., NS)
// question authoritatively with all 13 records.
func TestResolveComNSAtRoot(t *testing.T) {
	d := newScriptedDialer()
	d.on("198.41.0.4", func(q *dnsmsg.Message) *dnsmsg.Message {
		return &dnsmsg.Message{
			RCode:     wireconst.RCodeNoError,
			Authority: []rrframe.Record{gtldNS(t, 'a')},
			Additional: []rrframe.Record{{
				Name: mustName(t, "a.gtld-servers.net."), Type: rrdata.TypeA, Class: uint16(wireconst.ClassINET), TTL: 172800,
				Data: rrdata.RData{Type: rrdata.TypeA, Fields: map[string]rrdata.Value{"Address": net.ParseIP("192.5.6.30")}},
			}},
		}
	})
	d.on("192.5.6.30", func(q *dnsmsg.Message) *dnsmsg.Message {
		var ns []rrframe.Record
		for c := byte('a'); c <= 'm'; c++ {
			ns = append(ns, gtldNS(t, c))
		}
		return &dnsmsg.Message{RCode: wireconst.RCodeNoError, Answer: ns}
	})

	r, err := resolver.New(
		resolver.WithRootHints([]resolver.RootHint{{Name: "a.root-servers.net.", IP: net.ParseIP("198.41.0.4")}}),
		resolver.WithDialer(d),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := r.Resolve(context.Background(), "com.", rrdata.TypeNS, uint16(wireconst.ClassINET))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Answer) != 13 {
		t.Fatalf("got %d answer records, want 13", len(res.Answer))
	}
	for i, rec := range res.Answer {
		if rec.TTL != 172800 || rec.Class != uint16(wireconst.ClassINET) || rec.Type != rrdata.TypeNS {
			t.Errorf("answer[%d] = %+v", i, rec)
		}
		want := string(byte('a'+i)) + ".gtld-servers.net."
		ns := rec.Data.Fields["Ns"].(names.Name)
		if ns.String() != want {
			t.Errorf("answer[%d].Ns = %q, want %q", i, ns.String(), want)
		}
	}
}

// TestResolveNonexistentNameNSEC resolves a name that does not exist:
// an NXDOMAIN response carrying the root SOA and an NSEC record
// denying existence. The resolver's Result surfaces the logical
// NXDOMAIN disposition with an empty answer; the SOA-clamped negative
// cache entry is inspected directly to confirm it holds the NXDOMAIN
// disposition and the decoded SOA it was clamped against.
func TestResolveNonexistentNameNSEC(t *testing.T) {
	soa := rrframe.Record{
		Name: mustName(t, "."), Type: rrdata.TypeSOA, Class: uint16(wireconst.ClassINET), TTL: 86400,
		Data: rrdata.RData{Type: rrdata.TypeSOA, Fields: map[string]rrdata.Value{
			"Ns": mustName(t, "a.root-servers.net."), "Mbox": mustName(t, "nstld.verisign-grs.com."),
			"Serial": uint32(2018080200), "Refresh": uint32(1800), "Retry": uint32(900),
			"Expire": uint32(604800), "Minttl": uint32(86400),
		}},
	}
	nsec := rrframe.Record{
		Name: mustName(t, "id."), Type: rrdata.TypeNSEC, Class: uint16(wireconst.ClassINET), TTL: 86400,
		Data: rrdata.RData{Type: rrdata.TypeNSEC, Fields: map[string]rrdata.Value{
			"NextDomain": mustName(t, "ie."),
			"TypeBitmap": []uint16{uint16(rrdata.TypeNS), uint16(rrdata.TypeDS), uint16(rrdata.TypeRRSIG), uint16(rrdata.TypeNSEC)},
		}},
	}
	d := newScriptedDialer()
	d.on("198.41.0.4", func(q *dnsmsg.Message) *dnsmsg.Message {
		return &dnsmsg.Message{RCode: wireconst.RCodeNXDomain, Authority: []rrframe.Record{soa, nsec}}
	})

	r, err := resolver.New(
		resolver.WithRootHints([]resolver.RootHint{{Name: "a.root-servers.net.", IP: net.ParseIP("198.41.0.4")}}),
		resolver.WithDialer(d),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	qname := mustName(t, "idontexist.")
	res, err := r.Resolve(context.Background(), "idontexist.", rrdata.TypeA, uint16(wireconst.ClassINET))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Answer) != 0 {
		t.Fatalf("Answer = %+v, want empty", res.Answer)
	}
	if res.RCode != wireconst.RCodeNXDomain {
		t.Errorf("RCode = %v, want NXDOMAIN", res.RCode)
	}

	lr, ok := r.Cache().Lookup(qname, rrdata.TypeA, uint16(wireconst.ClassINET))
	if !ok || !lr.Negative || lr.Disposition != resolver.DispositionNXDomain {
		t.Fatalf("cache entry = %+v, ok=%v", lr, ok)
	}
	if lr.SOA == nil || lr.SOA.Data.Fields["Minttl"].(uint32) != 86400 {
		t.Errorf("cached SOA = %+v, want Minttl 86400", lr.SOA)
	}
}
