// Package resolver implements a recursive resolver: a single-query
// state machine (S_INIT/S_QUERY/S_WAIT/S_CLASSIFY/S_ANSWER/S_FAIL)
// driven from a root hint set, chasing referrals and CNAMEs to a
// final answer, with a TTL-aware cache and single-flight
// deduplication of concurrent identical queries.
package resolver

import (
	"context"
	"net"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nazarii-m/dnscore/internal/dnsmsg"
	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
	"github.com/nazarii-m/dnscore/internal/transport"
	"github.com/nazarii-m/dnscore/internal/wireconst"
)

// Resolver resolves (name, type, class) questions recursively,
// starting from a root hint set.
type Resolver struct {
	rootHints            []RootHint
	udpTimeout           time.Duration
	tcpTimeout           time.Duration
	maxDepth             int
	maxCNAMEChain        int
	maxFailuresPerServer int
	dialer               Dialer
	cache                *Cache
	group                singleflight.Group
}

// New constructs a Resolver with the given options applied over the
// defaults: 2s UDP timeout, 5s TCP timeout, referral depth 10, CNAME
// chain 10, 3 failures per server before rotation.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		rootHints:            DefaultRootHints,
		udpTimeout:           2 * time.Second,
		tcpTimeout:           5 * time.Second,
		maxDepth:             10,
		maxCNAMEChain:        10,
		maxFailuresPerServer: 3,
		dialer:               defaultDialer{},
		cache:                NewCache(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Cache returns the resolver's cache, for callers that want to seed
// it (e.g. via zoneindex.LoadZone on Cache.Index()) before resolving.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve answers one question, deduplicating concurrent identical
// requests via single-flight: at most one network transaction is in
// flight per (name, type, class) fingerprint per cache miss.
func (r *Resolver) Resolve(ctx context.Context, qname string, qtype rrdata.Type, qclass uint16) (*Result, error) {
	name, err := names.Parse(qname)
	if err != nil {
		return nil, err
	}
	q := Question{Name: name, Type: qtype, Class: qclass}
	key := fingerprint(q)

	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.runQuery(context.Background(), q, nil, 0, 0, nil)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	case <-ctx.Done():
		return nil, &errs.CancelledError{Op: "resolve " + qname}
	}
}

func fingerprint(q Question) string {
	return q.Name.Lower().String() + "|" + q.Type.String() + "|" + itoa(int(q.Class))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// runQuery drives the state machine for one question. ns is the
// current nameserver set; nil means S_INIT must (re)select the root
// hints. chain accumulates CNAME records crossed so far.
func (r *Resolver) runQuery(ctx context.Context, q Question, ns []nameserver, depth, cnameDepth int, chain []rrframe.Record) (*Result, error) {
	if depth > r.maxDepth {
		return nil, &errs.PolicyError{Limit: "referral_depth", Msg: "referral depth exceeded " + itoa(r.maxDepth)}
	}
	if cnameDepth > r.maxCNAMEChain {
		return nil, &errs.PolicyError{Limit: "cname_chain", Msg: "cname chain exceeded " + itoa(r.maxCNAMEChain)}
	}

	// Cache lookup precedes S_QUERY.
	if lr, ok := r.cache.Lookup(q.Name, q.Type, q.Class); ok {
		if lr.Negative {
			return &Result{Answer: chain, RCode: dispositionRCode(lr.Disposition)}, nil
		}
		return &Result{Answer: append(append([]rrframe.Record(nil), chain...), lr.Records...), RCode: wireconst.RCodeNoError}, nil
	}
	if q.Type != rrdata.TypeCNAME {
		if lr, ok := r.cache.Lookup(q.Name, rrdata.TypeCNAME, q.Class); ok && !lr.Negative && len(lr.Records) > 0 {
			target, ok := lr.Records[0].Data.Fields["Target"].(names.Name)
			if ok {
				newChain := append(append([]rrframe.Record(nil), chain...), lr.Records...)
				return r.runQuery(ctx, Question{Name: target, Type: q.Type, Class: q.Class}, nil, depth, cnameDepth+1, newChain)
			}
		}
	}

	// S_INIT
	if ns == nil {
		ns = r.initialNameservers()
	}
	if len(ns) == 0 {
		return nil, &errs.PolicyError{Limit: "nameserver_set", Msg: "no nameservers available"}
	}

	start := stableIndex(q.Name, len(ns))
	for attempt := 0; attempt < len(ns)*r.maxFailuresPerServer; attempt++ {
		// Each server gets up to maxFailuresPerServer consecutive
		// attempts before the loop rotates to the next one.
		srv := &ns[(start+attempt/r.maxFailuresPerServer)%len(ns)]
		if srv.failures >= r.maxFailuresPerServer {
			continue
		}

		// S_QUERY/S_WAIT.
		resp, usedTCP, err := r.sendQuery(ctx, *srv, q, false)
		if err != nil {
			srv.failures++
			continue
		}
		if resp.TC && !usedTCP {
			resp, _, err = r.sendQuery(ctx, *srv, q, true)
			if err != nil {
				srv.failures++
				continue
			}
		}

		// S_CLASSIFY: inspect the response and pick the next state.
		outcome := classify(resp, q)
		if outcome.state == StateQuery && outcome.referral != nil {
			// Referral: recurse into S_QUERY against the closer
			// zone cut's nameserver set, same question.
			return r.runQuery(ctx, q, outcome.referral, depth+1, cnameDepth, chain)
		}
		switch outcome.state {
		case StateQuery:
			// RCODE failure: mark the server bad so the loop rotates
			// to another server in the set.
			srv.failures = r.maxFailuresPerServer
			continue
		case StateAnswer:
			if len(outcome.answer) == 0 {
				// NXDOMAIN/NODATA: an empty answer, cached negatively.
				r.cache.StoreNegative(q.Name, q.Type, q.Class, outcome.disposition, outcome.soa)
				return &Result{Answer: chain, RCode: dispositionRCode(outcome.disposition)}, nil
			}
			grouped := groupByNameType(outcome.answer)
			for _, set := range grouped {
				r.cache.StorePositive(set)
			}
			return &Result{Answer: append(append([]rrframe.Record(nil), chain...), outcome.answer...), RCode: wireconst.RCodeNoError}, nil
		case StateInit:
			// CNAME for a non-CNAME query: append it and restart at
			// S_INIT for the target name. Only the chain counter
			// advances; the referral-depth counter tracks zone cuts,
			// not alias hops, and each is bounded on its own.
			r.cache.StorePositive([]rrframe.Record{outcome.cname})
			newChain := append(append([]rrframe.Record(nil), chain...), outcome.cname)
			return r.runQuery(ctx, Question{Name: outcome.cnameTarget, Type: q.Type, Class: q.Class}, nil, depth, cnameDepth+1, newChain)
		}
	}

	// S_FAIL: every server in the set failed or was excluded.
	return nil, &errs.TimeoutError{Server: "all nameservers in set exhausted", Err: nil}
}

func dispositionRCode(d Disposition) wireconst.RCode {
	if d == DispositionNXDomain {
		return wireconst.RCodeNXDomain
	}
	return wireconst.RCodeNoError
}

func (r *Resolver) initialNameservers() []nameserver {
	out := make([]nameserver, 0, len(r.rootHints))
	for _, h := range r.rootHints {
		if h.IP == nil {
			continue
		}
		out = append(out, nameserver{name: h.Name, ip: h.IP})
	}
	return out
}

// sendQuery performs one S_QUERY/S_WAIT attempt against srv,
// returning the classified response message.
func (r *Resolver) sendQuery(ctx context.Context, srv nameserver, q Question, forceTCP bool) (*dnsmsg.Message, bool, error) {
	id := randomID()
	query := &dnsmsg.Message{
		ID:     id,
		Opcode: wireconst.OpcodeQuery,
		RD:     false,
		Question: []rrframe.Question{
			{Name: q.Name, Type: q.Type, Class: q.Class},
		},
	}
	maxSize := wireconst.MaxUDPSize
	if forceTCP {
		maxSize = 0xFFFF
	}
	wire, err := dnsmsg.Encode(query, maxSize)
	if err != nil {
		return nil, forceTCP, err
	}

	timeout := r.udpTimeout
	if forceTCP {
		timeout = r.tcpTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var tr transport.Transport
	if forceTCP {
		tr, err = r.dialer.DialTCP(sctx, &net.TCPAddr{IP: srv.ip, Port: wireconst.DNSPort})
	} else {
		tr, err = r.dialer.DialUDP(sctx, &net.UDPAddr{IP: srv.ip, Port: wireconst.DNSPort})
	}
	if err != nil {
		return nil, forceTCP, &errs.TimeoutError{Server: srv.name, Err: err}
	}
	defer tr.Close()

	dest := &net.UDPAddr{IP: srv.ip, Port: wireconst.DNSPort}
	if err := tr.Send(sctx, wire, dest); err != nil {
		return nil, forceTCP, err
	}
	respBytes, _, err := tr.Receive(sctx)
	if err != nil {
		return nil, forceTCP, err
	}
	resp, err := dnsmsg.Decode(respBytes)
	if err != nil {
		return nil, forceTCP, err
	}
	if resp.ID != id || len(resp.Question) == 0 ||
		!names.EqualFold(resp.Question[0].Name, q.Name) ||
		resp.Question[0].Type != q.Type || resp.Question[0].Class != q.Class {
		return nil, forceTCP, &errs.ProtocolError{RCode: uint16(wireconst.RCodeFormErr), Msg: "response id/question mismatch, dropped as forged"}
	}
	return resp, forceTCP, nil
}

// classifyOutcome is S_CLASSIFY's verdict: which state to transition
// to next, plus whatever payload that transition needs.
type classifyOutcome struct {
	state       State
	answer      []rrframe.Record // StateAnswer
	cname       rrframe.Record   // StateInit (CNAME restart)
	cnameTarget names.Name       // StateInit
	referral    []nameserver     // StateQuery (referral recursion)
	disposition Disposition      // StateAnswer with an empty answer
	soa         *rrframe.Record  // StateAnswer with an empty answer
}

// classify implements S_CLASSIFY: it never mutates resolver state,
// only reads resp and reports the next transition.
func classify(resp *dnsmsg.Message, q Question) classifyOutcome {
	switch resp.RCode {
	case wireconst.RCodeServFail, wireconst.RCodeFormErr, wireconst.RCodeRefused:
		return classifyOutcome{state: StateQuery}
	}

	if answer, ok := matchingAnswer(resp, q); ok {
		return classifyOutcome{state: StateAnswer, answer: answer}
	}

	if cname, target, ok := cnameFor(resp, q); ok {
		return classifyOutcome{state: StateInit, cname: cname, cnameTarget: target}
	}

	if newNS, ok := referral(resp); ok && len(newNS) > 0 {
		return classifyOutcome{state: StateQuery, referral: newNS}
	}

	disposition := DispositionNoData
	if resp.RCode == wireconst.RCodeNXDomain {
		disposition = DispositionNXDomain
	}
	return classifyOutcome{state: StateAnswer, disposition: disposition, soa: soaFromAuthority(resp)}
}

// matchingAnswer returns the answer records matching q's name/type
// under ASCII-fold-insensitive name comparison, if any.
func matchingAnswer(resp *dnsmsg.Message, q Question) ([]rrframe.Record, bool) {
	var out []rrframe.Record
	for _, rec := range resp.Answer {
		if rec.Type == q.Type && names.EqualFold(rec.Name, q.Name) {
			out = append(out, rec)
		}
	}
	return out, len(out) > 0
}

// cnameFor returns a CNAME record answering q.Name when q itself did
// not ask for CNAME.
func cnameFor(resp *dnsmsg.Message, q Question) (rrframe.Record, names.Name, bool) {
	if q.Type == rrdata.TypeCNAME {
		return rrframe.Record{}, names.Name{}, false
	}
	for _, rec := range resp.Answer {
		if rec.Type == rrdata.TypeCNAME && names.EqualFold(rec.Name, q.Name) {
			if target, ok := rec.Data.Fields["Target"].(names.Name); ok {
				return rec, target, true
			}
		}
	}
	return rrframe.Record{}, names.Name{}, false
}

// referral extracts a closer-zone-cut nameserver set from an
// authority section of NS records plus additional-section glue.
// Only NS targets with A glue present become dialable
// candidates; targets without glue are skipped rather than triggering
// a secondary lookup, which is out of scope for this resolver.
func referral(resp *dnsmsg.Message) ([]nameserver, bool) {
	var nsNames []names.Name
	for _, rec := range resp.Authority {
		if rec.Type == rrdata.TypeNS {
			if target, ok := rec.Data.Fields["Ns"].(names.Name); ok {
				nsNames = append(nsNames, target)
			}
		}
	}
	if len(nsNames) == 0 {
		return nil, false
	}
	glue := map[string]net.IP{}
	for _, rec := range resp.Additional {
		if rec.Type != rrdata.TypeA {
			continue
		}
		if ip, ok := rec.Data.Fields["Address"].(net.IP); ok {
			glue[rec.Name.Lower().String()] = ip
		}
	}
	var out []nameserver
	for _, n := range nsNames {
		if ip, ok := glue[n.Lower().String()]; ok {
			out = append(out, nameserver{name: n.String(), ip: ip})
		}
	}
	return out, len(out) > 0
}

func soaFromAuthority(resp *dnsmsg.Message) *rrframe.Record {
	for i := range resp.Authority {
		if resp.Authority[i].Type == rrdata.TypeSOA {
			return &resp.Authority[i]
		}
	}
	return nil
}

// groupByNameType splits a flat record slice into per-(name,type)
// RRsets, so each observed RRset is cached under its own key.
func groupByNameType(recs []rrframe.Record) [][]rrframe.Record {
	order := make([]string, 0, len(recs))
	sets := map[string][]rrframe.Record{}
	for _, r := range recs {
		key := r.Name.Lower().String() + "|" + r.Type.String()
		if _, ok := sets[key]; !ok {
			order = append(order, key)
		}
		sets[key] = append(sets[key], r)
	}
	out := make([][]rrframe.Record, 0, len(order))
	for _, k := range order {
		out = append(out, sets[k])
	}
	return out
}
