package resolver

import (
	"time"

	"github.com/nazarii-m/dnscore/internal/errs"
)

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver) error

// WithTimeout sets the per-attempt UDP timeout (default 2s).
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) error {
		if d <= 0 {
			return &errs.PolicyError{Limit: "timeout", Msg: "timeout must be positive"}
		}
		r.udpTimeout = d
		return nil
	}
}

// WithTCPTimeout sets the per-attempt TCP timeout (default 5s).
func WithTCPTimeout(d time.Duration) Option {
	return func(r *Resolver) error {
		if d <= 0 {
			return &errs.PolicyError{Limit: "tcp_timeout", Msg: "tcp timeout must be positive"}
		}
		r.tcpTimeout = d
		return nil
	}
}

// WithRootHints overrides the default IANA root hint list.
func WithRootHints(hints []RootHint) Option {
	return func(r *Resolver) error {
		if len(hints) == 0 {
			return &errs.PolicyError{Limit: "root_hints", Msg: "root hint list cannot be empty"}
		}
		r.rootHints = hints
		return nil
	}
}

// WithMaxDepth overrides the referral-depth bound (default 10).
func WithMaxDepth(n int) Option {
	return func(r *Resolver) error {
		if n <= 0 {
			return &errs.PolicyError{Limit: "max_depth", Msg: "max depth must be positive"}
		}
		r.maxDepth = n
		return nil
	}
}

// WithMaxCNAMEChain overrides the CNAME-chain bound (default 10).
func WithMaxCNAMEChain(n int) Option {
	return func(r *Resolver) error {
		if n <= 0 {
			return &errs.PolicyError{Limit: "max_cname_chain", Msg: "max cname chain must be positive"}
		}
		r.maxCNAMEChain = n
		return nil
	}
}

// WithRetries overrides the per-server failure threshold before
// rotating to a different nameserver (default 3). The threshold
// counts transport failures (timeouts, dial/send errors, dropped
// responses); a SERVFAIL, FORMERR or REFUSED reply rotates at once.
func WithRetries(n int) Option {
	return func(r *Resolver) error {
		if n <= 0 {
			return &errs.PolicyError{Limit: "retries", Msg: "retries must be positive"}
		}
		r.maxFailuresPerServer = n
		return nil
	}
}

// WithDialer injects a Dialer, bypassing the default real-socket
// dialer. Tests use this to supply a Dialer whose transports answer
// each query from a scripted per-server handler.
func WithDialer(d Dialer) Option {
	return func(r *Resolver) error {
		if d == nil {
			return &errs.PolicyError{Limit: "dialer", Msg: "dialer cannot be nil"}
		}
		r.dialer = d
		return nil
	}
}
