// Package errs defines the error taxonomy shared by every codec and
// resolver package in this module: encoding failures, presentation
// (text) failures, protocol-level RCODE failures, policy-limit
// failures, timeouts, and cooperative cancellation.
package errs

import "fmt"

// EncodingError reports malformed wire data: a bad compression
// pointer, a short read, an overlong name, or invalid label bits.
// It is fatal to the message being decoded but not to the caller
// that requested it (a resolver moves on to another server).
type EncodingError struct {
	Op     string
	Offset int
	Msg    string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dns: encoding error during %s at offset %d: %s: %v", e.Op, e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("dns: encoding error during %s at offset %d: %s", e.Op, e.Offset, e.Msg)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// FormatError reports malformed presentation (zone-file / dig
// transcript) text. It is returned to the caller and never retried.
type FormatError struct {
	Op   string
	Line string
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("dns: format error during %s: %s (line: %q)", e.Op, e.Msg, e.Line)
	}
	return fmt.Sprintf("dns: format error during %s: %s", e.Op, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ProtocolError reports an RCODE-bearing failure (SERVFAIL, REFUSED,
// NOTIMP, ...). The resolver retries it on a peer server.
type ProtocolError struct {
	RCode uint16
	Msg   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dns: protocol error: rcode=%d: %s", e.RCode, e.Msg)
}

// PolicyError reports a depth, chain-length, or other structural
// limit being exceeded. It is fatal to the query and returned as-is.
type PolicyError struct {
	Limit string
	Msg   string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("dns: policy limit %s exceeded: %s", e.Limit, e.Msg)
}

// TimeoutError reports that no response arrived within the
// per-attempt budget. The resolver retries; it surfaces only after
// every attempt is exhausted.
type TimeoutError struct {
	Server string
	Err    error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dns: timeout waiting for %s: %v", e.Server, e.Err)
	}
	return fmt.Sprintf("dns: timeout waiting for %s", e.Server)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// CancelledError reports a cooperative cancellation signal observed
// by a query in flight.
type CancelledError struct {
	Op string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("dns: %s cancelled", e.Op)
}
