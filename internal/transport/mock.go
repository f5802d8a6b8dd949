package transport

import (
	"context"
	"net"
	"sync"

	"github.com/nazarii-m/dnscore/internal/errs"
)

// MockTransport is a test double for Transport. It records every Send
// call and serves Receive calls from a queue of canned responses, so
// resolver tests can script a nameserver's wire-level behavior
// (including simulated timeouts) without a real socket.
type MockTransport struct {
	mu        sync.Mutex
	sendCalls []SendCall
	responses []MockResponse
	closed    bool
}

// SendCall records a single Send invocation.
type SendCall struct {
	Packet []byte
	Dest   net.Addr
}

// MockResponse is one canned Receive result, queued in order.
type MockResponse struct {
	Packet []byte
	From   net.Addr
	Err    error
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Send records the call.
func (m *MockTransport) Send(_ context.Context, packet []byte, dest net.Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls = append(m.sendCalls, SendCall{
		Packet: append([]byte(nil), packet...),
		Dest:   dest,
	})
	return nil
}

// QueueResponse appends a canned response to be returned by the next
// Receive call.
func (m *MockTransport) QueueResponse(packet []byte, from net.Addr, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, MockResponse{Packet: packet, From: from, Err: err})
}

// Receive pops the next queued response, or returns a TimeoutError if
// the queue is empty.
func (m *MockTransport) Receive(_ context.Context) ([]byte, net.Addr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil, nil, &errs.TimeoutError{Server: "mock", Err: nil}
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	return r.Packet, r.From, r.Err
}

// Close marks the transport as closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SendCalls returns a copy of every recorded Send call.
func (m *MockTransport) SendCalls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]SendCall, len(m.sendCalls))
	copy(calls, m.sendCalls)
	return calls
}

var _ Transport = (*MockTransport)(nil)
