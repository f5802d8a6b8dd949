package transport

import (
	"context"
	"net"
	"testing"
)

func TestMockTransportRecordsSend(t *testing.T) {
	m := NewMockTransport()
	dest := &net.UDPAddr{IP: net.ParseIP("192.0.2.53"), Port: 53}
	if err := m.Send(context.Background(), []byte("query"), dest); err != nil {
		t.Fatalf("Send: %v", err)
	}
	calls := m.SendCalls()
	if len(calls) != 1 || string(calls[0].Packet) != "query" {
		t.Fatalf("SendCalls = %+v", calls)
	}
}

func TestMockTransportQueuedReceive(t *testing.T) {
	m := NewMockTransport()
	from := &net.UDPAddr{IP: net.ParseIP("192.0.2.53"), Port: 53}
	m.QueueResponse([]byte("response-1"), from, nil)
	m.QueueResponse([]byte("response-2"), from, nil)

	got1, addr1, err := m.Receive(context.Background())
	if err != nil || string(got1) != "response-1" || addr1 != from {
		t.Fatalf("first Receive = %q, %v, %v", got1, addr1, err)
	}
	got2, _, err := m.Receive(context.Background())
	if err != nil || string(got2) != "response-2" {
		t.Fatalf("second Receive = %q, %v", got2, err)
	}
}

func TestMockTransportReceiveEmptyQueueTimesOut(t *testing.T) {
	m := NewMockTransport()
	_, _, err := m.Receive(context.Background())
	if err == nil {
		t.Fatal("expected timeout error on empty response queue")
	}
}

func TestMockTransportClose(t *testing.T) {
	m := NewMockTransport()
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !m.closed {
		t.Error("expected closed = true")
	}
}
