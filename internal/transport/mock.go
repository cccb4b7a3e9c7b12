package transport

import (
	"context"
	"net"
	"sync"

	"github.com/pbrezina/samba/internal/errors"
)

// MockTransport is a scriptable Transport test double. It records every
// Send() call and lets a test queue canned inbound packets (or attach a
// Responder callback that synthesizes a reply from the outgoing packet) so
// the race engine and orchestrators can be driven deterministically.
type MockTransport struct {
	mu        sync.Mutex
	sendCalls []SendCall
	inbound   chan SendCall
	closed    bool

	// Responder, if set, is invoked after every Send and its return value
	// (if ok) is queued as the next Receive result.
	Responder func(packet []byte, dest net.Addr) (reply []byte, from net.Addr, ok bool)
}

// SendCall records a single Send() invocation (or, when it appears in the
// inbound queue, a queued Receive() result: Packet/Dest double as the
// payload and source address).
type SendCall struct {
	Packet []byte
	Dest   net.Addr
}

// NewMockTransport creates a mock transport with room for 16 queued inbound
// packets before QueueResponse blocks.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		sendCalls: make([]SendCall, 0),
		inbound:   make(chan SendCall, 16),
	}
}

// Send records the call and, if a Responder is attached, synthesizes and
// enqueues its reply.
func (m *MockTransport) Send(_ context.Context, packet []byte, dest net.Addr) error {
	m.mu.Lock()
	m.sendCalls = append(m.sendCalls, SendCall{
		Packet: append([]byte(nil), packet...),
		Dest:   dest,
	})
	responder := m.Responder
	m.mu.Unlock()

	if responder != nil {
		if reply, from, ok := responder(packet, dest); ok {
			m.QueueResponse(reply, from)
		}
	}
	return nil
}

// QueueResponse enqueues a packet to be delivered by a future Receive call,
// as though it arrived from addr.
func (m *MockTransport) QueueResponse(packet []byte, addr net.Addr) {
	m.inbound <- SendCall{Packet: append([]byte(nil), packet...), Dest: addr}
}

// Receive returns the next queued response, blocking until one is queued or
// ctx is done.
func (m *MockTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case call := <-m.inbound:
		return call.Packet, call.Dest, nil
	case <-ctx.Done():
		return nil, nil, errors.Wrap("receive", errors.IoTimeout, ctx.Err())
	}
}

// Close marks the transport as closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SendCalls returns a copy of every recorded Send() call.
func (m *MockTransport) SendCalls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]SendCall, len(m.sendCalls))
	copy(calls, m.sendCalls)
	return calls
}

var _ Transport = (*MockTransport)(nil)
