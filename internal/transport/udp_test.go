package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pbrezina/samba/internal/protocol"
	"github.com/pbrezina/samba/internal/transport"
)

func TestUDPv4Transport_ImplementsTransportInterface(_ *testing.T) {
	var _ transport.Transport = (*transport.UDPv4Transport)(nil)
}

func newLoopbackTransport(t *testing.T) *transport.UDPv4Transport {
	t.Helper()
	tr, err := transport.NewUDPv4Transport(&net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		t.Fatalf("NewUDPv4Transport() failed: %v", err)
	}
	return tr
}

func TestUDPv4Transport_Send_RejectsNonIPv4Destination(t *testing.T) {
	tr := newLoopbackTransport(t)
	defer func() { _ = tr.Close() }()

	dest := &net.UDPAddr{IP: net.ParseIP("::1"), Port: protocol.Port}
	if err := tr.Send(context.Background(), []byte{0x00}, dest); err == nil {
		t.Error("Send() to IPv6 destination should fail")
	}
}

func TestUDPv4Transport_Send_RejectsNonUDPAddr(t *testing.T) {
	tr := newLoopbackTransport(t)
	defer func() { _ = tr.Close() }()

	if err := tr.Send(context.Background(), []byte{0x00}, &net.TCPAddr{}); err == nil {
		t.Error("Send() to a non-UDP address should fail")
	}
}

func TestUDPv4Transport_Receive_RespectsContextCancellation(t *testing.T) {
	tr := newLoopbackTransport(t)
	defer func() { _ = tr.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, _, err := tr.Receive(ctx)
	duration := time.Since(start)

	if err == nil {
		t.Error("Receive() should return error when context is canceled")
	}
	if duration > 100*time.Millisecond {
		t.Errorf("Receive() took too long (%v) to detect cancellation", duration)
	}
}

func TestUDPv4Transport_Receive_PropagatesContextDeadline(t *testing.T) {
	tr := newLoopbackTransport(t)
	defer func() { _ = tr.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := tr.Receive(ctx)
	duration := time.Since(start)

	if err == nil {
		t.Fatal("Receive() should time out with no traffic")
	}
	if duration > 150*time.Millisecond {
		t.Errorf("Receive() took too long (%v) to time out, expected ~50ms", duration)
	}
}

func TestUDPv4Transport_SendReceive_Loopback(t *testing.T) {
	server := newLoopbackTransport(t)
	defer func() { _ = server.Close() }()

	client := newLoopbackTransport(t)
	defer func() { _ = client.Close() }()

	serverAddr := server.LocalAddr()
	payload := []byte{0x01, 0x02, 0x03}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.Send(ctx, payload, serverAddr); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	data, _, err := server.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() failed: %v", err)
	}
	if len(data) != len(payload) {
		t.Fatalf("Receive() got %d bytes, want %d", len(data), len(payload))
	}
}

func TestUDPv4Transport_Close_PropagatesErrors(t *testing.T) {
	tr := newLoopbackTransport(t)

	if err := tr.Close(); err != nil {
		t.Errorf("First Close() should succeed, got error: %v", err)
	}
	if err := tr.Close(); err == nil {
		t.Error("Second Close() should return error (socket already closed)")
	}
}

func TestBufferPool_GetReturnsMaxPacketSizeBuffer(t *testing.T) {
	bufPtr := transport.GetBuffer()
	if bufPtr == nil {
		t.Fatal("GetBuffer() returned nil")
	}
	defer transport.PutBuffer(bufPtr)

	buf := *bufPtr
	if len(buf) != protocol.MaxPacketSize {
		t.Errorf("GetBuffer() returned buffer of length %d, expected %d", len(buf), protocol.MaxPacketSize)
	}
}

func TestBufferPool_ReusesBuffers(t *testing.T) {
	bufPtr1 := transport.GetBuffer()
	buf1 := *bufPtr1
	buf1[0] = 0xAA
	transport.PutBuffer(bufPtr1)

	bufPtr2 := transport.GetBuffer()
	defer transport.PutBuffer(bufPtr2)
	buf2 := *bufPtr2
	if len(buf2) != protocol.MaxPacketSize {
		t.Errorf("reused buffer has length %d, want %d", len(buf2), protocol.MaxPacketSize)
	}
	if buf2[0] != 0 {
		t.Error("PutBuffer() should zero the buffer before returning it to the pool")
	}
}

func BenchmarkUDPv4Transport_ReceivePath(b *testing.B) {
	tr, err := transport.NewUDPv4Transport(&net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		b.Fatalf("NewUDPv4Transport() failed: %v", err)
	}
	defer func() { _ = tr.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _, _ = tr.Receive(ctx)
	}
}
