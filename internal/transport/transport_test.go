package transport_test

import (
	"testing"

	"github.com/pbrezina/samba/internal/transport"
)

// TestTransportInterface_HasRequiredMethods verifies both Transport
// implementations satisfy the interface with the expected signatures.
func TestTransportInterface_HasRequiredMethods(_ *testing.T) {
	var _ transport.Transport = (*transport.MockTransport)(nil)
	var _ transport.Transport = (*transport.UDPv4Transport)(nil)
}

func TestNoRelay_SubscribeReturnsNilChannel(t *testing.T) {
	var r transport.Relay = transport.NoRelay{}
	ch, err := r.Subscribe(nil, 0x21, -1)
	if err != nil {
		t.Fatalf("Subscribe() error = %v, want nil", err)
	}
	if ch != nil {
		t.Fatalf("Subscribe() channel = %v, want nil", ch)
	}
}
