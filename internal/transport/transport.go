package transport

import (
	"context"
	"net"
)

// Transport abstracts the datagram socket an NBT transaction sends on and
// receives from. Send and Receive both honor ctx cancellation/deadline.
type Transport interface {
	// Send writes packet to dest. Implementations return a *errors.ResolveError
	// of kind InvalidAddress if dest is not an IPv4 UDP endpoint.
	Send(ctx context.Context, packet []byte, dest net.Addr) error

	// Receive blocks for the next datagram, returning its payload and the
	// address it arrived from.
	Receive(ctx context.Context) ([]byte, net.Addr, error)

	// Close releases the underlying socket.
	Close() error
}

// Relay stands in for a cooperating local daemon ("nmbd") that may already
// hold the NBT port and relays matching packets to this process out of
// band. It is the target-language equivalent of nb_packet_reader_send/_recv.
//
// Subscribe registers interest in packets of the given NBT packet type and
// transaction id (-1 disables the trn_id check), returning a channel that
// receives raw payloads until ctx is done. A Relay with no cooperating
// daemon behind it should return a nil channel immediately so the packet
// race engine's select simply never fires on that arm.
type Relay interface {
	Subscribe(ctx context.Context, packetType uint16, trnID int32) (<-chan []byte, error)
}

// NoRelay is a Relay with no daemon behind it: every Subscribe call
// succeeds with a channel that never delivers, so callers racing Relay
// against a socket Receive degrade cleanly to "socket only".
type NoRelay struct{}

// Subscribe implements Relay.
func (NoRelay) Subscribe(ctx context.Context, packetType uint16, trnID int32) (<-chan []byte, error) {
	return nil, nil
}
