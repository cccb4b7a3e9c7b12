package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/protocol"
)

// listenUDP4 binds a broadcast-capable UDP4 socket to src, applying the
// platform-specific socket options via net.ListenConfig.Control.
func listenUDP4(src *net.UDPAddr) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: platformControl}
	return lc.ListenPacket(context.Background(), "udp4", src.String())
}

// UDPv4Transport implements Transport over a broadcast-capable IPv4 UDP
// socket bound to a specific source address. Each NBT transaction opens
// its own instance.
type UDPv4Transport struct {
	conn net.PacketConn
}

// NewUDPv4Transport opens a UDP socket bound to src (use an IPv4 zero
// address with port 0 to let the kernel choose an ephemeral port) with
// SO_BROADCAST and SO_REUSEADDR set so directed-broadcast sends succeed
// and rapid successive transactions don't collide on TIME_WAIT.
func NewUDPv4Transport(src *net.UDPAddr) (*UDPv4Transport, error) {
	if src == nil {
		src = &net.UDPAddr{IP: net.IPv4zero, Port: 0}
	}
	if src.IP != nil && src.IP.To4() == nil {
		return nil, errors.New("open socket", errors.InvalidAddress)
	}

	conn, err := listenUDP4(src)
	if err != nil {
		return nil, errors.Wrap("open socket", errors.InternalError, err)
	}

	if rb, ok := conn.(interface{ SetReadBuffer(int) error }); ok {
		if err := rb.SetReadBuffer(protocol.MaxPacketSize * 8); err != nil {
			_ = conn.Close()
			return nil, errors.Wrap("configure socket", errors.InternalError, err)
		}
	}

	return &UDPv4Transport{conn: conn}, nil
}

// Send transmits packet to dest, which must be an IPv4 *net.UDPAddr.
func (t *UDPv4Transport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return errors.Wrap("send", errors.IoTimeout, ctx.Err())
	default:
	}

	udpDest, ok := dest.(*net.UDPAddr)
	if !ok || udpDest.IP.To4() == nil {
		return errors.New("send", errors.InvalidAddress)
	}

	n, err := t.conn.WriteTo(packet, udpDest)
	if err != nil {
		return errors.Wrap("send", errors.InternalError, err)
	}
	if n != len(packet) {
		return errors.Wrap("send", errors.InternalError, fmt.Errorf("partial write: %d/%d bytes", n, len(packet)))
	}
	return nil
}

// Receive waits for the next datagram, honoring ctx's deadline.
func (t *UDPv4Transport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, errors.Wrap("receive", errors.IoTimeout, ctx.Err())
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, errors.Wrap("receive", errors.InternalError, err)
		}
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, errors.Wrap("receive", errors.IoTimeout, err)
		}
		return nil, nil, errors.Wrap("receive", errors.InternalError, err)
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, nil
}

// LocalAddr returns the socket's bound local address.
func (t *UDPv4Transport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close releases the socket.
func (t *UDPv4Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return errors.Wrap("close socket", errors.InternalError, err)
	}
	return nil
}

var _ Transport = (*UDPv4Transport)(nil)
