// Package engine implements the NBT packet race and retransmitting
// transaction that every query backend sends its request through.
package engine

import (
	"context"
	"net"
	"time"

	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/protocol"
	"github.com/pbrezina/samba/internal/transport"
)

// Validator reports whether a received datagram is the answer a
// transaction is waiting for (matching trn_id, opcode, rcode, and
// whatever per-operation shape the caller requires).
type Validator func(msg []byte) bool

// result carries one validated answer out of raceRead.
type result struct {
	msg  []byte
	from net.Addr
}

// raceRead starts a single background reader racing the kernel socket
// against an optional relay subscription from the local name-service
// daemon.
// It returns a channel of validated answers and a channel of terminal
// socket errors; both are closed when ctx is done. Datagrams that fail
// validate are silently discarded and reading continues.
func raceRead(ctx context.Context, tr transport.Transport, relayCh <-chan []byte, validate Validator) (<-chan result, <-chan error) {
	results := make(chan result, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(results)
		defer close(errs)
		for {
			msg, from, err := tr.Receive(ctx)
			if err != nil {
				select {
				case errs <- err:
				case <-ctx.Done():
				}
				return
			}
			if validate(msg) {
				select {
				case results <- result{msg: msg, from: from}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	out := make(chan result, 1)
	outErr := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(outErr)
		var sockErr error
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-results:
				if !ok {
					results = nil
					continue
				}
				out <- r
				return
			case msg, ok := <-relayCh:
				if !ok {
					// Relay arm is done. If the socket already failed,
					// both sources have now reported failure.
					if sockErr != nil {
						outErr <- sockErr
						return
					}
					relayCh = nil
					continue
				}
				if validate(msg) {
					out <- result{msg: msg, from: nil}
					return
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				// A socket failure with the relay arm still open keeps
				// the race alive; the socket error is surfaced once the
				// relay gives up too, in preference to any relay error.
				if relayCh != nil {
					sockErr = err
					errs = nil
					results = nil
					continue
				}
				outErr <- err
				return
			}
		}
	}()

	return out, outErr
}

// Transact sends request to dest over tr, retransmitting every
// protocol.RetransmitInterval until a validated answer arrives or ctx's
// deadline fires. There is no retry cap: the outer deadline bounds
// retries. relay may be nil, in which case transport.NoRelay{} is used.
func Transact(ctx context.Context, tr transport.Transport, relay transport.Relay, dest net.Addr, request []byte, packetType uint16, trnID uint16, validate Validator) ([]byte, net.Addr, error) {
	if relay == nil {
		relay = transport.NoRelay{}
	}

	// Reader-subscription failure is non-fatal: proceed with a
	// socket-only race rather than failing the whole transaction.
	relayCh, err := relay.Subscribe(ctx, packetType, int32(trnID))
	if err != nil {
		relayCh = nil
	}

	if err := tr.Send(ctx, request, dest); err != nil {
		return nil, nil, err
	}

	results, errs := raceRead(ctx, tr, relayCh, validate)

	ticker := time.NewTicker(protocol.RetransmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, nil, errors.Wrap("transact", errors.IoTimeout, ctx.Err())
		case r, ok := <-results:
			if !ok {
				return nil, nil, errors.Wrap("transact", errors.IoTimeout, ctx.Err())
			}
			from := r.from
			if from == nil {
				from = dest
			}
			return r.msg, from, nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return nil, nil, err
		case <-ticker.C:
			if err := tr.Send(ctx, request, dest); err != nil {
				return nil, nil, err
			}
		}
	}
}
