package samba

import (
	"context"
	"net"
	"time"

	"github.com/pbrezina/samba/internal/errors"
)

// nameQueries fans a name query out to destinations in order, starting
// destination i at i*waitMsec and bounding each attempt by timeoutMsec.
// It completes on the first success, cancelling every other outstanding
// attempt; if every attempt fails it returns the last error.
func (r *Resolver) nameQueries(ctx context.Context, name NBTName, destinations []net.IP, broadcast, recurse bool, waitMsec, timeoutMsec int) ([]Endpoint, error) {
	if len(destinations) == 0 {
		return nil, errors.New("name_queries", errors.NotFound)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		endpoints []Endpoint
		err       error
	}
	results := make(chan outcome, len(destinations))

	for i, dest := range destinations {
		i, dest := i, dest
		go func() {
			select {
			case <-time.After(time.Duration(i*waitMsec) * time.Millisecond):
			case <-ctx.Done():
				results <- outcome{err: ctx.Err()}
				return
			}

			qctx, qcancel := context.WithTimeout(ctx, time.Duration(timeoutMsec)*time.Millisecond)
			defer qcancel()

			eps, err := r.nameQuery(qctx, name, &net.UDPAddr{IP: dest}, broadcast, recurse)
			results <- outcome{endpoints: eps, err: err}
		}()
	}

	var lastErr error = errors.New("name_queries", errors.NotFound)
	for range destinations {
		out := <-results
		if out.err == nil {
			cancel()
			return out.endpoints, nil
		}
		lastErr = out.err
	}
	return nil, lastErr
}
