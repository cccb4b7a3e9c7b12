package samba

import (
	"context"
	"net"

	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/protocol"
)

// queryWINSList unicasts a name query to each server in turn, bounding
// every attempt by the per-server deadline. A timeout marks the server
// dead and advances to the next one; any success completes the chain; a
// non-timeout error fails it. Exhausting the list fails with NotFound.
func (r *Resolver) queryWINSList(ctx context.Context, name NBTName, servers []net.IP, source net.IP) ([]Endpoint, error) {
	for _, server := range servers {
		qctx, cancel := context.WithTimeout(ctx, protocol.WINSServerDeadline)
		eps, err := r.nameQuery(qctx, name, &net.UDPAddr{IP: server}, false, true)
		cancel()

		if err == nil {
			r.liveness.ClearDead(server, source)
			return eps, nil
		}
		if errors.Is(err, errors.IoTimeout) {
			r.liveness.MarkDead(server, source)
			continue
		}
		return nil, err
	}
	return nil, errors.New("query_wins_list", errors.NotFound)
}

// resolveWINS fans out one queryWINSList sequencer per configured WINS
// tag, concurrently. The first tag to succeed completes the request; when
// every tag has failed, the last error is surfaced.
func (r *Resolver) resolveWINS(ctx context.Context, name NBTName) ([]Endpoint, error) {
	// The configured source must be IPv4 when set; unset means "let the
	// kernel pick", represented as the zero address.
	source := net.IPv4zero
	if r.nbtClientAddr != nil {
		source = r.nbtClientAddr.To4()
		if source == nil {
			return nil, errors.New("resolve_wins", errors.InvalidParameter)
		}
	}
	if len(r.winsServers) == 0 {
		return nil, errors.New("resolve_wins", errors.NotFound)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		endpoints []Endpoint
		err       error
	}
	results := make(chan outcome, len(r.winsServers))

	for _, tagServers := range r.winsServers {
		servers := r.filterWINSServers(tagServers, source)
		go func() {
			if len(servers) == 0 {
				results <- outcome{err: errors.New("query_wins_list", errors.NotFound)}
				return
			}
			eps, err := r.queryWINSList(ctx, name, servers, source)
			results <- outcome{endpoints: eps, err: err}
		}()
	}

	var lastErr error = errors.New("resolve_wins", errors.NotFound)
	for range r.winsServers {
		out := <-results
		if out.err == nil {
			cancel()
			return out.endpoints, nil
		}
		lastErr = out.err
	}
	return nil, lastErr
}

// filterWINSServers drops servers already marked dead for source and, if
// this process is the daemon itself, the machine's own IP.
func (r *Resolver) filterWINSServers(servers []net.IP, source net.IP) []net.IP {
	out := make([]net.IP, 0, len(servers))
	for _, s := range servers {
		if r.liveness.IsDead(s, source) {
			continue
		}
		if r.inNmbd && s.Equal(source) {
			continue
		}
		out = append(out, s)
	}
	return out
}
