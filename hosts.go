package samba

import (
	"context"
	"net"

	"github.com/pbrezina/samba/internal/errors"
)

// resolveHosts wraps the system resolver (net.DefaultResolver.LookupIPAddr,
// the getaddrinfo equivalent, synchronous from the caller's goroutine).
// Only NBT types 0x00 (workstation) and 0x20 (file server) are accepted;
// those are the only two that can plausibly name a DNS host rather than a
// NetBIOS-specific service.
func (r *Resolver) resolveHosts(ctx context.Context, name string, nbtType uint16) ([]Endpoint, error) {
	if nbtType != uint16(NameTypeWorkstation) && nbtType != uint16(NameTypeFileServer) {
		return nil, errors.New("resolve_hosts", errors.InvalidParameter)
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, name)
	if err != nil {
		return nil, errors.Wrap("resolve_hosts", errors.NotFound, err)
	}

	out := make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		if a.IP.IsUnspecified() {
			continue
		}
		out = append(out, Endpoint{IP: a.IP})
	}
	if len(out) == 0 {
		return nil, errors.New("resolve_hosts", errors.NotFound)
	}
	return out, nil
}
