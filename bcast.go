package samba

import (
	"context"

	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/iface"
)

const (
	bcastWaitMsec    = 0
	bcastTimeoutMsec = 250
)

// nameResolveBcast enumerates local interfaces, collects each one's IPv4
// broadcast address, and fans out simultaneous broadcast name queries.
// NetBIOS being globally disabled fails immediately with
// InvalidParameter.
func (r *Resolver) nameResolveBcast(ctx context.Context, name NBTName) ([]Endpoint, error) {
	if r.disableNetBIOS {
		return nil, errors.New("name_resolve_bcast", errors.InvalidParameter)
	}

	ifaces, err := r.interfaces()
	if err != nil {
		return nil, errors.Wrap("name_resolve_bcast", errors.InternalError, err)
	}
	bcastAddrs, err := iface.BroadcastAddresses(ifaces)
	if err != nil {
		return nil, errors.Wrap("name_resolve_bcast", errors.InternalError, err)
	}
	if len(bcastAddrs) == 0 {
		return nil, errors.New("name_resolve_bcast", errors.NotFound)
	}

	return r.nameQueries(ctx, name, bcastAddrs, true, true, bcastWaitMsec, bcastTimeoutMsec)
}
