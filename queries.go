package samba

import (
	"context"
	"net"

	"github.com/pbrezina/samba/internal/engine"
	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/protocol"
	"github.com/pbrezina/samba/internal/transport"
	"github.com/pbrezina/samba/internal/wire"
)

// sourceAddr returns the configured NBT client source address downgraded
// to IPv4, or the zero IPv4 address if unconfigured or misconfigured.
func (r *Resolver) sourceAddr() *net.UDPAddr {
	ip := r.nbtClientAddr.To4()
	if ip == nil {
		ip = net.IPv4zero
	}
	return &net.UDPAddr{IP: ip, Port: 0}
}

// NodeStatusQuery sends an NBT node-status request (NBT type 0x21) to addr
// and returns the registered-name table the host answers with. addr must
// be an IPv4 endpoint.
func (r *Resolver) NodeStatusQuery(ctx context.Context, name NBTName, addr net.IP) ([]NodeStatusEntry, error) {
	if addr.To4() == nil {
		return nil, errors.New("node_status_query", errors.InvalidAddress)
	}
	if r.disableNetBIOS {
		return nil, errors.New("node_status_query", errors.InvalidParameter)
	}

	ctx, cancel := context.WithTimeout(ctx, protocol.NodeStatusDeadline)
	defer cancel()

	trnID, err := wire.NewTransactionID()
	if err != nil {
		return nil, err
	}
	request, err := wire.BuildNodeStatusQuery(trnID, name)
	if err != nil {
		return nil, errors.Wrap("node_status_query", errors.InvalidParameter, err)
	}

	dest := &net.UDPAddr{IP: addr.To4(), Port: protocol.Port}

	validate := func(msg []byte) bool {
		header, err := wire.ParseHeader(msg)
		if err != nil {
			return false
		}
		if header.Opcode() != protocol.OpcodeQuery || header.Broadcast() || header.RCode() != 0 {
			return false
		}
		if header.ANCount == 0 {
			return false
		}
		rrType, err := wire.FirstAnswerType(msg)
		if err != nil || rrType != protocol.QTypeNBStat {
			return false
		}
		return true
	}

	tr, err := transport.NewUDPv4Transport(r.sourceAddr())
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	msg, _, err := engine.Transact(ctx, tr, r.relay, dest, request, protocol.QTypeNBStat, trnID, validate)
	if err != nil {
		return nil, err
	}

	resp, err := wire.ParseNodeStatusResponse(msg)
	if err != nil {
		return nil, errors.Wrap("node_status_query", errors.InternalError, err)
	}

	entries := make([]NodeStatusEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, NodeStatusEntry{Name: e.Name, Type: e.Type, Flags: byte(e.Flags)})
	}
	return entries, nil
}

// NameStatusFind sends a node-status query for (queriedName, queriedType)
// to addr and returns the name of the first returned entry whose type is
// desiredType, caching it; the entries' names are not compared with
// queriedName.
func (r *Resolver) NameStatusFind(ctx context.Context, queriedName string, queriedType byte, desiredType byte, addr net.IP) (string, error) {
	if name, ok := r.statusCache.Fetch(queriedName, queriedType, desiredType, addr); ok {
		return name, nil
	}

	entries, err := r.NodeStatusQuery(ctx, NBTName{Label: queriedName, Type: queriedType}, addr)
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		if e.Type == desiredType {
			r.statusCache.Store(queriedName, queriedType, desiredType, addr, e.Name)
			return e.Name, nil
		}
	}
	return "", errors.New("name_status_find", errors.NotFound)
}

// nameQuery sends an NBT name-query request (NBT type 0x20) to dest and
// returns the addresses found. broadcast selects between the unicast
// ("first well-formed response wins") and broadcast ("collect every
// response until deadline, with an early-exit shortcut") modes.
func (r *Resolver) nameQuery(ctx context.Context, name NBTName, dest *net.UDPAddr, broadcast, recurse bool) ([]Endpoint, error) {
	if dest.IP.To4() == nil {
		return nil, errors.New("name_query", errors.InvalidAddress)
	}
	dest = &net.UDPAddr{IP: dest.IP, Port: protocol.Port}

	trnID, err := wire.NewTransactionID()
	if err != nil {
		return nil, err
	}
	request, err := wire.BuildNameQuery(trnID, name, broadcast, recurse)
	if err != nil {
		return nil, errors.Wrap("name_query", errors.InvalidParameter, err)
	}

	tr, err := transport.NewUDPv4Transport(r.sourceAddr())
	if err != nil {
		return nil, err
	}
	defer tr.Close()

	if !broadcast {
		return r.nameQueryUnicast(ctx, tr, dest, request, trnID)
	}
	return r.nameQueryBroadcast(ctx, tr, dest, request, trnID, name)
}

// nameQueryUnicast is the unicast/WINS mode: accept the first well-formed
// response; a negative (rcode != 0, opcode 0) answer surfaces as NotFound
// rather than a parse error.
func (r *Resolver) nameQueryUnicast(ctx context.Context, tr transport.Transport, dest *net.UDPAddr, request []byte, trnID uint16) ([]Endpoint, error) {
	var negative bool

	validate := func(msg []byte) bool {
		header, err := wire.ParseHeader(msg)
		if err != nil {
			return false
		}
		if header.Opcode() != protocol.OpcodeQuery {
			return false
		}
		if header.RCode() != 0 {
			negative = true
			return true
		}
		return true
	}

	msg, _, err := engine.Transact(ctx, tr, r.relay, dest, request, protocol.QTypeNetBIOS, trnID, validate)
	if err != nil {
		return nil, err
	}
	if negative {
		return nil, errors.New("name_query", errors.NotFound)
	}

	resp, err := wire.ParseNameQueryResponse(msg)
	if err != nil {
		return nil, errors.Wrap("name_query", errors.InternalError, err)
	}
	return recordsToEndpoints(resp.Records), nil
}

// nameQueryBroadcast is the broadcast mode: collect every validated reply
// until ctx's deadline, deduplicating by address, with an early exit the
// instant a unique-name answer arrives for any query other than the
// wildcard "*" (the wildcard must wait out the full window).
func (r *Resolver) nameQueryBroadcast(ctx context.Context, tr transport.Transport, dest *net.UDPAddr, request []byte, trnID uint16, name NBTName) ([]Endpoint, error) {
	seen := make(map[string]bool)
	var collected []Endpoint
	done := name.Label != "*"

	relayCh, _ := r.relay.Subscribe(ctx, protocol.QTypeNetBIOS, int32(trnID))

	if err := tr.Send(ctx, request, dest); err != nil {
		return nil, err
	}

	for {
		msg, _, err := receiveOne(ctx, tr, relayCh)
		if err != nil {
			// Timeout completes the broadcast burst successfully with
			// whatever was collected.
			if errors.Is(err, errors.IoTimeout) {
				return collected, nil
			}
			return nil, err
		}

		header, err := wire.ParseHeader(msg)
		if err != nil || header.Opcode() != protocol.OpcodeQuery || header.RCode() != 0 {
			continue
		}
		resp, err := wire.ParseNameQueryResponse(msg)
		if err != nil {
			continue
		}

		for _, rec := range resp.Records {
			ep := recordToEndpoint(rec)
			if ep == nil {
				continue
			}
			key := ep.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			collected = append(collected, *ep)
			if !rec.IsGroup() && done {
				return collected, nil
			}
		}
	}
}

// receiveOne reads a single datagram from whichever of tr or relayCh
// delivers first.
func receiveOne(ctx context.Context, tr transport.Transport, relayCh <-chan []byte) ([]byte, net.Addr, error) {
	type recv struct {
		msg  []byte
		from net.Addr
		err  error
	}
	ch := make(chan recv, 1)
	go func() {
		msg, from, err := tr.Receive(ctx)
		ch <- recv{msg, from, err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, errors.Wrap("receive", errors.IoTimeout, ctx.Err())
	case r := <-ch:
		return r.msg, r.from, r.err
	case msg, ok := <-relayCh:
		if !ok {
			// Relay hung up; fall back to whatever the socket read
			// produces.
			r := <-ch
			return r.msg, r.from, r.err
		}
		return msg, nil, nil
	}
}

func recordToEndpoint(rec wire.NameQueryRecord) *Endpoint {
	ip := net.IPv4(rec.Addr[0], rec.Addr[1], rec.Addr[2], rec.Addr[3])
	if ip.IsUnspecified() {
		return nil
	}
	return &Endpoint{IP: ip}
}

func recordsToEndpoints(records []wire.NameQueryRecord) []Endpoint {
	out := make([]Endpoint, 0, len(records))
	for _, rec := range records {
		if ep := recordToEndpoint(rec); ep != nil {
			out = append(out, *ep)
		}
	}
	return out
}
