package samba

import (
	"context"
	"net"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/pbrezina/samba/internal/errors"
)

// parseIPLiteral recognizes name as a textual IP address, accepting
// bracketed IPv6 literals ("[::1]"). An IPv6 literal still short-circuits
// resolution; only the NBT wire paths are IPv4-only.
func parseIPLiteral(name string) net.IP {
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		name = name[1 : len(name)-1]
	}
	return net.ParseIP(name)
}

// resolve is the pipeline driver: IP-literal short-circuit, cache check,
// NBT-eligibility filtering, then backend dispatch in configured order.
func (r *Resolver) resolve(ctx context.Context, name string, nbtType uint16, order []string) ([]Endpoint, error) {
	// Step 1: IP-literal short-circuit.
	if ip := parseIPLiteral(name); ip != nil {
		if ip.IsUnspecified() {
			return nil, errors.New("internal_resolve_name", errors.InvalidParameter)
		}
		return []Endpoint{{IP: ip}}, nil
	}

	// Step 2: positive name-cache lookup.
	if cached, ok := r.nameCache.Fetch(name, nbtType); ok {
		return dedupEndpoints(cached), nil
	}

	// Step 3/4: resolve-order gating and defaulting.
	if len(order) > 0 && order[0] == BackendNull {
		return nil, errors.New("internal_resolve_name", errors.InvalidParameter)
	}
	if len(order) == 0 {
		order = []string{BackendHost}
	}

	// Step 5: NBT cannot carry names over 15 bytes or containing '.'.
	// Names of exactly 15 characters remain NBT-eligible.
	if len(name) > 15 || strings.Contains(name, ".") {
		order = filterOrder(order, BackendLmhosts, BackendWins, BackendBcast)
	}

	// Step 6: dispatch to backends in order, stopping at the first
	// success.
	var errs *multierror.Error
	for _, tag := range order {
		eps, backendErr := r.dispatchBackend(ctx, tag, name, nbtType)
		if backendErr == nil {
			r.logf("debug", "internal_resolve_name: %s<%02x> resolved via %s", name, nbtType, tag)
			return r.finishResolve(name, nbtType, tag, eps), nil
		}
		r.logf("trace", "internal_resolve_name: backend %s failed for %s<%02x>: %v", tag, name, nbtType, backendErr)
		errs = multierror.Append(errs, backendErr)
	}

	if errs == nil || len(errs.Errors) == 0 {
		return nil, errors.New("internal_resolve_name", errors.NotFound)
	}
	return nil, errs.Errors[len(errs.Errors)-1]
}

// dispatchBackend routes one resolve-order tag to its backend.
func (r *Resolver) dispatchBackend(ctx context.Context, tag, name string, nbtType uint16) ([]Endpoint, error) {
	switch tag {
	case BackendHost, BackendHosts:
		return r.resolveHosts(ctx, name, nbtType)
	case BackendKDC:
		return r.resolveADS(ctx, name, KDCNameType)
	case BackendADS:
		return r.resolveADS(ctx, name, nbtType)
	case BackendLmhosts:
		return r.resolveLmhosts(ctx, name, nbtType)
	case BackendWins:
		if nbtType == uint16(NameTypeMasterBrowse) {
			return nil, errors.New("resolve_wins", errors.NotFound)
		}
		return r.resolveWINS(ctx, NBTName{Label: name, Type: byte(nbtType)})
	case BackendBcast:
		return r.nameResolveBcast(ctx, NBTName{Label: name, Type: byte(nbtType)})
	default:
		r.logf("warn", "internal_resolve_name: unknown resolve-order tag %q, skipping", tag)
		return nil, errors.New("internal_resolve_name", errors.InvalidParameter)
	}
}

// finishResolve filters zero addresses, dedupes, and caches the result,
// unless the winning backend was kdc (KDC results are looked up under the
// synthetic KDC type, not the name's real type, so they are never cached
// under the real type, nor under any other key).
func (r *Resolver) finishResolve(name string, nbtType uint16, backend string, eps []Endpoint) []Endpoint {
	eps = dedupEndpoints(filterZeroAddrs(eps))
	if backend != BackendKDC {
		r.nameCache.Store(name, nbtType, eps)
	}
	return eps
}

// filterOrder returns order with every tag in drop removed, preserving
// relative order of what remains.
func filterOrder(order []string, drop ...string) []string {
	dropSet := make(map[string]bool, len(drop))
	for _, d := range drop {
		dropSet[d] = true
	}
	out := make([]string, 0, len(order))
	for _, tag := range order {
		if !dropSet[tag] {
			out = append(out, tag)
		}
	}
	return out
}

// ResolveName resolves name to a single preferred endpoint. When
// preferIPv4 is true, an IPv4 candidate is returned ahead of any IPv6
// one.
func (r *Resolver) ResolveName(ctx context.Context, name string, nbtType uint16, preferIPv4 bool) (Endpoint, error) {
	eps, err := r.ResolveNameList(ctx, name, nbtType)
	if err != nil {
		return Endpoint{}, err
	}
	if len(eps) == 0 {
		return Endpoint{}, errors.New("resolve_name", errors.NotFound)
	}
	if preferIPv4 {
		eps = prioritizeIPv4(eps)
	}
	return eps[0], nil
}

// ResolveNameList resolves name to every endpoint the pipeline driver can
// find.
func (r *Resolver) ResolveNameList(ctx context.Context, name string, nbtType uint16) ([]Endpoint, error) {
	return r.resolve(ctx, name, nbtType, r.resolveOrder)
}

// FindMasterIP resolves the master browser for group (NBT type 0x1D),
// rejecting any broadcast or zero address in the result.
func (r *Resolver) FindMasterIP(ctx context.Context, group string) (Endpoint, error) {
	eps, err := r.resolve(ctx, group, uint16(NameTypeMasterBrowse), r.resolveOrder)
	if err != nil {
		return Endpoint{}, err
	}
	eps = rejectBroadcastAndZero(eps)
	if len(eps) == 0 {
		return Endpoint{}, errors.New("find_master_ip", errors.NotFound)
	}
	return eps[0], nil
}

func rejectBroadcastAndZero(eps []Endpoint) []Endpoint {
	out := make([]Endpoint, 0, len(eps))
	for _, ep := range eps {
		if ep.IP == nil || ep.IP.IsUnspecified() || ep.IP.Equal(net.IPv4bcast) {
			continue
		}
		out = append(out, ep)
	}
	return out
}

// GetPDCIP resolves the primary domain controller for domain. In ADS
// security mode it first tries an ads-only order, falling back to the
// resolver's configured order; the first candidate after proximity
// sorting is returned.
func (r *Resolver) GetPDCIP(ctx context.Context, domain string) (Endpoint, error) {
	if r.securityMode == SecurityADS {
		if eps, err := r.resolve(ctx, domain, uint16(NameTypePDC), []string{BackendADS}); err == nil && len(eps) > 0 {
			return r.firstByProximity(eps)
		}
	}
	eps, err := r.resolve(ctx, domain, uint16(NameTypePDC), r.resolveOrder)
	if err != nil {
		return Endpoint{}, err
	}
	return r.firstByProximity(eps)
}

func (r *Resolver) firstByProximity(eps []Endpoint) (Endpoint, error) {
	if len(eps) == 0 {
		return Endpoint{}, errors.New("get_pdc_ip", errors.NotFound)
	}
	if len(eps) == 1 {
		return eps[0], nil
	}
	ifaces, err := r.interfaces()
	if err != nil {
		return eps[0], nil
	}
	sorted := sortByProximity(ifaces, append([]Endpoint(nil), eps...))
	return sorted[0], nil
}
