package samba

import (
	"net"
	"sort"

	"github.com/pbrezina/samba/internal/iface"
)

const (
	localBonusV4 = 32
	localBonusV6 = 128
)

// proximityScore ranks ep by how topologically close it is to this host:
// the most bits its address shares with any local interface of the same
// family, plus a flat bonus if the address is itself one of this host's
// own interfaces.
func proximityScore(ifaces []net.Interface, ep Endpoint) int {
	score := iface.MaxMatchingBits(ifaces, ep.IP)
	if iface.IsLocal(ifaces, ep.IP) {
		if ep.IP.To4() != nil {
			score += localBonusV4
		} else {
			score += localBonusV6
		}
	}
	return score
}

// addrLess is the proximity comparator as a strict less-than: IPv4 before
// IPv6 on family mismatch, otherwise higher proximity score first, ties
// broken by ascending port.
func addrLess(ifaces []net.Interface, a, b Endpoint) bool {
	aV4, bV4 := a.IP.To4() != nil, b.IP.To4() != nil
	if aV4 != bV4 {
		return aV4
	}
	sa, sb := proximityScore(ifaces, a), proximityScore(ifaces, b)
	if sa != sb {
		return sa > sb
	}
	return a.Port < b.Port
}

// sortByProximity orders endpoints by addrLess in place and returns the
// same slice, for chaining. Addresses sharing more high-order bits with a
// local interface sort earlier; the sort is stable so ties keep their
// input order.
func sortByProximity(ifaces []net.Interface, endpoints []Endpoint) []Endpoint {
	sort.SliceStable(endpoints, func(i, j int) bool {
		return addrLess(ifaces, endpoints[i], endpoints[j])
	})
	return endpoints
}

// prioritizeIPv4 stable-partitions endpoints so every IPv4 entry precedes
// every non-IPv4 entry, preserving relative order within each group.
func prioritizeIPv4(endpoints []Endpoint) []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep.IP.To4() != nil {
			out = append(out, ep)
		}
	}
	for _, ep := range endpoints {
		if ep.IP.To4() == nil {
			out = append(out, ep)
		}
	}
	return out
}

// dedupEndpoints removes duplicate (address, port) pairs, keeping the
// first occurrence of each.
func dedupEndpoints(endpoints []Endpoint) []Endpoint {
	seen := make(map[string]bool, len(endpoints))
	out := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		key := ep.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ep)
	}
	return out
}

// filterZeroAddrs drops endpoints whose IP is the zero address of their
// family.
func filterZeroAddrs(endpoints []Endpoint) []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep.IP == nil || ep.IP.IsUnspecified() {
			continue
		}
		out = append(out, ep)
	}
	return out
}
