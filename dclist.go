package samba

import (
	"context"
	"strconv"
	"strings"

	"github.com/pbrezina/samba/internal/errors"
)

// LookupType selects the policy GetDCList/GetSortedDCList uses to build
// the effective resolve order.
type LookupType int

const (
	// LookupNormal uses the resolver's configured resolve order.
	LookupNormal LookupType = iota
	// LookupADSOnly forces an ads-only lookup, or deliberately sabotages
	// it to ["NULL"] if "host" was never configured. The sabotage is a
	// policy gate: a site that never resolves hosts by DNS gets no ADS
	// lookups either.
	LookupADSOnly
	// LookupKDCOnly forces a kdc-only lookup under the synthetic
	// KDCNameType.
	LookupKDCOnly
)

const (
	adsDefaultPort = 389
	kdcDefaultPort = 88
)

// effectiveOrder returns the resolve order and auto-lookup NBT type
// GetDCList should use for lookupType, plus whether the result is already
// priority-ordered by its backend.
func (r *Resolver) effectiveOrder(lookupType LookupType, nbtType uint16) ([]string, uint16, bool) {
	switch lookupType {
	case LookupADSOnly:
		for _, tag := range r.resolveOrder {
			if tag == BackendHost {
				return []string{BackendADS}, nbtType, true
			}
		}
		return []string{BackendNull}, nbtType, true
	case LookupKDCOnly:
		return []string{BackendKDC}, KDCNameType, true
	default:
		return r.resolveOrder, nbtType, false
	}
}

// preferredServers builds the comma/whitespace-tokenised candidate list
// GetDCList walks: the domain's SAF entry first, then either the
// configured password servers or a bare "*" when domain isn't this
// machine's own workgroup.
func (r *Resolver) preferredServers(domain string) string {
	saf, _ := r.safCache.Fetch(domain)

	var rest string
	if !strings.EqualFold(domain, r.workgroup) {
		rest = "*"
	} else if len(r.passwordServers) > 0 {
		rest = strings.Join(r.passwordServers, " ")
	} else {
		rest = "*"
	}

	if saf == "" {
		return rest
	}
	return saf + ", " + rest
}

// tokenizePreferredServers splits a preferred-servers string on commas
// and whitespace.
func tokenizePreferredServers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// parseHostPort splits "host[:port]", bracketed-IPv6 destination syntax
// included, returning the default port when none is given.
func parseHostPort(token string, defaultPort int, ignoreExplicitPort bool) (host string, port int) {
	if strings.HasPrefix(token, "[") {
		if idx := strings.Index(token, "]"); idx >= 0 {
			host = token[1:idx]
			rest := token[idx+1:]
			if !ignoreExplicitPort && strings.HasPrefix(rest, ":") {
				if p, err := strconv.Atoi(rest[1:]); err == nil {
					return host, p
				}
			}
			return host, defaultPort
		}
	}
	if idx := strings.LastIndex(token, ":"); idx >= 0 && !strings.Contains(token[idx+1:], ":") {
		host = token[:idx]
		if !ignoreExplicitPort {
			if p, err := strconv.Atoi(token[idx+1:]); err == nil {
				return host, p
			}
		}
		return host, defaultPort
	}
	return token, defaultPort
}

// GetDCList assembles a merged candidate list for domain. ordered reports
// whether the result already reflects SRV priority/weight
// (ads/kdc lookups) so the caller knows whether a proximity sort is still
// needed.
func (r *Resolver) GetDCList(ctx context.Context, domain, site string, lookupType LookupType) (endpoints []Endpoint, ordered bool, err error) {
	nbtType := uint16(NameTypeDomainGroup)
	order, autoLookupType, ordered := r.effectiveOrder(lookupType, nbtType)

	defaultPort, ignoreExplicitPort := 0, false
	switch lookupType {
	case LookupADSOnly:
		defaultPort = adsDefaultPort
	case LookupKDCOnly:
		defaultPort = kdcDefaultPort
		ignoreExplicitPort = true
	}

	doneAutoLookup := false
	autoLookup := func() []Endpoint {
		if doneAutoLookup {
			return nil
		}
		doneAutoLookup = true
		eps, rerr := r.resolve(ctx, domain, autoLookupType, order)
		if rerr != nil {
			r.logf("debug", "get_dc_list: auto-lookup for %s failed: %v", domain, rerr)
			return nil
		}
		return eps
	}

	var out []Endpoint
	produced := false
	for _, token := range tokenizePreferredServers(r.preferredServers(domain)) {
		if token == "*" {
			eps := autoLookup()
			if len(eps) > 0 {
				produced = true
			}
			out = append(out, eps...)
			continue
		}

		host, port := parseHostPort(token, defaultPort, ignoreExplicitPort)
		eps, rerr := r.resolve(ctx, host, nbtType, order)
		if rerr != nil {
			continue
		}
		for _, ep := range eps {
			ep.Port = port
			if r.negativeConnCache != nil && r.negativeConnCache(ep) {
				continue
			}
			out = append(out, ep)
			produced = true
		}
	}

	if !produced {
		eps := autoLookup()
		if len(eps) == 0 {
			return nil, ordered, errors.New("get_dc_list", errors.NoLogonServers)
		}
		out = eps
	}

	out = prioritizeIPv4(dedupEndpoints(filterZeroAddrs(out)))
	if len(out) == 0 {
		return nil, ordered, errors.New("get_dc_list", errors.NoLogonServers)
	}
	return out, ordered, nil
}

// GetSortedDCList returns GetDCList's result, proximity-sorted when the
// backend didn't already order it by SRV priority.
func (r *Resolver) GetSortedDCList(ctx context.Context, domain, site string, adsOnly bool) ([]Endpoint, error) {
	lookupType := LookupNormal
	if adsOnly {
		lookupType = LookupADSOnly
	}
	eps, ordered, err := r.GetDCList(ctx, domain, site, lookupType)
	if err != nil {
		return nil, err
	}
	if ordered {
		return eps, nil
	}
	ifaces, ierr := r.interfaces()
	if ierr != nil {
		return eps, nil
	}
	return sortByProximity(ifaces, eps), nil
}

// GetKDCList resolves the KDCs for realm: GetSortedDCList with the
// KDC-only lookup policy baked in. An empty realm uses the configured
// one.
func (r *Resolver) GetKDCList(ctx context.Context, realm, site string) ([]Endpoint, error) {
	if realm == "" {
		realm = r.realm
	}
	eps, ordered, err := r.GetDCList(ctx, realm, site, LookupKDCOnly)
	if err != nil {
		return nil, err
	}
	if ordered {
		return eps, nil
	}
	ifaces, ierr := r.interfaces()
	if ierr != nil {
		return eps, nil
	}
	return sortByProximity(ifaces, eps), nil
}
