package samba

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/pbrezina/samba/internal/errors"
)

// resolvConfPath is overridable in tests.
var resolvConfPath = "/etc/resolv.conf"

// srvQueryName builds the DNS SRV query name for an ADS/KDC lookup of
// domain. Only the PDC, DC-group, and synthetic KDC name types have an
// SRV mapping.
func srvQueryName(nbtType uint16, domain string) (string, error) {
	switch nbtType {
	case uint16(NameTypePDC):
		return fmt.Sprintf("_ldap._tcp.pdc._msdcs.%s.", domain), nil
	case uint16(NameTypeDomainGroup):
		return fmt.Sprintf("_ldap._tcp.dc._msdcs.%s.", domain), nil
	case KDCNameType:
		return fmt.Sprintf("_kerberos._tcp.dc._msdcs.%s.", domain), nil
	default:
		return "", errors.New("resolve_ads", errors.InvalidParameter)
	}
}

func (r *Resolver) systemDNSServer() string {
	cfg, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil || len(cfg.Servers) == 0 {
		return "127.0.0.1:53"
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// dnsServerAddr returns the resolver this backend queries: an explicit
// override when one is configured (used by tests to point at a fake DNS
// server), otherwise the system resolver from resolv.conf.
func (r *Resolver) dnsServerAddr() string {
	if r.dnsServerOverride != "" {
		return r.dnsServerOverride
	}
	return r.systemDNSServer()
}

// srvRecord is one parsed SRV answer, with any glue A/AAAA addresses the
// response carried for its target inline.
type srvRecord struct {
	target string
	ips    []net.IP
}

func (r *Resolver) querySRV(ctx context.Context, name string) ([]srvRecord, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypeSRV)
	msg.RecursionDesired = true

	resp, _, err := r.dnsClient.ExchangeContext(ctx, msg, r.dnsServerAddr())
	if err != nil {
		return nil, errors.Wrap("resolve_ads", errors.NotFound, err)
	}

	glue := make(map[string][]net.IP)
	for _, extra := range resp.Extra {
		switch rr := extra.(type) {
		case *dns.A:
			glue[rr.Hdr.Name] = append(glue[rr.Hdr.Name], rr.A)
		case *dns.AAAA:
			glue[rr.Hdr.Name] = append(glue[rr.Hdr.Name], rr.AAAA)
		}
	}

	var out []srvRecord
	for _, ans := range resp.Answer {
		srv, ok := ans.(*dns.SRV)
		if !ok {
			continue
		}
		out = append(out, srvRecord{target: srv.Target, ips: glue[srv.Target]})
	}
	if len(out) == 0 {
		return nil, errors.New("resolve_ads", errors.NotFound)
	}
	return out, nil
}

// resolveADS issues a DNS SRV lookup for domain, splits the answer into
// addresses already embedded in the SRV reply vs. hostnames needing
// A/AAAA lookup, then runs those hostname lookups in parallel under one
// wall-clock deadline. Order is preserved: glue addresses first, then
// DNS-resolved addresses in query-issue order.
func (r *Resolver) resolveADS(ctx context.Context, domain string, nbtType uint16) ([]Endpoint, error) {
	if domain == "" {
		domain = r.realm
	}
	name, err := srvQueryName(nbtType, domain)
	if err != nil {
		return nil, err
	}

	srvRecords, err := r.querySRV(ctx, name)
	if err != nil {
		return nil, err
	}

	var srvAddrs []Endpoint
	var lookupNames []string
	for _, rec := range srvRecords {
		if len(rec.ips) > 0 {
			for _, ip := range rec.ips {
				if !ip.IsUnspecified() {
					srvAddrs = append(srvAddrs, Endpoint{IP: ip})
				}
			}
			continue
		}
		lookupNames = append(lookupNames, rec.target)
	}

	dnsAddrs := r.dnsLookupListAsync(ctx, lookupNames)

	return append(srvAddrs, dnsAddrs...), nil
}

// dnsLookupListAsync issues an A lookup and an AAAA lookup for every name
// in parallel, bounded by r.asyncDNSTimeout. A per-query failure silently
// contributes zero addresses; a global timeout returns whatever arrived
// so far as success, not error.
func (r *Resolver) dnsLookupListAsync(ctx context.Context, names []string) []Endpoint {
	if len(names) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.asyncDNSTimeout)
	defer cancel()

	results := make([][]Endpoint, len(names))
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			var found []Endpoint
			for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
				ips := r.lookupOne(ctx, name, qtype)
				found = append(found, ips...)
			}
			mu.Lock()
			results[i] = found
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var out []Endpoint
	for _, found := range results {
		out = append(out, found...)
	}
	return out
}

func (r *Resolver) lookupOne(ctx context.Context, name string, qtype uint16) []Endpoint {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)

	resp, _, err := r.dnsClient.ExchangeContext(ctx, msg, r.dnsServerAddr())
	if err != nil || resp == nil {
		return nil
	}

	var out []Endpoint
	for _, ans := range resp.Answer {
		var ip net.IP
		switch rr := ans.(type) {
		case *dns.A:
			ip = rr.A
		case *dns.AAAA:
			ip = rr.AAAA
		default:
			continue
		}
		if !ip.IsUnspecified() {
			out = append(out, Endpoint{IP: ip})
		}
	}
	return out
}
