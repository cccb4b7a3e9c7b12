package samba

import (
	"io"
	"log"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/pbrezina/samba/internal/cache"
	"github.com/pbrezina/samba/internal/iface"
	"github.com/pbrezina/samba/internal/transport"
)

// SecurityMode selects how GetPDCIP orders its lookup.
type SecurityMode int

const (
	// SecurityUser is the default mode: GetPDCIP uses the resolver's
	// configured resolve order directly.
	SecurityUser SecurityMode = iota
	// SecurityADS makes GetPDCIP try an ads-only lookup before falling
	// back to the configured order.
	SecurityADS
)

// Resolve-order backend tags.
const (
	BackendHost    = "host"
	BackendHosts   = "hosts"
	BackendLmhosts = "lmhosts"
	BackendWins    = "wins"
	BackendBcast   = "bcast"
	BackendADS     = "ads"
	BackendKDC     = "kdc"
	BackendNull    = "NULL"
)

// DefaultResolveOrder is the backend order used when none is configured.
var DefaultResolveOrder = []string{BackendLmhosts, BackendWins, BackendHost, BackendBcast}

const defaultAsyncDNSTimeout = 5 * time.Second

// NegativeConnCache reports whether addr is known-unreachable and should
// be skipped during DC-list assembly. The resolver treats a nil function
// as "nothing is negatively cached".
type NegativeConnCache func(addr Endpoint) bool

// Resolver is the entry point for every resolution operation. Build one
// with New and reuse it; it owns the process-wide caches.
type Resolver struct {
	logger *log.Logger

	resolveOrder    []string
	nbtClientAddr   net.IP
	asyncDNSTimeout time.Duration
	disableNetBIOS  bool
	lmhostsPath     string
	securityMode    SecurityMode
	passwordServers []string
	workgroup       string
	realm           string
	inNmbd          bool
	safTTL          time.Duration
	safJoinTTL      time.Duration

	explicitInterfaces []net.Interface
	interfaceFilter    func(net.Interface) bool

	winsServers map[string][]net.IP // tag -> ordered server list

	negativeConnCache NegativeConnCache

	store       *cache.Store
	nameCache   *cache.NameCache
	statusCache *cache.StatusCache
	safCache    *cache.SAF
	liveness    *cache.Liveness

	relay             transport.Relay
	dnsClient         *dns.Client
	dnsServerOverride string
}

// Option configures a Resolver constructed by New.
type Option func(*Resolver)

// New builds a Resolver. The zero-value configuration resolves in the
// order lmhosts,wins,host,bcast with NetBIOS enabled and a discarding
// logger.
func New(opts ...Option) (*Resolver, error) {
	store := cache.NewStore()
	r := &Resolver{
		logger:          log.New(io.Discard, "", 0),
		resolveOrder:    append([]string(nil), DefaultResolveOrder...),
		asyncDNSTimeout: defaultAsyncDNSTimeout,
		store:           store,
		nameCache:       cache.NewNameCache(store, 0),
		statusCache:     cache.NewStatusCache(store, 0),
		liveness:        cache.NewLiveness(store, 0),
		relay:           transport.NoRelay{},
		dnsClient:       &dns.Client{Timeout: defaultAsyncDNSTimeout},
	}

	for _, opt := range opts {
		opt(r)
	}

	r.safCache = cache.NewSAF(store, r.safTTL, r.safJoinTTL)

	return r, nil
}

// WithLogger sets the destination for the resolver's progressive-detail
// log lines. Default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithResolveOrder overrides the default backend order (the "name
// resolve order" setting).
func WithResolveOrder(order []string) Option {
	return func(r *Resolver) { r.resolveOrder = append([]string(nil), order...) }
}

// WithNBTClientAddress sets the IPv4 source address NBT transactions
// bind to (the "nbt client socket address" setting).
func WithNBTClientAddress(addr net.IP) Option {
	return func(r *Resolver) { r.nbtClientAddr = addr }
}

// WithAsyncDNSTimeout sets the wall-clock deadline for the ADS/KDC
// backend's A/AAAA fan-out (the "async dns timeout" setting).
func WithAsyncDNSTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.asyncDNSTimeout = d
		r.dnsClient.Timeout = d
	}
}

// WithSAFTTL overrides the server-affinity cache TTL ("saf ttl").
func WithSAFTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.safTTL = ttl }
}

// WithSAFJoinTTL overrides the server-affinity join-cache TTL
// ("saf join ttl").
func WithSAFJoinTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.safJoinTTL = ttl }
}

// WithSecurityMode sets the mode GetPDCIP orders its lookup by.
func WithSecurityMode(mode SecurityMode) Option {
	return func(r *Resolver) { r.securityMode = mode }
}

// WithPasswordServers sets the configured password-server list consumed
// by DC-list assembly.
func WithPasswordServers(servers []string) Option {
	return func(r *Resolver) { r.passwordServers = append([]string(nil), servers...) }
}

// WithWorkgroup sets the NetBIOS workgroup/domain name consumed by
// DC-list assembly.
func WithWorkgroup(workgroup string) Option {
	return func(r *Resolver) { r.workgroup = workgroup }
}

// WithRealm sets the Kerberos realm the ADS/KDC backend queries SRV
// records under when the caller doesn't name a domain.
func WithRealm(realm string) Option {
	return func(r *Resolver) { r.realm = realm }
}

// WithDisableNetBIOS disables every NBT-based path (bcast/wins/node
// status).
func WithDisableNetBIOS(disabled bool) Option {
	return func(r *Resolver) { r.disableNetBIOS = disabled }
}

// WithLmhostsPath sets the path to the static lmhosts file the lmhosts
// backend scans.
func WithLmhostsPath(path string) Option {
	return func(r *Resolver) { r.lmhostsPath = path }
}

// WithInterfaces restricts interface enumeration (broadcast targets,
// proximity ranking) to an explicit list, overriding the default filter.
func WithInterfaces(ifaces []net.Interface) Option {
	return func(r *Resolver) { r.explicitInterfaces = ifaces }
}

// WithInterfaceFilter installs a custom interface-selection predicate,
// ignored if WithInterfaces was also given.
func WithInterfaceFilter(filter func(net.Interface) bool) Option {
	return func(r *Resolver) { r.interfaceFilter = filter }
}

// WithWINSServers registers the WINS server lists this resolver queries,
// keyed by replication tag (each tag is a replicating group of servers).
func WithWINSServers(tagged map[string][]net.IP) Option {
	return func(r *Resolver) {
		r.winsServers = make(map[string][]net.IP, len(tagged))
		for tag, servers := range tagged {
			r.winsServers[tag] = append([]net.IP(nil), servers...)
		}
	}
}

// WithRelay installs a Relay standing in for a cooperating local daemon
// that may already hold the NBT port. Default is NoRelay.
func WithRelay(relay transport.Relay) Option {
	return func(r *Resolver) { r.relay = relay }
}

// WithRunningAsNmbd marks this process as the daemon itself, so the WINS
// backend excludes the machine's own IP from candidate servers.
func WithRunningAsNmbd(isNmbd bool) Option {
	return func(r *Resolver) { r.inNmbd = isNmbd }
}

// WithNegativeConnCache installs the negative-connection-cache hook
// DC-list assembly consults to skip known-unreachable endpoints.
// Default: nothing is negatively cached.
func WithNegativeConnCache(check NegativeConnCache) Option {
	return func(r *Resolver) { r.negativeConnCache = check }
}

func (r *Resolver) logf(level, format string, args ...interface{}) {
	r.logger.Printf("["+level+"] "+format, args...)
}

func (r *Resolver) interfaces() ([]net.Interface, error) {
	if len(r.explicitInterfaces) > 0 {
		return r.explicitInterfaces, nil
	}
	if r.interfaceFilter != nil {
		all, err := net.Interfaces()
		if err != nil {
			return nil, err
		}
		out := make([]net.Interface, 0, len(all))
		for _, i := range all {
			if r.interfaceFilter(i) {
				out = append(out, i)
			}
		}
		return out, nil
	}
	return iface.DefaultInterfaces()
}
