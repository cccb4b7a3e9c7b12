package cache

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Endpoint is one resolved address the name cache stores for a key;
// Port is zero when the backend that produced it does not carry a port
// (NBT, DNS A/AAAA and SRV-derived results alike).
type Endpoint struct {
	IP   net.IP
	Port int
}

func (e Endpoint) String() string {
	if e.Port == 0 {
		return e.IP.String()
	}
	return fmt.Sprintf("%s:%d", e.IP.String(), e.Port)
}

// defaultNameCacheTTL bounds how long a positive name-resolution result
// is trusted before the pipeline driver re-resolves it.
const defaultNameCacheTTL = 10 * time.Minute

// NameCache is the positive name cache: (name, nbt_type) -> list of
// endpoints, TTL-bounded.
type NameCache struct {
	store *Store
	ttl   time.Duration
}

// NewNameCache returns a NameCache backed by store, using ttl for every
// stored entry (0 selects defaultNameCacheTTL).
func NewNameCache(store *Store, ttl time.Duration) *NameCache {
	if ttl <= 0 {
		ttl = defaultNameCacheTTL
	}
	return &NameCache{store: store, ttl: ttl}
}

func nameCacheKey(name string, nbtType uint16) string {
	return fmt.Sprintf("NAME/%s/%04X", strings.ToUpper(name), nbtType)
}

// Store records endpoints for (name, nbtType).
func (c *NameCache) Store(name string, nbtType uint16, endpoints []Endpoint) {
	c.store.Set(nameCacheKey(name, nbtType), endpoints, c.ttl)
}

// Fetch returns the cached endpoints for (name, nbtType), if present and
// unexpired.
func (c *NameCache) Fetch(name string, nbtType uint16) ([]Endpoint, bool) {
	v, ok := c.store.Get(nameCacheKey(name, nbtType))
	if !ok {
		return nil, false
	}
	endpoints, ok := v.([]Endpoint)
	return endpoints, ok
}

// Delete removes the cached entry for (name, nbtType).
func (c *NameCache) Delete(name string, nbtType uint16) {
	c.store.Delete(nameCacheKey(name, nbtType))
}

// defaultStatusCacheTTL bounds how long a node-status lookup's
// name-for-address mapping is trusted.
const defaultStatusCacheTTL = 5 * time.Minute

// StatusCache is the name-status cache: (queried_name, queried_type,
// desired_type, target_address) -> name, TTL-bounded. Populated by
// node-status lookups that resolve a wildcard or group name to a
// specific host's own registered name.
type StatusCache struct {
	store *Store
	ttl   time.Duration
}

// NewStatusCache returns a StatusCache backed by store.
func NewStatusCache(store *Store, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = defaultStatusCacheTTL
	}
	return &StatusCache{store: store, ttl: ttl}
}

func statusCacheKey(queriedName string, queriedType, desiredType byte, target net.IP) string {
	return fmt.Sprintf("STATUS/%s/%02X/%02X/%s", strings.ToUpper(queriedName), queriedType, desiredType, target.String())
}

// Store records the name returned by a node-status lookup of target for
// (queriedName, queriedType, desiredType).
func (c *StatusCache) Store(queriedName string, queriedType, desiredType byte, target net.IP, name string) {
	c.store.Set(statusCacheKey(queriedName, queriedType, desiredType, target), name, c.ttl)
}

// Fetch returns the cached name, if present and unexpired.
func (c *StatusCache) Fetch(queriedName string, queriedType, desiredType byte, target net.IP) (string, bool) {
	v, ok := c.store.Get(statusCacheKey(queriedName, queriedType, desiredType, target))
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
