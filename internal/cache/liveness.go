package cache

import (
	"fmt"
	"net"
	"time"
)

// defaultDeadServerTTL bounds how long a WINS server stays marked dead
// before the sequencer is willing to retry it.
const defaultDeadServerTTL = 2 * time.Minute

// Liveness tracks WINS servers known to have timed out, keyed by
// (server_ip, source_ip). A dead flag is set when a query to that server
// times out and consulted to skip known-dead servers on subsequent
// attempts.
type Liveness struct {
	store *Store
	ttl   time.Duration
}

// NewLiveness returns a Liveness tracker backed by store.
func NewLiveness(store *Store, ttl time.Duration) *Liveness {
	if ttl <= 0 {
		ttl = defaultDeadServerTTL
	}
	return &Liveness{store: store, ttl: ttl}
}

func livenessKey(server, source net.IP) string {
	return fmt.Sprintf("DEAD/%s/%s", server.String(), source.String())
}

// MarkDead records that server timed out when queried from source.
func (l *Liveness) MarkDead(server, source net.IP) {
	l.store.Set(livenessKey(server, source), true, l.ttl)
}

// IsDead reports whether server is currently marked dead for source.
func (l *Liveness) IsDead(server, source net.IP) bool {
	_, ok := l.store.Get(livenessKey(server, source))
	return ok
}

// ClearDead removes any dead marking for (server, source); used when a
// previously dead server answers successfully.
func (l *Liveness) ClearDead(server, source net.IP) {
	l.store.Delete(livenessKey(server, source))
}
