// Package samba implements the name-resolution core of a Windows-compatible
// file-sharing client: translating a NetBIOS name, DNS hostname, or IP
// literal plus a NetBIOS name-type byte into an ordered list of reachable
// endpoints.
//
// # Overview
//
// A Resolver chains together a configurable, ordered list of resolution
// backends ("host", "lmhosts", "wins", "bcast", "ads", "kdc") behind one
// pipeline driver. Each backend resolves independently; the pipeline tries
// them in order and stops at the first success. The result is stored in a
// positive name cache so repeat lookups for the same name short-circuit the
// network. A separate server-affinity cache, filled only through SAFStore
// and SAFJoinStore, puts a domain's remembered server first in DC lists.
//
// # Quick start
//
//	r, err := samba.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	ep, err := r.ResolveName(ctx, "FILESERVER", uint16(samba.NameTypeFileServer), true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ep)
//
// # Backends
//
// The "host" backend resolves via the system resolver (getaddrinfo
// equivalent). "lmhosts" scans a static hosts-style file. "wins" queries a
// sequence of WINS servers by unicast NBT. "bcast" broadcasts an NBT name
// query to every local interface. "ads"/"kdc" issue a DNS SRV lookup
// followed by A/AAAA resolution of any bare hostnames the SRV answer
// carried.
//
// # Concurrency
//
// A Resolver is safe for concurrent use. Every exported method that touches
// the network accepts a context.Context and honors its cancellation and
// deadline; the SAF cache methods work on local state and take none.
package samba
