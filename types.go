package samba

import (
	"github.com/pbrezina/samba/internal/cache"
	"github.com/pbrezina/samba/internal/protocol"
	"github.com/pbrezina/samba/internal/wire"
)

// Endpoint is a resolved network address plus an optional port. Port 0
// means "unspecified"; DC-list assembly is the only producer that ever sets
// a non-zero port. The ADS/KDC backend does not carry the SRV record's port
// into its results.
type Endpoint = cache.Endpoint

// NBTName is a NetBIOS name: a label of up to 15 bytes plus a type byte.
type NBTName = wire.NBTName

// NetBIOS name-type bytes of interest, re-exported so callers never need
// to import internal/protocol.
const (
	NameTypeWorkstation  = protocol.NameTypeWorkstation
	NameTypeFileServer   = protocol.NameTypeFileServer
	NameTypePDC          = protocol.NameTypePDC
	NameTypeDomainGroup  = protocol.NameTypeDomainGroup
	NameTypeMasterBrowse = protocol.NameTypeMasterBrowse
)

// KDCNameType is the synthetic name-type that never travels the wire and
// only selects the KDC SRV-lookup path.
const KDCNameType = protocol.KDCNameType

// NodeStatusEntry is one name registered on a queried host.
type NodeStatusEntry struct {
	Name  string
	Type  byte
	Flags byte
}

// IsGroup reports whether the group bit (flags & 0x80) is set.
func (e NodeStatusEntry) IsGroup() bool { return e.Flags&0x80 != 0 }
