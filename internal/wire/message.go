// Package wire defines the NetBIOS Name Service (NBT) wire format
// structures and the encode/decode functions layered on them, per
// RFC 1001/1002 §4.2 (header, question, and resource record layout).
package wire

import "github.com/pbrezina/samba/internal/protocol"

// Header is the 12-byte NBT message header (all fields big-endian).
//
//	 0  1  2  3  4  5  6  7  8  9 10 11 12 13 14 15
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   TRN_ID                      |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|R|  OPCODE  |AA|TC|RD|RA| 0| 0|B |    RCODE     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   QDCOUNT                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   ANCOUNT                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   NSCOUNT                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   ARCOUNT                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type Header struct {
	TrnID   uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports whether the R bit is set.
func (h *Header) IsResponse() bool {
	return h.Flags&protocol.FlagResponse != 0
}

// Opcode returns the 4-bit OPCODE field.
func (h *Header) Opcode() uint16 {
	return protocol.Opcode(h.Flags)
}

// RCode returns the 4-bit RCODE field.
func (h *Header) RCode() uint16 {
	return protocol.RCode(h.Flags)
}

// Broadcast reports whether the B bit is set.
func (h *Header) Broadcast() bool {
	return h.Flags&protocol.FlagBroadcast != 0
}

// Question is the single question section entry every NBT request carries:
// the first-level-encoded name plus QTYPE/QCLASS.
type Question struct {
	Name   NBTName
	QType  uint16
	QClass uint16
}

// NameQueryRecord is one record of a name-query response's RDATA
// (RFC 1002 §4.2.13): a flags word (group bit in the high bit) and an
// IPv4 address.
type NameQueryRecord struct {
	Flags uint16
	Addr  [4]byte
}

// IsGroup reports whether the FlagGroup bit is set.
func (r NameQueryRecord) IsGroup() bool {
	return r.Flags&protocol.FlagGroup != 0
}

// NodeStatusRecord is one entry of a node-status response's RDATA
// (RFC 1002 §4.2.18): a name trimmed of NBT padding, its name-type byte,
// and its flags (bit 0x80 is the group bit).
type NodeStatusRecord struct {
	Name  string
	Type  byte
	Flags uint16
}

// IsGroup reports the group bit (0x80) of a node-status entry's flags.
func (r NodeStatusRecord) IsGroup() bool {
	return r.Flags&0x80 != 0
}

// NameQueryResponse is a parsed name-query (QTYPE 0x0020) answer.
type NameQueryResponse struct {
	Header  Header
	Records []NameQueryRecord
}

// NodeStatusResponse is a parsed node-status (QTYPE 0x0021) answer.
type NodeStatusResponse struct {
	Header  Header
	Entries []NodeStatusRecord
	MAC     [6]byte
}
