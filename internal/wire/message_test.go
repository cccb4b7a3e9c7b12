package wire

import (
	"testing"

	"github.com/pbrezina/samba/internal/protocol"
)

func TestHeader_IsResponse(t *testing.T) {
	h := Header{Flags: protocol.FlagResponse}
	if !h.IsResponse() {
		t.Error("IsResponse() = false, want true")
	}
	h = Header{Flags: 0}
	if h.IsResponse() {
		t.Error("IsResponse() = true, want false")
	}
}

func TestHeader_Broadcast(t *testing.T) {
	h := Header{Flags: protocol.FlagBroadcast}
	if !h.Broadcast() {
		t.Error("Broadcast() = false, want true")
	}
}

func TestHeader_OpcodeAndRCode(t *testing.T) {
	h := Header{Flags: protocol.FlagResponse | protocol.FlagRD}
	if h.Opcode() != protocol.OpcodeQuery {
		t.Errorf("Opcode() = %d, want %d", h.Opcode(), protocol.OpcodeQuery)
	}
	if h.RCode() != 0 {
		t.Errorf("RCode() = %d, want 0", h.RCode())
	}
}

func TestNameQueryRecord_IsGroup(t *testing.T) {
	unique := NameQueryRecord{Flags: 0}
	if unique.IsGroup() {
		t.Error("IsGroup() = true for unique record")
	}
	group := NameQueryRecord{Flags: protocol.FlagGroup}
	if !group.IsGroup() {
		t.Error("IsGroup() = false for group record")
	}
}

func TestNodeStatusRecord_IsGroup(t *testing.T) {
	unique := NodeStatusRecord{Flags: 0x04}
	if unique.IsGroup() {
		t.Error("IsGroup() = true for unique entry")
	}
	group := NodeStatusRecord{Flags: 0x84}
	if !group.IsGroup() {
		t.Error("IsGroup() = false for group entry (0x80 set)")
	}
}
