package samba

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/pbrezina/samba/internal/protocol"
	"github.com/pbrezina/samba/internal/wire"
)

// buildNameQueryResponse assembles a synthetic NBT name-query response for
// name carrying records, mirroring what a remote host sends back for a
// request built by wire.BuildNameQuery.
func buildNameQueryResponse(t *testing.T, trnID uint16, name wire.NBTName, rcode uint16, records [][4]byte, group []bool) []byte {
	t.Helper()

	encodedName, err := wire.EncodeName(name)
	if err != nil {
		t.Fatalf("EncodeName() error = %v", err)
	}

	header := make([]byte, 12)
	binary.BigEndian.PutUint16(header[0:2], trnID)
	binary.BigEndian.PutUint16(header[2:4], protocol.FlagResponse|(rcode&0x0F))
	binary.BigEndian.PutUint16(header[6:8], 1) // ancount

	rest := make([]byte, 0, 8+len(records)*protocol.NameQueryRecordLength)
	typeClassTTL := make([]byte, 8)
	binary.BigEndian.PutUint16(typeClassTTL[0:2], protocol.QTypeNetBIOS)
	binary.BigEndian.PutUint16(typeClassTTL[2:4], protocol.QClassInternet)
	rest = append(rest, typeClassTTL...)

	rdlength := make([]byte, 2)
	binary.BigEndian.PutUint16(rdlength, uint16(len(records)*protocol.NameQueryRecordLength))
	rest = append(rest, rdlength...)

	for i, addr := range records {
		rec := make([]byte, protocol.NameQueryRecordLength)
		var flags uint16
		if i < len(group) && group[i] {
			flags |= protocol.FlagGroup
		}
		binary.BigEndian.PutUint16(rec[0:2], flags)
		copy(rec[2:6], addr[:])
		rest = append(rest, rec...)
	}

	msg := make([]byte, 0, 12+len(encodedName)+len(rest))
	msg = append(msg, header...)
	msg = append(msg, encodedName...)
	msg = append(msg, rest...)
	return msg
}

func buildNodeStatusResponse(t *testing.T, trnID uint16, entries []NodeStatusEntry) []byte {
	t.Helper()

	name := wire.NBTName{Label: "*", Type: 0}
	encodedName, err := wire.EncodeName(name)
	if err != nil {
		t.Fatalf("EncodeName() error = %v", err)
	}

	header := make([]byte, 12)
	binary.BigEndian.PutUint16(header[0:2], trnID)
	binary.BigEndian.PutUint16(header[2:4], protocol.FlagResponse)
	binary.BigEndian.PutUint16(header[6:8], 1)

	typeClassTTL := make([]byte, 8)
	binary.BigEndian.PutUint16(typeClassTTL[0:2], protocol.QTypeNBStat)
	binary.BigEndian.PutUint16(typeClassTTL[2:4], protocol.QClassInternet)

	rdata := make([]byte, 0, 1+len(entries)*protocol.NodeStatusEntryLength+protocol.MACAddressLength)
	rdata = append(rdata, byte(len(entries)))
	for _, e := range entries {
		entry := make([]byte, protocol.NodeStatusEntryLength)
		nameField := make([]byte, protocol.NodeStatusNameLength)
		copy(nameField, []byte(e.Name))
		for i := len(e.Name); i < 15; i++ {
			nameField[i] = ' '
		}
		nameField[15] = e.Type
		copy(entry[0:16], nameField)
		binary.BigEndian.PutUint16(entry[16:18], uint16(e.Flags))
		rdata = append(rdata, entry...)
	}
	rdata = append(rdata, make([]byte, protocol.MACAddressLength)...)

	rdlength := make([]byte, 2)
	binary.BigEndian.PutUint16(rdlength, uint16(len(rdata)))

	msg := make([]byte, 0, 12+len(encodedName)+8+2+len(rdata))
	msg = append(msg, header...)
	msg = append(msg, encodedName...)
	msg = append(msg, typeClassTTL...)
	msg = append(msg, rdlength...)
	msg = append(msg, rdata...)
	return msg
}

// fakeServer is a loopback UDP socket that reads one request, hands it to
// respond, and sends back whatever bytes it returns.
func fakeServer(t *testing.T, respond func(req []byte, trnID uint16) []byte) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	go func() {
		buf := make([]byte, protocol.MaxPacketSize)
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		trnID := binary.BigEndian.Uint16(buf[0:2])
		resp := respond(buf[:n], trnID)
		if resp != nil {
			_, _ = conn.WriteToUDP(resp, from)
		}
	}()
	return conn
}

func TestNodeStatusQuery_PositiveResponse(t *testing.T) {
	want := []NodeStatusEntry{
		{Name: "WORKSTATION", Type: 0x20, Flags: 0x04},
		{Name: "DOMAIN", Type: 0x1D, Flags: 0x84},
	}
	server := fakeServer(t, func(req []byte, trnID uint16) []byte {
		return buildNodeStatusResponse(t, trnID, want)
	})
	defer server.Close()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverAddr := server.LocalAddr().(*net.UDPAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := r.NodeStatusQuery(ctx, NBTName{Label: "*", Type: 0}, serverAddr.IP)
	if err != nil {
		t.Fatalf("NodeStatusQuery() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Name != want[i].Name || e.Type != want[i].Type {
			t.Errorf("entries[%d] = %+v, want %+v", i, e, want[i])
		}
	}
	if !got[1].IsGroup() {
		t.Error("second entry should report IsGroup() true")
	}
}

func TestNodeStatusQuery_RejectsIPv6Address(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = r.NodeStatusQuery(context.Background(), NBTName{Label: "*", Type: 0}, net.ParseIP("::1"))
	if err == nil {
		t.Error("NodeStatusQuery() to an IPv6 address should fail")
	}
}

func TestNodeStatusQuery_DisabledNetBIOS(t *testing.T) {
	r, err := New(WithDisableNetBIOS(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = r.NodeStatusQuery(context.Background(), NBTName{Label: "*", Type: 0}, net.ParseIP("127.0.0.1"))
	if err == nil {
		t.Error("NodeStatusQuery() should fail when NetBIOS is disabled")
	}
}

func TestNameQuery_UnicastPositiveResponse(t *testing.T) {
	name := wire.NBTName{Label: "FILESERVER", Type: 0x20}
	server := fakeServer(t, func(req []byte, trnID uint16) []byte {
		return buildNameQueryResponse(t, trnID, name, 0, [][4]byte{{192, 168, 1, 10}}, nil)
	})
	defer server.Close()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverAddr := server.LocalAddr().(*net.UDPAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := r.nameQuery(ctx, NBTName{Label: "FILESERVER", Type: 0x20}, &net.UDPAddr{IP: serverAddr.IP}, false, true)
	if err != nil {
		t.Fatalf("nameQuery() error = %v", err)
	}
	if len(got) != 1 || got[0].IP.String() != "192.168.1.10" {
		t.Errorf("nameQuery() = %+v, want [192.168.1.10]", got)
	}
}

func TestNameQuery_UnicastNegativeResponse(t *testing.T) {
	name := wire.NBTName{Label: "NOSUCHNAME", Type: 0x20}
	server := fakeServer(t, func(req []byte, trnID uint16) []byte {
		return buildNameQueryResponse(t, trnID, name, 3, nil, nil)
	})
	defer server.Close()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverAddr := server.LocalAddr().(*net.UDPAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = r.nameQuery(ctx, NBTName{Label: "NOSUCHNAME", Type: 0x20}, &net.UDPAddr{IP: serverAddr.IP}, false, true)
	if err == nil {
		t.Error("nameQuery() should fail on a negative (rcode != 0) response")
	}
}

func TestNameQuery_RejectsIPv6Destination(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = r.nameQuery(context.Background(), NBTName{Label: "X", Type: 0x20}, &net.UDPAddr{IP: net.ParseIP("::1")}, false, true)
	if err == nil {
		t.Error("nameQuery() to an IPv6 destination should fail")
	}
}

func TestNameQuery_BroadcastCollectsMultipleResponsesThenTimesOut(t *testing.T) {
	// A wildcard query never early-exits on a unique-name answer, so every
	// responder within the burst window should be collected.
	name := wire.NBTName{Label: "*", Type: 0x00}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	defer conn.Close()

	go func() {
		buf := make([]byte, protocol.MaxPacketSize)
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		trnID := binary.BigEndian.Uint16(buf[0:2])
		resp1 := buildNameQueryResponse(t, trnID, name, 0, [][4]byte{{10, 0, 0, 1}}, []bool{true})
		_, _ = conn.WriteToUDP(resp1, from)
		time.Sleep(20 * time.Millisecond)
		resp2 := buildNameQueryResponse(t, trnID, name, 0, [][4]byte{{10, 0, 0, 2}}, []bool{true})
		_, _ = conn.WriteToUDP(resp2, from)
		_ = n
	}()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverAddr := conn.LocalAddr().(*net.UDPAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	got, err := r.nameQuery(ctx, NBTName{Label: "*", Type: 0x00}, &net.UDPAddr{IP: serverAddr.IP}, true, true)
	if err != nil {
		t.Fatalf("nameQuery() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("nameQuery() collected %d endpoints, want 2", len(got))
	}
}

func TestNameStatusFind_CachesMatch(t *testing.T) {
	want := []NodeStatusEntry{{Name: "FILESERVER", Type: 0x20, Flags: 0}}
	server := fakeServer(t, func(req []byte, trnID uint16) []byte {
		return buildNodeStatusResponse(t, trnID, want)
	})
	defer server.Close()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverAddr := server.LocalAddr().(*net.UDPAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := r.NameStatusFind(ctx, "*", 0, 0x20, serverAddr.IP)
	if err != nil {
		t.Fatalf("NameStatusFind() error = %v", err)
	}
	if got != "FILESERVER" {
		t.Errorf("NameStatusFind() = %q, want %q", got, "FILESERVER")
	}

	// Second call must be served from cache; no server is listening any
	// more, so a network round-trip here would time out.
	got2, err := r.NameStatusFind(context.Background(), "*", 0, 0x20, serverAddr.IP)
	if err != nil {
		t.Fatalf("NameStatusFind() (cached) error = %v", err)
	}
	if got2 != "FILESERVER" {
		t.Errorf("NameStatusFind() (cached) = %q, want %q", got2, "FILESERVER")
	}
}
