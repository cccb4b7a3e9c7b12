package samba

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pbrezina/samba/internal/wire"
)

func TestFilterWINSServers_DropsDeadAndSelf(t *testing.T) {
	r, err := New(WithRunningAsNmbd(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	source := net.ParseIP("10.0.0.9").To4()
	self := net.ParseIP("10.0.0.9").To4() // the nbt client's own address, excluded when running as nmbd
	alive := net.ParseIP("10.0.0.1").To4()
	dead := net.ParseIP("10.0.0.2").To4()

	r.liveness.MarkDead(dead, source)

	got := r.filterWINSServers([]net.IP{self, alive, dead}, source)
	if len(got) != 1 || !got[0].Equal(alive) {
		t.Errorf("filterWINSServers() = %v, want [%v]", got, alive)
	}
}

func TestResolveWINS_NoServersConfiguredFails(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.resolveWINS(context.Background(), NBTName{Label: "FILESERVER", Type: 0x20}); err == nil {
		t.Error("resolveWINS() should fail when no WINS servers are configured")
	}
}

func TestResolveWINS_FirstTagToSucceedWins(t *testing.T) {
	name := wire.NBTName{Label: "FILESERVER", Type: 0x20}

	deadServer, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	defer deadServer.Close()

	liveServer := fakeServer(t, func(req []byte, trnID uint16) []byte {
		return buildNameQueryResponse(t, trnID, name, 0, [][4]byte{{172, 16, 0, 1}}, nil)
	})
	defer liveServer.Close()

	r, err := New(WithWINSServers(map[string][]net.IP{
		"site-a": {deadServer.LocalAddr().(*net.UDPAddr).IP},
		"site-b": {liveServer.LocalAddr().(*net.UDPAddr).IP},
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := r.resolveWINS(ctx, NBTName{Label: "FILESERVER", Type: 0x20})
	if err != nil {
		t.Fatalf("resolveWINS() error = %v", err)
	}
	if len(got) != 1 || got[0].IP.String() != "172.16.0.1" {
		t.Errorf("resolveWINS() = %+v, want [172.16.0.1]", got)
	}
}
