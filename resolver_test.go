package samba

import (
	"context"
	"net"
	"testing"
)

func TestResolve_IPLiteralShortCircuits(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := r.resolve(context.Background(), "192.168.1.1", uint16(NameTypeWorkstation), r.resolveOrder)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if len(got) != 1 || got[0].IP.String() != "192.168.1.1" {
		t.Errorf("resolve() = %+v, want [192.168.1.1]", got)
	}
}

func TestResolve_BracketedIPv6LiteralShortCircuits(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := r.resolve(context.Background(), "[2001:db8::1]", uint16(NameTypeWorkstation), r.resolveOrder)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if len(got) != 1 || got[0].IP.String() != "2001:db8::1" {
		t.Errorf("resolve() = %+v, want [2001:db8::1]", got)
	}
}

func TestResolve_UnspecifiedIPLiteralFails(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.resolve(context.Background(), "0.0.0.0", uint16(NameTypeWorkstation), r.resolveOrder); err == nil {
		t.Error("resolve() should reject the unspecified address as a literal")
	}
}

func TestResolve_CacheHitShortCircuits(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := []Endpoint{{IP: mustParseIP(t, "10.0.0.1")}}
	r.nameCache.Store("FILESERVER", uint16(NameTypeFileServer), want)

	got, err := r.resolve(context.Background(), "FILESERVER", uint16(NameTypeFileServer), []string{BackendNull})
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if len(got) != 1 || got[0].IP.String() != "10.0.0.1" {
		t.Errorf("resolve() = %+v, want the cached entry", got)
	}
}

func TestResolve_NullOrderFailsFast(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.resolve(context.Background(), "ANYNAME", uint16(NameTypeWorkstation), []string{BackendNull}); err == nil {
		t.Error("resolve() should fail immediately when order is [NULL]")
	}
}

func TestResolve_LongNameDropsNBTOnlyBackends(t *testing.T) {
	r, err := New(WithResolveOrder([]string{BackendLmhosts, BackendWins, BackendBcast}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	longName := "a-name-over-fifteen-characters"
	if _, err := r.resolve(context.Background(), longName, uint16(NameTypeWorkstation), r.resolveOrder); err == nil {
		t.Error("resolve() with only NBT-only backends configured should fail for a long name")
	}
}

func TestResolve_FifteenCharacterNameStaysNBTEligible(t *testing.T) {
	// Exactly 15 characters must NOT be filtered out of NBT-only backends
	// (len(name) > 15, not >= 15).
	name := "exactlyfifteenc"
	if len(name) != 15 {
		t.Fatalf("test fixture name is %d characters, want 15", len(name))
	}
	order := filterOrderForLength(name, []string{BackendLmhosts, BackendWins, BackendBcast})
	want := []string{BackendLmhosts, BackendWins, BackendBcast}
	if len(order) != len(want) {
		t.Errorf("a 15-character name should keep every NBT-only backend, got %v", order)
	}
}

func TestResolve_UnknownTagIsSkipped(t *testing.T) {
	r, err := New(WithResolveOrder([]string{"bogus", BackendHost}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// "bogus" is skipped with a warn log line; "host" still runs and resolves loopback.
	got, err := r.resolve(context.Background(), "localhost", uint16(NameTypeWorkstation), r.resolveOrder)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if len(got) == 0 {
		t.Error("resolve() should still succeed via the host backend after skipping an unknown tag")
	}
}

func TestRejectBroadcastAndZero(t *testing.T) {
	in := []Endpoint{
		{IP: mustParseIP(t, "255.255.255.255")},
		{IP: mustParseIP(t, "0.0.0.0")},
		{IP: mustParseIP(t, "10.0.0.5")},
	}
	got := rejectBroadcastAndZero(in)
	if len(got) != 1 || got[0].IP.String() != "10.0.0.5" {
		t.Errorf("rejectBroadcastAndZero() = %+v, want [10.0.0.5]", got)
	}
}

func mustParseIP(t *testing.T, s string) (ip net.IP) {
	t.Helper()
	ip = net.ParseIP(s)
	if ip == nil {
		t.Fatalf("net.ParseIP(%q) failed", s)
	}
	return ip
}

// filterOrderForLength mirrors step 5 of resolve() for the length-boundary
// test above, without needing a live backend dispatch.
func filterOrderForLength(name string, order []string) []string {
	if len(name) > 15 {
		return filterOrder(order, BackendLmhosts, BackendWins, BackendBcast)
	}
	return order
}
