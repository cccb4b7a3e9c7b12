package samba

import (
	"context"
	"testing"
)

func TestResolveHosts_RejectsNonHostTypes(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.resolveHosts(context.Background(), "localhost", uint16(NameTypePDC)); err == nil {
		t.Error("resolveHosts() should reject a name type that isn't workstation or file-server")
	}
}

func TestResolveHosts_LoopbackSucceeds(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := r.resolveHosts(context.Background(), "localhost", uint16(NameTypeWorkstation))
	if err != nil {
		t.Fatalf("resolveHosts() error = %v", err)
	}
	if len(got) == 0 {
		t.Error("resolveHosts(\"localhost\") should return at least one address")
	}
}

func TestResolveHosts_UnknownNameFails(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.resolveHosts(context.Background(), "this-host-should-not-exist.invalid", uint16(NameTypeFileServer)); err == nil {
		t.Error("resolveHosts() should fail for a name the system resolver can't find")
	}
}
