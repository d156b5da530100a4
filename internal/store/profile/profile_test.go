package profile

import (
	"errors"
	"sort"
	"testing"

	"github.com/lanmesh/lanchat/internal/core"
	"github.com/lanmesh/lanchat/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	p := core.Participant{
		Name:   "alice",
		Addr:   "192.168.1.10",
		Online: true,
		Avatar: "cat.png",
	}
	if err := s.Save(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load("alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != p {
		t.Fatalf("round trip changed %+v into %+v", p, got)
	}
}

func TestFilenameSanitization(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"alice", "alice.profile"},
		{"bad actor", "bad_actor.profile"},
		{"../../etc/passwd", "______etc_passwd.profile"},
		{"émile", "_mile.profile"},
	}
	for _, tt := range tests {
		if got := Filename(tt.name); got != tt.want {
			t.Fatalf("Filename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoadMissingProfile(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load("nobody"); !errors.Is(err, store.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestNamesListsSavedProfiles(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"alice", "bob"} {
		if err := s.Save(core.NewParticipant(name, "127.0.0.1")); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	names, err := s.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save(core.NewParticipant("alice", "127.0.0.1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete("alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete("alice"); !errors.Is(err, store.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound on second delete, got %v", err)
	}
}
