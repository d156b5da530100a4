package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lanmesh/lanchat/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.Nop()
	s, err := New(t.TempDir(), &logger)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return s
}

func event(name, body string, kind core.EventKind) core.ChatEvent {
	return core.ChatEvent{
		Sender:    core.NewParticipant(name, "192.168.1.5"),
		Body:      body,
		Kind:      kind,
		CreatedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	events := []core.ChatEvent{
		event("alice", "hello there", core.KindChat),
		event("System", "bob joined", core.KindSystem),
		event("bob", "notes.txt", core.KindFile),
	}
	if err := s.Save(events); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(loaded))
	}
	for i, want := range events {
		got := loaded[i]
		if got.Sender.Name != want.Sender.Name || got.Body != want.Body || got.Kind != want.Kind {
			t.Fatalf("event %d: expected %+v, got %+v", i, want, got)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("event %d: timestamp %v != %v", i, got.CreatedAt, want.CreatedAt)
		}
		// Addresses are not persisted; loads carry the placeholder.
		if got.Sender.Addr != core.SystemAddr {
			t.Fatalf("event %d: expected placeholder address, got %q", i, got.Sender.Addr)
		}
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	s := newTestStore(t)

	lines := "alice|2024-03-15 10:30:00|CHAT|before\n" +
		"broken|line\n" + // fewer than 4 fields
		"alice|not-a-timestamp|CHAT|bad time\n" +
		"alice|2024-03-15 10:30:05|NOISE|bad kind\n" +
		"bob|2024-03-15 10:31:00|CHAT|after\n"
	if err := os.WriteFile(s.Path(), []byte(lines), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 well-formed events, got %d", len(loaded))
	}
	if loaded[0].Body != "before" || loaded[1].Body != "after" {
		t.Fatalf("neighbors of malformed lines were lost: %+v", loaded)
	}
}

func TestBodyMayContainPipes(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(event("alice", "a|b|c", core.KindChat)); err != nil {
		t.Fatalf("append: %v", err)
	}
	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Body != "a|b|c" {
		t.Fatalf("pipes in body were mangled: %+v", loaded)
	}
}

func TestAppendAccumulates(t *testing.T) {
	s := newTestStore(t)

	for _, body := range []string{"one", "two", "three"} {
		if err := s.Append(event("alice", body, core.KindChat)); err != nil {
			t.Fatalf("append %q: %v", body, err)
		}
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 3 || loaded[0].Body != "one" || loaded[2].Body != "three" {
		t.Fatalf("unexpected events after appends: %+v", loaded)
	}
}

func TestClearEmptiesHistory(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(event("alice", "gone soon", core.KindChat)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty history, got %+v", loaded)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	logger := zerolog.Nop()
	s, err := New(filepath.Join(t.TempDir(), "fresh"), &logger)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no events, got %+v", loaded)
	}
}
