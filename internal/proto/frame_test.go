package proto

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lanmesh/lanchat/internal/core"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	sent := Identity{Name: "alice", Addr: "10.0.0.5", Avatar: "cat.png"}
	if err := WriteFrame(&buf, sent); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got Identity
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != sent {
		t.Fatalf("round trip changed %+v into %+v", sent, got)
	}
}

func TestFrameStreamPreservesBoundaries(t *testing.T) {
	var buf bytes.Buffer
	for _, body := range []string{"one", "two", "three"} {
		ev := EventFrom(core.NewChatEvent(core.NewParticipant("alice", "10.0.0.5"), body, core.KindChat))
		if err := WriteFrame(&buf, ev); err != nil {
			t.Fatalf("write %q: %v", body, err)
		}
	}

	for _, want := range []string{"one", "two", "three"} {
		var ev Event
		if err := ReadFrame(&buf, &ev); err != nil {
			t.Fatalf("read %q: %v", want, err)
		}
		if ev.Body != want {
			t.Fatalf("expected %q, got %q", want, ev.Body)
		}
	}

	var extra Event
	if err := ReadFrame(&buf, &extra); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF at stream end, got %v", err)
	}
}

func TestFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	huge := Event{Body: strings.Repeat("x", MaxFrameSize+1)}
	if err := WriteFrame(&buf, huge); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge on write, got %v", err)
	}

	// A forged prefix above the limit must be rejected before allocation.
	buf.Reset()
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	var ev Event
	if err := ReadFrame(&buf, &ev); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge on read, got %v", err)
	}
}

func TestEventConversion(t *testing.T) {
	sender := core.NewParticipant("alice", "10.0.0.5")
	ev := core.NewChatEvent(sender, "hello", core.KindFile)

	back := EventFrom(ev).ChatEvent()
	if back.ID != ev.ID || back.Body != "hello" || back.Kind != core.KindFile {
		t.Fatalf("conversion lost fields: %+v", back)
	}
	if !back.Sender.Same(sender) {
		t.Fatalf("sender identity changed: %+v", back.Sender)
	}
	if back.CreatedAt.UnixMilli() != ev.CreatedAt.UnixMilli() {
		t.Fatalf("timestamp drifted: %v vs %v", back.CreatedAt, ev.CreatedAt)
	}
}

func TestRecipientSurvivesTheWire(t *testing.T) {
	ev := EventFrom(core.NewChatEvent(core.NewParticipant("alice", "10.0.0.5"), "psst", core.KindChat))
	if _, direct := ev.Recipient(); direct {
		t.Fatal("event without To must not be direct")
	}

	to := SenderFrom(core.NewParticipant("bob", "10.0.0.6"))
	ev.To = &to

	var buf bytes.Buffer
	if err := WriteFrame(&buf, ev); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got Event
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatalf("read: %v", err)
	}

	recipient, direct := got.Recipient()
	if !direct {
		t.Fatal("recipient lost in transit")
	}
	if !recipient.Same(core.NewParticipant("bob", "10.0.0.6")) {
		t.Fatalf("unexpected recipient: %+v", recipient)
	}
}

func TestUnknownKindFallsBackToChat(t *testing.T) {
	ev := Event{
		Sender: Sender{Name: "alice", Addr: "10.0.0.5"},
		Body:   "hello",
		Kind:   "GLITTER",
		TS:     time.Now().UnixMilli(),
	}
	if got := ev.ChatEvent(); got.Kind != core.KindChat {
		t.Fatalf("expected chat fallback, got %v", got.Kind)
	}
}
