package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind tags a chat event with its payload variant.
type EventKind int

const (
	// KindChat is a regular text message from one participant.
	KindChat EventKind = iota
	// KindSystem is a notification emitted by the session itself.
	KindSystem
	// KindFile announces a shared file by name.
	KindFile
	// KindCommand carries an instruction rather than conversation.
	KindCommand
)

// String returns the stable storage/wire name of the kind.
func (k EventKind) String() string {
	switch k {
	case KindSystem:
		return "SYSTEM"
	case KindFile:
		return "FILE"
	case KindCommand:
		return "COMMAND"
	default:
		return "CHAT"
	}
}

// ParseKind maps a stable kind name back to its value.
func ParseKind(s string) (EventKind, error) {
	switch s {
	case "CHAT":
		return KindChat, nil
	case "SYSTEM":
		return KindSystem, nil
	case "FILE":
		return KindFile, nil
	case "COMMAND":
		return KindCommand, nil
	}
	return KindChat, fmt.Errorf("unknown event kind %q", s)
}

// ChatEvent is one immutable unit of communication. The timestamp is fixed
// at construction and never rewritten.
type ChatEvent struct {
	ID        string
	Sender    Participant
	Body      string
	Kind      EventKind
	CreatedAt time.Time
}

// NewChatEvent builds an event stamped with the current time.
func NewChatEvent(sender Participant, body string, kind EventKind) ChatEvent {
	return ChatEvent{
		ID:        uuid.NewString(),
		Sender:    sender,
		Body:      body,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}

// SystemEvent builds a system notification.
func SystemEvent(body string) ChatEvent {
	return NewChatEvent(System(), body, KindSystem)
}

// DisplayLine renders the event for a plain console view.
func (e ChatEvent) DisplayLine() string {
	ts := e.CreatedAt.Format("15:04:05")
	switch e.Kind {
	case KindSystem:
		return fmt.Sprintf("[%s] SYSTEM: %s", ts, e.Body)
	case KindFile:
		return fmt.Sprintf("[%s] %s shared a file: %s", ts, e.Sender.Name, e.Body)
	case KindCommand:
		return fmt.Sprintf("[%s] COMMAND: %s", ts, e.Body)
	default:
		return fmt.Sprintf("[%s] %s: %s", ts, e.Sender.Name, e.Body)
	}
}
