package proto

import (
	"time"

	"github.com/lanmesh/lanchat/internal/core"
)

// Identity is the first frame a connecting side sends to introduce itself.
// The receiving side never trusts Addr for routing; it is overwritten with
// the observed source address.
type Identity struct {
	Name   string `json:"name"`
	Addr   string `json:"addr,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Sender mirrors core.Participant on the wire.
type Sender struct {
	Name   string `json:"name"`
	Addr   string `json:"addr"`
	Avatar string `json:"avatar,omitempty"`
}

// Event is one chat event on the wire. A set To field makes the event a
// direct message: the host routes it to that participant's connection only
// instead of relaying it to everyone.
type Event struct {
	ID     string  `json:"id,omitempty"`
	Sender Sender  `json:"sender"`
	To     *Sender `json:"to,omitempty"`
	Body   string  `json:"body"`
	Kind   string  `json:"kind"`
	TS     int64   `json:"ts"`
}

// IdentityFrom builds the identity frame for a local participant.
func IdentityFrom(p core.Participant) Identity {
	return Identity{Name: p.Name, Addr: p.Addr, Avatar: p.Avatar}
}

// Participant converts a received identity into a domain participant.
func (id Identity) Participant() core.Participant {
	p := core.NewParticipant(id.Name, id.Addr)
	if id.Avatar != "" {
		p.Avatar = id.Avatar
	}
	return p
}

// SenderFrom mirrors a participant onto the wire.
func SenderFrom(p core.Participant) Sender {
	return Sender{Name: p.Name, Addr: p.Addr, Avatar: p.Avatar}
}

// EventFrom converts a domain event for transmission.
func EventFrom(ev core.ChatEvent) Event {
	return Event{
		ID:     ev.ID,
		Sender: SenderFrom(ev.Sender),
		Body:   ev.Body,
		Kind:   ev.Kind.String(),
		TS:     ev.CreatedAt.UnixMilli(),
	}
}

// Recipient returns the addressed participant of a direct event, or false
// for a broadcast event.
func (e Event) Recipient() (core.Participant, bool) {
	if e.To == nil {
		return core.Participant{}, false
	}
	p := core.NewParticipant(e.To.Name, e.To.Addr)
	if e.To.Avatar != "" {
		p.Avatar = e.To.Avatar
	}
	return p, true
}

// ChatEvent converts a received wire event into a domain event. An unknown
// kind falls back to a plain chat message.
func (e Event) ChatEvent() core.ChatEvent {
	kind, err := core.ParseKind(e.Kind)
	if err != nil {
		kind = core.KindChat
	}
	sender := core.NewParticipant(e.Sender.Name, e.Sender.Addr)
	sender.Online = true
	if e.Sender.Avatar != "" {
		sender.Avatar = e.Sender.Avatar
	}
	return core.ChatEvent{
		ID:        e.ID,
		Sender:    sender,
		Body:      e.Body,
		Kind:      kind,
		CreatedAt: time.UnixMilli(e.TS),
	}
}
