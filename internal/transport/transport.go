// Package transport implements the connection-oriented chat transport: a
// TCP server with one handler goroutine per accepted connection, and the
// single-connection client counterpart. Frames are encoded by the proto
// package; the first frame each side writes is its identity record.
package transport

import (
	"github.com/lanmesh/lanchat/internal/core"
)

// Session is the part of the session manager the transport drives.
type Session interface {
	AddParticipant(p core.Participant) bool
	RemoveParticipant(p core.Participant) bool
	ReceiveRemote(ev core.ChatEvent)
	Self() core.Participant
}

// Transport is the canonical delivery interface shared by server and client
// roles. It extends the session's Deliverer contract with lifecycle control.
type Transport interface {
	core.Deliverer
	Addr() string
	Close() error
}
