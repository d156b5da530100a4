package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lanmesh/lanchat/internal/core"
	"github.com/lanmesh/lanchat/internal/proto"
)

// Connection states. Closed is terminal and reachable from any state.
const (
	stateConnecting int32 = iota
	stateIdentityExchange
	stateOpen
	stateClosing
	stateClosed
)

// peer binds one remote participant to one live connection. It owns the
// exclusive read loop for the connection and serializes all writes through
// its write mutex so concurrent senders never interleave partial frames.
type peer struct {
	id          string
	participant core.Participant
	conn        net.Conn

	wmu   sync.Mutex
	state atomic.Int32

	log *zerolog.Logger
}

func newPeer(id string, participant core.Participant, conn net.Conn, logger *zerolog.Logger) *peer {
	p := &peer{
		id:          id,
		participant: participant,
		conn:        conn,
		log:         logger,
	}
	p.state.Store(stateOpen)
	return p
}

// sendIdentity writes the local identity frame. Each side's first outbound
// frame is its identity; everything after is events.
func (p *peer) sendIdentity(self core.Participant) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return proto.WriteFrame(p.conn, proto.IdentityFrom(self))
}

// send writes one event frame. Safe for concurrent use.
func (p *peer) send(ev core.ChatEvent) error {
	return p.sendFrame(proto.EventFrom(ev))
}

// sendFrame writes an already built wire event, for callers that set wire
// fields the domain event does not carry.
func (p *peer) sendFrame(wire proto.Event) error {
	if p.state.Load() != stateOpen {
		return net.ErrClosed
	}
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return proto.WriteFrame(p.conn, wire)
}

// readLoop blocks reading one event frame at a time, handing each to
// onFrame. Any read failure ends the loop and closes the socket; the owner
// decides what the departure means for the session, since a peer replaced
// by a newer connection for the same identity must not evict it.
func (p *peer) readLoop(onFrame func(proto.Event)) {
	for {
		var wire proto.Event
		if err := proto.ReadFrame(p.conn, &wire); err != nil {
			if p.state.Load() == stateOpen {
				p.log.Debug().Err(err).
					Str("conn_id", p.id).
					Str("peer", p.participant.Key()).
					Msg("receive loop ended")
			}
			break
		}
		onFrame(wire)
	}

	p.close()
}

// close moves the peer to Closed and closes the socket. Idempotent; also
// the way a goroutine blocked in a read is unblocked.
func (p *peer) close() {
	if !p.state.CompareAndSwap(stateOpen, stateClosing) {
		return
	}
	if err := p.conn.Close(); err != nil {
		p.log.Debug().Err(err).Str("conn_id", p.id).Msg("close connection")
	}
	p.state.Store(stateClosed)
}
