package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lanmesh/lanchat/internal/core"
	"github.com/lanmesh/lanchat/internal/proto"
	"github.com/lanmesh/lanchat/internal/utils"
)

// Client holds exactly one outbound connection to a hosting process. It
// writes the local identity first, reads the host's identity in return and
// then runs the same receive-loop contract as a server-side handler.
type Client struct {
	session Session
	log     *zerolog.Logger

	mu   sync.Mutex
	peer *peer
	wg   sync.WaitGroup
}

// NewClient builds a disconnected client for the given session.
func NewClient(session Session, logger *zerolog.Logger) *Client {
	return &Client{session: session, log: logger}
}

// Connect dials the host, performs the identity exchange and starts the
// receive loop. Connecting while already connected is an error.
func (c *Client) Connect(addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer != nil {
		return errors.New("already connected")
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	if err := proto.WriteFrame(conn, proto.IdentityFrom(c.session.Self())); err != nil {
		_ = conn.Close()
		return fmt.Errorf("send identity: %w", err)
	}

	var identity proto.Identity
	if err := proto.ReadFrame(conn, &identity); err != nil {
		_ = conn.Close()
		return fmt.Errorf("read host identity: %w", err)
	}

	host := identity.Participant()
	if h, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		host.Addr = h
	}
	host.Online = true

	p := newPeer(utils.NewID(), host, conn, c.log)
	c.peer = p
	c.session.AddParticipant(host)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		p.readLoop(func(wire proto.Event) {
			c.session.ReceiveRemote(wire.ChatEvent())
		})
		p.participant.Online = false
		c.session.RemoveParticipant(p.participant)
		c.mu.Lock()
		if c.peer == p {
			c.peer = nil
		}
		c.mu.Unlock()
	}()

	c.log.Info().Str("host", host.Key()).Msg("connected to host")
	return nil
}

// Addr returns the remote address of the active connection, empty when
// disconnected.
func (c *Client) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer == nil {
		return ""
	}
	return c.peer.conn.RemoteAddr().String()
}

// SendTo writes the event to the single host connection with the recipient
// marked on the wire, so the host routes it to that participant's
// connection only.
func (c *Client) SendTo(recipient core.Participant, ev core.ChatEvent) error {
	c.mu.Lock()
	p := c.peer
	c.mu.Unlock()
	if p == nil {
		return core.ErrNotConnected
	}
	wire := proto.EventFrom(ev)
	to := proto.SenderFrom(recipient)
	wire.To = &to
	return p.sendFrame(wire)
}

// Broadcast writes the event to the host connection, which relays it to the
// other participants.
func (c *Client) Broadcast(ev core.ChatEvent) error {
	c.mu.Lock()
	p := c.peer
	c.mu.Unlock()
	if p == nil {
		return core.ErrNotConnected
	}
	return p.send(ev)
}

// Close tears down the connection, unblocking the receive loop, and waits
// for the host participant removal to finish.
func (c *Client) Close() error {
	c.mu.Lock()
	p := c.peer
	c.mu.Unlock()
	if p != nil {
		p.close()
	}
	c.wg.Wait()
	return nil
}
