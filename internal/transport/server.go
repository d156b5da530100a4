package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/lanmesh/lanchat/internal/core"
	"github.com/lanmesh/lanchat/internal/proto"
	"github.com/lanmesh/lanchat/internal/utils"
)

// Server accepts chat connections, performs the identity handshake and runs
// one handler goroutine per connection. The number of simultaneous
// connections is capped: the accept loop takes a semaphore token before
// accepting and the token is held for the connection's lifetime.
type Server struct {
	session Session
	log     *zerolog.Logger

	ln      net.Listener
	sem     chan struct{}
	mu      sync.Mutex
	peers   map[string]*peer
	pending map[net.Conn]struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// NewServer builds a server for the given session. maxConns bounds the
// number of simultaneously open connections.
func NewServer(session Session, maxConns int, logger *zerolog.Logger) *Server {
	if maxConns <= 0 {
		maxConns = 64
	}
	return &Server{
		session: session,
		log:     logger,
		sem:     make(chan struct{}, maxConns),
		peers:   make(map[string]*peer),
		pending: make(map[net.Conn]struct{}),
	}
}

// Start binds the listening endpoint and launches the accept loop. An
// address already bound by another process is reported distinctly so the
// caller can suggest joining instead of hosting.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return &core.SessionError{
				Code:    core.ErrCodeAddrInUse,
				Message: fmt.Sprintf("address %s is already in use", addr),
			}
		}
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("chat server listening")
	return nil
}

// Addr returns the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		s.sem <- struct{}{}

		conn, err := s.ln.Accept()
		if err != nil {
			<-s.sem
			if s.stopped.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			s.handle(conn)
		}()
	}
}

// handle runs the identity exchange and then the connection's receive loop.
// It returns when the connection is closed.
func (s *Server) handle(conn net.Conn) {
	connID := utils.NewID()

	// Register the raw connection so Close can cut off a handshake that
	// never completes.
	s.mu.Lock()
	s.pending[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, conn)
		s.mu.Unlock()
	}()

	var identity proto.Identity
	if err := proto.ReadFrame(conn, &identity); err != nil {
		s.log.Warn().Err(err).
			Str("conn_id", connID).
			Str("remote", conn.RemoteAddr().String()).
			Msg("identity handshake failed")
		_ = conn.Close()
		return
	}

	// Never trust the self-reported address for routing; the observed
	// source address wins.
	participant := identity.Participant()
	if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		participant.Addr = host
	}
	participant.Online = true

	p := newPeer(connID, participant, conn, s.log)
	if err := p.sendIdentity(s.session.Self()); err != nil {
		s.log.Warn().Err(err).Str("conn_id", connID).Msg("identity reply failed")
		p.close()
		return
	}

	s.session.AddParticipant(participant)
	s.track(p)
	defer s.untrack(p)

	s.log.Info().
		Str("conn_id", connID).
		Str("peer", participant.Key()).
		Msg("participant connected")

	if err := p.send(core.SystemEvent("Welcome to the chat, " + participant.Name + "!")); err != nil {
		s.log.Warn().Err(err).Str("conn_id", connID).Msg("welcome message failed")
	}

	p.readLoop(func(wire proto.Event) {
		ev := wire.ChatEvent()
		recipient, direct := wire.Recipient()
		if !direct {
			s.session.ReceiveRemote(ev)
			// Relay to every other connected participant. The event was
			// already appended on receipt; relaying must not append it again.
			s.forward(ev, p)
			return
		}
		// A direct event goes to the addressed connection only. It enters
		// this session's history only when addressed here.
		if recipient.Same(s.session.Self()) {
			s.session.ReceiveRemote(ev)
			return
		}
		if err := s.SendTo(recipient, ev); err != nil {
			s.log.Warn().Err(err).
				Str("recipient", recipient.Key()).
				Msg("direct routing failed")
		}
	})

	// Only the connection still bound to the identity removes the
	// participant; a peer displaced by a newer connection for the same
	// identity must leave its successor's membership intact.
	if s.owns(p) {
		p.participant.Online = false
		s.session.RemoveParticipant(p.participant)
	}
}

// owns reports whether p is still the tracked connection for its identity.
func (s *Server) owns(p *peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peers[p.participant.Key()] == p
}

func (s *Server) track(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.peers[p.participant.Key()]; ok {
		old.close()
	}
	s.peers[p.participant.Key()] = p
}

func (s *Server) untrack(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peers[p.participant.Key()] == p {
		delete(s.peers, p.participant.Key())
	}
}

func (s *Server) snapshot() []*peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Values(s.peers)
}

// SendTo delivers one event to a single connected participant.
func (s *Server) SendTo(recipient core.Participant, ev core.ChatEvent) error {
	s.mu.Lock()
	p, ok := s.peers[recipient.Key()]
	s.mu.Unlock()
	if !ok {
		return core.ErrUnknownRecipient
	}
	return p.send(ev)
}

// Broadcast delivers one event to every connected participant, sequentially.
// One failing connection never aborts delivery to the rest.
func (s *Server) Broadcast(ev core.ChatEvent) error {
	s.forward(ev, nil)
	return nil
}

// forward writes the event to all tracked peers except the one it arrived
// on. Per-peer failures are logged and skipped.
func (s *Server) forward(ev core.ChatEvent, from *peer) {
	for _, p := range s.snapshot() {
		if p == from {
			continue
		}
		if err := p.send(ev); err != nil {
			s.log.Warn().Err(err).
				Str("peer", p.participant.Key()).
				Msg("delivery failed")
		}
	}
}

// Close stops the accept loop and closes every tracked connection, which
// drives each handler's failure path and the participant removals.
func (s *Server) Close() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.mu.Lock()
	for conn := range s.pending {
		_ = conn.Close()
	}
	s.mu.Unlock()
	for _, p := range s.snapshot() {
		p.close()
	}
	s.wg.Wait()
	s.log.Info().Msg("chat server stopped")
	return nil
}
