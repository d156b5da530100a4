package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Advertiser answers discovery requests on behalf of a hosting process.
// It joins the multicast group on the discovery port and unicast-replies
// with the advertise token and the chat port.
type Advertiser struct {
	group    string
	port     int
	chatPort int
	log      *zerolog.Logger

	conn    *net.UDPConn
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// NewAdvertiser builds an advertiser for a chat server on chatPort.
func NewAdvertiser(group string, port, chatPort int, logger *zerolog.Logger) *Advertiser {
	return &Advertiser{
		group:    group,
		port:     port,
		chatPort: chatPort,
		log:      logger,
	}
}

// Start binds the discovery port and launches the reply loop.
func (a *Advertiser) Start() error {
	gaddr := &net.UDPAddr{IP: net.ParseIP(a.group), Port: a.port}
	if gaddr.IP == nil {
		return fmt.Errorf("invalid multicast group %q", a.group)
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, gaddr)
	if err != nil {
		return fmt.Errorf("bind discovery port %d: %w", a.port, err)
	}
	a.conn = conn

	a.wg.Add(1)
	go a.serve()

	a.log.Info().
		Str("group", a.group).
		Int("port", a.port).
		Int("chat_port", a.chatPort).
		Msg("discovery advertiser started")
	return nil
}

// serve answers one datagram at a time until stopped. Payloads other than
// the literal request token are ignored; I/O errors while active are logged
// and the loop continues.
func (a *Advertiser) serve() {
	defer a.wg.Done()

	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			if a.stopped.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			a.log.Warn().Err(err).Msg("discovery read failed")
			continue
		}

		if string(buf[:n]) != requestToken {
			continue
		}

		reply := advertiseToken + ":" + strconv.Itoa(a.chatPort)
		if _, err := a.conn.WriteToUDP([]byte(reply), addr); err != nil {
			if a.stopped.Load() {
				return
			}
			a.log.Warn().Err(err).Str("remote", addr.String()).Msg("discovery reply failed")
			continue
		}
		a.log.Debug().Str("remote", addr.String()).Msg("answered discovery request")
	}
}

// Stop closes the socket, unblocking the reply loop, and waits for it.
func (a *Advertiser) Stop() {
	if !a.stopped.CompareAndSwap(false, true) {
		return
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
	a.wg.Wait()
	a.log.Info().Msg("discovery advertiser stopped")
}
