// Package discovery implements the best-effort UDP rendezvous protocol used
// to find a chat host on the local subnet. A discoverer multicasts a fixed
// request token; every advertising host replies by unicast with its token
// and chat port. The discovery port is distinct from the chat port.
package discovery

import (
	"fmt"
	"net"
)

const (
	// DefaultGroup is the multicast group requests are sent to.
	DefaultGroup = "224.0.0.1"
	// DefaultPort is the discovery port, separate from the chat port.
	DefaultPort = 8889

	// requestToken is the literal payload a discoverer sends.
	requestToken = "LANCHAT_DISCOVER"
	// advertiseToken prefixes every advertiser reply.
	advertiseToken = "LANCHAT_HOST"

	// maxDatagram bounds a discovery datagram on both sides.
	maxDatagram = 1024
)

// Endpoint identifies one discovered host.
type Endpoint struct {
	Addr string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Addr, fmt.Sprintf("%d", e.Port))
}
