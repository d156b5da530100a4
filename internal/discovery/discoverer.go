package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Discover multicasts one discovery request to the group and collects
// replies until the timeout elapses. The returned set is deduplicated by
// (address, port); finding nothing is an empty set, not an error.
func Discover(group string, port int, timeout time.Duration, logger *zerolog.Logger) ([]Endpoint, error) {
	gaddr := &net.UDPAddr{IP: net.ParseIP(group), Port: port}
	if gaddr.IP == nil {
		return nil, fmt.Errorf("invalid multicast group %q", group)
	}
	return discoverVia(gaddr, timeout, logger)
}

// discoverVia sends the request to dst from an ephemeral port and collects
// unicast replies until the deadline. Malformed or foreign datagrams are
// dropped silently.
func discoverVia(dst *net.UDPAddr, timeout time.Duration, logger *zerolog.Logger) ([]Endpoint, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, fmt.Errorf("open discovery socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP([]byte(requestToken), dst); err != nil {
		return nil, fmt.Errorf("send discovery request: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set discovery deadline: %w", err)
	}

	found := make(map[string]Endpoint)
	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				break
			}
			logger.Warn().Err(err).Msg("discovery receive failed")
			if time.Now().After(deadline) {
				break
			}
			continue
		}

		ep, ok := parseReply(string(buf[:n]), addr)
		if !ok {
			continue
		}
		if _, seen := found[ep.String()]; !seen {
			found[ep.String()] = ep
			logger.Debug().Str("endpoint", ep.String()).Msg("discovered host")
		}
	}

	return lo.Values(found), nil
}

// parseReply validates an "<advertise-token>:<port>" payload.
func parseReply(payload string, from *net.UDPAddr) (Endpoint, bool) {
	token, portStr, ok := strings.Cut(payload, ":")
	if !ok || token != advertiseToken {
		return Endpoint{}, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, false
	}
	return Endpoint{Addr: from.IP.String(), Port: port}, true
}
