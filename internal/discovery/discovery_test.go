package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// freeUDPPort grabs an ephemeral UDP port and releases it for reuse.
func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		t.Fatalf("probe udp port: %v", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	_ = conn.Close()
	return port
}

func TestAdvertiserRoundTrip(t *testing.T) {
	port := freeUDPPort(t)
	adv := NewAdvertiser(DefaultGroup, port, 8888, nopLogger())
	if err := adv.Start(); err != nil {
		t.Fatalf("start advertiser: %v", err)
	}
	defer adv.Stop()

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	found, err := discoverVia(dst, 2*time.Second, nopLogger())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	for _, ep := range found {
		if ep.Port == 8888 {
			return
		}
	}
	t.Fatalf("advertised chat port not in result set: %v", found)
}

func TestDiscoverNothingReturnsEmptySet(t *testing.T) {
	// Nobody is listening on this port.
	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: freeUDPPort(t)}

	start := time.Now()
	found, err := discoverVia(dst, 500*time.Millisecond, nopLogger())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("finding nothing must not be an error: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected empty set, got %v", found)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("discovery blocked past its deadline: %v", elapsed)
	}
}

func TestAdvertiserIgnoresForeignPayloads(t *testing.T) {
	port := freeUDPPort(t)
	adv := NewAdvertiser(DefaultGroup, port, 8888, nopLogger())
	if err := adv.Start(); err != nil {
		t.Fatalf("start advertiser: %v", err)
	}
	defer adv.Stop()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		t.Fatalf("open socket: %v", err)
	}
	defer conn.Close()

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	if _, err := conn.WriteToUDP([]byte("GARBAGE"), dst); err != nil {
		t.Fatalf("send: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	buf := make([]byte, maxDatagram)
	if n, _, err := conn.ReadFromUDP(buf); err == nil {
		t.Fatalf("unexpected reply to garbage: %q", buf[:n])
	}
}

func TestParseReply(t *testing.T) {
	from := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 7), Port: 40000}

	tests := []struct {
		name    string
		payload string
		want    Endpoint
		ok      bool
	}{
		{"valid", "LANCHAT_HOST:8888", Endpoint{Addr: "192.168.1.7", Port: 8888}, true},
		{"wrong token", "OTHER_APP:8888", Endpoint{}, false},
		{"missing port", "LANCHAT_HOST", Endpoint{}, false},
		{"bad port", "LANCHAT_HOST:banana", Endpoint{}, false},
		{"port out of range", "LANCHAT_HOST:70000", Endpoint{}, false},
		{"empty", "", Endpoint{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseReply(tt.payload, from)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("parseReply(%q) = %v, %v", tt.payload, got, ok)
			}
		})
	}
}

func TestEndpointDeduplication(t *testing.T) {
	port := freeUDPPort(t)
	adv := NewAdvertiser(DefaultGroup, port, 9000, nopLogger())
	if err := adv.Start(); err != nil {
		t.Fatalf("start advertiser: %v", err)
	}
	defer adv.Stop()

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}

	// Two runs against the same advertiser give the same single endpoint.
	for run := 0; run < 2; run++ {
		found, err := discoverVia(dst, time.Second, nopLogger())
		if err != nil {
			t.Fatalf("discover run %d: %v", run, err)
		}
		matches := 0
		for _, ep := range found {
			if ep.Port == 9000 {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("run %d: expected one deduplicated endpoint, got %v", run, found)
		}
	}
}
