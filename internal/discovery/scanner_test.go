package discovery

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryToLight(t *testing.T) {
	l, ok := entryToLight(&mdns.ServiceEntry{
		Name:   `Elgato\ Key\ Light\ 2C2A._elg._tcp.local.`,
		AddrV4: net.IPv4(192, 168, 0, 16),
		Port:   9123,
	})
	require.True(t, ok)
	assert.Equal(t, Light{
		Name:    "Elgato Key Light 2C2A",
		Address: netip.MustParseAddr("192.168.0.16"),
		Port:    9123,
		Source:  "mdns",
	}, l)

	_, ok = entryToLight(&mdns.ServiceEntry{Name: "v6 only"})
	assert.False(t, ok)
}

func TestScan_MDNS(t *testing.T) {
	s := NewScanner(nil, 9123)
	s.query = func(p *mdns.QueryParam) error {
		assert.Equal(t, "_elg._tcp", p.Service)
		assert.Equal(t, 50*time.Millisecond, p.Timeout)
		p.Entries <- &mdns.ServiceEntry{Name: "B._elg._tcp.local.", AddrV4: net.IPv4(10, 0, 0, 9), Port: 9123}
		p.Entries <- &mdns.ServiceEntry{Name: "A._elg._tcp.local.", AddrV4: net.IPv4(10, 0, 0, 3), Port: 9123}
		p.Entries <- &mdns.ServiceEntry{Name: "A._elg._tcp.local.", AddrV4: net.IPv4(10, 0, 0, 3), Port: 9123}
		return nil
	}

	found, err := s.Scan(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "A", found[0].Name)
	assert.Equal(t, netip.MustParseAddr("10.0.0.3"), found[0].Address)
	assert.Equal(t, "B", found[1].Name)
}

func TestProbeHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/elgato/accessory-info" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"productName":     "Elgato Key Light Air",
			"firmwareVersion": "1.0.3",
			"displayName":     "",
		})
	}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	s := NewScanner(nil, uint16(port))
	l, ok := s.probeHost(context.Background(), netip.MustParseAddr(host))
	require.True(t, ok)
	assert.Equal(t, "Elgato Key Light Air", l.Name)
	assert.Equal(t, "probe", l.Source)
	assert.Equal(t, uint16(port), l.Port)
}

func TestProbeHost_NotALight(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	s := NewScanner(nil, uint16(port))
	_, ok := s.probeHost(context.Background(), netip.MustParseAddr(host))
	assert.False(t, ok)
}

func TestExpandSubnet(t *testing.T) {
	ips := expandSubnet("192.168.1")
	require.Len(t, ips, 254)
	assert.Equal(t, netip.MustParseAddr("192.168.1.1"), ips[0])
	assert.Equal(t, netip.MustParseAddr("192.168.1.254"), ips[253])

	assert.Nil(t, expandSubnet("not.a"))
}
