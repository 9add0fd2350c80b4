package discovery

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/mdlayher/keylight"
	"go.uber.org/zap"
)

const service = "_elg._tcp"

type Light struct {
	Name    string     `json:"name" yaml:"name"`
	Address netip.Addr `json:"address" yaml:"address"`
	Port    uint16     `json:"port" yaml:"port"`
	Source  string     `json:"source" yaml:"source"`
}

type Scanner struct {
	log   *zap.SugaredLogger
	port  uint16
	probe *http.Client
	query func(*mdns.QueryParam) error
}

func NewScanner(log *zap.SugaredLogger, port uint16) *Scanner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{
		log:   log,
		port:  port,
		probe: &http.Client{Timeout: 800 * time.Millisecond},
		query: mdns.Query,
	}
}

// Scan browses mDNS for timeout. If nothing answers it probes every host
// of the local /24 networks, also bounded by timeout.
func (s *Scanner) Scan(ctx context.Context, timeout time.Duration) ([]Light, error) {
	found, err := s.viaMDNS(ctx, timeout)
	if err != nil {
		s.log.Warnf("mDNS query failed: %v", err)
	}
	s.log.Debugf("mDNS found %d light(s)", len(found))

	if len(found) == 0 {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		found = s.viaProbe(probeCtx)
		cancel()
	}
	if ctx.Err() != nil {
		return found, ctx.Err()
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Address.Less(found[j].Address)
	})
	return found, nil
}

func (s *Scanner) viaMDNS(ctx context.Context, timeout time.Duration) ([]Light, error) {
	entries := make(chan *mdns.ServiceEntry, 10)
	errc := make(chan error, 1)

	go func() {
		params := &mdns.QueryParam{
			Service:             service,
			Domain:              "local",
			Timeout:             timeout,
			Entries:             entries,
			DisableIPv6:         true,
			WantUnicastResponse: true,
		}
		errc <- s.query(params)
		close(entries)
	}()

	seen := make(map[netip.Addr]bool)
	var found []Light
	for entry := range entries {
		if ctx.Err() != nil {
			continue
		}
		s.log.Debugf("mDNS entry: Name=%s AddrV4=%v Port=%d", entry.Name, entry.AddrV4, entry.Port)
		l, ok := entryToLight(entry)
		if !ok || seen[l.Address] {
			continue
		}
		seen[l.Address] = true
		found = append(found, l)
	}
	return found, <-errc
}

func entryToLight(entry *mdns.ServiceEntry) (Light, bool) {
	if entry == nil || entry.AddrV4 == nil {
		return Light{}, false
	}
	addr, ok := netip.AddrFromSlice(entry.AddrV4.To4())
	if !ok {
		return Light{}, false
	}

	name := strings.TrimSuffix(entry.Name, ".")
	name = strings.TrimSuffix(name, "."+service+".local")
	name = strings.ReplaceAll(name, `\ `, " ")

	port := uint16(entry.Port)
	if entry.Port <= 0 || entry.Port > 65535 {
		port = 0
	}
	return Light{Name: name, Address: addr, Port: port, Source: "mdns"}, true
}

func (s *Scanner) viaProbe(ctx context.Context) []Light {
	subnets := localSubnets()
	if len(subnets) == 0 {
		s.log.Debug("could not determine local subnets for probe scan")
		return nil
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		found []Light
	)
	sem := make(chan struct{}, 50)

	for _, subnet := range subnets {
		s.log.Debugf("probing %s.0/24 on port %d", subnet, s.port)
		for _, ip := range expandSubnet(subnet) {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(addr netip.Addr) {
				defer wg.Done()
				defer func() { <-sem }()

				if l, ok := s.probeHost(ctx, addr); ok {
					s.log.Debugf("found light at %s via probe", addr)
					mu.Lock()
					found = append(found, l)
					mu.Unlock()
				}
			}(ip)
		}
	}
	wg.Wait()
	return found
}

func (s *Scanner) probeHost(ctx context.Context, addr netip.Addr) (Light, bool) {
	url := "http://" + netip.AddrPortFrom(addr, s.port).String()
	client, err := keylight.NewClient(url, s.probe)
	if err != nil {
		return Light{}, false
	}
	d, err := client.AccessoryInfo(ctx)
	if err != nil {
		return Light{}, false
	}
	name := d.DisplayName
	if name == "" {
		name = d.ProductName
	}
	return Light{Name: name, Address: addr, Port: s.port, Source: "probe"}, true
}

// localSubnets returns the first three octets of every IPv4 network of at
// most /24 on an up, non-loopback interface.
func localSubnets() []string {
	var subnets []string
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil {
				continue
			}
			ones, bits := ipNet.Mask.Size()
			if ones == 0 || bits == 0 || ones > 24 {
				continue
			}
			subnets = append(subnets, fmt.Sprintf("%d.%d.%d", ip[0], ip[1], ip[2]))
		}
	}
	return subnets
}

func expandSubnet(prefix string) []netip.Addr {
	ips := make([]netip.Addr, 0, 254)
	for i := 1; i <= 254; i++ {
		a, err := netip.ParseAddr(fmt.Sprintf("%s.%d", prefix, i))
		if err != nil {
			return nil
		}
		ips = append(ips, a)
	}
	return ips
}
