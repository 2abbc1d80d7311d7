package discovery

import (
	"context"
	"net"
	"time"
)

// Host is one address that answered on the local link.
type Host struct {
	IP  net.IP
	MAC net.HardwareAddr
}

// Addr returns the dotted IPv4 address.
func (h Host) Addr() string { return h.IP.String() }

// HardwareAddr returns the MAC in canonical form, or "" when unknown.
func (h Host) HardwareAddr() string {
	if len(h.MAC) == 0 {
		return ""
	}
	return h.MAC.String()
}

// Discoverer lists the hosts alive in an address range. rng is a CIDR
// block or a single address.
type Discoverer interface {
	Discover(ctx context.Context, rng string) ([]Host, error)
}

// DiscovererFunc adapts a function to Discoverer.
type DiscovererFunc func(ctx context.Context, rng string) ([]Host, error)

func (f DiscovererFunc) Discover(ctx context.Context, rng string) ([]Host, error) {
	return f(ctx, rng)
}

// Config controls the ARP sweep.
type Config struct {
	// Interface to send on. Chosen from the range when empty.
	Interface string
	// Timeout is the whole reply window shared by all rounds.
	// Defaults to 3s.
	Timeout time.Duration
	// Retries re-asks addresses that stayed silent. Defaults to 2;
	// negative disables.
	Retries int
	// RateLimit is the gap between requests. Defaults to 50µs.
	RateLimit time.Duration
	// MaxHosts caps how many addresses are probed. Defaults to 4096;
	// negative disables the cap.
	MaxHosts int
	// Promisc opens the interface in promiscuous mode. Defaults to true.
	Promisc *bool
}

func applyDefaults(cfg Config) Config {
	out := cfg
	if out.Timeout <= 0 {
		out.Timeout = 3 * time.Second
	}
	if out.Retries == 0 {
		out.Retries = 2
	} else if out.Retries < 0 {
		out.Retries = 0
	}
	if out.RateLimit <= 0 {
		out.RateLimit = 50 * time.Microsecond
	}
	if out.MaxHosts == 0 {
		out.MaxHosts = 4096
	}
	if out.Promisc == nil {
		out.Promisc = ptrBool(true)
	}
	return out
}

func ptrBool(v bool) *bool {
	return &v
}
