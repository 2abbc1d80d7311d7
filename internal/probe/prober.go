// Package probe tests TCP reachability of a host's ports.
package probe

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	syncutil "github.com/projectdiscovery/utils/sync"
	"github.com/sirupsen/logrus"

	"netsweep/internal/logger"
	"netsweep/internal/models"
)

// CommonPorts is the candidate list used by the fast profile.
var CommonPorts = []int{21, 22, 23, 25, 53, 80, 110, 135, 139, 143, 443, 445, 3306, 3389, 5432, 5900, 8080, 8443}

// Options bounds a single Probe call.
type Options struct {
	// Timeout applies to each connection attempt.
	Timeout time.Duration
	// Concurrency caps simultaneously outstanding connection attempts.
	Concurrency int
}

// Profile pairs a candidate port set with the options used to probe it.
type Profile struct {
	Name    string
	Ports   models.PortSet
	Options Options
}

// FastProfile probes a short list of common service ports.
func FastProfile() Profile {
	return Profile{
		Name:    "fast",
		Ports:   models.NewPortSet(CommonPorts...),
		Options: Options{Timeout: 300 * time.Millisecond, Concurrency: 20},
	}
}

// AggressiveProfile probes every port from 1 to 1024.
func AggressiveProfile() Profile {
	return Profile{
		Name:    "aggressive",
		Ports:   models.PortRange(1, 1024),
		Options: Options{Timeout: 200 * time.Millisecond, Concurrency: 50},
	}
}

// Dialer opens connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober runs TCP connect probes. It holds no per-call state and is safe for
// concurrent use across hosts.
type Prober struct {
	dialer Dialer
	log    logrus.FieldLogger
}

// Option customises a Prober.
type Option func(*Prober)

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) Option {
	return func(p *Prober) { p.dialer = d }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Prober) { p.log = l }
}

func New(opts ...Option) *Prober {
	p := &Prober{dialer: &net.Dialer{}}
	for _, o := range opts {
		o(p)
	}
	p.log = logger.Or(p.log)
	return p
}

// Probe attempts one TCP connect per candidate port and returns the ports
// that accepted. Refusals, timeouts and any other error count as closed.
// The result is always a subset of ports.
func (p *Prober) Probe(ctx context.Context, ip string, ports models.PortSet, opts Options) models.PortSet {
	if ports.IsEmpty() {
		return models.PortSet{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Millisecond
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	awg, err := syncutil.New(syncutil.WithSize(opts.Concurrency))
	if err != nil {
		p.log.WithError(err).Warn("port probe pool unavailable")
		return models.PortSet{}
	}

	var (
		mu   sync.Mutex
		open []int
	)

	for _, port := range ports.Ports() {
		if ctx.Err() != nil {
			break
		}
		awg.Add()
		go func(port int) {
			defer awg.Done()
			if p.isOpen(ctx, ip, port, opts.Timeout) {
				mu.Lock()
				open = append(open, port)
				mu.Unlock()
			}
		}(port)
	}
	awg.Wait()

	result := models.NewPortSet(open...)
	p.log.WithFields(logrus.Fields{"ip": ip, "candidates": ports.Len(), "open": result.Len()}).Debug("port probe done")
	return result
}

func (p *Prober) isOpen(ctx context.Context, ip string, port int, timeout time.Duration) bool {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
