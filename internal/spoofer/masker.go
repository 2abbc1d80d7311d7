// Package spoofer masks the local hardware address for the duration of a
// stealth sweep and puts the original back afterwards.
package spoofer

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"netsweep/internal/logger"
	"netsweep/internal/tools"
)

// restoreAttempts is how often Restore retries the original address.
const restoreAttempts = 3

// Masker swaps an interface's MAC for a random locally administered one.
// Acquire and Restore pair up; Restore is idempotent.
type Masker struct {
	iface  string
	runner tools.Runner
	log    logrus.FieldLogger

	rand     io.Reader
	current  func(name string) (net.HardwareAddr, error)
	announce func(iface string, mac net.HardwareAddr) error

	mu       sync.Mutex
	original net.HardwareAddr
	active   bool
}

// Option customises a Masker.
type Option func(*Masker)

// WithRand replaces the randomness source.
func WithRand(r io.Reader) Option {
	return func(m *Masker) { m.rand = r }
}

// WithAnnounce broadcasts gratuitous ARP after each address change so
// neighbours drop stale cache entries.
func WithAnnounce() Option {
	return func(m *Masker) { m.announce = Announce }
}

func withCurrent(f func(string) (net.HardwareAddr, error)) Option {
	return func(m *Masker) { m.current = f }
}

func NewMasker(iface string, runner tools.Runner, log logrus.FieldLogger, opts ...Option) *Masker {
	if runner == nil {
		runner = tools.Exec{}
	}
	m := &Masker{
		iface:   iface,
		runner:  runner,
		log:     logger.Or(log),
		rand:    rand.Reader,
		current: interfaceMAC,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Acquire remembers the current address and installs a random one.
func (m *Masker) Acquire(ctx context.Context) (net.HardwareAddr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return nil, errors.Newf("%s is already masked", m.iface)
	}

	original, err := m.current(m.iface)
	if err != nil {
		return nil, errors.Wrapf(err, "read address of %s", m.iface)
	}
	masked, err := RandomMAC(m.rand)
	if err != nil {
		return nil, err
	}

	if err := m.set(ctx, masked); err != nil {
		// the link may be left down or half configured
		if rerr := m.set(context.WithoutCancel(ctx), original); rerr != nil {
			m.log.WithError(rerr).WithField("interface", m.iface).Error("could not roll back address")
		}
		return nil, err
	}
	m.original = original
	m.active = true
	m.log.WithFields(logrus.Fields{"interface": m.iface, "original": original.String(), "masked": masked.String()}).Info("hardware address masked")
	m.notify(masked)
	return masked, nil
}

// Restore reinstalls the original address. It ignores ctx cancellation so
// it still runs on the interrupt path.
func (m *Masker) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	var err error
	for i := 0; i < restoreAttempts; i++ {
		if err = m.set(ctx, m.original); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		return errors.Wrapf(err, "restore %s on %s", m.original, m.iface)
	}
	m.active = false
	m.log.WithFields(logrus.Fields{"interface": m.iface, "mac": m.original.String()}).Info("hardware address restored")
	m.notify(m.original)
	return nil
}

// Active reports whether the interface currently carries a masked address.
func (m *Masker) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Run masks the address, calls fn and restores the address on every exit
// path, panics included.
func (m *Masker) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, err := m.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if rerr := m.Restore(ctx); rerr != nil {
			err = errors.CombineErrors(err, rerr)
		}
	}()
	return fn(ctx)
}

func (m *Masker) set(ctx context.Context, mac net.HardwareAddr) error {
	steps := [][]string{
		{"link", "set", "dev", m.iface, "down"},
		{"link", "set", "dev", m.iface, "address", mac.String()},
		{"link", "set", "dev", m.iface, "up"},
	}
	for _, args := range steps {
		if _, err := m.runner.Run(ctx, "ip", args...); err != nil {
			return errors.Wrapf(err, "ip %v", args)
		}
	}
	return nil
}

func (m *Masker) notify(mac net.HardwareAddr) {
	if m.announce == nil {
		return
	}
	if err := m.announce(m.iface, mac); err != nil {
		m.log.WithError(err).WithField("interface", m.iface).Debug("gratuitous arp failed")
	}
}

// RandomMAC returns a unicast, locally administered address.
func RandomMAC(r io.Reader) (net.HardwareAddr, error) {
	mac := make(net.HardwareAddr, 6)
	if _, err := io.ReadFull(r, mac); err != nil {
		return nil, errors.Wrap(err, "read random bytes")
	}
	mac[0] = (mac[0] | 0x02) &^ 0x01
	return mac, nil
}

func interfaceMAC(name string) (net.HardwareAddr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	if len(iface.HardwareAddr) == 0 {
		return nil, errors.Newf("%s has no hardware address", name)
	}
	return append(net.HardwareAddr(nil), iface.HardwareAddr...), nil
}
