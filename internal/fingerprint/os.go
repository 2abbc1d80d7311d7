// Package fingerprint infers a coarse OS class and a short service summary
// for a host. Both are best effort: a miss yields the Unknown defaults.
package fingerprint

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	probing "github.com/prometheus-community/pro-bing"
	"github.com/sirupsen/logrus"

	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/tools"
)

// OSEngine is one way of guessing the OS class.
type OSEngine interface {
	Name() string
	Detect(ctx context.Context, ip string) (models.OSClass, error)
}

// OSDetector runs its engines in order until one gives a class other than
// Unknown.
type OSDetector struct {
	engines []OSEngine
	timeout time.Duration
	log     logrus.FieldLogger
}

// budgeted engines carry their own time limit instead of the detector's.
type budgeted interface {
	Budget() time.Duration
}

// NewOSDetector bounds every engine by timeout (2s when non-positive)
// unless the engine sets its own budget.
func NewOSDetector(timeout time.Duration, log logrus.FieldLogger, engines ...OSEngine) *OSDetector {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &OSDetector{engines: engines, timeout: timeout, log: logger.Or(log)}
}

// Detect never fails; it returns models.OSUnknown when nothing answers.
func (d *OSDetector) Detect(ctx context.Context, ip string) models.OSClass {
	for _, e := range d.engines {
		if ctx.Err() != nil {
			break
		}
		ectx, cancel := context.WithTimeout(ctx, d.budget(e))
		class, err := e.Detect(ectx, ip)
		cancel()
		if err != nil {
			d.log.WithFields(logrus.Fields{"ip": ip, "engine": e.Name()}).WithError(err).Debug("os engine failed")
			continue
		}
		if class != models.OSUnknown && class != "" {
			return class
		}
	}
	return models.OSUnknown
}

func (d *OSDetector) budget(e OSEngine) time.Duration {
	if b, ok := e.(budgeted); ok && b.Budget() > 0 {
		return b.Budget()
	}
	return d.timeout
}

// ClassifyTTL maps an observed echo TTL to the initial TTL family it most
// likely decayed from: 64 for Unix-like stacks, 128 for Windows and 255 for
// routers and other embedded gear.
func ClassifyTTL(ttl int) models.OSClass {
	switch {
	case ttl <= 0:
		return models.OSUnknown
	case ttl <= 64:
		return models.OSUnixLike
	case ttl <= 128:
		return models.OSWindows
	case ttl <= 255:
		return models.OSNetworkDevice
	default:
		return models.OSUnknown
	}
}

// TTLEngine sends one ICMP echo and classifies the reply's TTL.
type TTLEngine struct {
	// Privileged uses raw ICMP sockets instead of unprivileged datagram
	// sockets; Linux needs ping_group_range for the latter.
	Privileged bool
}

func (TTLEngine) Name() string { return "ttl" }

func (e TTLEngine) Detect(ctx context.Context, ip string) (models.OSClass, error) {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return models.OSUnknown, errors.Wrap(err, "new pinger")
	}
	pinger.SetPrivileged(e.Privileged)
	pinger.Count = 1
	pinger.Timeout = time.Second
	if dl, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(dl)
	}

	ttl := 0
	pinger.OnRecv = func(pkt *probing.Packet) {
		if ttl == 0 {
			ttl = pkt.TTL
		}
	}
	if err := pinger.RunWithContext(ctx); err != nil {
		return models.OSUnknown, errors.Wrap(err, "echo")
	}
	if ttl == 0 {
		return models.OSUnknown, errors.Mark(errors.New("no echo reply"), models.ErrProbeTimeout)
	}
	return ClassifyTTL(ttl), nil
}

// DefaultNmapOSTimeout bounds one nmap -O run.
const DefaultNmapOSTimeout = 10 * time.Second

// NmapOSEngine asks nmap's OS detection and maps its "Running:" line onto a
// class. It needs root to send the raw probes.
type NmapOSEngine struct {
	Runner  tools.Runner
	Timeout time.Duration
}

func (NmapOSEngine) Name() string { return "nmap-os" }

// Budget is Timeout, or DefaultNmapOSTimeout when unset.
func (e NmapOSEngine) Budget() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultNmapOSTimeout
}

func (e NmapOSEngine) Detect(ctx context.Context, ip string) (models.OSClass, error) {
	out, err := e.Runner.Run(ctx, "nmap", "-O", "--osscan-guess", "-n", ip)
	if class := parseNmapOS(out); class != models.OSUnknown {
		return class, nil
	}
	if err == nil {
		err = errors.New("no Running line in nmap output")
	}
	return models.OSUnknown, err
}

var osKeywords = []struct {
	class models.OSClass
	words []string
}{
	{models.OSWindows, []string{"windows"}},
	{models.OSNetworkDevice, []string{"cisco", "juniper", "mikrotik", "routeros", "embedded", "router", "switch", "printer", "jetdirect"}},
	{models.OSUnixLike, []string{"linux", "bsd", "mac os", "macos", "solaris", "unix", "android"}},
}

// parseNmapOS reads the first "Running:" or "Running (JUST GUESSING):" line.
func parseNmapOS(out string) models.OSClass {
	for _, line := range tools.Lines(out) {
		if !strings.HasPrefix(line, "Running") {
			continue
		}
		_, running, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		running = strings.ToLower(running)
		for _, k := range osKeywords {
			for _, w := range k.words {
				if strings.Contains(running, w) {
					return k.class
				}
			}
		}
	}
	return models.OSUnknown
}
