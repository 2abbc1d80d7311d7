// Package enrich turns a discovered (address, hardware address) pair into a
// complete host record.
package enrich

import (
	"context"
	"net/netip"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"netsweep/internal/analysis"
	"netsweep/internal/fingerprint"
	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/probe"
)

// maxInFlight bounds the sub-calls running for one host.
const maxInFlight = 5

// NameResolver names a host. Implementations return models.Unknown rather
// than failing.
type NameResolver interface {
	Resolve(ctx context.Context, ip string) string
}

// VendorLookup maps a hardware address to a manufacturer.
type VendorLookup interface {
	Lookup(ctx context.Context, mac string) string
}

// PortProber reports the open subset of ports.
type PortProber interface {
	Probe(ctx context.Context, ip string, ports models.PortSet, opts probe.Options) models.PortSet
}

// OSDetector guesses the OS class.
type OSDetector interface {
	Detect(ctx context.Context, ip string) models.OSClass
}

// ServiceSummarizer lists the host's notable services.
type ServiceSummarizer interface {
	Summarize(ctx context.Context, ip string) fingerprint.Summary
}

// Deps are the collaborators of an Enricher. Nil collaborators are skipped
// and their field keeps its default.
type Deps struct {
	Names    NameResolver
	Vendors  VendorLookup
	Prober   PortProber
	OS       OSDetector
	Services ServiceSummarizer

	// Fast and Aggressive select the candidate ports; zero values use
	// probe.FastProfile and probe.AggressiveProfile.
	Fast       probe.Profile
	Aggressive probe.Profile
}

// Options select the probing profile and the pause after each host.
type Options struct {
	Aggressive bool
	Delay      time.Duration
}

// Enricher runs the per-host sub-calls concurrently. It is stateless across
// calls and safe for concurrent use.
type Enricher struct {
	deps Deps
	log  logrus.FieldLogger
	now  func() time.Time
}

func New(deps Deps, log logrus.FieldLogger) *Enricher {
	if deps.Fast.Ports.IsEmpty() {
		deps.Fast = probe.FastProfile()
	}
	if deps.Aggressive.Ports.IsEmpty() {
		deps.Aggressive = probe.AggressiveProfile()
	}
	return &Enricher{deps: deps, log: logger.Or(log), now: time.Now}
}

// Enrich builds the record for ip. A failing or panicking sub-call leaves
// its field at the default. The only errors are an invalid address and a
// context cancelled before the record was complete.
func (e *Enricher) Enrich(ctx context.Context, ip, mac string, opts Options) (models.HostRecord, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return models.HostRecord{}, errors.Mark(errors.Newf("invalid host address %q", ip), models.ErrEnrichmentFailure)
	}
	if err := ctx.Err(); err != nil {
		return models.HostRecord{}, errors.Mark(errors.Wrapf(err, "enrich %s", ip), models.ErrEnrichmentFailure)
	}

	profile := e.deps.Fast
	if opts.Aggressive {
		profile = e.deps.Aggressive
	}

	var (
		hostname = models.Unknown
		vendor   = models.Unknown
		ports    models.PortSet
		osClass  = models.OSUnknown
		summary  = fingerprint.Summary{DeviceType: models.Unknown}
	)

	log := e.log.WithField("ip", ip)
	var g errgroup.Group
	g.SetLimit(maxInFlight)
	run := func(name string, fn func()) {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					log.WithField("step", name).Errorf("enrichment step panicked: %v", p)
				}
			}()
			fn()
			return nil
		})
	}

	if e.deps.Names != nil {
		run("name", func() { hostname = e.deps.Names.Resolve(ctx, ip) })
	}
	if e.deps.Vendors != nil && mac != "" {
		run("vendor", func() { vendor = e.deps.Vendors.Lookup(ctx, mac) })
	}
	if e.deps.Prober != nil {
		run("ports", func() { ports = e.deps.Prober.Probe(ctx, ip, profile.Ports, profile.Options) })
	}
	if e.deps.OS != nil {
		run("os", func() { osClass = e.deps.OS.Detect(ctx, ip) })
	}
	if e.deps.Services != nil {
		run("services", func() { summary = e.deps.Services.Summarize(ctx, ip) })
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return models.HostRecord{}, errors.Mark(errors.Wrapf(err, "enrich %s", ip), models.ErrEnrichmentFailure)
	}

	assessment := analysis.Classify(ports, osClass)
	services := summary.Services
	if len(services) == 0 {
		services = analysis.ServiceNames(ports, models.MaxServices)
	}

	rec := models.NewHostRecord(models.HostRecord{
		IP:         addr.String(),
		MAC:        mac,
		Hostname:   hostname,
		Vendor:     vendor,
		Ports:      ports,
		OS:         osClass,
		Risk:       assessment.Narrative,
		Tier:       assessment.Tier,
		Services:   services,
		DeviceType: summary.DeviceType,
		SeenAt:     e.now(),
	})
	log.WithFields(logrus.Fields{"hostname": rec.Hostname, "open": rec.Ports.Len(), "tier": rec.Tier}).Debug("host enriched")

	if opts.Delay > 0 {
		t := time.NewTimer(opts.Delay)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}
	return rec, nil
}
