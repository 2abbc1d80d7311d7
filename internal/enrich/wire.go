package enrich

import (
	"github.com/sirupsen/logrus"

	"netsweep/internal/config"
	"netsweep/internal/fingerprint"
	"netsweep/internal/identity"
	"netsweep/internal/oui"
	"netsweep/internal/probe"
	"netsweep/internal/tools"
)

// FromConfig wires the production collaborators.
func FromConfig(cfg *config.Config, runner tools.Runner, log logrus.FieldLogger) *Enricher {
	if runner == nil {
		runner = tools.Exec{}
	}
	osDetector, services := fingerprint.FromConfig(cfg.Fingerprint, runner, log)

	fast := probe.FastProfile()
	fast.Options = probe.Options{Timeout: cfg.Probe.FastTimeout, Concurrency: cfg.Probe.FastConcurrency}
	aggressive := probe.AggressiveProfile()
	aggressive.Options = probe.Options{Timeout: cfg.Probe.AggressiveTimeout, Concurrency: cfg.Probe.AggressiveConcurrency}

	return New(Deps{
		Names:      identity.NewResolver(cfg.Identity.Timeout, log, identity.DefaultStrategies(cfg.Identity, runner)...),
		Vendors:    oui.FromConfig(cfg.Vendor, runner, log),
		Prober:     probe.New(probe.WithLogger(log)),
		OS:         osDetector,
		Services:   services,
		Fast:       fast,
		Aggressive: aggressive,
	}, log)
}

var (
	_ NameResolver      = (*identity.Resolver)(nil)
	_ VendorLookup      = (*oui.Resolver)(nil)
	_ PortProber        = (*probe.Prober)(nil)
	_ OSDetector        = (*fingerprint.OSDetector)(nil)
	_ ServiceSummarizer = (*fingerprint.ServiceScanner)(nil)
)
