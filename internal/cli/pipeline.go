package cli

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"netsweep/internal/config"
	"netsweep/internal/discovery"
	"netsweep/internal/enrich"
	"netsweep/internal/models"
	"netsweep/internal/monitor"
	"netsweep/internal/spoofer"
	"netsweep/internal/sweep"
	"netsweep/internal/tools"
	"netsweep/internal/tui"
)

// hooks receive the live events of a run. Any may be nil.
type hooks struct {
	progress sweep.Progress
	changes  func(monitor.Changes)
	state    func(monitor.State)
	swept    func(models.SweepResult)
}

// masker is the identity-masking contract of *spoofer.Masker.
type masker interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type pipeline struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	sweeper monitor.Sweeper
	masker  masker

	// maxIterations bounds monitor runs; zero runs until cancelled.
	maxIterations int
}

func (a *app) pipeline() *pipeline {
	if a.pipe != nil {
		return a.pipe
	}
	cfg := a.cfg

	retries := cfg.Scan.Retries
	if retries == 0 {
		// discovery reads zero as "use the default"
		retries = -1
	}
	d := discovery.NewARPScanner(discovery.Config{
		Interface: cfg.Scan.Interface,
		Timeout:   cfg.Scan.DiscoveryTimeout,
		Retries:   retries,
		RateLimit: cfg.Scan.RateLimit,
	}, a.log)
	e := enrich.FromConfig(cfg, a.runner, a.log)
	if missing := tools.Missing(tools.Helpers...); len(missing) > 0 {
		a.log.WithField("missing", missing).Info("helper tools not installed, strategies using them are skipped")
	}

	iface := cfg.Stealth.Interface
	if cfg.Scan.Interface != "" {
		iface = cfg.Scan.Interface
	}

	a.pipe = &pipeline{
		cfg:     cfg,
		log:     a.log,
		sweeper: sweep.New(d, e, a.log),
		masker:  spoofer.NewMasker(iface, a.runner, a.log, spoofer.WithAnnounce()),
	}
	return a.pipe
}

func (p *pipeline) options(mode tui.Mode, h hooks) sweep.Options {
	opts := sweep.Options{
		Enrich: enrich.Options{
			Aggressive: mode == tui.ModeDeep || p.cfg.Scan.Aggressive,
			Delay:      p.cfg.Scan.Delay,
		},
		Workers: p.cfg.Scan.Workers,
		// ARP rounds share DiscoveryTimeout; the rest covers capture setup
		DiscoveryTimeout: 2*p.cfg.Scan.DiscoveryTimeout + time.Second,
		Progress:         h.progress,
	}
	if mode == tui.ModeStealth {
		opts.Enrich.Delay = p.cfg.Stealth.Delay
	}
	return opts
}

// execute runs one menu option. Monitor returns the last successful sweep.
func (p *pipeline) execute(ctx context.Context, mode tui.Mode, rng string, h hooks) (models.SweepResult, error) {
	opts := p.options(mode, h)

	switch mode {
	case tui.ModeRegular, tui.ModeDeep:
		res := p.sweeper.Sweep(ctx, rng, opts)
		return res, res.Err

	case tui.ModeStealth:
		var (
			res models.SweepResult
			ran bool
		)
		err := p.masker.Run(ctx, func(ctx context.Context) error {
			ran = true
			res = p.sweeper.Sweep(ctx, rng, opts)
			return res.Err
		})
		if !ran {
			p.log.WithError(err).Warn("identity masking unavailable, continuing without it")
			res = p.sweeper.Sweep(ctx, rng, opts)
			return res, res.Err
		}
		return res, err

	case tui.ModeMonitor:
		rec := &lastSweep{inner: p.sweeper, swept: h.swept}
		summary := monitor.New(rec, monitor.Config{
			Range:         rng,
			Interval:      p.cfg.Monitor.Interval,
			Sweep:         opts,
			MaxIterations: p.maxIterations,
			OnChanges:     h.changes,
			OnState:       h.state,
		}, p.log).Run(ctx)
		return rec.result(), summary.Err
	}
	return models.SweepResult{}, errors.Newf("unknown mode %d", int(mode))
}

// lastSweep remembers the most recent successful sweep of a monitor run.
type lastSweep struct {
	inner monitor.Sweeper
	swept func(models.SweepResult)

	mu   sync.Mutex
	last models.SweepResult
}

func (l *lastSweep) Sweep(ctx context.Context, rng string, opts sweep.Options) models.SweepResult {
	res := l.inner.Sweep(ctx, rng, opts)
	if res.Err == nil && ctx.Err() == nil {
		l.mu.Lock()
		l.last = res
		l.mu.Unlock()
		if l.swept != nil {
			l.swept(res)
		}
	}
	return res
}

func (l *lastSweep) result() models.SweepResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
