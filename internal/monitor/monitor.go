// Package monitor repeats sweeps and reports how the host population
// changes between them.
package monitor

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/sweep"
)

// DefaultInterval is the pause between sweeps.
const DefaultInterval = 15 * time.Second

// State is where the loop currently is.
type State int

const (
	Idle State = iota
	Sweeping
	Diffing
	Sleeping
)

func (s State) String() string {
	switch s {
	case Sweeping:
		return "sweeping"
	case Diffing:
		return "diffing"
	case Sleeping:
		return "sleeping"
	default:
		return "idle"
	}
}

// Sweeper runs one sweep. *sweep.Sweeper satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context, rng string, opts sweep.Options) models.SweepResult
}

// Config drives a Monitor.
type Config struct {
	Range    string
	Interval time.Duration
	Sweep    sweep.Options
	// MaxIterations stops the loop after that many diffs; zero runs until
	// the context ends.
	MaxIterations int
	// OnChanges is called after every diff, changed or not.
	OnChanges func(Changes)
	// OnState is called on every state transition.
	OnState func(State)
}

// Summary is returned when the loop stops.
type Summary struct {
	Iterations int
	Population int
	// Err is marked models.ErrMonitorInterrupt when the context ended the
	// loop, nil when MaxIterations was reached.
	Err error
}

// Monitor owns the previous population; it is not shared with callers.
type Monitor struct {
	sweeper Sweeper
	cfg     Config
	log     logrus.FieldLogger
}

func New(s Sweeper, cfg Config, log logrus.FieldLogger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Monitor{sweeper: s, cfg: cfg, log: logger.Or(log)}
}

// Run loops sweep, diff, sleep until ctx ends or MaxIterations is reached.
// A failed sweep is logged and leaves the previous population in place.
func (m *Monitor) Run(ctx context.Context) Summary {
	var (
		previous   = map[string]models.HostRecord{}
		iterations int
	)
	summary := func() Summary {
		s := Summary{Iterations: iterations, Population: len(previous)}
		if err := ctx.Err(); err != nil {
			s.Err = errors.Mark(errors.Wrap(err, "monitor stopped"), models.ErrMonitorInterrupt)
		}
		m.state(Idle)
		m.log.WithFields(logrus.Fields{"iterations": s.Iterations, "population": s.Population}).Info("monitor stopped")
		return s
	}

	for {
		m.state(Sweeping)
		res := m.sweeper.Sweep(ctx, m.cfg.Range, m.cfg.Sweep)
		if ctx.Err() != nil {
			return summary()
		}

		if res.Err != nil {
			m.log.WithError(res.Err).WithField("iteration", iterations+1).Warn("sweep failed, population unchanged")
		} else {
			m.state(Diffing)
			iterations++
			current := Population(res.Records)
			changes := Diff(previous, current)
			changes.Iteration = iterations
			previous = current
			m.report(changes)
		}

		if m.cfg.MaxIterations > 0 && iterations >= m.cfg.MaxIterations {
			return summary()
		}

		m.state(Sleeping)
		t := time.NewTimer(m.cfg.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return summary()
		case <-t.C:
		}
	}
}

func (m *Monitor) report(c Changes) {
	log := m.log.WithField("iteration", c.Iteration)
	for _, r := range c.Joined {
		log.WithFields(logrus.Fields{"ip": r.IP, "hostname": r.Hostname, "mac": r.MAC, "vendor": r.Vendor}).Info("host joined")
	}
	for _, r := range c.Left {
		log.WithFields(logrus.Fields{"ip": r.IP, "hostname": r.Hostname, "mac": r.MAC}).Info("host left")
	}
	for _, ch := range c.Changed {
		log.WithFields(logrus.Fields{"ip": ch.IP, "old": ch.Old, "new": ch.New}).Warn("hardware address changed")
	}
	if m.cfg.OnChanges != nil {
		m.cfg.OnChanges(c)
	}
}

func (m *Monitor) state(s State) {
	if m.cfg.OnState != nil {
		m.cfg.OnState(s)
	}
}
