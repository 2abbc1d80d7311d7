// Package sweep runs one discovery pass and enriches every host found.
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	syncutil "github.com/projectdiscovery/utils/sync"
	"github.com/sirupsen/logrus"

	"netsweep/internal/discovery"
	"netsweep/internal/enrich"
	"netsweep/internal/logger"
	"netsweep/internal/models"
)

// DefaultWorkers is the number of hosts enriched at once.
const DefaultWorkers = 10

// HostEnricher is the per-host step. *enrich.Enricher satisfies it.
type HostEnricher interface {
	Enrich(ctx context.Context, ip, mac string, opts enrich.Options) (models.HostRecord, error)
}

// Progress is told about every host once its record is final. done counts
// finished hosts (kept or dropped) out of total; a dropped host is reported
// with a record holding only its address.
type Progress func(rec models.HostRecord, done, total int)

// Options for one sweep.
type Options struct {
	Enrich enrich.Options
	// Workers overrides DefaultWorkers.
	Workers int
	// DiscoveryTimeout bounds the discovery call; zero leaves it to the
	// discoverer.
	DiscoveryTimeout time.Duration
	Progress         Progress
}

// Sweeper couples a discoverer to an enricher.
type Sweeper struct {
	discoverer discovery.Discoverer
	enricher   HostEnricher
	log        logrus.FieldLogger
	now        func() time.Time
}

func New(d discovery.Discoverer, e HostEnricher, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{discoverer: d, enricher: e, log: logger.Or(log), now: time.Now}
}

// Sweep discovers the hosts in rng and enriches them on a bounded pool.
// Records appear in completion order. A discovery failure gives an empty
// result with Err set; an enrichment failure drops that host only.
func (s *Sweeper) Sweep(ctx context.Context, rng string, opts Options) models.SweepResult {
	start := s.now()
	result := models.SweepResult{Range: rng, StartedAt: start, Records: []models.HostRecord{}}
	log := s.log.WithField("range", rng)

	hosts, err := s.discover(ctx, rng, opts.DiscoveryTimeout)
	if err != nil {
		result.Err = errors.Mark(errors.Wrapf(err, "discover %s", rng), models.ErrDiscoveryFailure)
		result.Elapsed = s.now().Sub(start)
		log.WithError(err).Error("discovery failed")
		return result
	}
	log.WithField("hosts", len(hosts)).Info("discovery finished")
	if len(hosts) == 0 {
		result.Elapsed = s.now().Sub(start)
		return result
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	awg, err := syncutil.New(syncutil.WithSize(workers))
	if err != nil {
		result.Err = errors.Wrap(err, "create worker pool")
		result.Elapsed = s.now().Sub(start)
		return result
	}

	var (
		mu   sync.Mutex
		done int
	)
	total := len(hosts)
	for _, h := range hosts {
		if ctx.Err() != nil {
			break
		}
		awg.Add()
		go func(h discovery.Host) {
			defer awg.Done()
			rec, err := s.enricher.Enrich(ctx, h.Addr(), h.HardwareAddr(), opts.Enrich)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				log.WithError(err).WithField("ip", h.Addr()).Warn("enrichment failed, host dropped")
				rec = models.HostRecord{IP: h.Addr()}
			} else {
				result.Records = append(result.Records, rec)
			}
			if opts.Progress != nil {
				opts.Progress(rec, done, total)
			}
		}(h)
	}
	awg.Wait()

	result.Elapsed = s.now().Sub(start)
	log.WithFields(logrus.Fields{"records": result.Len(), "elapsed": result.Elapsed.Round(time.Millisecond)}).Info("sweep finished")
	return result
}

func (s *Sweeper) discover(ctx context.Context, rng string, timeout time.Duration) (hosts []discovery.Host, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			hosts, err = nil, errors.Newf("discoverer panicked: %v", p)
		}
	}()
	return s.discoverer.Discover(ctx, rng)
}
