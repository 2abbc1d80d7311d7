package sweep

import (
	"context"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsweep/internal/discovery"
	"netsweep/internal/enrich"
	"netsweep/internal/logger"
	"netsweep/internal/models"
)

func hosts(ips ...string) []discovery.Host {
	out := make([]discovery.Host, len(ips))
	for i, ip := range ips {
		out[i] = discovery.Host{IP: net.ParseIP(ip).To4(), MAC: net.HardwareAddr{0x02, 0, 0, 0, 0, byte(i + 1)}}
	}
	return out
}

func found(h []discovery.Host, err error) discovery.Discoverer {
	return discovery.DiscovererFunc(func(context.Context, string) ([]discovery.Host, error) {
		return h, err
	})
}

type fakeEnricher struct {
	calls    int32
	fail     map[string]bool
	delay    map[string]time.Duration
	inflight int32
	peak     int32
}

func (f *fakeEnricher) Enrich(ctx context.Context, ip, mac string, _ enrich.Options) (models.HostRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	if d := f.delay[ip]; d > 0 {
		time.Sleep(d)
	}
	if f.fail[ip] {
		return models.HostRecord{}, errors.New("boom")
	}
	return models.NewHostRecord(models.HostRecord{IP: ip, MAC: mac}), nil
}

func TestSweepEmptyDiscoveryNeverEnriches(t *testing.T) {
	e := &fakeEnricher{}
	res := New(found(nil, nil), e, logger.Discard()).Sweep(context.Background(), "10.0.0.0/24", Options{})

	assert.NoError(t, res.Err)
	assert.Equal(t, 0, res.Len())
	assert.NotNil(t, res.Records)
	assert.EqualValues(t, 0, atomic.LoadInt32(&e.calls))
	assert.Equal(t, "10.0.0.0/24", res.Range)
}

func TestSweepDiscoveryFailure(t *testing.T) {
	e := &fakeEnricher{}
	res := New(found(nil, errors.New("no pcap")), e, logger.Discard()).Sweep(context.Background(), "10.0.0.0/24", Options{})

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, models.ErrDiscoveryFailure))
	assert.Equal(t, 0, res.Len())
	assert.EqualValues(t, 0, atomic.LoadInt32(&e.calls))
}

func TestSweepDiscovererPanicIsContained(t *testing.T) {
	d := discovery.DiscovererFunc(func(context.Context, string) ([]discovery.Host, error) {
		panic("driver fault")
	})
	res := New(d, &fakeEnricher{}, logger.Discard()).Sweep(context.Background(), "10.0.0.0/24", Options{})
	assert.Error(t, res.Err)
}

func TestSweepCompletionOrderAndDrops(t *testing.T) {
	e := &fakeEnricher{
		fail:  map[string]bool{"10.0.0.3": true},
		delay: map[string]time.Duration{"10.0.0.1": 80 * time.Millisecond},
	}
	res := New(found(hosts("10.0.0.1", "10.0.0.2", "10.0.0.3"), nil), e, logger.Discard()).
		Sweep(context.Background(), "10.0.0.0/24", Options{})

	require.NoError(t, res.Err)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, "10.0.0.2", res.Records[0].IP, "slow host finishes last")
	assert.Equal(t, "10.0.0.1", res.Records[1].IP)
	assert.Equal(t, "02:00:00:00:00:01", res.Records[1].MAC)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, []string{res.Sorted()[0].IP, res.Sorted()[1].IP})
	assert.Greater(t, res.Elapsed, time.Duration(0))
}

func TestSweepBoundsWorkers(t *testing.T) {
	var ips []string
	delay := map[string]time.Duration{}
	for i := 1; i <= 30; i++ {
		ip := net.IPv4(10, 0, 1, byte(i)).String()
		ips = append(ips, ip)
		delay[ip] = 10 * time.Millisecond
	}
	e := &fakeEnricher{delay: delay}
	res := New(found(hosts(ips...), nil), e, logger.Discard()).Sweep(context.Background(), "10.0.1.0/24", Options{Workers: 4})

	assert.Equal(t, 30, res.Len())
	assert.LessOrEqual(t, atomic.LoadInt32(&e.peak), int32(4))
}

func TestSweepReportsProgress(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)
	opts := Options{Progress: func(_ models.HostRecord, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		seen = append(seen, done)
	}}
	New(found(hosts("10.0.0.1", "10.0.0.2", "10.0.0.3"), nil), &fakeEnricher{}, logger.Discard()).
		Sweep(context.Background(), "10.0.0.0/24", opts)

	sort.Ints(seen)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestSweepDiscoveryTimeoutReachesDiscoverer(t *testing.T) {
	d := discovery.DiscovererFunc(func(ctx context.Context, _ string) ([]discovery.Host, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	start := time.Now()
	res := New(d, &fakeEnricher{}, logger.Discard()).Sweep(context.Background(), "10.0.0.0/24", Options{DiscoveryTimeout: 30 * time.Millisecond})
	assert.Error(t, res.Err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSweepProgressCountsDroppedHosts(t *testing.T) {
	var (
		mu      sync.Mutex
		last    int
		dropped []string
	)
	opts := Options{Workers: 1, Progress: func(rec models.HostRecord, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done > last {
			last = done
		}
		if rec.MAC == "" {
			dropped = append(dropped, rec.IP)
		}
	}}
	e := &fakeEnricher{fail: map[string]bool{"10.0.0.2": true}}
	res := New(found(hosts("10.0.0.1", "10.0.0.2"), nil), e, logger.Discard()).
		Sweep(context.Background(), "10.0.0.0/24", opts)

	assert.Equal(t, 1, res.Len())
	assert.Equal(t, 2, last)
	assert.Equal(t, []string{"10.0.0.2"}, dropped)
}

func TestSweepElapsedUsesSweeperClock(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s := New(found(nil, nil), &fakeEnricher{}, logger.Discard())
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 5 * time.Second)
	}

	res := s.Sweep(context.Background(), "10.0.0.0/24", Options{})
	assert.Equal(t, base, res.StartedAt)
	assert.Equal(t, 5*time.Second, res.Elapsed)
}
