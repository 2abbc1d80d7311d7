package identity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsweep/internal/config"
	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/tools"
)

type fakeStrategy struct {
	name  string
	out   string
	err   error
	block bool
	panic bool
	calls int32
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Lookup(ctx context.Context, ip string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panic {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.out, f.err
}

func TestResolveShortCircuits(t *testing.T) {
	first := &fakeStrategy{name: "a", err: errors.New("nope")}
	second := &fakeStrategy{name: "b", out: "printer"}
	third := &fakeStrategy{name: "c", out: "never"}

	r := NewResolver(time.Second, logger.Discard(), first, second, third)
	assert.Equal(t, "printer", r.Resolve(context.Background(), "10.0.0.5"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&first.calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&second.calls))
	assert.EqualValues(t, 0, atomic.LoadInt32(&third.calls))
}

func TestResolveUnknownWhenAllFail(t *testing.T) {
	r := NewResolver(time.Second, logger.Discard(),
		&fakeStrategy{name: "err", err: errors.New("x")},
		&fakeStrategy{name: "empty"},
		&fakeStrategy{name: "self", out: "10.0.0.5"},
		&fakeStrategy{name: "panic", panic: true},
	)
	assert.Equal(t, models.Unknown, r.Resolve(context.Background(), "10.0.0.5"))
}

func TestResolveSkipsBlockedStrategy(t *testing.T) {
	r := NewResolver(50*time.Millisecond, logger.Discard(),
		&fakeStrategy{name: "slow", block: true},
		&fakeStrategy{name: "fast", out: "nas.lan."},
	)
	start := time.Now()
	assert.Equal(t, "nas.lan", r.Resolve(context.Background(), "10.0.0.9"))
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveStopsOnCancelledContext(t *testing.T) {
	s := &fakeStrategy{name: "a", out: "x"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, models.Unknown, NewResolver(0, logger.Discard(), s).Resolve(ctx, "10.0.0.1"))
	assert.EqualValues(t, 0, atomic.LoadInt32(&s.calls))
}

func TestDefaultStrategiesOrderAndDisable(t *testing.T) {
	r := NewResolver(0, nil, DefaultStrategies(config.IdentityConfig{}, nil)...)
	assert.Equal(t, []string{"reverse-dns", "netbios-tools", "nbns", "smb-banner", "snmp", "mdns", "ping-banner"}, r.Strategies())

	got := DefaultStrategies(config.IdentityConfig{Disabled: []string{"SNMP", " mdns "}}, tools.Exec{})
	names := NewResolver(0, nil, got...).Strategies()
	assert.NotContains(t, names, "snmp")
	assert.NotContains(t, names, "mdns")
	require.Len(t, names, 5)
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "host", shortName("host.example.com."))
	assert.Equal(t, "host", shortName("host"))
	assert.Equal(t, ".hidden", shortName(".hidden"))
}
