package fingerprint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsweep/internal/config"
	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/tools"
)

func TestClassifyTTL(t *testing.T) {
	tests := []struct {
		ttl  int
		want models.OSClass
	}{
		{0, models.OSUnknown},
		{63, models.OSUnixLike},
		{64, models.OSUnixLike},
		{127, models.OSWindows},
		{128, models.OSWindows},
		{254, models.OSNetworkDevice},
		{255, models.OSNetworkDevice},
		{300, models.OSUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTTL(tt.ttl), "ttl %d", tt.ttl)
	}
}

func TestParseNmapOS(t *testing.T) {
	assert.Equal(t, models.OSWindows, parseNmapOS("Device type: general purpose\nRunning: Microsoft Windows 10|11\n"))
	assert.Equal(t, models.OSUnixLike, parseNmapOS("Running (JUST GUESSING): Linux 4.X|5.X (92%)\n"))
	assert.Equal(t, models.OSNetworkDevice, parseNmapOS("Running: Cisco IOS 15.X\n"))
	assert.Equal(t, models.OSUnknown, parseNmapOS("Too many fingerprints match this host\n"))
}

type fakeEngine struct {
	name  string
	class models.OSClass
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Detect(context.Context, string) (models.OSClass, error) {
	f.calls++
	return f.class, f.err
}

func TestOSDetectorFallsThrough(t *testing.T) {
	ttl := &fakeEngine{name: "ttl", err: errors.New("no reply")}
	nmap := &fakeEngine{name: "nmap", class: models.OSWindows}
	d := NewOSDetector(time.Second, logger.Discard(), ttl, nmap)

	assert.Equal(t, models.OSWindows, d.Detect(context.Background(), "10.0.0.1"))
	assert.Equal(t, 1, ttl.calls)
	assert.Equal(t, 1, nmap.calls)
}

func TestOSDetectorStopsAtFirstAnswer(t *testing.T) {
	ttl := &fakeEngine{name: "ttl", class: models.OSUnixLike}
	nmap := &fakeEngine{name: "nmap", class: models.OSWindows}
	d := NewOSDetector(time.Second, logger.Discard(), ttl, nmap)

	assert.Equal(t, models.OSUnixLike, d.Detect(context.Background(), "10.0.0.1"))
	assert.Equal(t, 0, nmap.calls)
}

func TestOSDetectorUnknownWhenNothingAnswers(t *testing.T) {
	d := NewOSDetector(time.Second, logger.Discard(), &fakeEngine{name: "a", class: models.OSUnknown})
	assert.Equal(t, models.OSUnknown, d.Detect(context.Background(), "10.0.0.1"))
}

const nmapSV = `Starting Nmap 7.94 ( https://nmap.org )
PORT     STATE  SERVICE VERSION
22/tcp   open   ssh     OpenSSH 8.9p1 Ubuntu 3ubuntu0.1 (Ubuntu Linux; protocol 2.0)
80/tcp   open   http    nginx 1.18.0
443/tcp  closed https
631/tcp  open   ipp     CUPS 2.4
9100/tcp open   jetdirect?
Service Info: Device: printer
`

func TestParseServiceScan(t *testing.T) {
	sum := parseServiceScan(nmapSV)
	require.Len(t, sum.Services, models.MaxServices)
	assert.Equal(t, "ssh OpenSSH 8.9p1 Ubuntu 3ubuntu0.1 (Ubu", sum.Services[0])
	assert.Equal(t, "http nginx 1.18.0", sum.Services[1])
	assert.Equal(t, "ipp CUPS 2.4", sum.Services[2])
	assert.Equal(t, "Printer", sum.DeviceType)
}

func TestParseServiceScanEmpty(t *testing.T) {
	sum := parseServiceScan("")
	assert.Empty(t, sum.Services)
	assert.Equal(t, models.Unknown, sum.DeviceType)

	// "nas" only counts as a word
	assert.Equal(t, models.Unknown, parseServiceScan("80/tcp open http dynastic-web\n").DeviceType)
}

func TestServiceScannerRunsNmap(t *testing.T) {
	var args []string
	runner := tools.RunnerFunc(func(_ context.Context, name string, a ...string) (string, error) {
		assert.Equal(t, "nmap", name)
		args = a
		return "554/tcp open rtsp\n", nil
	})
	sum := NewServiceScanner(runner, time.Second, logger.Discard()).Summarize(context.Background(), "10.0.0.8")
	assert.Equal(t, []string{"-sV", "--version-intensity", "5", "-n", "10.0.0.8"}, args)
	assert.Equal(t, "IP Camera", sum.DeviceType)
}

func TestFromConfigHonoursNmapSwitch(t *testing.T) {
	called := false
	runner := tools.RunnerFunc(func(context.Context, string, ...string) (string, error) {
		called = true
		return "", nil
	})
	det, svc := FromConfig(config.FingerprintConfig{Nmap: false}, runner, logger.Discard())
	assert.Len(t, det.engines, 1)
	assert.Equal(t, models.Unknown, svc.Summarize(context.Background(), "10.0.0.8").DeviceType)
	assert.False(t, called)

	det, _ = FromConfig(config.FingerprintConfig{Nmap: true}, runner, logger.Discard())
	assert.Len(t, det.engines, 2)
}

func TestNmapEngineKeepsItsOwnBudget(t *testing.T) {
	var left time.Duration
	runner := tools.RunnerFunc(func(ctx context.Context, _ string, _ ...string) (string, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		left = time.Until(deadline)
		return "Running: Microsoft Windows 10\n", nil
	})
	ttl := &fakeEngine{name: "ttl", err: errors.New("no reply")}
	d := NewOSDetector(10*time.Millisecond, logger.Discard(), ttl, NmapOSEngine{Runner: runner, Timeout: 5 * time.Second})

	assert.Equal(t, models.OSWindows, d.Detect(context.Background(), "10.0.0.1"))
	assert.Greater(t, left, time.Second)
}

func TestNmapEngineBudgetDefault(t *testing.T) {
	assert.Equal(t, DefaultNmapOSTimeout, NmapOSEngine{}.Budget())
	assert.Equal(t, 3*time.Second, NmapOSEngine{Timeout: 3 * time.Second}.Budget())

	det, _ := FromConfig(config.FingerprintConfig{Nmap: true, NmapOSTimeout: 7 * time.Second}, tools.Exec{}, logger.Discard())
	assert.Equal(t, 7*time.Second, det.budget(det.engines[1]))
	assert.Equal(t, 2*time.Second, det.budget(det.engines[0]))
}
