package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsweep/internal/logger"
	"netsweep/internal/tools"
)

const nmblookupOut = `Looking up status of 192.168.1.10
	DESKTOP-1       <00> -         B <ACTIVE>
	WORKGROUP       <00> - <GROUP> B <ACTIVE>
	DESKTOP-1       <20> -         B <ACTIVE>

	MAC Address = 00-11-22-33-44-55
`

func TestParseNmblookup(t *testing.T) {
	assert.Equal(t, "DESKTOP-1", parseNmblookup(nmblookupOut, "192.168.1.10"))
	assert.Empty(t, parseNmblookup("No reply from 192.168.1.10", "192.168.1.10"))
}

const nbtscanBanner = "Doing NBT name scan for addresses from 192.168.1.10\n\n"

const nbtscanOut = nbtscanBanner +
	"IP address       NetBIOS Name     Server    User             MAC address\n" +
	"------------------------------------------------------------------------------\n" +
	"192.168.1.10    DESKTOP-1        <server>  <unknown>  00:11:22:33:44:55\n"

func TestParseNbtscan(t *testing.T) {
	assert.Equal(t, "DESKTOP-1", parseNbtscan(nbtscanOut, "192.168.1.10"))
	assert.Empty(t, parseNbtscan(nbtscanBanner, "192.168.1.10"))
	assert.Empty(t, parseNbtscan("192.168.1.10 Sendto failed", "192.168.1.10"))
	assert.Empty(t, parseNbtscan("192.168.1.10    <unknown>\n", "192.168.1.10"))
	assert.Empty(t, parseNbtscan("192.168.1.100   OTHER-HOST   <server>\n", "192.168.1.10"))
}

func TestSilentNbtscanFallsThroughToLaterStrategies(t *testing.T) {
	runner := tools.RunnerFunc(func(_ context.Context, name string, _ ...string) (string, error) {
		if name == "nbtscan" {
			return nbtscanBanner, nil
		}
		return "", errors.New(name + " failed")
	})
	later := &fakeStrategy{name: "later", out: "real-name"}
	r := NewResolver(time.Second, logger.Discard(), NetBIOSTools{Runner: runner}, later)

	assert.Equal(t, "real-name", r.Resolve(context.Background(), "192.168.1.10"))
	assert.EqualValues(t, 1, later.calls)
}

func TestHungNmblookupLeavesTimeForNbtscan(t *testing.T) {
	runner := tools.RunnerFunc(func(ctx context.Context, name string, _ ...string) (string, error) {
		if name == "nmblookup" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return nbtscanOut, nil
	})
	r := NewResolver(200*time.Millisecond, logger.Discard(), NetBIOSTools{Runner: runner})

	assert.Equal(t, "DESKTOP-1", r.Resolve(context.Background(), "192.168.1.10"))
}

func TestParseSMBClient(t *testing.T) {
	assert.Equal(t, "FILESRV", parseSMBClient("Domain=[WORKGROUP] OS=[Unix] Server=[FILESRV]", "10.0.0.2"))
	assert.Equal(t, "FILESRV", parseSMBClient("Server=FILESRV OS=Unix", "10.0.0.2"))
	assert.Empty(t, parseSMBClient("session setup failed", "10.0.0.2"))
}

func TestParsePingBanner(t *testing.T) {
	unix := "PING laptop.lan (192.168.1.7) 56(84) bytes of data.\n64 bytes from laptop.lan (192.168.1.7): icmp_seq=1 ttl=64 time=0.3 ms\n"
	assert.Equal(t, "laptop", parsePingBanner(unix, "192.168.1.7", "linux"))

	bare := "64 bytes from 192.168.1.7: icmp_seq=1 ttl=64 time=0.3 ms\n"
	assert.Empty(t, parsePingBanner(bare, "192.168.1.7", "linux"))

	win := "Pinging DESKTOP-9.home [192.168.1.9] with 32 bytes of data:\n"
	assert.Equal(t, "DESKTOP-9", parsePingBanner(win, "192.168.1.9", "windows"))
}

func TestNetBIOSToolsFallsBackToNbtscan(t *testing.T) {
	var seen []string
	runner := tools.RunnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		seen = append(seen, name)
		if name == "nmblookup" {
			return "", errors.New("not installed")
		}
		return "192.168.1.10    DESKTOP-1   <server>\n", nil
	})

	name, err := NetBIOSTools{Runner: runner}.Lookup(context.Background(), "192.168.1.10")
	require.NoError(t, err)
	assert.Equal(t, "DESKTOP-1", name)
	assert.Equal(t, []string{"nmblookup", "nbtscan"}, seen)
}

func TestNetBIOSToolsReportsBothFailures(t *testing.T) {
	runner := tools.RunnerFunc(func(_ context.Context, name string, _ ...string) (string, error) {
		return "", errors.New(name + " failed")
	})
	_, err := NetBIOSTools{Runner: runner}.Lookup(context.Background(), "192.168.1.10")
	require.Error(t, err)
}

func TestPingBannerArgsPerPlatform(t *testing.T) {
	var got []string
	runner := tools.RunnerFunc(func(_ context.Context, _ string, args ...string) (string, error) {
		got = args
		return "", nil
	})

	_, _ = PingBanner{Runner: runner, GOOS: "windows"}.Lookup(context.Background(), "10.0.0.1")
	assert.Equal(t, []string{"-a", "-n", "1", "-w", "1000", "10.0.0.1"}, got)

	_, _ = PingBanner{Runner: runner, GOOS: "linux"}.Lookup(context.Background(), "10.0.0.1")
	assert.Equal(t, []string{"-c", "1", "-W", "1", "10.0.0.1"}, got)
}
