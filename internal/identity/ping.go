package identity

import (
	"context"
	"regexp"
	"runtime"

	"github.com/cockroachdb/errors"

	"netsweep/internal/tools"
)

var (
	winPingName  = regexp.MustCompile(`Pinging ([^\s\[]+) \[`)
	unixPingName = regexp.MustCompile(`from ([a-zA-Z0-9\-_.]+)`)
)

// PingBanner reads the name the system ping prints in its echo banner.
type PingBanner struct {
	Runner tools.Runner
	// GOOS selects the ping syntax, runtime.GOOS when empty.
	GOOS string
}

func (PingBanner) Name() string { return "ping-banner" }

func (s PingBanner) Lookup(ctx context.Context, ip string) (string, error) {
	goos := s.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	var args []string
	if goos == "windows" {
		args = []string{"-a", "-n", "1", "-w", "1000", ip}
	} else {
		args = []string{"-c", "1", "-W", "1", ip}
	}

	out, err := s.Runner.Run(ctx, "ping", args...)
	if name := parsePingBanner(out, ip, goos); name != "" {
		return name, nil
	}
	if err == nil {
		err = errors.New("no name in ping output")
	}
	return "", err
}

func parsePingBanner(out, ip, goos string) string {
	re := unixPingName
	if goos == "windows" {
		re = winPingName
	}
	for _, line := range tools.Lines(out) {
		m := re.FindStringSubmatch(line)
		if len(m) < 2 {
			continue
		}
		if name := m[1]; name != ip {
			return shortName(name)
		}
	}
	return ""
}
