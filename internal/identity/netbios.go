package identity

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"netsweep/internal/tools"
)

// NetBIOSTools asks the Samba helpers for the host's NetBIOS name:
// nmblookup first, nbtscan when that yields nothing.
type NetBIOSTools struct {
	Runner tools.Runner
}

func (NetBIOSTools) Name() string { return "netbios-tools" }

// Lookup gives nmblookup half of the remaining budget so a hung call still
// leaves nbtscan time to answer.
func (s NetBIOSTools) Lookup(ctx context.Context, ip string) (string, error) {
	first, cancel := halfBudget(ctx)
	out, err := s.Runner.Run(first, "nmblookup", "-A", ip)
	cancel()
	if name := parseNmblookup(out, ip); name != "" {
		return name, nil
	}
	errs := err

	out, err = s.Runner.Run(ctx, "nbtscan", "-r", ip)
	if name := parseNbtscan(out, ip); name != "" {
		return name, nil
	}
	errs = errors.CombineErrors(errs, err)
	if errs == nil {
		errs = errors.New("no NetBIOS name in tool output")
	}
	return "", errs
}

func halfBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Until(deadline)/2)
}

// parseNmblookup picks the unique workstation (<00>) entry.
//
//	Looking up status of 192.168.1.10
//		DESKTOP-1       <00> -         B <ACTIVE>
//		WORKGROUP       <00> - <GROUP> B <ACTIVE>
func parseNmblookup(out, ip string) string {
	for _, line := range tools.Lines(out) {
		if !strings.Contains(line, "<00>") || strings.Contains(line, "<GROUP>") || strings.Contains(line, "Looking up") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if name != ip && !strings.HasPrefix(name, "..") {
			return name
		}
	}
	return ""
}

// parseNbtscan reads the name column of the row for ip. The banner, the
// column header and the separator never start with the address.
//
//	Doing NBT name scan for addresses from 192.168.1.10
//
//	IP address       NetBIOS Name     Server    User             MAC address
//	------------------------------------------------------------------------------
//	192.168.1.10    DESKTOP-1        <server>  <unknown>  00:11:22:33:44:55
func parseNbtscan(out, ip string) string {
	for _, line := range tools.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != ip {
			continue
		}
		name := fields[1]
		if name == "Sendto" || name == ip || strings.HasPrefix(name, "<") {
			continue
		}
		return name
	}
	return ""
}
