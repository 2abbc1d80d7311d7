package identity

import (
	"strings"

	"netsweep/internal/config"
	"netsweep/internal/tools"
)

// DefaultStrategies returns the strategies in priority order, cheapest and
// most reliable first, minus any named in cfg.Disabled.
func DefaultStrategies(cfg config.IdentityConfig, runner tools.Runner) []Strategy {
	if runner == nil {
		runner = tools.Exec{}
	}
	all := []Strategy{
		ReverseDNS{},
		NetBIOSTools{Runner: runner},
		NBNS{},
		SMBBanner{Runner: runner},
		SNMPSysName{Community: cfg.SNMPCommunity},
		MDNS{},
		PingBanner{Runner: runner},
	}

	disabled := make(map[string]struct{}, len(cfg.Disabled))
	for _, d := range cfg.Disabled {
		disabled[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	out := make([]Strategy, 0, len(all))
	for _, s := range all {
		if _, off := disabled[s.Name()]; off {
			continue
		}
		out = append(out, s)
	}
	return out
}
