package fingerprint

import (
	"github.com/sirupsen/logrus"

	"netsweep/internal/config"
	"netsweep/internal/tools"
)

// FromConfig builds the OS detector (TTL first, nmap when enabled) and the
// service scanner. With nmap disabled the scanner returns empty summaries.
func FromConfig(cfg config.FingerprintConfig, runner tools.Runner, log logrus.FieldLogger) (*OSDetector, *ServiceScanner) {
	if runner == nil {
		runner = tools.Exec{}
	}
	engines := []OSEngine{TTLEngine{Privileged: cfg.Privileged}}
	if cfg.Nmap {
		engines = append(engines, NmapOSEngine{Runner: runner, Timeout: cfg.NmapOSTimeout})
	}
	svc := NewServiceScanner(runner, cfg.ServiceTimeout, log)
	svc.enabled = cfg.Nmap
	return NewOSDetector(cfg.OSTimeout, log, engines...), svc
}
