package fingerprint

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/tools"
)

// Summary is the service view of a host.
type Summary struct {
	Services   []string
	DeviceType string
}

const maxServiceLen = 40

var deviceTypes = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Printer", regexp.MustCompile(`\b(printer|ipp|jetdirect)\b`)},
	{"Router/Gateway", regexp.MustCompile(`\b(router|gateway)\b`)},
	{"IP Camera", regexp.MustCompile(`\b(camera|rtsp)\b`)},
	{"NAS/Storage", regexp.MustCompile(`\b(nas|storage)\b`)},
}

// ServiceScanner summarizes the services nmap's version detection finds.
type ServiceScanner struct {
	runner  tools.Runner
	timeout time.Duration
	enabled bool
	log     logrus.FieldLogger
}

// NewServiceScanner bounds each scan by timeout (15s when non-positive).
func NewServiceScanner(runner tools.Runner, timeout time.Duration, log logrus.FieldLogger) *ServiceScanner {
	if runner == nil {
		runner = tools.Exec{}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ServiceScanner{runner: runner, timeout: timeout, enabled: true, log: logger.Or(log)}
}

// Summarize never fails; an empty Summary has DeviceType Unknown.
func (s *ServiceScanner) Summarize(ctx context.Context, ip string) Summary {
	if !s.enabled {
		return Summary{DeviceType: models.Unknown}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.runner.Run(ctx, "nmap", "-sV", "--version-intensity", "5", "-n", ip)
	if err != nil {
		s.log.WithField("ip", ip).WithError(err).Debug("service scan failed")
	}
	return parseServiceScan(out)
}

// parseServiceScan collects open tcp rows and guesses the device type from
// the whole report.
//
//	22/tcp open  ssh     OpenSSH 8.9p1 Ubuntu 3ubuntu0.1
//	631/tcp open ipp     CUPS 2.4
func parseServiceScan(out string) Summary {
	sum := Summary{DeviceType: models.Unknown}
	for _, line := range tools.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) < 3 || !strings.Contains(fields[0], "/tcp") || fields[1] != "open" {
			continue
		}
		svc := strings.Join(fields[2:], " ")
		if len(svc) > maxServiceLen {
			svc = svc[:maxServiceLen]
		}
		if len(sum.Services) < models.MaxServices {
			sum.Services = append(sum.Services, svc)
		}
	}

	lower := strings.ToLower(out)
	for _, d := range deviceTypes {
		if d.re.MatchString(lower) {
			sum.DeviceType = d.name
			break
		}
	}
	return sum
}
