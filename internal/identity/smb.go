package identity

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"netsweep/internal/tools"
)

// SMBBanner reads the server name smbclient prints during an anonymous
// session setup.
type SMBBanner struct {
	Runner tools.Runner
}

func (SMBBanner) Name() string { return "smb-banner" }

func (s SMBBanner) Lookup(ctx context.Context, ip string) (string, error) {
	out, err := s.Runner.Run(ctx, "smbclient", "-L", ip, "-N")
	if name := parseSMBClient(out, ip); name != "" {
		return name, nil
	}
	if err == nil {
		err = errors.New("no Server= field in smbclient output")
	}
	return "", err
}

// parseSMBClient handles both "Server=[NAME]" and "Server=NAME".
func parseSMBClient(out, ip string) string {
	for _, line := range tools.Lines(out) {
		_, after, ok := strings.Cut(line, "Server=")
		if !ok {
			continue
		}
		fields := strings.Fields(after)
		if len(fields) == 0 {
			continue
		}
		name := strings.Trim(fields[0], "[]")
		if name != "" && name != ip {
			return name
		}
	}
	return ""
}
