package analysis

import (
	"strings"

	"netsweep/internal/models"
)

// Rule is one entry of the exposure table: when Match holds, Finding is
// added to the narrative and the tier is raised to at least Tier.
type Rule struct {
	ID      string
	Tier    models.RiskTier
	Finding string
	Match   func(ports models.PortSet, os models.OSClass) bool
}

// Assessment is the classifier output for one host.
type Assessment struct {
	Narrative string
	Tier      models.RiskTier
	Findings  []string
}

const (
	noExposureFinding = "No open ports, firewall active or host offline"
	noFindingFinding  = "No major vulnerabilities detected"
)

func anyPort(ports ...int) func(models.PortSet, models.OSClass) bool {
	return func(s models.PortSet, _ models.OSClass) bool { return s.ContainsAny(ports...) }
}

func onWindows(ports ...int) func(models.PortSet, models.OSClass) bool {
	return func(s models.PortSet, os models.OSClass) bool {
		return os == models.OSWindows && s.ContainsAny(ports...)
	}
}

// rules is evaluated top to bottom.
var rules = []Rule{
	{ID: "smb", Tier: models.TierCritical, Finding: "SMB/NetBIOS open, EternalBlue/SMBGhost risk", Match: anyPort(445, 139)},
	{ID: "rdp", Tier: models.TierHigh, Finding: "RDP exposed, brute force target", Match: anyPort(3389)},
	{ID: "ssh", Tier: models.TierLow, Finding: "SSH open, ensure key-based auth", Match: anyPort(22)},
	{ID: "telnet", Tier: models.TierCritical, Finding: "Telnet detected, unencrypted protocol", Match: anyPort(23)},
	{ID: "ftp", Tier: models.TierLow, Finding: "FTP open, check for anonymous access", Match: anyPort(21)},
	{ID: "mysql", Tier: models.TierLow, Finding: "MySQL exposed, restrict access", Match: anyPort(3306)},
	{ID: "postgres", Tier: models.TierLow, Finding: "PostgreSQL open, verify permissions", Match: anyPort(5432)},
	{ID: "plain-http", Tier: models.TierLow, Finding: "HTTP only, no HTTPS encryption", Match: func(s models.PortSet, _ models.OSClass) bool {
		return s.Contains(80) && !s.Contains(443)
	}},
	{ID: "alt-web", Tier: models.TierLow, Finding: "Alt web port detected, admin panel?", Match: anyPort(8080, 8443)},
	{ID: "vnc", Tier: models.TierCritical, Finding: "VNC exposed, screen sharing vulnerability", Match: anyPort(5900)},
	{ID: "win-rpc", Tier: models.TierLow, Finding: "RPC open, potential attack vector", Match: onWindows(135)},
	{ID: "win-rm", Tier: models.TierLow, Finding: "WinRM detected, PowerShell remoting", Match: onWindows(5985, 5986)},
}

// Rules returns a copy of the rule table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify rates a host from its open ports and OS class. The tier only ever
// rises while rules are applied, so it is the highest tier of any matching
// rule, Low when nothing matches.
func Classify(ports models.PortSet, os models.OSClass) Assessment {
	if ports.IsEmpty() {
		return newAssessment(models.TierLow, []string{noExposureFinding})
	}

	tier := models.TierLow
	var findings []string
	for _, r := range rules {
		if !r.Match(ports, os) {
			continue
		}
		findings = append(findings, r.Finding)
		tier = tier.Max(r.Tier)
	}
	if len(findings) == 0 {
		findings = []string{noFindingFinding}
	}
	return newAssessment(tier, findings)
}

func newAssessment(tier models.RiskTier, findings []string) Assessment {
	return Assessment{
		Narrative: tier.String() + " | " + strings.Join(findings, " | "),
		Tier:      tier,
		Findings:  findings,
	}
}
