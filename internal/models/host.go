package models

import (
	"net"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Unknown is the placeholder used for any identity field that could not be
// resolved.
const Unknown = "Unknown"

// MaxServices caps HostRecord.Services.
const MaxServices = 3

// OSClass is the coarse operating-system family inferred for a host.
type OSClass string

const (
	OSWindows       OSClass = "Windows"
	OSUnixLike      OSClass = "Unix-like"
	OSNetworkDevice OSClass = "NetworkDevice"
	OSUnknown       OSClass = "Unknown"
)

// ParseOSClass maps free text onto an OSClass. Anything unrecognised is
// OSUnknown.
func ParseOSClass(s string) OSClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows":
		return OSWindows
	case "unix-like", "unix", "linux", "linux/unix":
		return OSUnixLike
	case "networkdevice", "network device", "router", "router/network device":
		return OSNetworkDevice
	default:
		return OSUnknown
	}
}

// RiskTier orders exposure ratings, Low < High < Critical.
type RiskTier int

const (
	TierLow RiskTier = iota
	TierHigh
	TierCritical
)

func (t RiskTier) String() string {
	switch t {
	case TierHigh:
		return "High"
	case TierCritical:
		return "Critical"
	default:
		return "Low"
	}
}

// Max returns the higher of the two tiers.
func (t RiskTier) Max(other RiskTier) RiskTier {
	if other > t {
		return other
	}
	return t
}

func (t RiskTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *RiskTier) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "low":
		*t = TierLow
	case "high":
		*t = TierHigh
	case "critical":
		*t = TierCritical
	default:
		return errors.Newf("unknown risk tier %q", string(text))
	}
	return nil
}

// HostRecord is everything learned about one discovered host. Records are
// built once by the enricher and only read afterwards.
type HostRecord struct {
	IP         string    `json:"ip" yaml:"ip"`
	MAC        string    `json:"mac" yaml:"mac"`
	Hostname   string    `json:"hostname" yaml:"hostname"`
	Vendor     string    `json:"vendor" yaml:"vendor"`
	Ports      PortSet   `json:"ports" yaml:"ports"`
	OS         OSClass   `json:"os" yaml:"os"`
	Risk       string    `json:"risk" yaml:"risk"`
	Tier       RiskTier  `json:"tier" yaml:"tier"`
	Services   []string  `json:"services" yaml:"services"`
	DeviceType string    `json:"device_type" yaml:"device_type"`
	SeenAt     time.Time `json:"seen_at" yaml:"seen_at"`
}

// NewHostRecord normalises the fields of a record: canonical MAC, defaults
// for empty identity fields, and the services cap.
func NewHostRecord(r HostRecord) HostRecord {
	r.IP = strings.TrimSpace(r.IP)
	r.MAC = CanonicalMAC(r.MAC)
	if strings.TrimSpace(r.Hostname) == "" {
		r.Hostname = Unknown
	}
	if strings.TrimSpace(r.Vendor) == "" {
		r.Vendor = Unknown
	}
	if r.OS == "" {
		r.OS = OSUnknown
	}
	if r.DeviceType == "" {
		r.DeviceType = Unknown
	}
	if len(r.Services) > MaxServices {
		r.Services = r.Services[:MaxServices]
	}
	services := make([]string, len(r.Services))
	copy(services, r.Services)
	r.Services = services
	return r
}

// ServiceSummary joins the services the way the console shows them.
func (h HostRecord) ServiceSummary() string {
	if len(h.Services) == 0 {
		return "N/A"
	}
	return strings.Join(h.Services, ", ")
}

// Key identifies the record inside a population: the address.
func (h HostRecord) Key() string {
	return h.IP
}

// CanonicalMAC renders a hardware address as lower-case, colon-delimited
// octets. Unparseable input is returned trimmed and lower-cased so the
// record still carries whatever the collaborator supplied.
func CanonicalMAC(mac string) string {
	mac = strings.TrimSpace(mac)
	if mac == "" {
		return ""
	}
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return strings.ToLower(mac)
	}
	return hw.String()
}
