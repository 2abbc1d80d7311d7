package config

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Config is the full runtime configuration of netsweep.
type Config struct {
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Scan        ScanConfig        `mapstructure:"scan" yaml:"scan"`
	Probe       ProbeConfig       `mapstructure:"probe" yaml:"probe"`
	Identity    IdentityConfig    `mapstructure:"identity" yaml:"identity"`
	Vendor      VendorConfig      `mapstructure:"vendor" yaml:"vendor"`
	Fingerprint FingerprintConfig `mapstructure:"fingerprint" yaml:"fingerprint"`
	Monitor     MonitorConfig     `mapstructure:"monitor" yaml:"monitor"`
	Stealth     StealthConfig     `mapstructure:"stealth" yaml:"stealth"`
}

// LogConfig controls the logrus setup.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // text or json
	Output     string `mapstructure:"output" yaml:"output"` // stdout, stderr or file
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Caller     bool   `mapstructure:"caller" yaml:"caller"`
}

// ScanConfig drives discovery and the sweep pool.
type ScanConfig struct {
	Interface        string        `mapstructure:"interface" yaml:"interface"`
	Range            string        `mapstructure:"range" yaml:"range"`
	Workers          int           `mapstructure:"workers" yaml:"workers"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout" yaml:"discovery_timeout"`
	Retries          int           `mapstructure:"retries" yaml:"retries"`
	RateLimit        time.Duration `mapstructure:"rate_limit" yaml:"rate_limit"`
	Aggressive       bool          `mapstructure:"aggressive" yaml:"aggressive"`
	Delay            time.Duration `mapstructure:"delay" yaml:"delay"`
}

// ProbeConfig holds the two port-probing profiles.
type ProbeConfig struct {
	FastTimeout           time.Duration `mapstructure:"fast_timeout" yaml:"fast_timeout"`
	FastConcurrency       int           `mapstructure:"fast_concurrency" yaml:"fast_concurrency"`
	AggressiveTimeout     time.Duration `mapstructure:"aggressive_timeout" yaml:"aggressive_timeout"`
	AggressiveConcurrency int           `mapstructure:"aggressive_concurrency" yaml:"aggressive_concurrency"`
}

// IdentityConfig tunes the hostname strategies.
type IdentityConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SNMPCommunity string        `mapstructure:"snmp_community" yaml:"snmp_community"`
	Disabled      []string      `mapstructure:"disabled" yaml:"disabled"`
}

// VendorConfig tunes the hardware vendor lookup.
type VendorConfig struct {
	Online    bool          `mapstructure:"online" yaml:"online"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheSize int           `mapstructure:"cache_size" yaml:"cache_size"`
	OUIFiles  []string      `mapstructure:"oui_files" yaml:"oui_files"`
}

// FingerprintConfig tunes OS and service detection.
type FingerprintConfig struct {
	Nmap           bool          `mapstructure:"nmap" yaml:"nmap"`
	OSTimeout      time.Duration `mapstructure:"os_timeout" yaml:"os_timeout"`
	NmapOSTimeout  time.Duration `mapstructure:"nmap_os_timeout" yaml:"nmap_os_timeout"`
	ServiceTimeout time.Duration `mapstructure:"service_timeout" yaml:"service_timeout"`
	Privileged     bool          `mapstructure:"privileged" yaml:"privileged"`
}

// MonitorConfig drives the population monitor loop.
type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// StealthConfig drives identity masking.
type StealthConfig struct {
	Interface string        `mapstructure:"interface" yaml:"interface"`
	Delay     time.Duration `mapstructure:"delay" yaml:"delay"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Scan: ScanConfig{
			Workers:          10,
			DiscoveryTimeout: 3 * time.Second,
			Retries:          2,
			RateLimit:        50 * time.Microsecond,
		},
		Probe: ProbeConfig{
			FastTimeout:           300 * time.Millisecond,
			FastConcurrency:       20,
			AggressiveTimeout:     200 * time.Millisecond,
			AggressiveConcurrency: 50,
		},
		Identity: IdentityConfig{
			Timeout:       2 * time.Second,
			SNMPCommunity: "public",
		},
		Vendor: VendorConfig{
			Online:    true,
			Timeout:   2 * time.Second,
			CacheSize: 4096,
			OUIFiles: []string{
				"/usr/share/ieee-data/oui.txt",
				"/usr/share/nmap/nmap-mac-prefixes",
			},
		},
		Fingerprint: FingerprintConfig{
			Nmap:           true,
			OSTimeout:      2 * time.Second,
			NmapOSTimeout:  10 * time.Second,
			ServiceTimeout: 15 * time.Second,
			Privileged:     true,
		},
		Monitor: MonitorConfig{
			Interval: 15 * time.Second,
		},
		Stealth: StealthConfig{
			Interface: "eth0",
			Delay:     500 * time.Millisecond,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Scan.Workers <= 0 {
		return errors.Newf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Scan.DiscoveryTimeout <= 0 {
		return errors.New("scan.discovery_timeout must be positive")
	}
	if c.Scan.Retries < 0 {
		return errors.Newf("scan.retries must not be negative, got %d", c.Scan.Retries)
	}
	if c.Scan.Delay < 0 {
		return errors.New("scan.delay must not be negative")
	}
	if c.Probe.FastConcurrency <= 0 || c.Probe.AggressiveConcurrency <= 0 {
		return errors.New("probe concurrency must be positive")
	}
	if c.Probe.FastTimeout <= 0 || c.Probe.AggressiveTimeout <= 0 {
		return errors.New("probe timeouts must be positive")
	}
	if c.Identity.Timeout < time.Second || c.Identity.Timeout > 3*time.Second {
		return errors.Newf("identity.timeout must be between 1s and 3s, got %s", c.Identity.Timeout)
	}
	if c.Monitor.Interval <= 0 {
		return errors.New("monitor.interval must be positive")
	}
	switch c.Log.Output {
	case "stdout", "stderr":
	case "file":
		if c.Log.FilePath == "" {
			return errors.New("log.file_path is required when log.output is file")
		}
	default:
		return errors.Newf("unsupported log output %q", c.Log.Output)
	}
	return nil
}
