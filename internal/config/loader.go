package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, NETSWEEP_SCAN_RANGE
// and so on.
const EnvPrefix = "NETSWEEP"

// Load reads configuration from defaults, an optional file, and the
// environment, in increasing priority. Flags bound on v win over all three.
// An empty path searches ./, ./configs and $HOME/.netsweep for netsweep.yaml.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("netsweep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".netsweep"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file_path", d.Log.FilePath)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
	v.SetDefault("log.caller", d.Log.Caller)

	v.SetDefault("scan.interface", d.Scan.Interface)
	v.SetDefault("scan.range", d.Scan.Range)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.discovery_timeout", d.Scan.DiscoveryTimeout)
	v.SetDefault("scan.retries", d.Scan.Retries)
	v.SetDefault("scan.rate_limit", d.Scan.RateLimit)
	v.SetDefault("scan.aggressive", d.Scan.Aggressive)
	v.SetDefault("scan.delay", d.Scan.Delay)

	v.SetDefault("probe.fast_timeout", d.Probe.FastTimeout)
	v.SetDefault("probe.fast_concurrency", d.Probe.FastConcurrency)
	v.SetDefault("probe.aggressive_timeout", d.Probe.AggressiveTimeout)
	v.SetDefault("probe.aggressive_concurrency", d.Probe.AggressiveConcurrency)

	v.SetDefault("identity.timeout", d.Identity.Timeout)
	v.SetDefault("identity.snmp_community", d.Identity.SNMPCommunity)
	v.SetDefault("identity.disabled", d.Identity.Disabled)

	v.SetDefault("vendor.online", d.Vendor.Online)
	v.SetDefault("vendor.timeout", d.Vendor.Timeout)
	v.SetDefault("vendor.cache_size", d.Vendor.CacheSize)
	v.SetDefault("vendor.oui_files", d.Vendor.OUIFiles)

	v.SetDefault("fingerprint.nmap", d.Fingerprint.Nmap)
	v.SetDefault("fingerprint.os_timeout", d.Fingerprint.OSTimeout)
	v.SetDefault("fingerprint.nmap_os_timeout", d.Fingerprint.NmapOSTimeout)
	v.SetDefault("fingerprint.service_timeout", d.Fingerprint.ServiceTimeout)
	v.SetDefault("fingerprint.privileged", d.Fingerprint.Privileged)

	v.SetDefault("monitor.interval", d.Monitor.Interval)

	v.SetDefault("stealth.interface", d.Stealth.Interface)
	v.SetDefault("stealth.delay", d.Stealth.Delay)
}
