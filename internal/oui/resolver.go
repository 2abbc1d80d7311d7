package oui

import (
	"context"
	"time"

	"github.com/projectdiscovery/gcache"
	"github.com/sirupsen/logrus"

	"netsweep/internal/config"
	"netsweep/internal/logger"
	"netsweep/internal/models"
	"netsweep/internal/tools"
)

// Resolver walks its sources in order and caches the answer per prefix.
type Resolver struct {
	sources []Source
	timeout time.Duration
	cache   gcache.Cache[string, string]
	log     logrus.FieldLogger
}

// NewResolver builds a resolver over sources. cacheSize <= 0 uses 1024.
func NewResolver(sources []Source, timeout time.Duration, cacheSize int, log logrus.FieldLogger) *Resolver {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{
		sources: sources,
		timeout: timeout,
		cache: gcache.New[string, string](cacheSize).
			LRU().
			Expiration(time.Hour).
			Build(),
		log: logger.Or(log),
	}
}

// FromConfig assembles the standard chain: static table, OUI files, the
// ieee-oui tool and, unless disabled, the online APIs.
func FromConfig(cfg config.VendorConfig, runner tools.Runner, log logrus.FieldLogger) *Resolver {
	if runner == nil {
		runner = tools.Exec{}
	}
	sources := []Source{
		Static{},
		&Files{Paths: cfg.OUIFiles},
		IEEETool{Runner: runner},
	}
	if cfg.Online {
		sources = append(sources, Online{})
	}
	return NewResolver(sources, cfg.Timeout, cfg.CacheSize, log)
}

// Lookup returns the manufacturer of mac, or models.Unknown. It never fails.
func (r *Resolver) Lookup(ctx context.Context, mac string) string {
	prefix, ok := Prefix(mac)
	if !ok {
		return models.Unknown
	}
	if v, err := r.cache.Get(prefix); err == nil {
		return v
	}

	vendor := models.Unknown
	for _, s := range r.sources {
		if ctx.Err() != nil {
			return models.Unknown
		}
		v, err := r.query(ctx, s, prefix, mac)
		if err != nil {
			r.log.WithFields(logrus.Fields{"mac": mac, "source": s.Name()}).WithError(err).Debug("vendor source missed")
			continue
		}
		vendor = v
		break
	}
	_ = r.cache.Set(prefix, vendor)
	return vendor
}

func (r *Resolver) query(ctx context.Context, s Source, prefix, mac string) (v string, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			v, err = "", errNotFound
		}
	}()
	v, err = s.Vendor(ctx, prefix, mac)
	if err == nil && (v == "" || v == models.Unknown) {
		err = errNotFound
	}
	return v, err
}
