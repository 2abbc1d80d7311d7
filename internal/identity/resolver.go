// Package identity resolves a display name for a host by trying several
// naming strategies in a fixed order.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"netsweep/internal/logger"
	"netsweep/internal/models"
)

// DefaultTimeout bounds each strategy.
const DefaultTimeout = 2 * time.Second

// Strategy is one way of naming a host.
type Strategy interface {
	Name() string
	Lookup(ctx context.Context, ip string) (string, error)
}

// Resolver runs strategies in order and stops at the first usable name.
type Resolver struct {
	strategies []Strategy
	timeout    time.Duration
	log        logrus.FieldLogger
}

// NewResolver builds a resolver. A non-positive timeout uses DefaultTimeout.
func NewResolver(timeout time.Duration, log logrus.FieldLogger, strategies ...Strategy) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{strategies: strategies, timeout: timeout, log: logger.Or(log)}
}

// Strategies lists the strategy names in evaluation order.
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the first non-empty name that is not the address itself,
// or models.Unknown when every strategy fails.
func (r *Resolver) Resolve(ctx context.Context, ip string) string {
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			break
		}
		name, err := r.try(ctx, s, ip)
		entry := r.log.WithFields(logrus.Fields{"ip": ip, "strategy": s.Name()})
		if err != nil {
			entry.WithError(err).Debug("name strategy failed")
			continue
		}
		if name = clean(name, ip); name != "" {
			entry.WithField("name", name).Debug("name resolved")
			return name
		}
	}
	return models.Unknown
}

func (r *Resolver) try(ctx context.Context, s Strategy, ip string) (name string, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- result{err: fmt.Errorf("strategy panicked: %v", p)}
			}
		}()
		n, err := s.Lookup(ctx, ip)
		ch <- result{n, err}
	}()

	select {
	case res := <-ch:
		return res.name, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func clean(name, ip string) string {
	name = strings.TrimSpace(strings.Trim(name, "\x00"))
	name = strings.TrimSuffix(name, ".")
	if name == "" || name == ip {
		return ""
	}
	return name
}

// shortName keeps the host label of a fully qualified name.
func shortName(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
