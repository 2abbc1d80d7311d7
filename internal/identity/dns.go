package identity

import (
	"context"
	"net"
	"strings"

	"github.com/cockroachdb/errors"
)

// ReverseDNS names a host from its PTR record using the system resolver.
type ReverseDNS struct {
	Resolver *net.Resolver
}

func (ReverseDNS) Name() string { return "reverse-dns" }

func (s ReverseDNS) Lookup(ctx context.Context, ip string) (string, error) {
	res := s.Resolver
	if res == nil {
		res = net.DefaultResolver
	}
	names, err := res.LookupAddr(ctx, ip)
	if err != nil {
		return "", errors.Wrap(err, "reverse lookup")
	}
	for _, n := range names {
		n = strings.TrimSuffix(n, ".")
		if n != "" && n != ip && strings.Contains(n, ".") {
			return shortName(n), nil
		}
	}
	return "", errors.New("no usable PTR record")
}
