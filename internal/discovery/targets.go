package discovery

import (
	"net"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/projectdiscovery/mapcidr"
)

// Targets expands rng into the IPv4 addresses worth asking. A bare address
// is treated as a /32. For blocks wider than /31 the network and broadcast
// addresses are left out.
func Targets(rng string) ([]net.IP, *net.IPNet, error) {
	rng = strings.TrimSpace(rng)
	if rng == "" {
		return nil, nil, errors.New("empty range")
	}
	if !strings.Contains(rng, "/") {
		rng += "/32"
	}
	_, network, err := net.ParseCIDR(rng)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse range %q", rng)
	}
	if network.IP.To4() == nil {
		return nil, nil, errors.Newf("range %q is not IPv4", rng)
	}

	ips, err := mapcidr.IPAddresses(network.String())
	if err != nil {
		return nil, nil, errors.Wrapf(err, "expand %s", network)
	}
	ones, _ := network.Mask.Size()
	out := make([]net.IP, 0, len(ips))
	for _, s := range ips {
		ip := net.ParseIP(s).To4()
		if ip == nil {
			continue
		}
		if ones < 31 && isNetworkOrBroadcast(ip, network) {
			continue
		}
		out = append(out, ip)
	}
	return out, network, nil
}

func isNetworkOrBroadcast(ip net.IP, network *net.IPNet) bool {
	base := network.IP.To4()
	if ip.Equal(base) {
		return true
	}
	broadcast := make(net.IP, len(base))
	copy(broadcast, base)
	for i := range broadcast {
		broadcast[i] |= ^network.Mask[len(network.Mask)-len(base)+i]
	}
	return ip.Equal(broadcast)
}
