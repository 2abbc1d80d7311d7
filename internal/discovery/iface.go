package discovery

import (
	"net"
	"slices"

	"github.com/cockroachdb/errors"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Interface is a local IPv4 attachment point.
type Interface struct {
	Name    string
	IP      net.IP
	Network *net.IPNet
}

// SelectInterface picks the up, non-loopback interface whose subnet holds
// target. A nil target picks the first candidate.
func SelectInterface(target net.IP) (Interface, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return Interface{}, errors.Wrap(err, "list interfaces")
	}
	return pickInterface(stats, target)
}

// LocalRange returns the CIDR of the first usable local IPv4 subnet.
func LocalRange() (string, error) {
	iface, err := SelectInterface(nil)
	if err != nil {
		return "", err
	}
	return iface.Network.String(), nil
}

func pickInterface(stats psnet.InterfaceStatList, target net.IP) (Interface, error) {
	for _, st := range stats {
		if !slices.Contains(st.Flags, "up") || slices.Contains(st.Flags, "loopback") {
			continue
		}
		for _, a := range st.Addrs {
			ip, network, err := net.ParseCIDR(a.Addr)
			if err != nil || ip.To4() == nil {
				continue
			}
			if target != nil && !network.Contains(target) {
				continue
			}
			return Interface{Name: st.Name, IP: ip.To4(), Network: network}, nil
		}
	}
	if target != nil {
		return Interface{}, errors.Newf("no local interface on the subnet of %s", target)
	}
	return Interface{}, errors.New("no usable IPv4 interface")
}

// lookupInterface resolves a configured interface name.
func lookupInterface(name string) (Interface, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return Interface{}, errors.Wrap(err, "list interfaces")
	}
	for _, st := range stats {
		if st.Name != name {
			continue
		}
		named := psnet.InterfaceStatList{st}
		// ignore the up flag for an interface the user asked for
		named[0].Flags = append(slices.Clone(st.Flags), "up")
		return pickInterface(named, nil)
	}
	return Interface{}, errors.Newf("interface %q not found", name)
}
