package discovery

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"netsweep/internal/models"
)

// ResolveMAC asks a single address for its hardware address and waits up
// to timeout for the reply, repeating the request every second. A silent
// host yields an error marked models.ErrProbeTimeout.
func ResolveMAC(ctx context.Context, iface Interface, target net.IP, timeout time.Duration) (net.HardwareAddr, error) {
	if target.To4() == nil {
		return nil, errors.Newf("invalid IPv4 address: %s", target)
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	netIface, err := net.InterfaceByName(iface.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get interface %s", iface.Name)
	}

	handle, err := pcap.OpenLive(iface.Name, 65536, true, readTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open handle")
	}
	defer handle.Close()
	if err := handle.SetBPFFilter("arp and src host " + target.String()); err != nil {
		return nil, errors.Wrap(err, "could not set BPF filter")
	}

	frame, err := buildRequest(netIface.HardwareAddr, iface.IP, target)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	packets := gopacket.NewPacketSource(handle, layers.LayerTypeEthernet).Packets()
	resend := time.NewTicker(time.Second)
	defer resend.Stop()

	if err := handle.WritePacketData(frame); err != nil {
		return nil, errors.Wrap(err, "failed to write packet")
	}
	for {
		select {
		case <-ctx.Done():
			return nil, errors.Mark(errors.Wrapf(ctx.Err(), "no ARP reply from %s", target), models.ErrProbeTimeout)
		case <-resend.C:
			_ = handle.WritePacketData(frame)
		case packet, ok := <-packets:
			if !ok {
				return nil, errors.New("capture closed")
			}
			h, ok := parseReply(packet, nil, iface.IP)
			if ok && h.IP.Equal(target) {
				return h.MAC, nil
			}
		}
	}
}
