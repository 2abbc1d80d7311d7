package spoofer

import (
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Announce broadcasts three gratuitous ARP replies binding every IPv4
// address of iface to mac.
func Announce(iface string, mac net.HardwareAddr) error {
	netIface, err := net.InterfaceByName(iface)
	if err != nil {
		return errors.Wrapf(err, "failed to get interface %s", iface)
	}
	addrs, err := netIface.Addrs()
	if err != nil {
		return errors.Wrap(err, "failed to get interface addresses")
	}

	handle, err := pcap.OpenLive(iface, 65536, false, pcap.BlockForever)
	if err != nil {
		return errors.Wrap(err, "failed to open pcap handle")
	}
	defer handle.Close()

	for i := 0; i < 3; i++ {
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			frame, err := gratuitousARP(mac, ipnet.IP)
			if err != nil {
				return err
			}
			if err := handle.WritePacketData(frame); err != nil {
				return errors.Wrap(err, "failed to write packet")
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func gratuitousARP(mac net.HardwareAddr, ip net.IP) ([]byte, error) {
	broadcast := net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	eth := layers.Ethernet{
		SrcMAC:       mac,
		DstMAC:       broadcast,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPReply,
		SourceHwAddress:   []byte(mac),
		SourceProtAddress: []byte(ip.To4()),
		DstHwAddress:      []byte(broadcast),
		DstProtAddress:    []byte(ip.To4()),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return nil, errors.Wrap(err, "serialize gratuitous arp")
	}
	return buf.Bytes(), nil
}
