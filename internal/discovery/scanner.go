// Package discovery finds live hosts on the local link with ARP.
package discovery

import (
	"bytes"
	"context"
	"net"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	mapsutil "github.com/projectdiscovery/utils/maps"
	"github.com/sirupsen/logrus"

	"netsweep/internal/logger"
	"netsweep/internal/models"
)

// pcap read timeout; keeps the reader responsive to shutdown.
const readTimeout = 100 * time.Millisecond

// ARPScanner broadcasts ARP requests for every address of a range and
// collects the replies. It needs raw socket privileges.
type ARPScanner struct {
	cfg Config
	log logrus.FieldLogger
}

// NewARPScanner applies defaults to cfg.
func NewARPScanner(cfg Config, log logrus.FieldLogger) *ARPScanner {
	return &ARPScanner{cfg: applyDefaults(cfg), log: logger.Or(log)}
}

// Discover returns the hosts that answered, sorted by address. Failures to
// open the link are marked models.ErrDiscoveryFailure.
func (s *ARPScanner) Discover(ctx context.Context, rng string) ([]Host, error) {
	targets, network, err := Targets(rng)
	if err != nil {
		return nil, errors.Mark(err, models.ErrDiscoveryFailure)
	}
	iface, err := s.iface(targets)
	if err != nil {
		return nil, errors.Mark(err, models.ErrDiscoveryFailure)
	}
	log := s.log.WithFields(logrus.Fields{"range": network.String(), "interface": iface.Name})

	if len(targets) == 1 {
		mac, err := ResolveMAC(ctx, iface, targets[0], s.cfg.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, models.ErrProbeTimeout) {
				return nil, nil
			}
			return nil, errors.Mark(err, models.ErrDiscoveryFailure)
		}
		return []Host{{IP: targets[0], MAC: mac}}, nil
	}

	if s.cfg.MaxHosts > 0 && len(targets) > s.cfg.MaxHosts {
		log.WithField("max_hosts", s.cfg.MaxHosts).Warn("range truncated")
		targets = targets[:s.cfg.MaxHosts]
	}

	netIface, err := net.InterfaceByName(iface.Name)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "could not get interface"), models.ErrDiscoveryFailure)
	}

	handle, err := pcap.OpenLive(iface.Name, 65536, *s.cfg.Promisc, readTimeout)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "could not open handle"), models.ErrDiscoveryFailure)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("arp"); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "could not set BPF filter"), models.ErrDiscoveryFailure)
	}

	found := mapsutil.NewSyncLockMap[string, Host]()
	done := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		src := gopacket.NewPacketSource(handle, layers.LayerTypeEthernet)
		in := src.Packets()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case packet, ok := <-in:
				if !ok {
					return
				}
				h, ok := parseReply(packet, network, iface.IP)
				if !ok || found.Has(h.Addr()) {
					continue
				}
				_ = found.Set(h.Addr(), h)
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.RateLimit)
	defer ticker.Stop()

	window := s.cfg.Timeout / time.Duration(s.cfg.Retries+1)
	for round := 0; round <= s.cfg.Retries; round++ {
		sent := 0
		for _, ip := range targets {
			if ip.Equal(iface.IP) || found.Has(ip.String()) {
				continue
			}
			select {
			case <-ctx.Done():
				close(done)
				<-readerDone
				return nil, ctx.Err()
			case <-ticker.C:
			}
			frame, err := buildRequest(netIface.HardwareAddr, iface.IP, ip)
			if err != nil {
				continue
			}
			if err := handle.WritePacketData(frame); err != nil {
				log.WithError(err).WithField("ip", ip.String()).Debug("arp send failed")
				continue
			}
			sent++
		}
		if sent == 0 {
			break
		}
		log.WithFields(logrus.Fields{"round": round + 1, "sent": sent}).Debug("arp round sent")

		wait := time.NewTimer(window)
		select {
		case <-ctx.Done():
		case <-wait.C:
		}
		wait.Stop()
		if ctx.Err() != nil {
			break
		}
	}

	close(done)
	<-readerDone

	result := make([]Host, 0)
	_ = found.Iterate(func(_ string, h Host) error {
		result = append(result, h)
		return nil
	})
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].IP, result[j].IP) < 0
	})
	log.WithField("hosts", len(result)).Debug("arp sweep finished")
	return result, nil
}

func (s *ARPScanner) iface(targets []net.IP) (Interface, error) {
	if s.cfg.Interface != "" {
		return lookupInterface(s.cfg.Interface)
	}
	return SelectInterface(targets[0])
}

// buildRequest serializes a broadcast who-has for dst.
func buildRequest(srcMAC net.HardwareAddr, srcIP, dstIP net.IP) ([]byte, error) {
	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: []byte(srcIP.To4()),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte(dstIP.To4()),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return nil, errors.Wrap(err, "serialize arp request")
	}
	return buf.Bytes(), nil
}

// parseReply accepts ARP replies from inside network that are not from self.
func parseReply(packet gopacket.Packet, network *net.IPNet, self net.IP) (Host, bool) {
	arpLayer := packet.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		return Host{}, false
	}
	arp := arpLayer.(*layers.ARP)
	if arp.Operation != layers.ARPReply {
		return Host{}, false
	}
	ip := net.IP(arp.SourceProtAddress).To4()
	if ip == nil || (network != nil && !network.Contains(ip)) || ip.Equal(self) {
		return Host{}, false
	}
	return Host{
		IP:  append(net.IP(nil), ip...),
		MAC: append(net.HardwareAddr(nil), arp.SourceHwAddress...),
	}, true
}
