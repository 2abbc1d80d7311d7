package identity

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/miekg/dns"
	"golang.org/x/net/ipv4"
)

const (
	mdnsGroup   = "224.0.0.251:5353"
	mdnsPort    = 5353
	mdnsQUClass = 1 << 15
)

// MDNS asks multicast DNS responders for the PTR record of the address, the
// same query avahi-resolve -a issues. The query goes to the multicast group
// and directly to the host.
type MDNS struct {
	// Group overrides the multicast destination.
	Group string
	// UnicastPort overrides 5353 for the direct query; negative disables it.
	UnicastPort int
}

func (MDNS) Name() string { return "mdns" }

func (s MDNS) Lookup(ctx context.Context, ip string) (string, error) {
	rev, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", errors.Wrap(err, "reverse name")
	}

	q := new(dns.Msg)
	q.SetQuestion(rev, dns.TypePTR)
	q.Id = 0
	q.RecursionDesired = false
	q.Question[0].Qclass |= mdnsQUClass
	payload, err := q.Pack()
	if err != nil {
		return "", errors.Wrap(err, "pack mdns query")
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return "", errors.Wrap(err, "open mdns socket")
	}
	defer conn.Close()
	_ = ipv4.NewPacketConn(conn).SetMulticastTTL(255)

	deadline := time.Now().Add(2 * time.Second)
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	for _, dst := range s.destinations(ip) {
		addr, err := net.ResolveUDPAddr("udp4", dst)
		if err != nil {
			continue
		}
		_, _ = conn.WriteToUDP(payload, addr)
	}

	buf := make([]byte, 9000)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return "", errors.Wrap(err, "read mdns reply")
		}
		if name := ptrAnswer(buf[:n], rev); name != "" {
			return name, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
}

func (s MDNS) destinations(ip string) []string {
	group := s.Group
	if group == "" {
		group = mdnsGroup
	}
	dsts := []string{group}
	port := s.UnicastPort
	if port == 0 {
		port = mdnsPort
	}
	if port > 0 {
		dsts = append(dsts, net.JoinHostPort(ip, strconv.Itoa(port)))
	}
	return dsts
}

func ptrAnswer(pkt []byte, rev string) string {
	var m dns.Msg
	if err := m.Unpack(pkt); err != nil || !m.Response {
		return ""
	}
	for _, rr := range append(m.Answer, m.Extra...) {
		ptr, ok := rr.(*dns.PTR)
		if !ok || !strings.EqualFold(ptr.Hdr.Name, rev) {
			continue
		}
		name := strings.TrimSuffix(ptr.Ptr, ".")
		name = strings.TrimSuffix(name, ".local")
		if name != "" {
			return shortName(name)
		}
	}
	return ""
}
