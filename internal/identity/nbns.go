package identity

import (
	"context"
	"encoding/binary"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	nbnsPort      = 137
	nbstatType    = 0x0021
	nbGroupFlag   = 0x8000
	nbNameEntry   = 18
	nbWorkstation = 0x00
)

// NBNS sends a NetBIOS node status request straight to UDP/137 and reads
// the workstation name from the reply.
type NBNS struct {
	// Port overrides the destination port, 137 when zero.
	Port int
	// ReadTimeout bounds the wait for the reply, 1s when zero.
	ReadTimeout time.Duration
}

func (NBNS) Name() string { return "nbns" }

func (s NBNS) Lookup(ctx context.Context, ip string) (string, error) {
	port := s.Port
	if port == 0 {
		port = nbnsPort
	}
	readTimeout := s.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = time.Second
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return "", errors.Wrap(err, "dial nbns")
	}
	defer conn.Close()

	deadline := time.Now().Add(readTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(nodeStatusRequest(0xA248)); err != nil {
		return "", errors.Wrap(err, "send nbns query")
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return "", errors.Wrap(err, "read nbns reply")
	}
	return parseNodeStatus(buf[:n])
}

// nodeStatusRequest builds an NBSTAT query for the wildcard name "*".
func nodeStatusRequest(id uint16) []byte {
	pkt := make([]byte, 0, 50)
	pkt = binary.BigEndian.AppendUint16(pkt, id)
	pkt = append(pkt, 0x00, 0x00) // flags
	pkt = append(pkt, 0x00, 0x01) // qdcount
	pkt = append(pkt, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	pkt = append(pkt, 0x20)
	pkt = append(pkt, encodeNetBIOSName("*")...)
	pkt = append(pkt, 0x00)
	pkt = binary.BigEndian.AppendUint16(pkt, nbstatType)
	pkt = binary.BigEndian.AppendUint16(pkt, 0x0001)
	return pkt
}

// encodeNetBIOSName applies first-level encoding to a name padded with
// NULs to 16 bytes.
func encodeNetBIOSName(name string) []byte {
	raw := make([]byte, 16)
	copy(raw, name)
	out := make([]byte, 0, 32)
	for _, b := range raw {
		out = append(out, 'A'+(b>>4), 'A'+(b&0x0f))
	}
	return out
}

// parseNodeStatus extracts the unique workstation name from an NBSTAT
// response.
func parseNodeStatus(pkt []byte) (string, error) {
	if len(pkt) < 12 {
		return "", errors.New("nbns reply too short")
	}
	if binary.BigEndian.Uint16(pkt[6:8]) == 0 {
		return "", errors.New("nbns reply has no answer")
	}

	off, err := skipName(pkt, 12)
	if err != nil {
		return "", err
	}
	// type, class, ttl, rdlength
	off += 10
	if off >= len(pkt) {
		return "", errors.New("nbns reply truncated before name table")
	}
	count := int(pkt[off])
	off++

	var fallback string
	for i := 0; i < count; i++ {
		if off+nbNameEntry > len(pkt) {
			break
		}
		entry := pkt[off : off+nbNameEntry]
		off += nbNameEntry

		name := strings.TrimRight(string(entry[:15]), " \x00")
		suffix := entry[15]
		flags := binary.BigEndian.Uint16(entry[16:18])
		if name == "" {
			continue
		}
		if suffix == nbWorkstation && flags&nbGroupFlag == 0 {
			return name, nil
		}
		if fallback == "" && flags&nbGroupFlag == 0 {
			fallback = name
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.New("no unique name in nbns reply")
}

func skipName(pkt []byte, off int) (int, error) {
	for off < len(pkt) {
		l := int(pkt[off])
		switch {
		case l == 0:
			return off + 1, nil
		case l&0xc0 == 0xc0:
			return off + 2, nil
		default:
			off += l + 1
		}
	}
	return 0, errors.New("nbns name runs past packet end")
}
