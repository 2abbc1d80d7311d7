package identity

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nbEntry struct {
	name   string
	suffix byte
	group  bool
}

func nodeStatusReply(id uint16, entries ...nbEntry) []byte {
	pkt := binary.BigEndian.AppendUint16(nil, id)
	pkt = append(pkt, 0x84, 0x00)                         // response, authoritative
	pkt = append(pkt, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00) // qd 0, an 1, ns 0
	pkt = append(pkt, 0x00, 0x00)                         // ar 0
	pkt = append(pkt, 0x20)
	pkt = append(pkt, encodeNetBIOSName("*")...)
	pkt = append(pkt, 0x00)
	pkt = append(pkt, 0x00, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00)
	pkt = binary.BigEndian.AppendUint16(pkt, uint16(1+len(entries)*nbNameEntry))
	pkt = append(pkt, byte(len(entries)))
	for _, e := range entries {
		raw := []byte("               ")
		copy(raw, e.name)
		pkt = append(pkt, raw...)
		pkt = append(pkt, e.suffix)
		var flags uint16 = 0x0400
		if e.group {
			flags |= nbGroupFlag
		}
		pkt = binary.BigEndian.AppendUint16(pkt, flags)
	}
	return append(pkt, make([]byte, 46)...)
}

func TestNodeStatusRequestLayout(t *testing.T) {
	req := nodeStatusRequest(0x1234)
	require.Len(t, req, 50)
	assert.Equal(t, uint16(0x1234), binary.BigEndian.Uint16(req[0:2]))
	assert.Equal(t, byte(0x20), req[12])
	assert.Equal(t, "CKAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", string(req[13:45]))
	assert.Equal(t, uint16(nbstatType), binary.BigEndian.Uint16(req[46:48]))
}

func TestParseNodeStatusPrefersWorkstation(t *testing.T) {
	pkt := nodeStatusReply(1,
		nbEntry{name: "WORKGROUP", suffix: 0x00, group: true},
		nbEntry{name: "FILESRV", suffix: 0x20},
		nbEntry{name: "FILESRV", suffix: 0x00},
	)
	name, err := parseNodeStatus(pkt)
	require.NoError(t, err)
	assert.Equal(t, "FILESRV", name)
}

func TestParseNodeStatusFallsBackToUnique(t *testing.T) {
	pkt := nodeStatusReply(1,
		nbEntry{name: "WORKGROUP", suffix: 0x00, group: true},
		nbEntry{name: "PRINTER", suffix: 0x20},
	)
	name, err := parseNodeStatus(pkt)
	require.NoError(t, err)
	assert.Equal(t, "PRINTER", name)
}

func TestParseNodeStatusRejectsGarbage(t *testing.T) {
	_, err := parseNodeStatus([]byte{1, 2, 3})
	assert.Error(t, err)

	noAnswer := nodeStatusReply(1)
	noAnswer[7] = 0
	_, err = parseNodeStatus(noAnswer)
	assert.Error(t, err)

	_, err = parseNodeStatus(nodeStatusReply(1, nbEntry{name: "WG", group: true}))
	assert.Error(t, err)
}

func TestNBNSLookupAgainstLocalResponder(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		buf := make([]byte, 512)
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil || n < 2 {
			return
		}
		id := binary.BigEndian.Uint16(buf[:2])
		_, _ = conn.WriteToUDP(nodeStatusReply(id, nbEntry{name: "LABPC", suffix: 0x00}), addr)
	}()

	s := NBNS{Port: conn.LocalAddr().(*net.UDPAddr).Port, ReadTimeout: time.Second}
	name, err := s.Lookup(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "LABPC", name)
}
