package spoofer

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsweep/internal/logger"
)

var original = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

type recorder struct {
	mu     sync.Mutex
	cmds   []string
	failOn string
}

func (r *recorder) Run(_ context.Context, name string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd := name + " " + strings.Join(args, " ")
	r.cmds = append(r.cmds, cmd)
	if r.failOn != "" && strings.Contains(cmd, r.failOn) {
		return "", errors.New("RTNETLINK answers: Operation not permitted")
	}
	return "", nil
}

func (r *recorder) addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.cmds {
		if i := strings.Index(c, " address "); i >= 0 {
			out = append(out, c[i+len(" address "):])
		}
	}
	return out
}

func newTestMasker(r *recorder) *Masker {
	seed := bytes.NewReader([]byte{0xff, 0xaa, 0xbb, 0xcc, 0xdd, 0xee})
	return NewMasker("eth0", r, logger.Discard(), WithRand(seed),
		withCurrent(func(string) (net.HardwareAddr, error) { return original, nil }))
}

func TestRandomMACIsLocalUnicast(t *testing.T) {
	mac, err := RandomMAC(bytes.NewReader([]byte{0xff, 1, 2, 3, 4, 5}))
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), mac[0]&0x02, "locally administered")
	assert.Equal(t, byte(0x00), mac[0]&0x01, "unicast")
	assert.Equal(t, "fe:01:02:03:04:05", mac.String())

	_, err = RandomMAC(bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)
}

func TestAcquireThenRestore(t *testing.T) {
	r := &recorder{}
	m := newTestMasker(r)

	masked, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fe:aa:bb:cc:dd:ee", masked.String())
	assert.True(t, m.Active())
	assert.Equal(t, []string{
		"ip link set dev eth0 down",
		"ip link set dev eth0 address fe:aa:bb:cc:dd:ee",
		"ip link set dev eth0 up",
	}, r.cmds)

	_, err = m.Acquire(context.Background())
	assert.Error(t, err, "double acquire")

	require.NoError(t, m.Restore(context.Background()))
	assert.False(t, m.Active())
	assert.Equal(t, []string{"fe:aa:bb:cc:dd:ee", "00:11:22:33:44:55"}, r.addresses())

	require.NoError(t, m.Restore(context.Background()), "restore is idempotent")
	assert.Len(t, r.addresses(), 2)
}

func TestAcquireRollsBackOnFailure(t *testing.T) {
	r := &recorder{failOn: "fe:aa:bb:cc:dd:ee"}
	m := newTestMasker(r)

	_, err := m.Acquire(context.Background())
	require.Error(t, err)
	assert.False(t, m.Active())
	assert.Equal(t, []string{"fe:aa:bb:cc:dd:ee", "00:11:22:33:44:55"}, r.addresses())
}

func TestRunRestoresOnErrorAndCancel(t *testing.T) {
	r := &recorder{}
	m := newTestMasker(r)
	ctx, cancel := context.WithCancel(context.Background())

	err := m.Run(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, m.Active())
	assert.Equal(t, "00:11:22:33:44:55", r.addresses()[1])
}

func TestRunRestoresOnPanic(t *testing.T) {
	r := &recorder{}
	m := newTestMasker(r)

	assert.Panics(t, func() {
		_ = m.Run(context.Background(), func(context.Context) error { panic("scan blew up") })
	})
	assert.False(t, m.Active())
	assert.Len(t, r.addresses(), 2)
}

func TestRestoreReportsPersistentFailure(t *testing.T) {
	r := &recorder{}
	m := newTestMasker(r)
	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	r.failOn = "00:11:22:33:44:55"
	require.Error(t, m.Restore(context.Background()))
	assert.True(t, m.Active())
	assert.Len(t, r.addresses(), 1+restoreAttempts)
}

func TestGratuitousARP(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0xee}
	frame, err := gratuitousARP(mac, net.IPv4(192, 168, 1, 20))
	require.NoError(t, err)

	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	arp := pkt.Layer(layers.LayerTypeARP).(*layers.ARP)
	assert.Equal(t, uint16(layers.ARPReply), arp.Operation)
	assert.Equal(t, []byte(mac), arp.SourceHwAddress)
	assert.Equal(t, arp.SourceProtAddress, arp.DstProtAddress)
}
