package identity

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gosnmp/gosnmp"
)

const sysNameOID = "1.3.6.1.2.1.1.5.0"

// SNMPSysName reads sysName.0 over SNMP v2c.
type SNMPSysName struct {
	Community string
	// Port overrides 161 when non-zero.
	Port uint16
}

func (SNMPSysName) Name() string { return "snmp" }

func (s SNMPSysName) Lookup(ctx context.Context, ip string) (string, error) {
	community := s.Community
	if community == "" {
		community = "public"
	}
	port := s.Port
	if port == 0 {
		port = 161
	}
	timeout := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return "", ctx.Err()
		}
	}

	// GoSNMP values are not safe for concurrent use, one per lookup.
	client := &gosnmp.GoSNMP{
		Target:    ip,
		Port:      port,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   0,
		Transport: "udp",
		Context:   ctx,
	}
	if err := client.Connect(); err != nil {
		return "", errors.Wrap(err, "snmp connect")
	}
	defer client.Conn.Close()

	pkt, err := client.Get([]string{sysNameOID})
	if err != nil {
		return "", errors.Wrap(err, "snmp get sysName")
	}
	if pkt.Error != gosnmp.NoError {
		return "", errors.Newf("snmp error status %v", pkt.Error)
	}
	for _, v := range pkt.Variables {
		if name := pduString(v); name != "" {
			return name, nil
		}
	}
	return "", errors.New("empty sysName")
}

func pduString(v gosnmp.SnmpPDU) string {
	if v.Type != gosnmp.OctetString {
		return ""
	}
	b, ok := v.Value.([]byte)
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(string(b)), `"`)
}
