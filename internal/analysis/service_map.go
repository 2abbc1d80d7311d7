package analysis

import (
	"strconv"

	"netsweep/internal/models"
)

var commonPorts = map[int]string{
	20:   "FTP-DATA",
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	80:   "HTTP",
	110:  "POP3",
	135:  "MSRPC",
	139:  "NetBIOS-SSN",
	143:  "IMAP",
	161:  "SNMP",
	443:  "HTTPS",
	445:  "SMB",
	3306: "MySQL",
	3389: "RDP",
	5432: "PostgreSQL",
	5900: "VNC",
	5985: "WinRM",
	5986: "WinRM-TLS",
	6379: "Redis",
	8080: "HTTP-Alt",
	8443: "HTTPS-Alt",
}

// GetServiceName returns the common name for a port, or the port number as a string.
func GetServiceName(port int) string {
	if name, ok := commonPorts[port]; ok {
		return name
	}
	return strconv.Itoa(port)
}

// ServiceNames names up to limit open ports with a well-known service,
// lowest port first. Ports without a known name are skipped.
func ServiceNames(ports models.PortSet, limit int) []string {
	var out []string
	for _, p := range ports.Ports() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if name, ok := commonPorts[p]; ok {
			out = append(out, name+"/"+strconv.Itoa(p))
		}
	}
	return out
}
