// Package reporting renders and persists sweep results.
package reporting

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"netsweep/internal/analysis"
	"netsweep/internal/models"
)

// SaveHTML writes the HTML report of res to path.
func SaveHTML(path string, res models.SweepResult) error {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, res); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// ReportName is the default file name for a report of res.
func ReportName(res models.SweepResult, ext string) string {
	return fmt.Sprintf("netsweep_%s.%s", res.StartedAt.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}

// WriteHTML renders a standalone HTML page for res. Every value coming off
// the network is escaped.
func WriteHTML(w io.Writer, res models.SweepResult) error {
	stats := analysis.Summarize(res.Records)
	esc := html.EscapeString

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>netsweep report - %s</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .Critical { color: #d9534f; font-weight: bold; }
        .High { color: #f0ad4e; font-weight: bold; }
    </style>
</head>
<body>
    <h1>netsweep report</h1>
    <div class="summary">
        <p><strong>Range:</strong> %s</p>
        <p><strong>Started:</strong> %s</p>
        <p><strong>Duration:</strong> %s</p>
        <p><strong>Hosts:</strong> %d (%d critical, %d high)</p>
    </div>

    <h2>Hosts</h2>
    <table>
        <thead>
            <tr>
                <th>IP Address</th>
                <th>MAC</th>
                <th>Hostname</th>
                <th>Vendor</th>
                <th>OS</th>
                <th>Device</th>
                <th>Open Ports</th>
                <th>Services</th>
                <th>Risk</th>
            </tr>
        </thead>
        <tbody>
`, esc(res.Range), esc(res.Range), res.StartedAt.Format(time.RFC1123), res.Elapsed.Round(time.Millisecond),
		stats.Total, stats.ByTier[models.TierCritical], stats.ByTier[models.TierHigh])

	records := res.Sorted()
	if len(records) == 0 {
		b.WriteString("            <tr><td colspan=\"9\">No hosts answered.</td></tr>\n")
	}
	for _, r := range records {
		fmt.Fprintf(&b, "            <tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class=\"%s\">%s</td></tr>\n",
			esc(r.IP), esc(r.MAC), esc(r.Hostname), esc(r.Vendor), esc(string(r.OS)), esc(r.DeviceType),
			esc(r.Ports.String()), esc(r.ServiceSummary()), r.Tier, esc(r.Risk))
	}

	b.WriteString("        </tbody>\n    </table>\n")

	vendors := make([][2]string, 0)
	for _, v := range stats.TopVendors(10) {
		vendors = append(vendors, [2]string{v.Vendor, strconv.Itoa(v.Hosts)})
	}
	writeCounts(&b, "Vendors", "Vendor", vendors)

	systems := make([][2]string, 0)
	for _, o := range stats.OSBreakdown() {
		systems = append(systems, [2]string{string(o.OS), strconv.Itoa(o.Hosts)})
	}
	writeCounts(&b, "Operating Systems", "OS", systems)

	ports := make([][2]string, 0)
	for _, p := range stats.TopPorts(10) {
		ports = append(ports, [2]string{portLabel(p.Port), strconv.Itoa(p.Hosts)})
	}
	writeCounts(&b, "Open Ports", "Port", ports)

	b.WriteString("</body>\n</html>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "write html report")
	}
	return nil
}

// writeCounts renders a two-column "label, hosts" table.
func writeCounts(b *strings.Builder, title, label string, rows [][2]string) {
	fmt.Fprintf(b, `
    <h2>%s</h2>
    <table>
        <thead>
            <tr>
                <th>%s</th>
                <th>Hosts</th>
            </tr>
        </thead>
        <tbody>
`, title, label)
	for _, r := range rows {
		fmt.Fprintf(b, "            <tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(r[0]), r[1])
	}
	b.WriteString("        </tbody>\n    </table>\n")
}

// portLabel is "445 (SMB)", or the bare number for unnamed ports.
func portLabel(port int) string {
	n := strconv.Itoa(port)
	if name := analysis.GetServiceName(port); name != n {
		return n + " (" + name + ")"
	}
	return n
}
