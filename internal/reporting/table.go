package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"netsweep/internal/analysis"
	"netsweep/internal/models"
)

var tableHeader = []string{"IP", "MAC", "Hostname", "Vendor", "OS", "Ports", "Services", "Risk"}

// Rows lays out the records of res, sorted by address, as table cells.
func Rows(res models.SweepResult) [][]string {
	records := res.Sorted()
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		mac := r.MAC
		if mac == "" {
			mac = "-"
		}
		rows = append(rows, []string{
			r.IP, mac, r.Hostname, r.Vendor, string(r.OS), r.Ports.String(), r.ServiceSummary(), r.Risk,
		})
	}
	return rows
}

// WriteTable prints res as a console table followed by a one-line summary.
func WriteTable(w io.Writer, res models.SweepResult) error {
	var b strings.Builder
	if res.Len() == 0 {
		b.WriteString("No hosts answered.\n")
	} else {
		data := pterm.TableData{tableHeader}
		data = append(data, Rows(res)...)
		out, err := pterm.DefaultTable.
			WithHasHeader(true).
			WithBoxed(false).
			WithData(data).
			Srender()
		if err != nil {
			return errors.Wrap(err, "render table")
		}
		b.WriteString(out)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d host(s) in %s (%.1f hosts/s), %d critical, %d high\n",
		res.Len(), res.Elapsed.Round(time.Millisecond), res.Rate(),
		res.CountTier(models.TierCritical), res.CountTier(models.TierHigh))
	if res.Len() > 0 {
		stats := analysis.Summarize(res.Records)
		systems := make([]string, 0)
		for _, o := range stats.OSBreakdown() {
			systems = append(systems, fmt.Sprintf("%s %d", o.OS, o.Hosts))
		}
		fmt.Fprintf(&b, "OS: %s\n", strings.Join(systems, ", "))
		if top := stats.TopPorts(5); len(top) > 0 {
			ports := make([]string, 0, len(top))
			for _, p := range top {
				ports = append(ports, fmt.Sprintf("%s x%d", portLabel(p.Port), p.Hosts))
			}
			fmt.Fprintf(&b, "Top ports: %s\n", strings.Join(ports, ", "))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "write table")
	}
	return nil
}
