package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"netsweep/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0AD4E")).Bold(true)
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9534F")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m Model) View() string {
	var body string
	switch m.view {
	case menuView:
		body = m.menuView()
	case confirmView:
		body = warnStyle.Render("AGGRESSIVE MODE - This will scan 1-1024 ports per device") +
			"\n\nContinue? (y/n)"
	case rangeView:
		body = fmt.Sprintf("%s\n\nTarget IP Range:\n%s\n\n%s",
			m.mode, m.input.View(), helpStyle.Render("enter to start, esc to go back"))
	case progressView:
		body = m.progressView()
	case resultsView:
		body = m.resultsView()
	case monitorView:
		body = m.monitorView()
	}

	out := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("netsweep"), body)
	if m.status != "" {
		out += "\n\n" + m.status
	}
	return out + "\n"
}

func (m Model) menuView() string {
	items := []Mode{ModeRegular, ModeStealth, ModeMonitor, ModeDeep}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "[%d] %s\n", it, it)
	}
	return infoStyle.Render(strings.TrimRight(b.String(), "\n")) +
		"\n" + helpStyle.Render("Select option, q to quit")
}

func (m Model) progressView() string {
	if m.total == 0 {
		return fmt.Sprintf("%s\n\nSending ARP requests...\n\n%s", m.mode, helpStyle.Render("q to stop"))
	}
	pct := float64(m.done) / float64(m.total)
	line := fmt.Sprintf("Analyzing %d/%d", m.done, m.total)
	switch {
	case m.last.Hostname != "":
		line += fmt.Sprintf("  last: %s (%s)", m.last.IP, m.last.Hostname)
	case m.last.IP != "":
		line += fmt.Sprintf("  last: %s (dropped)", m.last.IP)
	}
	return fmt.Sprintf("%s\n\nFound %d active device(s)\n%s\n%s\n\n%s",
		m.mode, m.total, m.bar.ViewAs(pct), line, helpStyle.Render("q to stop"))
}

func (m Model) resultsView() string {
	res := m.result
	summary := fmt.Sprintf("Total Devices: %d\nScan Time: %s\nSpeed: %.2f devices/sec",
		res.Len(), res.Elapsed.Round(10*time.Millisecond), res.Rate())
	if n := res.CountTier(models.TierCritical); n > 0 {
		summary += "\n" + criticalStyle.Render(fmt.Sprintf("CRITICAL RISKS: %d device(s)", n))
	}
	if n := res.CountTier(models.TierHigh); n > 0 {
		summary += "\n" + warnStyle.Render(fmt.Sprintf("HIGH RISKS: %d device(s)", n))
	}

	var table string
	if res.Len() == 0 {
		table = "No devices found."
	} else {
		table = m.table.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		"SCAN RESULTS - "+m.mode.String(),
		infoStyle.Render(table),
		infoStyle.Render(summary),
		helpStyle.Render("s save, esc menu, q quit"),
	)
}

func (m Model) monitorView() string {
	head := fmt.Sprintf("Monitoring mode activated (%s)\nScan #%d | Devices: %d", m.monState, m.iteration, m.population)
	log := "Waiting for first scan..."
	if len(m.events) > 0 {
		log = strings.Join(m.events, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		infoStyle.Render(head),
		infoStyle.Render(log),
		helpStyle.Render("q to stop"),
	)
}
