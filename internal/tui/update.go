package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"netsweep/internal/models"
	"netsweep/internal/monitor"
	"netsweep/internal/reporting"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stop()
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case eventMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, waitFor(msg.ch))

	case progressMsg:
		if m.view != progressView {
			return m, nil
		}
		m.done, m.total, m.last = msg.done, msg.total, msg.rec
		return m, nil

	case sweepMsg:
		m.result = models.SweepResult(msg)
		m.table.SetRows(rows(m.result))
		return m, nil

	case stateMsg:
		m.monState = monitor.State(msg)
		return m, nil

	case changesMsg:
		m.logChanges(monitor.Changes(msg))
		return m, nil

	case finishedMsg:
		m.stop()
		m.err = msg.err
		if msg.err != nil && m.mode != ModeMonitor {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.view = menuView
			return m, nil
		}
		m.result = msg.res
		m.table.SetRows(rows(msg.res))
		m.status = ""
		m.view = resultsView
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving results: %v", msg.err)
		} else {
			m.status = "Results saved to " + msg.path
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.view {
	case menuView:
		switch key {
		case "1":
			return m.askRange(ModeRegular)
		case "2":
			return m.askRange(ModeStealth)
		case "3":
			return m.askRange(ModeMonitor)
		case "4":
			m.mode = ModeDeep
			m.view = confirmView
			return m, nil
		case "q", "esc":
			return m, tea.Quit
		default:
			m.status = "Invalid option."
			return m, nil
		}

	case confirmView:
		switch strings.ToLower(key) {
		case "y":
			return m.askRange(ModeDeep)
		case "n", "esc":
			m.view = menuView
		}
		return m, nil

	case rangeView:
		switch key {
		case "enter":
			rng := strings.TrimSpace(m.input.Value())
			if rng == "" {
				m.status = "Enter a target range."
				return m, nil
			}
			return m.start(rng)
		case "esc":
			m.input.Blur()
			m.view = menuView
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case progressView, monitorView:
		if key == "q" || key == "esc" {
			// the runner returns once its context ends; finishedMsg follows
			m.stop()
			m.status = "Stopping..."
		}
		return m, nil

	case resultsView:
		switch key {
		case "s":
			if m.save == nil {
				return m, nil
			}
			return m, saveCmd(m.save, m.result)
		case "esc", "m":
			m.view = menuView
			m.status = ""
			return m, nil
		case "q":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) askRange(mode Mode) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.view = rangeView
	m.status = ""
	return m, m.input.Focus()
}

func (m Model) start(rng string) (tea.Model, tea.Cmd) {
	m.input.Blur()
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.done, m.total = 0, 0
	m.last = models.HostRecord{}
	m.err = nil
	m.status = ""
	m.events = nil
	m.iteration, m.population = 0, 0
	if m.mode == ModeMonitor {
		m.view = monitorView
	} else {
		m.view = progressView
	}

	ch := make(chan tea.Msg, 64)
	return m, tea.Batch(runCmd(ctx, m.run, m.mode, rng, ch), waitFor(ch))
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) logChanges(c monitor.Changes) {
	m.iteration = c.Iteration
	m.population = c.Population
	stamp := time.Now().Format("15:04:05")
	var lines []string
	for _, r := range c.Joined {
		lines = append(lines, fmt.Sprintf("%s NEW: %s | %s | %s | %s", stamp, r.IP, r.Hostname, r.MAC, r.Vendor))
	}
	for _, r := range c.Left {
		lines = append(lines, fmt.Sprintf("%s LEFT: %s | %s | %s", stamp, r.IP, r.Hostname, r.MAC))
	}
	for _, ch := range c.Changed {
		lines = append(lines, fmt.Sprintf("%s MAC CHANGED: %s | %s -> %s", stamp, ch.IP, ch.Old, ch.New))
	}
	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("%s Scan #%d: no changes", stamp, c.Iteration))
	}
	m.events = append(m.events, lines...)
	if len(m.events) > maxLog {
		m.events = m.events[len(m.events)-maxLog:]
	}
}

func rows(res models.SweepResult) []table.Row {
	cells := reporting.Rows(res)
	out := make([]table.Row, len(cells))
	for i, c := range cells {
		out[i] = table.Row(c)
	}
	return out
}
