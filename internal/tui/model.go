// Package tui is the interactive front end: the four-option menu, sweep
// progress, the results table and the live monitor view.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"netsweep/internal/models"
	"netsweep/internal/monitor"
)

// Mode is a menu option.
type Mode int

const (
	ModeRegular Mode = iota + 1
	ModeStealth
	ModeMonitor
	ModeDeep
)

func (m Mode) String() string {
	switch m {
	case ModeRegular:
		return "Regular Scan"
	case ModeStealth:
		return "Stealth Mode Scan"
	case ModeMonitor:
		return "Monitoring Mode"
	case ModeDeep:
		return "Deep Scan (Aggressive)"
	default:
		return "Unknown"
	}
}

// Runner executes one menu option against rng and reports through ev.
// Monitor runs until ctx ends.
type Runner func(ctx context.Context, mode Mode, rng string, ev Events) (models.SweepResult, error)

// Saver persists a finished result and returns where it went.
type Saver func(res models.SweepResult) (string, error)

// Events forwards runner callbacks into the program.
type Events struct {
	ctx context.Context
	ch  chan<- tea.Msg
}

func (e Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	case <-e.ctx.Done():
	}
}

// Progress matches sweep.Progress.
func (e Events) Progress(rec models.HostRecord, done, total int) {
	e.send(progressMsg{rec: rec, done: done, total: total})
}

// Changes matches monitor.Config.OnChanges.
func (e Events) Changes(c monitor.Changes) { e.send(changesMsg(c)) }

// State matches monitor.Config.OnState.
func (e Events) State(s monitor.State) { e.send(stateMsg(s)) }

// Sweep reports a finished monitor sweep.
func (e Events) Sweep(res models.SweepResult) { e.send(sweepMsg(res)) }

type (
	progressMsg struct {
		rec         models.HostRecord
		done, total int
	}
	changesMsg  monitor.Changes
	stateMsg    monitor.State
	sweepMsg    models.SweepResult
	finishedMsg struct {
		res models.SweepResult
		err error
	}
	savedMsg struct {
		path string
		err  error
	}
)

type view int

const (
	menuView view = iota
	confirmView
	rangeView
	progressView
	resultsView
	monitorView
)

// maxLog is how many monitor events stay on screen.
const maxLog = 12

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	run    Runner
	save   Saver

	view  view
	mode  Mode
	input textinput.Model
	bar   progress.Model
	table table.Model

	done, total int
	last        models.HostRecord
	result      models.SweepResult
	err         error
	status      string

	monState   monitor.State
	population int
	iteration  int
	events     []string

	initCmd tea.Cmd
}

// New builds the menu. defaultRange prefills the range prompt.
func New(ctx context.Context, run Runner, save Saver, defaultRange string) Model {
	in := textinput.New()
	in.Placeholder = "192.168.1.0/24"
	in.SetValue(defaultRange)
	in.CharLimit = 43
	in.Width = 32

	columns := []table.Column{
		{Title: "IP", Width: 15},
		{Title: "MAC", Width: 17},
		{Title: "Hostname", Width: 18},
		{Title: "Vendor", Width: 20},
		{Title: "OS", Width: 13},
		{Title: "Ports", Width: 18},
		{Title: "Services", Width: 24},
		{Title: "Risk", Width: 28},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		ctx:   ctx,
		run:   run,
		save:  save,
		input: in,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		table: t,
	}
}

func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// Launch skips the menu and starts mode against rng as soon as the program
// runs.
func (m Model) Launch(mode Mode, rng string) Model {
	m.mode = mode
	next, cmd := m.start(rng)
	launched := next.(Model)
	launched.initCmd = cmd
	return launched
}

// Result is the last finished sweep.
func (m Model) Result() models.SweepResult { return m.result }

// Err is the error of the last run, if any.
func (m Model) Err() error { return m.err }

func runCmd(ctx context.Context, run Runner, mode Mode, rng string, ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)
		res, err := run(ctx, mode, rng, Events{ctx: ctx, ch: ch})
		return finishedMsg{res: res, err: err}
	}
}

// waitFor delivers the next runner event; a closed channel ends the chain.
func waitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{ch: ch, msg: msg}
	}
}

// eventMsg carries the channel so the next wait can be armed.
type eventMsg struct {
	ch  <-chan tea.Msg
	msg tea.Msg
}

func saveCmd(save Saver, res models.SweepResult) tea.Cmd {
	return func() tea.Msg {
		path, err := save(res)
		return savedMsg{path: path, err: err}
	}
}
