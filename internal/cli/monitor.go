package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"netsweep/internal/models"
	"netsweep/internal/monitor"
	"netsweep/internal/tui"
)

func newMonitorCmd(a *app) *cobra.Command {
	var (
		showTUI    bool
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Sweep repeatedly and report hosts that join, leave or change MAC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := a.targetRange()
			if err != nil {
				return err
			}
			if showTUI {
				return a.runTUI(cmd, tui.New(cmd.Context(), a.tuiRunner, a.saver(cmd), rng).Launch(tui.ModeMonitor, rng))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Monitoring %s every %s. Press Ctrl+C to stop.\n", rng, a.cfg.Monitor.Interval)

			p := a.pipeline()
			p.maxIterations = iterations
			res, err := p.execute(cmd.Context(), tui.ModeMonitor, rng, hooks{
				changes: func(c monitor.Changes) { printChanges(out, c, a.cfg.Monitor.Interval) },
			})
			fmt.Fprintf(out, "\nMonitoring stopped. Final device count: %d\n", res.Len())
			if err != nil && !errors.Is(err, models.ErrMonitorInterrupt) {
				return err
			}
			return a.saveFlag(cmd, res)
		},
	}

	cmd.Flags().BoolVar(&showTUI, "tui", false, "show the live monitor view")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "stop after this many sweeps (0 runs until interrupted)")
	cmd.Flags().Duration("interval", 0, "pause between sweeps (default from config, 15s)")
	_ = a.v.BindPFlag("monitor.interval", cmd.Flags().Lookup("interval"))
	return cmd
}

func printChanges(out io.Writer, c monitor.Changes, interval time.Duration) {
	fmt.Fprintf(out, "\nScan #%d - %s\n", c.Iteration, time.Now().Format("15:04:05"))
	for _, r := range c.Joined {
		fmt.Fprintf(out, "NEW: %s | %s | %s | %s\n", r.IP, r.Hostname, r.MAC, r.Vendor)
	}
	for _, r := range c.Left {
		fmt.Fprintf(out, "LEFT: %s | %s | %s\n", r.IP, r.Hostname, r.MAC)
	}
	for _, ch := range c.Changed {
		fmt.Fprintf(out, "MAC CHANGED: %s | %s -> %s\n", ch.IP, ch.Old, ch.New)
	}
	fmt.Fprintf(out, "Sleeping %s... (Total devices: %d)\n", interval, c.Population)
}
