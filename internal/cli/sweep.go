package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"netsweep/internal/models"
	"netsweep/internal/reporting"
	"netsweep/internal/tui"
)

const deepWarning = "AGGRESSIVE MODE - This will scan 1-1024 ports per device"

func newSweepCmd(a *app, mode tui.Mode, use, short string) *cobra.Command {
	var showTUI, yes bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode == tui.ModeDeep && !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), deepWarning)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			rng, err := a.targetRange()
			if err != nil {
				return err
			}
			if showTUI {
				return a.runTUI(cmd, tui.New(cmd.Context(), a.tuiRunner, a.saver(cmd), rng).Launch(mode, rng))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanning %s (%s)...\n", rng, mode)
			res, err := a.pipeline().execute(cmd.Context(), mode, rng, hooks{progress: a.logProgress})
			if err != nil {
				return err
			}
			if err := reporting.WriteTable(out, res); err != nil {
				return err
			}
			return a.saveFlag(cmd, res)
		},
	}

	cmd.Flags().BoolVar(&showTUI, "tui", false, "show progress and results in a full-screen table")
	if mode == tui.ModeDeep {
		cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	}
	return cmd
}

func (a *app) logProgress(rec models.HostRecord, done, total int) {
	a.log.WithFields(logrus.Fields{
		"ip":       rec.IP,
		"hostname": rec.Hostname,
		"done":     done,
		"total":    total,
	}).Info("host analyzed")
}

func (a *app) tuiRunner(ctx context.Context, mode tui.Mode, rng string, ev tui.Events) (models.SweepResult, error) {
	return a.pipeline().execute(ctx, mode, rng, hooks{
		progress: ev.Progress,
		changes:  ev.Changes,
		state:    ev.State,
		swept:    ev.Sweep,
	})
}

// saver writes to --output, or to a timestamped JSON file in the working
// directory.
func (a *app) saver(cmd *cobra.Command) tui.Saver {
	return func(res models.SweepResult) (string, error) {
		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			path = reporting.ReportName(res, "json")
		}
		if err := reporting.Save(path, res); err != nil {
			return "", err
		}
		return path, nil
	}
}

func (a *app) saveFlag(cmd *cobra.Command, res models.SweepResult) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return nil
	}
	if err := reporting.Save(path, res); err != nil {
		return errors.Wrap(err, "save results")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", path)
	return nil
}

func (a *app) runTUI(cmd *cobra.Command, m tui.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if err != nil && cmd.Context().Err() == nil {
		return errors.Wrap(err, "run tui")
	}
	if fm, ok := final.(tui.Model); ok && fm.Result().Len() > 0 {
		return a.saveFlag(cmd, fm.Result())
	}
	return nil
}

// confirm prints warning and reads a y/n answer.
func confirm(in io.Reader, out io.Writer, warning string) (bool, error) {
	fmt.Fprintf(out, "%s\nContinue? (y/n): ", warning)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "read answer")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
