package cli

import (
	"github.com/spf13/cobra"

	"netsweep/internal/tui"
)

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu: regular, stealth, monitor or deep scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng := a.cfg.Scan.Range
			if rng == "" {
				// only a prefill, the user can type any range
				rng, _ = a.localRange()
			}
			return a.runTUI(cmd, tui.New(cmd.Context(), a.tuiRunner, a.saver(cmd), rng))
		},
	}
}
