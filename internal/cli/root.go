// Package cli is the cobra command tree of netsweep.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netsweep/internal/config"
	"netsweep/internal/discovery"
	"netsweep/internal/logger"
	"netsweep/internal/tools"
	"netsweep/internal/tui"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *logrus.Logger
	runner  tools.Runner

	// localRange is swapped in tests.
	localRange func() (string, error)

	pipe *pipeline
}

func newApp() *app {
	return &app{v: viper.New(), runner: tools.Exec{}, localRange: discovery.LocalRange}
}

// Execute runs the root command; SIGINT and SIGTERM cancel the context
// every subcommand runs under.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] netsweep crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netsweep",
		Short: "LAN host discovery, enrichment and monitoring",
		Long: `netsweep finds the live hosts of a local IPv4 range with ARP and
enriches each one with hostname, hardware vendor, open ports, OS family,
service banners and an exposure rating.

Examples:
  netsweep scan -r 192.168.1.0/24 -o results.json
  netsweep deep -r 192.168.1.0/24 --yes
  sudo netsweep stealth -i eth0
  netsweep monitor --interval 30s
  netsweep menu`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./netsweep.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.StringP("range", "r", "", "target range, e.g. 192.168.1.0/24 (default: the local network)")
	pf.StringP("interface", "i", "", "network interface to send ARP on")
	pf.StringP("output", "o", "", "save results to a .json, .yaml or .html file")

	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("scan.range", pf.Lookup("range"))
	_ = a.v.BindPFlag("scan.interface", pf.Lookup("interface"))

	cmd.AddCommand(
		newSweepCmd(a, tui.ModeRegular, "scan", "Regular scan: discover and enrich every host"),
		newSweepCmd(a, tui.ModeStealth, "stealth", "Scan behind a temporary random MAC, throttled"),
		newSweepCmd(a, tui.ModeDeep, "deep", "Aggressive scan of ports 1-1024 on every host"),
		newMonitorCmd(a),
		newMenuCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.Init(cfg.Log)
	if err != nil {
		return err
	}
	a.log = log

	// a full-screen program owns the terminal
	if tuiRequested(cmd) && cfg.Log.Output != "file" {
		a.log.SetOutput(io.Discard)
	}
	return nil
}

func tuiRequested(cmd *cobra.Command) bool {
	if cmd.Name() == "menu" {
		return true
	}
	f := cmd.Flags().Lookup("tui")
	return f != nil && f.Value.String() == "true"
}

// targetRange is the configured range or, failing that, the network of
// the first usable local interface.
func (a *app) targetRange() (string, error) {
	if a.cfg.Scan.Range != "" {
		return a.cfg.Scan.Range, nil
	}
	rng, err := a.localRange()
	if err != nil {
		return "", err
	}
	a.log.WithField("range", rng).Info("no range given, using the local network")
	return rng, nil
}
