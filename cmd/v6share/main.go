package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"v6share/cmd/v6share/service"
	"v6share/cmd/v6share/ui"
	"v6share/config"
	"v6share/internal/controller"
	"v6share/internal/dhcpd"
	"v6share/internal/logging"

	"github.com/spf13/cobra"
)

const (
	defaultStateDir    = "/var/lib/v6share"
	defaultActivityLog = "/var/log/v6share/activity.log"
	journalName        = "state.db"
)

type options struct {
	debug       bool
	plain       bool
	configPath  string
	stateDir    string
	dhcpBinary  string
	activityLog string
	resync      time.Duration
	trace       bool
}

func (o *options) level() string {
	if o.debug {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}

func (o *options) journalPath() string { return filepath.Join(o.stateDir, journalName) }
func (o *options) daemonDir() string   { return filepath.Join(o.stateDir, "dhcpd") }

func main() {
	if err := logging.Configure(logging.LevelInfo, ""); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:           "v6share",
		Short:         "Share an upstream IPv6 /64 with local networks over DHCPv6",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.ConfigureColor(o.plain)
			// Inspection commands only surface problems.
			level := logging.LevelWarn
			if o.debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level, "")
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&o.plain, "plain", false, "Disable colored output")
	flags.StringVar(&o.configPath, "config", config.DefaultPath, "Served interfaces configuration")
	flags.StringVar(&o.stateDir, "state-dir", defaultStateDir, "Directory for the journal and the DHCPv6 server config")
	flags.StringVar(&o.dhcpBinary, "dhcpd", dhcpd.DefaultBinary, "DHCPv6 server binary")
	flags.StringVar(&o.activityLog, "activity-log", defaultActivityLog, "Append-only activity log, empty to disable")
	flags.DurationVar(&o.resync, "resync", controller.DefaultResync, "Full refresh interval, 0 to disable")

	cmd.AddCommand(runCmd(o))
	cmd.AddCommand(statusCmd(o))
	cmd.AddCommand(interfacesCmd(o))
	cmd.AddCommand(renderCmd(o))
	cmd.AddCommand(service.Cmd(func() service.InstallConfig {
		return service.InstallConfig{
			ConfigPath:  o.configPath,
			StateDir:    o.stateDir,
			DHCPBinary:  o.dhcpBinary,
			ActivityLog: o.activityLog,
			Resync:      o.resync,
		}
	}))
	return cmd
}
