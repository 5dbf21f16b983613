// Package service installs v6share as a system service.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"v6share/cmd/v6share/ui"

	"github.com/spf13/cobra"
)

// Unit is the systemd unit name.
const Unit = "v6share.service"

// InstallConfig is the daemon command line baked into the service.
type InstallConfig struct {
	Binary      string
	ConfigPath  string
	StateDir    string
	DHCPBinary  string
	ActivityLog string
	Resync      time.Duration
}

// Args returns the `run` arguments for cfg.
func (c InstallConfig) Args() []string {
	args := []string{"run", "--config", c.ConfigPath, "--state-dir", c.StateDir}
	if c.DHCPBinary != "" {
		args = append(args, "--dhcpd", c.DHCPBinary)
	}
	if c.ActivityLog != "" {
		args = append(args, "--activity-log", c.ActivityLog)
	}
	if c.Resync > 0 {
		args = append(args, "--resync", c.Resync.String())
	}
	return args
}

// Status reports whether the service is installed and active.
type Status struct {
	Installed bool
	Running   bool
	Platform  string
}

// Platform installs and removes the service.
// Production: systemd on Linux, an error elsewhere.
type Platform interface {
	Install(ctx context.Context, cfg InstallConfig) error
	Uninstall(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
}

// Cmd groups the install, uninstall and status subcommands. base supplies
// the daemon settings shared with `run`.
func Cmd(base func() InstallConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the v6share system service",
	}
	cmd.AddCommand(installCmd(base), uninstallCmd(), statusCmd())
	return cmd
}

func installCmd(base func() InstallConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install and start the v6share service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := base()
			fmt.Println(ui.InfoMsg("installing %s", Unit))
			if err := NewPlatform().Install(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("install service: %w", err)
			}
			fmt.Println(ui.SuccessMsg("service installed and running"))
			fmt.Print(ui.KeyValues("  ",
				ui.KV("command", cfg.Binary+" "+strings.Join(cfg.Args(), " ")),
				ui.KV("config", cfg.ConfigPath),
				ui.KV("state", cfg.StateDir),
			))
			return nil
		},
	}
}

func uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the v6share service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewPlatform().Uninstall(cmd.Context()); err != nil {
				return fmt.Errorf("uninstall service: %w", err)
			}
			fmt.Println(ui.SuccessMsg("service removed"))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := NewPlatform().Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(ui.KeyValues("",
				ui.KV("platform", st.Platform),
				ui.KV("installed", ui.Bool(st.Installed)),
				ui.KV("running", ui.Bool(st.Running)),
			))
			return nil
		},
	}
}
