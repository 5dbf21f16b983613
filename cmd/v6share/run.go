package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"v6share/config"
	"v6share/internal/adapter/sqlite"
	"v6share/internal/controller"
	"v6share/internal/dhcpd"
	"v6share/internal/logging"
	"v6share/internal/netif"
	"v6share/internal/route"
	"v6share/internal/telemetry"

	systemd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
)

func runCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the delegation daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Configure(o.level(), o.activityLog); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, o)
		},
	}
	cmd.Flags().BoolVar(&o.trace, "trace", false, "Log a span for every refresh step")
	return cmd
}

func runDaemon(ctx context.Context, o *options) error {
	journal, err := sqlite.Open(o.journalPath())
	if err != nil {
		return err
	}
	defer journal.Close()

	opts := []controller.Option{controller.WithJournal(journal)}
	if o.trace {
		out := telemetry.NewLogOutput(slog.LevelInfo)
		defer func() { _ = out.Close(context.Background()) }()
		opts = append(opts, controller.WithTracer(out.Tracer()))
	}

	daemon := dhcpd.NewManager(o.daemonDir(), dhcpd.ExecLauncher{Binary: o.dhcpBinary})
	ctrl := controller.New(netif.Kernel{}, daemon, route.NewSynchronizer(route.Kernel{}), opts...)
	if err := ctrl.Recover(ctx); err != nil {
		slog.Warn("Recovering previous state failed.", "err", err)
	}

	load := func() config.Desired { return config.Load(o.configPath) }
	loop := controller.NewLoop(ctrl, load, netif.Watcher{}, o.resync)
	if err := loop.Start(ctx); err != nil {
		_ = ctrl.Close(context.Background())
		return fmt.Errorf("start refresh loop: %w", err)
	}
	slog.Info("v6share running.", "config", o.configPath, "state", o.stateDir)
	notifySystemd(systemd.SdNotifyReady)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-hup:
			slog.Info("Reloading configuration.")
			loop.Notify()
		}
	}

	slog.Info("Shutting down.")
	notifySystemd(systemd.SdNotifyStopping)
	_ = loop.Stop()
	return ctrl.Close(context.Background())
}

// notifySystemd is a no-op when not running under a notify-type unit.
func notifySystemd(state string) {
	if _, err := systemd.SdNotify(false, state); err != nil {
		slog.Error("Failed to notify systemd.", "state", state, "err", err)
	}
}
