package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"v6share"
	"v6share/cmd/v6share/ui"
	"v6share/config"
	"v6share/internal/adapter/sqlite"
	"v6share/internal/controller"
	"v6share/internal/dhcpd"
	"v6share/internal/netif"
	"v6share/pkg/ipam"

	"github.com/spf13/cobra"
)

func statusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the daemon last applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus(cmd.Context(), cmd.OutOrStdout(), o.journalPath())
		},
	}
}

func printStatus(ctx context.Context, w io.Writer, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(w, ui.WarnMsg("no journal at %s, the daemon has never run", path))
		return nil
	}
	journal, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer journal.Close()

	rec, found, err := journal.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(w, ui.InfoMsg("idle: nothing delegated"))
		return nil
	}

	fmt.Fprintln(w, ui.SuccessMsg("delegating from %s", rec.Upstream.ID))
	fmt.Fprint(w, ui.KeyValues("  ",
		ui.KV("upstream", rec.Upstream.Name),
		ui.KV("address", rec.Upstream.Addr.String()),
		ui.KV("daemon pid", strconv.Itoa(rec.DaemonPID)),
		ui.KV("refresh", rec.RefreshID),
		ui.KV("updated", rec.UpdatedAt.Local().Format(time.RFC3339)),
	))
	if len(rec.Served) > 0 {
		fmt.Fprintln(w, servedTable(rec.Upstream, rec.Served))
	}
	return nil
}

func servedTable(up v6share.Upstream, served []v6share.ServedInterface) string {
	rows := make([][]string, 0, len(served))
	for _, s := range served {
		subnet := "-"
		if p, err := ipam.Subnet(up.Addr, s.NetworkID); err == nil {
			subnet = p.String()
		}
		rows = append(rows, []string{s.ID, s.Name, strconv.Itoa(s.Index), strconv.Itoa(int(s.NetworkID)), subnet})
	}
	return ui.Table([]string{"INTERFACE", "NAME", "INDEX", "NETWORK", "SUBNET"}, rows)
}

func interfacesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interfaces",
		Short: "List host interfaces and the role each would play",
		RunE: func(cmd *cobra.Command, args []string) error {
			ifaces, err := netif.Kernel{}.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list interfaces: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), interfacesTable(ifaces, config.Load(o.configPath)))
			return nil
		},
	}
}

func interfacesTable(ifaces []netif.Interface, d config.Desired) string {
	up, cfg := controller.Resolve(ifaces, d)
	served := make(map[string]v6share.ServedInterface, cfg.Len())
	for _, s := range cfg.Served() {
		served[s.ID] = s
	}
	configured := make(map[string]bool, len(d.Served))
	for _, s := range d.Served {
		configured[s.Interface] = true
	}

	rows := make([][]string, 0, len(ifaces))
	for _, iface := range ifaces {
		role := ui.Muted("-")
		switch s, ok := served[iface.ID]; {
		case !up.IsNone() && iface.ID == up.ID:
			role = ui.Accent("upstream " + up.Addr.String())
		case ok:
			role = ui.Success("served, network " + strconv.Itoa(int(s.NetworkID)))
		case configured[iface.ID]:
			role = ui.Warn("configured, unavailable")
		}
		addrs := make([]string, 0, len(iface.Addrs))
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Prefix.String())
		}
		rows = append(rows, []string{
			strconv.Itoa(iface.Index), iface.ID, iface.Name, ui.Bool(iface.Up), strings.Join(addrs, "\n"), role,
		})
	}
	return ui.Table([]string{"INDEX", "ID", "NAME", "UP", "ADDRESSES", "ROLE"}, rows)
}

func renderCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the DHCPv6 server config for the current topology",
		RunE: func(cmd *cobra.Command, args []string) error {
			ifaces, err := netif.Kernel{}.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list interfaces: %w", err)
			}
			return renderConfig(cmd.OutOrStdout(), ifaces, config.Load(o.configPath))
		},
	}
}

var errNoUpstream = errors.New("no upstream /64 available, the DHCPv6 server would not run")

func renderConfig(w io.Writer, ifaces []netif.Interface, d config.Desired) error {
	up, cfg := controller.Resolve(ifaces, d)
	if up.IsNone() {
		return errNoUpstream
	}
	conf, err := dhcpd.Render(up.Addr, cfg.Served())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, conf)
	return err
}
