package main

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"v6share"
	"v6share/config"
	"v6share/internal/adapter/sqlite"
	"v6share/internal/controller"
	"v6share/internal/netif"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func testInterfaces() []netif.Interface {
	return []netif.Interface{
		{ID: "lo", Name: "lo", Index: 1, Up: true, Loopback: true,
			Addrs: []netif.Address{{Prefix: netip.MustParsePrefix("::1/128")}}},
		{ID: "eth0", Name: "wan", Index: 2, Up: true,
			Addrs: []netif.Address{{Prefix: netip.MustParsePrefix("2001:db8:1:1::5/64")}}},
		{ID: "eth1", Name: "lan", Index: 3, Up: true,
			Addrs: []netif.Address{{Prefix: netip.MustParsePrefix("fe80::3/64")}}},
		{ID: "eth2", Name: "eth2", Index: 4, Up: false},
	}
}

func TestPrintStatusWithoutJournal(t *testing.T) {
	var buf bytes.Buffer
	if err := printStatus(context.Background(), &buf, filepath.Join(t.TempDir(), "state.db")); err != nil {
		t.Fatalf("printStatus() error = %v", err)
	}
	if !strings.Contains(buf.String(), "never run") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	journal, err := sqlite.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	err = journal.Save(context.Background(), controller.Record{
		RefreshID: "r1",
		Upstream:  v6share.Upstream{ID: "eth0", Name: "wan", Addr: netip.MustParseAddr("2001:db8:1:1::5")},
		Served:    []v6share.ServedInterface{{ID: "eth1", Name: "lan", Index: 3, NetworkID: 1}},
		DaemonPID: 77,
		UpdatedAt: time.Now(),
	})
	journal.Close()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printStatus(context.Background(), &buf, path); err != nil {
		t.Fatalf("printStatus() error = %v", err)
	}
	for _, want := range []string{"delegating from eth0", "77", "2001:db8:1:1:ffff:ffff:1:0/112"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("status missing %q:\n%s", want, buf.String())
		}
	}
}

func TestInterfacesTableRoles(t *testing.T) {
	d := config.Desired{Served: []config.Served{{Interface: "eth1", NetworkID: 1}, {Interface: "eth2", NetworkID: 2}}}

	out := interfacesTable(testInterfaces(), d)

	for _, want := range []string{"upstream 2001:db8:1:1::5", "served, network 1", "configured, unavailable"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderConfig(t *testing.T) {
	d := config.Desired{Served: []config.Served{{Interface: "eth1", NetworkID: 1}}}

	var buf bytes.Buffer
	if err := renderConfig(&buf, testInterfaces(), d); err != nil {
		t.Fatalf("renderConfig() error = %v", err)
	}
	if !strings.Contains(buf.String(), `iface "lan" # eth1`) {
		t.Errorf("render output:\n%s", buf.String())
	}
}

func TestRenderConfigWithoutUpstream(t *testing.T) {
	ifaces := testInterfaces()[2:]
	err := renderConfig(&bytes.Buffer{}, ifaces, config.Desired{})
	if !errors.Is(err, errNoUpstream) {
		t.Fatalf("renderConfig() error = %v, want errNoUpstream", err)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"run", "status", "interfaces", "render", "service"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not found: %v", name, err)
		}
	}
	if f := root.PersistentFlags().Lookup("resync"); f == nil || f.DefValue != controller.DefaultResync.String() {
		t.Errorf("resync flag = %+v", f)
	}
}
