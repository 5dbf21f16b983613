package dhcpd

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"v6share"
	"v6share/pkg/ipam"
)

var upstream = netip.MustParseAddr("2001:db8:1:1::5")

func TestRenderSingleStanza(t *testing.T) {
	got, err := Render(upstream, []v6share.ServedInterface{
		{ID: "eth1", Name: "lan", Index: 3, NetworkID: 1},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := `log-level 7
log-mode short


iface "lan" # eth1
{
    T1 60  # renew timeout
    T2 120  # emergency rebind timeout
    preferred-lifetime 120
    valid-lifetime 300

    class
    {
        pool 2001:db8:1:1:ffff:ffff:1:0/112
    }
    # Google DNS64
    option dns-server 2001:4860:4860::6464, 2001:4860:4860::64
    option domain local
}
`
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderEmpty(t *testing.T) {
	got, err := Render(upstream, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(got, "iface") {
		t.Errorf("empty render has a stanza:\n%s", got)
	}
	if !strings.HasPrefix(got, "log-level 7\nlog-mode short\n") {
		t.Errorf("missing header:\n%s", got)
	}
}

func TestRenderOrdersByNetworkThenID(t *testing.T) {
	got, err := Render(upstream, []v6share.ServedInterface{
		{ID: "wlan0", Name: "wlan0", NetworkID: 2},
		{ID: "eth2", Name: "eth2", NetworkID: 1},
		{ID: "eth1", Name: "eth1", NetworkID: 1},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var order []string
	for _, line := range strings.Split(got, "\n") {
		if id, ok := strings.CutPrefix(line, "iface "); ok {
			order = append(order, id)
		}
	}
	want := []string{`"eth1" # eth1`, `"eth2" # eth2`, `"wlan0" # wlan0`}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("stanza order = %q, want %q", order, want)
	}
}

func TestRenderEscapesName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{`my "lan"`, `iface "my \"lan\"" # x`},
		{`back\slash`, `iface "back\\slash" # x`},
		{`both\"`, `iface "both\\\"" # x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(upstream, []v6share.ServedInterface{{ID: "x", Name: tt.name, NetworkID: 1}})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.Contains(got, tt.want+"\n") {
				t.Errorf("Render() missing %q in\n%s", tt.want, got)
			}
		})
	}
}

func TestRenderRejectsIPv4Upstream(t *testing.T) {
	_, err := Render(netip.MustParseAddr("192.0.2.1"), []v6share.ServedInterface{{ID: "x", NetworkID: 1}})
	if !errors.Is(err, ipam.ErrNotIPv6) {
		t.Fatalf("Render() error = %v, want ErrNotIPv6", err)
	}
}
