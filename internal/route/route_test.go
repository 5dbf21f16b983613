package route_test

import (
	"errors"
	"fmt"
	"net/netip"
	"testing"

	"v6share"
	"v6share/internal/adapter/fake"
	"v6share/internal/route"
)

var upstream = netip.MustParseAddr("2001:db8:1:1::5")

func served(id string, index int, network uint16) v6share.ServedInterface {
	return v6share.ServedInterface{ID: id, Name: id, Index: index, NetworkID: network}
}

func TestFor(t *testing.T) {
	r, err := route.For(upstream, served("eth1", 3, 1))
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	want := route.Route{
		Dst:       netip.MustParsePrefix("2001:db8:1:1:ffff:ffff:1:0/112"),
		LinkIndex: 3,
		Gateway:   netip.IPv6Unspecified(),
		Published: true,
		Store:     route.StoreActive,
	}
	if r != want {
		t.Errorf("For() = %+v, want %+v", r, want)
	}
}

func TestForRejectsIPv4(t *testing.T) {
	_, err := route.For(netip.MustParseAddr("192.0.2.1"), served("eth1", 3, 1))
	if err == nil {
		t.Fatal("For() with IPv4 upstream succeeded")
	}
}

func TestAddInstallsOneRoutePerInterface(t *testing.T) {
	table := fake.NewRouteTable()
	sync := route.NewSynchronizer(table)

	n := sync.Add(upstream, []v6share.ServedInterface{served("eth1", 3, 1), served("eth2", 4, 2)})
	if n != 2 {
		t.Fatalf("Add() = %d, want 2", n)
	}
	if got := len(table.Installed()); got != 2 {
		t.Fatalf("installed %d routes, want 2", got)
	}
	r2, _ := route.For(upstream, served("eth2", 4, 2))
	if !table.Has(r2) {
		t.Errorf("route %s not installed", r2)
	}
}

func TestAddContinuesPastFailure(t *testing.T) {
	table := fake.NewRouteTable()
	table.Faults.SetHook(fake.PointRouteAdd, func(args ...any) error {
		if args[0].(route.Route).LinkIndex == 3 {
			return errors.New("permission denied")
		}
		return nil
	})
	sync := route.NewSynchronizer(table)

	n := sync.Add(upstream, []v6share.ServedInterface{served("eth1", 3, 1), served("eth2", 4, 2)})
	if n != 1 {
		t.Fatalf("Add() = %d, want 1", n)
	}
	if table.Count("Add") != 2 {
		t.Errorf("Add called %d times, want 2", table.Count("Add"))
	}
}

func TestRemoveSwallowsExpectedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found", route.ErrNotFound},
		{"link gone", route.ErrLinkGone},
		{"shutting down", fmt.Errorf("delete route: %w", route.ErrShuttingDown)},
		{"unexpected", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := fake.NewRouteTable()
			table.Faults.FailOnce(fake.PointRouteDelete, tt.err)
			sync := route.NewSynchronizer(table)
			ifaces := []v6share.ServedInterface{served("eth1", 3, 1), served("eth2", 4, 2)}
			sync.Add(upstream, ifaces)

			n := sync.Remove(upstream, ifaces)
			if n != 1 {
				t.Fatalf("Remove() = %d, want 1", n)
			}
			if table.Count("Delete") != 2 {
				t.Errorf("Delete called %d times, want 2", table.Count("Delete"))
			}
		})
	}
}

func TestRemoveMissingRoute(t *testing.T) {
	table := fake.NewRouteTable()
	sync := route.NewSynchronizer(table)

	if n := sync.Remove(upstream, []v6share.ServedInterface{served("eth1", 3, 1)}); n != 0 {
		t.Fatalf("Remove() = %d, want 0", n)
	}
}

func TestExpected(t *testing.T) {
	if !route.Expected(fmt.Errorf("wrap: %w", route.ErrLinkGone)) {
		t.Error("wrapped ErrLinkGone not expected")
	}
	if route.Expected(errors.New("other")) {
		t.Error("arbitrary error reported as expected")
	}
}
