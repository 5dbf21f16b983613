// Package netif snapshots host network interfaces and picks the upstream
// address the served subnets are delegated from.
package netif

import (
	"context"
	"net/netip"
)

// Interface is a point-in-time view of one kernel link. It is fetched fresh
// for every refresh and never cached.
type Interface struct {
	ID       string // stable id: kernel link name
	Name     string // display name: link alias, falls back to the link name
	Index    int
	Kind     string
	Up       bool
	Loopback bool
	Addrs    []Address
}

// Address is one address assigned to a link.
type Address struct {
	Prefix     netip.Prefix
	Tentative  bool
	Deprecated bool
	DADFailed  bool
}

// HasIPv6 reports whether IPv6 is active on the link, i.e. it carries at
// least one IPv6 address (a link-local one is enough).
func (i Interface) HasIPv6() bool {
	for _, a := range i.Addrs {
		if a.Prefix.Addr().Is6() && !a.Prefix.Addr().Is4In6() {
			return true
		}
	}
	return false
}

// Servable reports whether the daemon can hand out addresses on the link.
func (i Interface) Servable() bool {
	return i.Up && i.HasIPv6()
}

// Lister enumerates host interfaces.
// Production: Kernel (netlink)
// Testing: fake.Interfaces
type Lister interface {
	List(ctx context.Context) ([]Interface, error)
}

// Notifier delivers a coalesced signal whenever links or IPv6 addresses
// change. The channel is closed when ctx is done.
// Production: Watcher (netlink subscriptions)
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}
