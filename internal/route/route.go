// Package route keeps one kernel IPv6 route per served interface, pointing
// the interface's delegated /112 at the link.
package route

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"v6share"
	"v6share/pkg/ipam"
)

var (
	// ErrNotFound means the route to delete is already gone.
	ErrNotFound = errors.New("route not found")
	// ErrLinkGone means the link the route was bound to no longer exists.
	ErrLinkGone = errors.New("route link gone")
	// ErrShuttingDown means the host is tearing its network stack down.
	ErrShuttingDown = errors.New("system shutdown in progress")
)

// Store selects the routing table a route lives in.
type Store uint8

const (
	// StoreActive is the live main table.
	StoreActive Store = iota + 1
)

// Route is the full key of a delegated route. No kernel route id is kept
// between add and delete, so deletion matches on every field.
type Route struct {
	Dst       netip.Prefix
	LinkIndex int
	Gateway   netip.Addr
	Published bool
	Store     Store
}

func (r Route) String() string {
	return fmt.Sprintf("%s dev #%d via %s", r.Dst, r.LinkIndex, r.Gateway)
}

// Table installs and removes routes.
// Add must treat an identical existing route as success. Delete maps the
// expected failure classes onto ErrNotFound, ErrLinkGone and ErrShuttingDown.
// Production: Kernel (netlink)
// Testing: fake.RouteTable
type Table interface {
	Add(r Route) error
	Delete(r Route) error
}

// Synchronizer derives routes from served interfaces and applies them one
// interface at a time. A failure on one interface never stops the others.
type Synchronizer struct {
	table Table
}

func NewSynchronizer(table Table) *Synchronizer {
	return &Synchronizer{table: table}
}

// For builds the route for a served interface under upstream.
func For(upstream netip.Addr, s v6share.ServedInterface) (Route, error) {
	dst, err := ipam.Subnet(upstream, s.NetworkID)
	if err != nil {
		return Route{}, err
	}
	return Route{
		Dst:       dst,
		LinkIndex: s.Index,
		Gateway:   netip.IPv6Unspecified(),
		Published: true,
		Store:     StoreActive,
	}, nil
}

// Add installs a route for every served interface and returns how many
// were installed.
func (s *Synchronizer) Add(upstream netip.Addr, served []v6share.ServedInterface) int {
	added := 0
	for _, iface := range served {
		r, err := For(upstream, iface)
		if err != nil {
			slog.Error("compute route", "interface", iface.ID, "err", err)
			continue
		}
		if err := s.table.Add(r); err != nil {
			slog.Error("error adding a route", "interface", iface.ID, "route", r.String(), "err", err)
			continue
		}
		slog.Info("route added", "interface", iface.ID, "route", r.String())
		added++
	}
	return added
}

// Remove deletes the route of every served interface and returns how many
// were deleted. Routes that are already gone, or that disappear because the
// host is shutting down, are not errors.
func (s *Synchronizer) Remove(upstream netip.Addr, served []v6share.ServedInterface) int {
	removed := 0
	for _, iface := range served {
		r, err := For(upstream, iface)
		if err != nil {
			slog.Error("compute route", "interface", iface.ID, "err", err)
			continue
		}
		if err := s.table.Delete(r); err != nil {
			if Expected(err) {
				slog.Debug("route already gone", "interface", iface.ID, "route", r.String(), "err", err)
				continue
			}
			slog.Error("error removing the route", "interface", iface.ID, "route", r.String(), "err", err)
			continue
		}
		slog.Info("route removed", "interface", iface.ID, "route", r.String())
		removed++
	}
	return removed
}

// Expected reports whether a delete error is one of the transient,
// expected conditions that removal swallows.
func Expected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrLinkGone) || errors.Is(err, ErrShuttingDown)
}
