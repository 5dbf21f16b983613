//go:build linux

package route

import (
	"errors"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Kernel applies routes to the kernel routing table over rtnetlink.
type Kernel struct{}

var _ Table = Kernel{}

func (Kernel) Add(r Route) error {
	nr, err := toNetlink(r)
	if err != nil {
		return err
	}
	if err := netlink.RouteAdd(nr); err != nil {
		if errors.Is(err, unix.EEXIST) {
			return nil
		}
		return fmt.Errorf("add route %s: %w", r, err)
	}
	return nil
}

func (Kernel) Delete(r Route) error {
	nr, err := toNetlink(r)
	if err != nil {
		return err
	}
	if err := netlink.RouteDel(nr); err != nil {
		return fmt.Errorf("delete route %s: %w", r, classifyDelete(err))
	}
	return nil
}

func toNetlink(r Route) (*netlink.Route, error) {
	if !r.Dst.Addr().Is6() {
		return nil, fmt.Errorf("route %s: destination is not ipv6", r)
	}
	if r.Store != StoreActive {
		return nil, fmt.Errorf("route %s: unsupported store %d", r, r.Store)
	}
	proto := netlink.RouteProtocol(unix.RTPROT_BOOT)
	if r.Published {
		proto = netlink.RouteProtocol(unix.RTPROT_STATIC)
	}
	nr := &netlink.Route{
		LinkIndex: r.LinkIndex,
		Dst:       &net.IPNet{IP: r.Dst.Addr().AsSlice(), Mask: net.CIDRMask(r.Dst.Bits(), 128)},
		Family:    netlink.FAMILY_V6,
		Protocol:  proto,
		Table:     unix.RT_TABLE_MAIN,
		Scope:     netlink.SCOPE_UNIVERSE,
	}
	if r.Gateway.IsValid() && !r.Gateway.IsUnspecified() {
		nr.Gw = r.Gateway.AsSlice()
	}
	return nr, nil
}
