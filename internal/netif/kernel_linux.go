//go:build linux

package netif

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"slices"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Kernel lists links and addresses over rtnetlink.
type Kernel struct{}

var _ Lister = Kernel{}

// List returns every link sorted by kernel index, which makes the upstream
// choice deterministic when several links qualify.
func (Kernel) List(_ context.Context) ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	out := make([]Interface, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
		if err != nil {
			// The link can disappear between the two dumps.
			slog.Debug("skip link without address dump", "link", attrs.Name, "err", err)
			continue
		}
		out = append(out, fromLink(link, addrs))
	}
	slices.SortFunc(out, func(a, b Interface) int { return cmp.Compare(a.Index, b.Index) })
	return out, nil
}

func fromLink(link netlink.Link, addrs []netlink.Addr) Interface {
	attrs := link.Attrs()
	name := attrs.Alias
	if name == "" {
		name = attrs.Name
	}

	iface := Interface{
		ID:       attrs.Name,
		Name:     name,
		Index:    attrs.Index,
		Kind:     link.Type(),
		Up:       attrs.Flags&net.FlagUp != 0 && (attrs.OperState == netlink.OperUp || attrs.OperState == netlink.OperUnknown),
		Loopback: attrs.Flags&net.FlagLoopback != 0,
		Addrs:    make([]Address, 0, len(addrs)),
	}
	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			continue
		}
		if ip.Is4In6() {
			ip = ip.Unmap()
		}
		bits, _ := a.Mask.Size()
		iface.Addrs = append(iface.Addrs, Address{
			Prefix:     netip.PrefixFrom(ip, bits),
			Tentative:  a.Flags&unix.IFA_F_TENTATIVE != 0,
			Deprecated: a.Flags&unix.IFA_F_DEPRECATED != 0,
			DADFailed:  a.Flags&unix.IFA_F_DADFAILED != 0,
		})
	}
	return iface
}
