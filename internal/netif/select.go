package netif

import (
	"log/slog"
	"net/netip"

	"v6share"
)

const delegatedBits = 64

var (
	siteLocal = netip.MustParsePrefix("fec0::/10")
	teredo    = netip.MustParsePrefix("2001::/32")
)

// DelegationSource reports whether a can anchor the delegated /64: global
// IPv6 with exactly a /64 prefix length, usable by the kernel.
func DelegationSource(a Address) bool {
	ip := a.Prefix.Addr()
	switch {
	case !ip.Is6() || ip.Is4In6():
		return false
	case a.Prefix.Bits() != delegatedBits:
		return false
	case ip.IsLinkLocalUnicast(), ip.IsMulticast(), ip.IsLoopback(), ip.IsUnspecified():
		return false
	case siteLocal.Contains(ip), teredo.Contains(ip):
		return false
	case a.Tentative, a.DADFailed:
		return false
	}
	return true
}

// Select returns the upstream to delegate from. With no candidates every
// interface is considered in the order given; otherwise only the candidates
// are, in priority order. The first up, non-loopback interface carrying a
// delegation source address wins.
func Select(ifaces []Interface, candidates []string) v6share.Upstream {
	order := ifaces
	if len(candidates) > 0 {
		order = make([]Interface, 0, len(candidates))
		for _, id := range candidates {
			iface, ok := Find(ifaces, id)
			if !ok {
				slog.Debug("upstream candidate not present", "id", id)
				continue
			}
			order = append(order, iface)
		}
	}

	for _, iface := range order {
		if !iface.Up || iface.Loopback {
			continue
		}
		for _, a := range iface.Addrs {
			if !DelegationSource(a) {
				continue
			}
			up := v6share.Upstream{ID: iface.ID, Name: iface.Name, Addr: a.Prefix.Addr()}
			slog.Info("selected upstream address, the daemon is never started on this interface",
				"id", up.ID, "name", up.Name, "addr", up.Addr)
			return up
		}
	}
	slog.Info("no upstream address with a /64 prefix found")
	return v6share.Upstream{}
}

// Find returns the interface with the given id, if present.
func Find(ifaces []Interface, id string) (Interface, bool) {
	for _, iface := range ifaces {
		if iface.ID == id {
			return iface, true
		}
	}
	return Interface{}, false
}

// Lookup returns the interface with the given id when it is present and
// servable. Absent, down or IPv6-less links yield false.
func Lookup(ifaces []Interface, id string) (Interface, bool) {
	iface, ok := Find(ifaces, id)
	if !ok || !iface.Servable() {
		return Interface{}, false
	}
	return iface, true
}

// LogInterfaces records every discovered interface at info level.
func LogInterfaces(ifaces []Interface) {
	for _, iface := range ifaces {
		addrs := make([]string, 0, len(iface.Addrs))
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Prefix.String())
		}
		slog.Info("discovered interface",
			"id", iface.ID,
			"name", iface.Name,
			"index", iface.Index,
			"up", iface.Up,
			"addrs", addrs)
	}
}
