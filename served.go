package v6share

import (
	"cmp"
	"fmt"
	"slices"
)

// ServedInterface is a LAN-facing link the daemon hands out a subnet on.
// All four fields take part in equality, so a link that comes back with a new
// kernel index is a different ServedInterface and forces a reconfiguration.
type ServedInterface struct {
	ID        string
	Name      string
	Index     int
	NetworkID uint16
}

func (s ServedInterface) String() string {
	return fmt.Sprintf("%s(%s) index=%d network=%d", s.ID, s.Name, s.Index, s.NetworkID)
}

func compareServed(a, b ServedInterface) int {
	if c := cmp.Compare(a.NetworkID, b.NetworkID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Index, b.Index); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// ServiceConfig is the resolved desired configuration for one refresh.
// The zero value is an empty configuration.
type ServiceConfig struct {
	served    []ServedInterface
	upstreams []string
}

// NewServiceConfig copies its inputs. Duplicate served interfaces collapse
// into one and the set is kept in a canonical order (network id, then id).
func NewServiceConfig(served []ServedInterface, upstreams []string) ServiceConfig {
	seen := make(map[ServedInterface]struct{}, len(served))
	set := make([]ServedInterface, 0, len(served))
	for _, s := range served {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		set = append(set, s)
	}
	slices.SortFunc(set, compareServed)

	return ServiceConfig{
		served:    set,
		upstreams: slices.Clone(upstreams),
	}
}

// Served returns a copy of the served interface set in canonical order.
func (c ServiceConfig) Served() []ServedInterface {
	return slices.Clone(c.served)
}

// Upstreams returns a copy of the candidate upstream ids in priority order.
func (c ServiceConfig) Upstreams() []string {
	return slices.Clone(c.upstreams)
}

// Len reports the number of served interfaces.
func (c ServiceConfig) Len() int { return len(c.served) }

// SameServed reports whether both configurations serve exactly the same set
// of interfaces. Upstream candidates are not compared: they only influence
// which upstream gets selected, and that is compared separately.
func (c ServiceConfig) SameServed(other ServiceConfig) bool {
	if len(c.served) != len(other.served) {
		return false
	}
	set := make(map[ServedInterface]struct{}, len(c.served))
	for _, s := range c.served {
		set[s] = struct{}{}
	}
	for _, s := range other.served {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
