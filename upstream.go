package v6share

import (
	"fmt"
	"net/netip"
)

// Upstream is the interface and address the delegated /64 is taken from.
// The zero value means no upstream is available.
type Upstream struct {
	ID   string
	Name string
	Addr netip.Addr
}

// IsNone reports whether no upstream was selected.
func (u Upstream) IsNone() bool { return !u.Addr.IsValid() }

// Equal compares the interface id and the exact address. A host-bit change
// inside the same /64 counts as a different upstream.
func (u Upstream) Equal(other Upstream) bool {
	return u.ID == other.ID && u.Addr == other.Addr
}

func (u Upstream) String() string {
	if u.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s(%s) %s", u.ID, u.Name, u.Addr)
}
