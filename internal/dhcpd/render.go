package dhcpd

import (
	"cmp"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"v6share"
	"v6share/pkg/ipam"
)

const header = `log-level 7
log-mode short

`

const stanza = `
iface "%s" # %s
{
    T1 60  # renew timeout
    T2 120  # emergency rebind timeout
    preferred-lifetime 120
    valid-lifetime 300

    class
    {
        pool %s
    }
    # Google DNS64
    option dns-server 2001:4860:4860::6464, 2001:4860:4860::64
    option domain local
}
`

var quoteName = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Render produces the dibbler server.conf for served interfaces delegated
// from upstream. Stanzas are ordered by network id, then interface id.
func Render(upstream netip.Addr, served []v6share.ServedInterface) (string, error) {
	sorted := slices.SortedFunc(slices.Values(served), func(a, b v6share.ServedInterface) int {
		return cmp.Or(cmp.Compare(a.NetworkID, b.NetworkID), cmp.Compare(a.ID, b.ID))
	})

	var b strings.Builder
	b.WriteString(header)
	for _, s := range sorted {
		pool, err := ipam.Subnet(upstream, s.NetworkID)
		if err != nil {
			return "", fmt.Errorf("allocate subnet for %s: %w", s.ID, err)
		}
		fmt.Fprintf(&b, stanza, quoteName.Replace(s.Name), s.ID, pool)
	}
	return b.String(), nil
}
