package ipam

import (
	"net/netip"
	"testing"
)

func FuzzAllocate(f *testing.F) {
	f.Add([]byte{0x20, 0x01, 0x0d, 0xb8, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0, 0, 5}, uint16(1))
	f.Add([]byte{0x2a, 0x01, 0x04, 0xf8, 0x0c, 0x0c, 0, 1, 1, 2, 3, 4, 5, 6, 7, 8}, uint16(0xffff))

	f.Fuzz(func(t *testing.T, raw []byte, networkID uint16) {
		if len(raw) != 16 {
			return
		}
		upstream := netip.AddrFrom16([16]byte(raw))
		if upstream.Is4In6() {
			return
		}

		subnet, err := Subnet(upstream, networkID)
		if err != nil {
			t.Fatalf("Subnet(%s, %d): %v", upstream, networkID, err)
		}

		// Stays inside the upstream /64.
		slash64 := netip.PrefixFrom(upstream, 64).Masked()
		if !slash64.Contains(subnet.Addr()) {
			t.Errorf("subnet %s escapes %s", subnet, slash64)
		}
		if subnet.Masked() != subnet {
			t.Errorf("subnet %s has host bits set", subnet)
		}

		b := subnet.Addr().As16()
		if got := uint16(b[12])<<8 | uint16(b[13]); got != networkID {
			t.Errorf("network id bytes = %d, want %d", got, networkID)
		}
	})
}
