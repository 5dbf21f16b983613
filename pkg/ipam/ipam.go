// Package ipam carves per-interface /112 subnets out of an upstream /64.
//
// Layout of an allocated subnet:
//
//	XXXX:XXXX:XXXX:XXXX:FFFF:FFFF:NNNN:0000/112
//
// X is the provider-assigned /64, the FFFF:FFFF block marks the range as
// delegated by this host, N is the network id and the last 16 bits are hosts.
package ipam

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
)

// SubnetBits is the prefix length of every allocated subnet.
const SubnetBits = 112

const (
	markerStart  = 8
	networkStart = 12
	hostStart    = 14
)

// ErrNotIPv6 is returned for an upstream that is not a 16-byte IPv6 address.
var ErrNotIPv6 = errors.New("upstream address is not ipv6")

// Allocate returns the network address of the subnet for networkID inside
// the /64 of upstream. The host bits of upstream are ignored.
func Allocate(upstream netip.Addr, networkID uint16) (netip.Addr, error) {
	if !upstream.IsValid() || !upstream.Is6() || upstream.Is4In6() {
		return netip.Addr{}, fmt.Errorf("allocate subnet for %v: %w", upstream, ErrNotIPv6)
	}

	b := upstream.As16()
	for i := markerStart; i < networkStart; i++ {
		b[i] = 0xff
	}
	binary.BigEndian.PutUint16(b[networkStart:hostStart], networkID)
	b[hostStart] = 0
	b[hostStart+1] = 0
	return netip.AddrFrom16(b), nil
}

// Subnet is Allocate returning the /112 prefix.
func Subnet(upstream netip.Addr, networkID uint16) (netip.Prefix, error) {
	addr, err := Allocate(upstream, networkID)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, SubnetBits), nil
}
