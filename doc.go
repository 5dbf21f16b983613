// Package v6share holds the value types shared by the IPv6 delegation
// controller: the served interface set, the resolved service configuration
// and the selected upstream.
//
// The controller itself lives in internal/controller; the leaves it drives are
// internal/netif (upstream selection), pkg/ipam (prefix carving),
// internal/dhcpd (daemon lifecycle) and internal/route (kernel routes).
package v6share
