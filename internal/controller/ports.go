package controller

import (
	"context"
	"net/netip"
	"time"

	"v6share"
)

// Daemon owns the single DHCPv6 server process.
// Production: dhcpd.Manager
// Testing: dhcpd.Manager over fake.Launcher
type Daemon interface {
	Start(ctx context.Context, upstream netip.Addr, served []v6share.ServedInterface) error
	Stop(ctx context.Context) error
	Running() bool
	PID() int
}

// Routes installs and removes the per-interface delegated routes. Both
// calls handle each interface independently and return how many routes
// they changed.
// Production: route.Synchronizer over route.Kernel
// Testing: route.Synchronizer over fake.RouteTable
type Routes interface {
	Add(upstream netip.Addr, served []v6share.ServedInterface) int
	Remove(upstream netip.Addr, served []v6share.ServedInterface) int
}

// Record is what the journal keeps about the applied state, enough to
// clean up routes after an unclean exit.
type Record struct {
	RefreshID string
	Upstream  v6share.Upstream
	Served    []v6share.ServedInterface
	DaemonPID int
	UpdatedAt time.Time
}

// Journal persists the applied state across restarts.
// Production: sqlite.Store
// Testing: sqlite.Store on t.TempDir()
type Journal interface {
	Save(ctx context.Context, r Record) error
	Load(ctx context.Context) (Record, bool, error)
	Clear(ctx context.Context) error
}

// Clock abstracts time for journal timestamps.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
