// Package controller converges the DHCPv6 daemon and the delegated routes
// onto the current network topology.
//
// The controller is either Idle (no upstream, no daemon, no routes) or
// Served (an upstream, one daemon, one route per served interface). Every
// Refresh recomputes the desired state from a fresh interface snapshot and
// only touches the daemon and routing table when that state changed.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"v6share"
	"v6share/config"
	"v6share/internal/check"
	"v6share/internal/netif"
	"v6share/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrServing is returned by Recover once the controller has applied state.
var ErrServing = errors.New("controller already serving")

// AppliedState is what the controller last put in place.
// Upstream is non-none exactly when the daemon is running.
type AppliedState struct {
	Config   v6share.ServiceConfig
	Upstream v6share.Upstream
}

// Served reports whether delegation is active.
func (s AppliedState) Served() bool { return !s.Upstream.IsNone() }

// Result describes one Refresh.
type Result struct {
	RefreshID     string
	Changed       bool
	Applied       AppliedState
	RoutesAdded   int
	RoutesRemoved int

	// Incomplete is set when the daemon could not be started; the
	// controller stayed idle and the refresh should be retried.
	Incomplete bool
}

// Controller serializes refreshes and owns the applied state.
type Controller struct {
	ifaces  netif.Lister
	daemon  Daemon
	routes  Routes
	journal Journal
	tracer  trace.Tracer
	clock   Clock

	mu      sync.Mutex
	applied AppliedState
	closed  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithJournal records applied state after every transition.
func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

func WithClock(clk Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

func New(ifaces netif.Lister, daemon Daemon, routes Routes, opts ...Option) *Controller {
	c := &Controller{
		ifaces: ifaces,
		daemon: daemon,
		routes: routes,
		clock:  RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Applied returns a copy of the applied state.
func (c *Controller) Applied() AppliedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}

// Resolve computes the desired state for a snapshot: the selected upstream
// and the served interfaces that can be served right now. Configured
// interfaces that are missing, down, without IPv6, or that are the
// upstream itself are left out.
func Resolve(ifaces []netif.Interface, desired config.Desired) (v6share.Upstream, v6share.ServiceConfig) {
	upstream := netif.Select(ifaces, desired.Upstreams)

	served := make([]v6share.ServedInterface, 0, len(desired.Served))
	for _, s := range desired.Served {
		iface, ok := netif.Lookup(ifaces, s.Interface)
		if !ok {
			slog.Warn("Served interface unavailable, skipping it this round.", "interface", s.Interface)
			continue
		}
		if !upstream.IsNone() && iface.ID == upstream.ID {
			slog.Warn("Served interface is the upstream, skipping it.", "interface", s.Interface)
			continue
		}
		served = append(served, v6share.ServedInterface{
			ID:        iface.ID,
			Name:      iface.Name,
			Index:     iface.Index,
			NetworkID: s.NetworkID,
		})
	}
	return upstream, v6share.NewServiceConfig(served, desired.Upstreams)
}

// Refresh converges onto desired. Failures of individual daemon or route
// operations are logged and never abort the sequence; only a failure to
// read the interface list is returned, in which case nothing changes.
func (c *Controller) Refresh(ctx context.Context, desired config.Desired) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{RefreshID: uuid.NewString()}
	log := slog.With("refresh", res.RefreshID)
	if c.closed {
		log.Debug("Ignoring refresh after close.")
		res.Applied = c.applied
		return res, nil
	}

	op := telemetry.Start(ctx, c.tracer, "refresh", attribute.String("refresh.id", res.RefreshID))
	ctx = op.Context()

	ifaces, err := c.ifaces.List(ctx)
	if err != nil {
		err = fmt.Errorf("list interfaces: %w", err)
		op.End(err)
		res.Applied = c.applied
		return res, err
	}
	netif.LogInterfaces(ifaces)

	upstream, cfg := Resolve(ifaces, desired)
	op.SetAttributes(
		attribute.String("upstream", upstream.String()),
		attribute.Int("served", cfg.Len()),
	)

	if c.applied.Upstream.Equal(upstream) && c.applied.Config.SameServed(cfg) {
		log.Info("No changes.", "upstream", upstream.String(), "served", cfg.Len())
		op.End(nil)
		res.Applied = c.applied
		return res, nil
	}

	log.Info("Configuration changed.",
		"old_upstream", c.applied.Upstream.String(), "new_upstream", upstream.String(),
		"old_served", c.applied.Config.Len(), "new_served", cfg.Len())
	res.Changed = true

	if err := op.RunStep("teardown", func(ctx context.Context) error {
		removed, err := c.teardown(ctx, log)
		res.RoutesRemoved = removed
		return err
	}); err != nil {
		log.Error("Teardown incomplete.", "err", err)
	}

	c.applied = AppliedState{Config: cfg}

	var setupErr error
	if !upstream.IsNone() {
		setupErr = op.RunStep("setup", func(ctx context.Context) error {
			added, err := c.setup(ctx, upstream, cfg)
			res.RoutesAdded = added
			return err
		})
		if setupErr != nil {
			res.Incomplete = true
			log.Error("Delegation setup failed, staying idle until the next change.", "err", setupErr)
		}
	} else {
		log.Info("No upstream, delegation idle.")
	}

	c.record(ctx, log, res.RefreshID)
	c.assertInvariant()
	op.End(setupErr)

	res.Applied = c.applied
	return res, nil
}

// Close tears delegation down. Later calls and later refreshes do nothing.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	log := slog.With("refresh", "close")
	if _, err := c.teardown(ctx, log); err != nil {
		log.Error("Teardown incomplete.", "err", err)
	}
	c.applied = AppliedState{}
	c.record(ctx, log, "close")
	c.assertInvariant()
	log.Info("Controller closed.")
	return nil
}

// Recover removes routes that a previous run left behind, as recorded in
// the journal. It must run before the first Refresh.
func (c *Controller) Recover(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return nil
	}
	check.Assert(!c.applied.Served(), "controller.Recover: called while serving")
	if c.applied.Served() {
		return ErrServing
	}

	rec, found, err := c.journal.Load(ctx)
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}
	if !found {
		return nil
	}

	slog.Warn("Previous run did not shut down cleanly, removing its routes.",
		"refresh", rec.RefreshID, "upstream", rec.Upstream.String(), "served", len(rec.Served), "since", rec.UpdatedAt)
	if !rec.Upstream.IsNone() {
		c.routes.Remove(rec.Upstream.Addr, rec.Served)
	}
	if rec.DaemonPID != 0 {
		slog.Warn("A DHCPv6 server from the previous run may still be running.", "pid", rec.DaemonPID)
	}
	if err := c.journal.Clear(ctx); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

// teardown removes routes then stops the daemon. The upstream is dropped
// even when stopping fails; the error is returned for the caller to report.
func (c *Controller) teardown(ctx context.Context, log *slog.Logger) (int, error) {
	removed := 0
	if c.applied.Served() {
		removed = c.routes.Remove(c.applied.Upstream.Addr, c.applied.Config.Served())
		log.Info("Routes removed.", "count", removed, "upstream", c.applied.Upstream.String())
	}
	var err error
	if c.daemon.Running() {
		if stopErr := c.daemon.Stop(ctx); stopErr != nil {
			err = fmt.Errorf("stop DHCPv6 server: %w", stopErr)
		}
	}
	c.applied.Upstream = v6share.Upstream{}
	return removed, err
}

// setup starts the daemon then adds routes. The upstream is only adopted
// once the daemon runs.
func (c *Controller) setup(ctx context.Context, upstream v6share.Upstream, cfg v6share.ServiceConfig) (int, error) {
	served := cfg.Served()
	if err := c.daemon.Start(ctx, upstream.Addr, served); err != nil {
		return 0, fmt.Errorf("start DHCPv6 server: %w", err)
	}
	c.applied.Upstream = upstream

	added := c.routes.Add(upstream.Addr, served)
	if added < len(served) {
		slog.Warn("Some routes could not be added.", "added", added, "served", len(served))
	}
	return added, nil
}

func (c *Controller) record(ctx context.Context, log *slog.Logger, refreshID string) {
	if c.journal == nil {
		return
	}
	if !c.applied.Served() {
		if err := c.journal.Clear(ctx); err != nil {
			log.Warn("Clearing journal failed.", "err", err)
		}
		return
	}
	rec := Record{
		RefreshID: refreshID,
		Upstream:  c.applied.Upstream,
		Served:    c.applied.Config.Served(),
		DaemonPID: c.daemon.PID(),
		UpdatedAt: c.clock.Now(),
	}
	if err := c.journal.Save(ctx, rec); err != nil {
		log.Warn("Saving journal failed.", "err", err)
	}
}

func (c *Controller) assertInvariant() {
	check.Assertf(c.applied.Served() == c.daemon.Running(),
		"controller: upstream %s but daemon running=%v", c.applied.Upstream, c.daemon.Running())
}
