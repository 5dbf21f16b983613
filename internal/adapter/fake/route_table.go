package fake

import (
	"sync"

	"v6share/internal/adapter/fake/fault"
	"v6share/internal/route"
)

const (
	PointRouteAdd    = "route.add"
	PointRouteDelete = "route.delete"
)

var _ route.Table = (*RouteTable)(nil)

// RouteTable is an in-memory routing table. Deleting a route that is not
// installed returns route.ErrNotFound, like the kernel does.
type RouteTable struct {
	CallRecorder
	mu     sync.Mutex
	routes map[route.Route]struct{}

	// Hooks receive the route being changed.
	Faults *fault.Injector
}

func NewRouteTable() *RouteTable {
	return &RouteTable{routes: make(map[route.Route]struct{}), Faults: fault.NewInjector()}
}

func (t *RouteTable) Add(r route.Route) error {
	t.record("Add", r)
	if err := t.Faults.Eval(PointRouteAdd, r); err != nil {
		return err
	}
	t.mu.Lock()
	t.routes[r] = struct{}{}
	t.mu.Unlock()
	return nil
}

func (t *RouteTable) Delete(r route.Route) error {
	t.record("Delete", r)
	if err := t.Faults.Eval(PointRouteDelete, r); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.routes[r]; !ok {
		return route.ErrNotFound
	}
	delete(t.routes, r)
	return nil
}

// Installed returns the routes currently in the table.
func (t *RouteTable) Installed() []route.Route {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]route.Route, 0, len(t.routes))
	for r := range t.routes {
		out = append(out, r)
	}
	return out
}

// Has reports whether r is installed.
func (t *RouteTable) Has(r route.Route) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.routes[r]
	return ok
}
