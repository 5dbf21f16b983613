package fake

import (
	"context"
	"slices"
	"sync"

	"v6share/internal/adapter/fake/fault"
	"v6share/internal/netif"
)

const PointList = "interfaces.list"

var _ netif.Lister = (*Interfaces)(nil)

// Interfaces is a mutable interface snapshot standing in for the kernel.
type Interfaces struct {
	CallRecorder
	mu     sync.Mutex
	ifaces []netif.Interface

	Faults *fault.Injector
}

// NewInterfaces creates a lister returning ifaces.
func NewInterfaces(ifaces ...netif.Interface) *Interfaces {
	return &Interfaces{ifaces: slices.Clone(ifaces), Faults: fault.NewInjector()}
}

func (f *Interfaces) List(context.Context) ([]netif.Interface, error) {
	f.record("List")
	if err := f.Faults.Eval(PointList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]netif.Interface, len(f.ifaces))
	for i, iface := range f.ifaces {
		iface.Addrs = slices.Clone(iface.Addrs)
		out[i] = iface
	}
	return out, nil
}

// Set replaces the whole snapshot.
func (f *Interfaces) Set(ifaces ...netif.Interface) {
	f.mu.Lock()
	f.ifaces = slices.Clone(ifaces)
	f.mu.Unlock()
}

// Put adds or replaces the interface with the same id.
func (f *Interfaces) Put(iface netif.Interface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ifaces {
		if f.ifaces[i].ID == iface.ID {
			f.ifaces[i] = iface
			return
		}
	}
	f.ifaces = append(f.ifaces, iface)
}

// Remove drops the interface with the given id.
func (f *Interfaces) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ifaces = slices.DeleteFunc(f.ifaces, func(i netif.Interface) bool { return i.ID == id })
}
