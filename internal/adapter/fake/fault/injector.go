// Package fault injects errors into fake adapters at named points.
package fault

import (
	"fmt"
	"sync"

	"v6share/internal/check"
)

// Hook inspects the arguments of a call and decides whether it fails.
type Hook func(args ...any) error

type point struct {
	once   []error
	always error
	hook   Hook
}

// Injector holds per-point faults. A nil Injector never fails.
type Injector struct {
	mu     sync.Mutex
	points map[string]*point
}

func NewInjector() *Injector {
	return &Injector{points: make(map[string]*point)}
}

// FailOnce queues err for the next evaluation of name.
func (i *Injector) FailOnce(name string, err error) {
	check.Assert(err != nil, "fault.Injector.FailOnce: err must not be nil")
	i.mu.Lock()
	defer i.mu.Unlock()
	p := i.point(name)
	p.once = append(p.once, err)
}

// FailAlways makes every evaluation of name fail with err.
func (i *Injector) FailAlways(name string, err error) {
	check.Assert(err != nil, "fault.Injector.FailAlways: err must not be nil")
	i.mu.Lock()
	defer i.mu.Unlock()
	i.point(name).always = err
}

// SetHook installs an argument-aware hook for name.
func (i *Injector) SetHook(name string, hook Hook) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.point(name).hook = hook
}

// Clear removes every fault configured for name.
func (i *Injector) Clear(name string) {
	i.mu.Lock()
	delete(i.points, name)
	i.mu.Unlock()
}

// Eval reports the fault for this call of name, if any.
// A hook wins over queued one-shot errors, which win over FailAlways.
func (i *Injector) Eval(name string, args ...any) error {
	if i == nil {
		return nil
	}

	i.mu.Lock()
	p := i.points[name]
	if p == nil {
		i.mu.Unlock()
		return nil
	}
	hook, always := p.hook, p.always
	var once error
	if len(p.once) > 0 {
		once, p.once = p.once[0], p.once[1:]
	}
	i.mu.Unlock()

	if hook != nil {
		if err := hook(args...); err != nil {
			return fmt.Errorf("fault %s: %w", name, err)
		}
	}
	if once != nil {
		return fmt.Errorf("fault %s: %w", name, once)
	}
	if always != nil {
		return fmt.Errorf("fault %s: %w", name, always)
	}
	return nil
}

func (i *Injector) point(name string) *point {
	p, ok := i.points[name]
	if !ok {
		p = &point{}
		i.points[name] = p
	}
	return p
}
