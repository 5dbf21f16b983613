//go:build !linux

package netif

import (
	"context"
	"errors"
)

// Kernel is only implemented on Linux.
type Kernel struct{}

func (Kernel) List(context.Context) ([]Interface, error) {
	return nil, errors.ErrUnsupported
}

// Watcher is only implemented on Linux.
type Watcher struct{}

func (Watcher) Subscribe(context.Context) (<-chan struct{}, error) {
	return nil, errors.ErrUnsupported
}
