//go:build !linux

package route

import "errors"

// Kernel is only implemented on Linux.
type Kernel struct{}

func (Kernel) Add(Route) error    { return errors.ErrUnsupported }
func (Kernel) Delete(Route) error { return errors.ErrUnsupported }
