//go:build unix

package route

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// classifyDelete maps the kernel's answer to a route delete onto the
// expected failure sentinels. Other errors are returned unchanged.
func classifyDelete(err error) error {
	switch {
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return fmt.Errorf("%w: %w", ErrLinkGone, err)
	case errors.Is(err, unix.ESHUTDOWN):
		return fmt.Errorf("%w: %w", ErrShuttingDown, err)
	}
	return err
}
