//go:build !unix

package dhcpd

import "errors"

const DefaultBinary = "dibbler-server"

// ExecLauncher is only implemented on unix systems.
type ExecLauncher struct {
	Binary string
}

func (ExecLauncher) Launch(string) (Process, error) {
	return nil, errors.ErrUnsupported
}
