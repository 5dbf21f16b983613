package dhcpd

import (
	"context"
	"errors"
)

// ErrProcessDone means the daemon had already exited when asked to stop.
var ErrProcessDone = errors.New("daemon process already exited")

// Process is a running DHCPv6 server.
type Process interface {
	Pid() int
	// Terminate stops the process and waits for it to exit. It returns
	// ErrProcessDone when the process was already gone.
	Terminate(ctx context.Context) error
}

// Launcher starts the DHCPv6 server with dir as its working directory.
// Production: ExecLauncher
// Testing: fake.Launcher
type Launcher interface {
	Launch(dir string) (Process, error)
}
