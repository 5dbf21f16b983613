package fake

import (
	"context"
	"sync"

	"v6share/internal/adapter/fake/fault"
	"v6share/internal/dhcpd"
)

const (
	PointLaunch    = "dhcpd.launch"
	PointTerminate = "dhcpd.terminate"
)

var _ dhcpd.Launcher = (*Launcher)(nil)

// Launcher starts fake daemon processes and remembers every one of them.
type Launcher struct {
	CallRecorder
	mu      sync.Mutex
	nextPID int
	procs   []*Process

	// Shared with every process this launcher starts.
	Faults *fault.Injector
}

func NewLauncher() *Launcher {
	return &Launcher{nextPID: 1000, Faults: fault.NewInjector()}
}

func (l *Launcher) Launch(dir string) (dhcpd.Process, error) {
	l.record("Launch", dir)
	if err := l.Faults.Eval(PointLaunch, dir); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextPID++
	p := &Process{pid: l.nextPID, Dir: dir, faults: l.Faults}
	l.procs = append(l.procs, p)
	return p, nil
}

// Processes returns every process launched so far.
func (l *Launcher) Processes() []*Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Process, len(l.procs))
	copy(out, l.procs)
	return out
}

// Alive returns the processes that have not exited.
func (l *Launcher) Alive() []*Process {
	var out []*Process
	for _, p := range l.Processes() {
		if !p.Exited() {
			out = append(out, p)
		}
	}
	return out
}

// Process is a fake daemon process.
type Process struct {
	CallRecorder
	mu     sync.Mutex
	pid    int
	exited bool
	faults *fault.Injector

	Dir string
}

func (p *Process) Pid() int { return p.pid }

// Exit simulates the daemon dying on its own.
func (p *Process) Exit() {
	p.mu.Lock()
	p.exited = true
	p.mu.Unlock()
}

func (p *Process) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

func (p *Process) Terminate(context.Context) error {
	p.record("Terminate")
	if err := p.faults.Eval(PointTerminate, p.pid); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return dhcpd.ErrProcessDone
	}
	p.exited = true
	return nil
}
