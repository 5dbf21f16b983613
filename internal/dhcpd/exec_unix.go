//go:build unix

package dhcpd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultBinary is the dibbler server, found via PATH.
const DefaultBinary = "dibbler-server"

// TermTimeout bounds how long a daemon gets to exit after SIGTERM before
// it is killed.
const TermTimeout = 5 * time.Second

// ExecLauncher runs the daemon as a child process: `<binary> run`.
type ExecLauncher struct {
	Binary string
}

var _ Launcher = ExecLauncher{}

func (l ExecLauncher) Launch(dir string) (Process, error) {
	binary := l.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	cmd := exec.Command(binary, "run")
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go p.wait()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func (p *execProcess) wait() {
	p.err = p.cmd.Wait()
	close(p.done)
	slog.Debug("DHCPv6 server exited.", "pid", p.cmd.Process.Pid, "err", p.err)
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Terminate(ctx context.Context) error {
	select {
	case <-p.done:
		return ErrProcessDone
	default:
	}

	if err := p.cmd.Process.Signal(unix.SIGTERM); err != nil {
		// Lost the race with exit.
		<-p.done
		return ErrProcessDone
	}

	timer := time.NewTimer(TermTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	slog.Warn("DHCPv6 server ignored SIGTERM, killing it.", "pid", p.Pid())
	_ = p.cmd.Process.Kill() // best-effort, Wait still reaps it
	<-p.done
	if ctx.Err() != nil {
		return fmt.Errorf("terminate daemon: %w", ctx.Err())
	}
	return nil
}
