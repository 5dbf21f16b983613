// Package dhcpd renders the DHCPv6 server configuration and owns the single
// server process that serves it.
package dhcpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"

	"v6share"
	"v6share/internal/check"
)

// ConfigName is the file the daemon reads from its working directory.
const ConfigName = "server.conf"

var (
	ErrAlreadyRunning = errors.New("dhcp daemon already running")
	ErrNotRunning     = errors.New("dhcp daemon not running")
)

// Manager tracks at most one daemon process.
// Not safe for concurrent use; the controller serializes calls.
type Manager struct {
	dir      string
	launcher Launcher
	proc     Process
}

func NewManager(dir string, launcher Launcher) *Manager {
	return &Manager{dir: dir, launcher: launcher}
}

// ConfigPath is where Start writes the rendered configuration.
func (m *Manager) ConfigPath() string {
	return filepath.Join(m.dir, ConfigName)
}

func (m *Manager) Running() bool {
	return m.proc != nil
}

// PID returns the tracked process id, or 0.
func (m *Manager) PID() int {
	if m.proc == nil {
		return 0
	}
	return m.proc.Pid()
}

// Start writes the configuration for served under upstream and launches
// the daemon.
func (m *Manager) Start(_ context.Context, upstream netip.Addr, served []v6share.ServedInterface) error {
	check.Assert(m.proc == nil, "dhcpd.Manager.Start: daemon already tracked")
	if m.proc != nil {
		return ErrAlreadyRunning
	}

	conf, err := Render(upstream, served)
	if err != nil {
		return fmt.Errorf("render daemon config: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	if err := os.WriteFile(m.ConfigPath(), []byte(conf), 0o644); err != nil {
		return fmt.Errorf("write daemon config: %w", err)
	}

	proc, err := m.launcher.Launch(m.dir)
	if err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	m.proc = proc
	slog.Info("DHCPv6 server started.", "pid", proc.Pid(), "upstream", upstream, "served", len(served))
	return nil
}

// Stop terminates the tracked daemon. The handle is dropped even when
// termination fails.
func (m *Manager) Stop(ctx context.Context) error {
	check.Assert(m.proc != nil, "dhcpd.Manager.Stop: no daemon tracked")
	if m.proc == nil {
		return ErrNotRunning
	}
	proc := m.proc
	defer func() { m.proc = nil }()

	err := proc.Terminate(ctx)
	switch {
	case errors.Is(err, ErrProcessDone):
		slog.Warn("DHCPv6 server had already exited, another instance may linger.", "pid", proc.Pid())
		return nil
	case err != nil:
		return fmt.Errorf("stop daemon %d: %w", proc.Pid(), err)
	}
	slog.Info("DHCPv6 server stopped.", "pid", proc.Pid())
	return nil
}

// Close stops the daemon if one is tracked.
func (m *Manager) Close(ctx context.Context) error {
	if m.proc == nil {
		return nil
	}
	return m.Stop(ctx)
}
