package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const unitDir = "/etc/systemd/system"

type systemdPlatform struct{}

func NewPlatform() Platform {
	return systemdPlatform{}
}

func (systemdPlatform) Install(ctx context.Context, cfg InstallConfig) error {
	if cfg.Binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve v6share binary: %w", err)
		}
		cfg.Binary = exe
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(unitDir, Unit), []byte(SystemdUnit(cfg)), 0o644); err != nil {
		return fmt.Errorf("write unit: %w", err)
	}

	if err := systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	if err := systemctl(ctx, "enable", "--now", Unit); err != nil {
		return fmt.Errorf("enable service: %w", err)
	}
	return nil
}

func (systemdPlatform) Uninstall(ctx context.Context) error {
	_ = systemctl(ctx, "disable", "--now", Unit)
	if err := os.Remove(filepath.Join(unitDir, Unit)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove unit: %w", err)
	}
	return systemctl(ctx, "daemon-reload")
}

func (systemdPlatform) Status(ctx context.Context) (Status, error) {
	return Status{
		Installed: systemctlQuiet(ctx, "is-enabled", Unit),
		Running:   systemctlQuiet(ctx, "is-active", Unit),
		Platform:  "systemd",
	}, nil
}

func systemctl(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, "systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return nil
}

func systemctlQuiet(ctx context.Context, verb, unit string) bool {
	return exec.CommandContext(ctx, "systemctl", verb, "--quiet", unit).Run() == nil
}
