//go:build unix

package dhcpd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "fake-dhcpd")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecLauncherRunsInDir(t *testing.T) {
	bin := writeScript(t, "echo \"$1\" > started\npwd >> started\nexec sleep 30\n")
	dir := t.TempDir()

	p, err := ExecLauncher{Binary: bin}.Launch(dir)
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Terminate(context.Background()) })

	var data []byte
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); time.Sleep(20 * time.Millisecond) {
		if data, err = os.ReadFile(filepath.Join(dir, "started")); err == nil && strings.Count(string(data), "\n") == 2 {
			break
		}
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[0] != "run" {
		t.Fatalf("started file = %q, want arg run and working dir", data)
	}
	if got, _ := filepath.EvalSymlinks(lines[1]); got != mustEval(t, dir) {
		t.Errorf("working dir = %s, want %s", lines[1], dir)
	}
}

func mustEval(t *testing.T, p string) string {
	t.Helper()
	out, err := filepath.EvalSymlinks(p)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestExecProcessTerminate(t *testing.T) {
	bin := writeScript(t, "exec sleep 30\n")

	p, err := ExecLauncher{Binary: bin}.Launch(t.TempDir())
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if p.Pid() == 0 {
		t.Fatal("Pid() = 0")
	}

	if err := p.Terminate(context.Background()); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if err := p.Terminate(context.Background()); !errors.Is(err, ErrProcessDone) {
		t.Fatalf("second Terminate() = %v, want ErrProcessDone", err)
	}
}

func TestExecLauncherMissingBinary(t *testing.T) {
	_, err := ExecLauncher{Binary: filepath.Join(t.TempDir(), "missing")}.Launch(t.TempDir())
	if err == nil {
		t.Fatal("Launch() of missing binary succeeded")
	}
}
