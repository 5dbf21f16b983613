//go:build !linux

package service

import (
	"context"
	"fmt"
	"runtime"
)

type stubPlatform struct{}

func NewPlatform() Platform {
	return stubPlatform{}
}

func (stubPlatform) Install(context.Context, InstallConfig) error {
	return fmt.Errorf("service install is not supported on %s", runtime.GOOS)
}

func (stubPlatform) Uninstall(context.Context) error {
	return fmt.Errorf("service uninstall is not supported on %s", runtime.GOOS)
}

func (stubPlatform) Status(context.Context) (Status, error) {
	return Status{}, fmt.Errorf("service status is not supported on %s", runtime.GOOS)
}
