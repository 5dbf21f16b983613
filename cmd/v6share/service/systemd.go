package service

import (
	"fmt"
	"strings"
)

// SystemdUnit renders the unit file for cfg. The daemon restarts on
// failure and starts once the network is online.
func SystemdUnit(cfg InstallConfig) string {
	return fmt.Sprintf(`[Unit]
Description=v6share IPv6 prefix delegation
After=network-online.target
Wants=network-online.target

[Service]
Type=notify
ExecStart=%s %s
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`, cfg.Binary, strings.Join(cfg.Args(), " "))
}
