// Package config loads the desired delegation layout.
//
// The file lives at /etc/v6share/config.yaml by default:
//
//	served:
//	  - interface: eth1
//	    network-id: 1
//	upstream:
//	  - eth0
//
// Served entries name the links that get a /112 each; upstream optionally
// lists candidate uplinks in priority order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the daemon reads its configuration.
const DefaultPath = "/etc/v6share/config.yaml"

// Served binds a link to the network id that picks its subnet.
type Served struct {
	Interface string `yaml:"interface"`
	NetworkID uint16 `yaml:"network-id"`
}

// Desired is the configuration as the operator wrote it.
type Desired struct {
	Served    []Served `yaml:"served"`
	Upstreams []string `yaml:"upstream,omitempty"`
}

// Parse decodes and normalizes a configuration document.
func Parse(data []byte) (Desired, error) {
	var d Desired
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Desired{}, fmt.Errorf("parse config: %w", err)
	}
	return d.normalize(), nil
}

// Load reads the configuration at path. It never fails: a missing or
// malformed file yields an empty configuration, which tears delegation
// down instead of crashing the daemon.
func Load(path string) Desired {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Config file missing, serving nothing.", "path", path)
		} else {
			slog.Warn("Config file unreadable, serving nothing.", "path", path, "err", err)
		}
		return Desired{}
	}

	d, err := Parse(data)
	if err != nil {
		slog.Warn("Config file malformed, serving nothing.", "path", path, "err", err)
		return Desired{}
	}
	return d
}

// normalize drops entries without an interface and entries whose interface
// or network id was already claimed; two links must never share a subnet.
func (d Desired) normalize() Desired {
	out := Desired{}
	ids := make(map[string]struct{}, len(d.Served))
	networks := make(map[uint16]string, len(d.Served))
	for _, s := range d.Served {
		s.Interface = strings.TrimSpace(s.Interface)
		if s.Interface == "" {
			slog.Warn("Skipping served entry without interface.", "network_id", s.NetworkID)
			continue
		}
		if _, ok := ids[s.Interface]; ok {
			slog.Warn("Skipping duplicate served interface.", "interface", s.Interface)
			continue
		}
		if owner, ok := networks[s.NetworkID]; ok {
			slog.Warn("Skipping served interface with a taken network id.",
				"interface", s.Interface, "network_id", s.NetworkID, "owner", owner)
			continue
		}
		ids[s.Interface] = struct{}{}
		networks[s.NetworkID] = s.Interface
		out.Served = append(out.Served, s)
	}
	for _, u := range d.Upstreams {
		if u = strings.TrimSpace(u); u != "" {
			out.Upstreams = append(out.Upstreams, u)
		}
	}
	return out
}
