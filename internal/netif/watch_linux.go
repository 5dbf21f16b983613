//go:build linux

package netif

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vishvananda/netlink"
)

const updateBufferCap = 64

// Watcher turns rtnetlink link and address updates into change signals.
type Watcher struct{}

var _ Notifier = Watcher{}

func (Watcher) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	links := make(chan netlink.LinkUpdate, updateBufferCap)
	addrs := make(chan netlink.AddrUpdate, updateBufferCap)
	done := make(chan struct{})

	onErr := func(err error) {
		slog.Warn("netlink subscription error", "err", err)
	}
	if err := netlink.LinkSubscribeWithOptions(links, done, netlink.LinkSubscribeOptions{ErrorCallback: onErr}); err != nil {
		close(done)
		return nil, fmt.Errorf("subscribe link updates: %w", err)
	}
	if err := netlink.AddrSubscribeWithOptions(addrs, done, netlink.AddrSubscribeOptions{ErrorCallback: onErr}); err != nil {
		close(done)
		return nil, fmt.Errorf("subscribe address updates: %w", err)
	}

	out := make(chan struct{}, 1)
	go relay(ctx, links, addrs, out, func() { close(done) })
	return out, nil
}

// relay turns updates into change signals until ctx ends or both
// subscriptions close. It then calls stop and keeps reading until netlink
// closes both channels, so its receivers never block on a full buffer.
func relay(ctx context.Context, links <-chan netlink.LinkUpdate, addrs <-chan netlink.AddrUpdate, out chan<- struct{}, stop func()) {
	defer close(out)
	forward(ctx, links, addrs, out)
	stop()
	for range links {
	}
	for range addrs {
	}
}

func forward(ctx context.Context, links <-chan netlink.LinkUpdate, addrs <-chan netlink.AddrUpdate, out chan<- struct{}) {
	for links != nil || addrs != nil {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-links:
			if !ok {
				slog.Warn("link update subscription closed")
				links = nil
				continue
			}
			slog.Debug("link update", "link", u.Attrs().Name, "index", u.Attrs().Index)
			signal(out)
		case u, ok := <-addrs:
			if !ok {
				slog.Warn("address update subscription closed")
				addrs = nil
				continue
			}
			if u.LinkAddress.IP.To4() != nil {
				continue
			}
			slog.Debug("address update", "addr", u.LinkAddress.String(), "index", u.LinkIndex, "new", u.NewAddr)
			signal(out)
		}
	}
}

func signal(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
