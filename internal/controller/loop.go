package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"v6share/config"
	"v6share/internal/netif"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultResync forces a full refresh even without change notifications.
	DefaultResync = 5 * time.Minute
	// settleDelay lets a burst of kernel updates land before refreshing once.
	settleDelay = 500 * time.Millisecond

	retryInitialInterval = 2 * time.Second
	retryMaxInterval     = time.Minute
)

// Refresher is the part of Controller the loop drives.
type Refresher interface {
	Refresh(ctx context.Context, desired config.Desired) (Result, error)
}

// Loop refreshes the controller on interface changes, on Notify and on a
// periodic resync. Triggers that arrive while a refresh is pending collapse
// into that refresh. A failed or incomplete refresh is retried with
// exponential backoff until one succeeds. It owns its goroutine lifecycle
// via Start/Stop.
type Loop struct {
	refresher Refresher
	load      func() config.Desired
	notifier  netif.Notifier
	resync    time.Duration
	retry     *backoff.ExponentialBackOff

	trigger chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLoop creates a loop. load is called before every refresh; notifier may
// be nil; resync <= 0 disables the periodic refresh.
func NewLoop(r Refresher, load func() config.Desired, notifier netif.Notifier, resync time.Duration) *Loop {
	return &Loop{
		refresher: r,
		load:      load,
		notifier:  notifier,
		resync:    resync,
		retry: backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(retryInitialInterval),
			backoff.WithMaxInterval(retryMaxInterval),
			backoff.WithMaxElapsedTime(0),
		),
		trigger: make(chan struct{}, 1),
	}
}

// Notify requests a refresh. It never blocks.
func (l *Loop) Notify() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Start subscribes to interface changes, refreshes once, and keeps
// refreshing in a background goroutine until Stop.
func (l *Loop) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	var changes <-chan struct{}
	if l.notifier != nil {
		ch, err := l.notifier.Subscribe(ctx)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribe to interface changes: %w", err)
		}
		changes = ch
	}

	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		l.run(ctx, changes)
	}()
	return nil
}

// Stop cancels the loop and waits for it to exit. An in-flight refresh
// finishes first.
func (l *Loop) Stop() error {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
	return nil
}

func (l *Loop) run(ctx context.Context, changes <-chan struct{}) {
	var retry <-chan time.Time
	attempt := func(reason string) {
		if l.refresh(ctx, reason) {
			l.retry.Reset()
			retry = nil
			return
		}
		wait := l.retry.NextBackOff()
		slog.Info("Retrying refresh later.", "in", wait)
		retry = time.After(wait)
	}

	attempt("startup")

	var tick <-chan time.Time
	if l.resync > 0 {
		ticker := time.NewTicker(l.resync)
		defer ticker.Stop()
		tick = ticker.C
	}

	var settle <-chan time.Time
	pending := func() {
		if settle == nil {
			settle = time.After(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				slog.Warn("Interface change notifications stopped, relying on periodic resync.")
				changes = nil
				continue
			}
			pending()
		case <-l.trigger:
			pending()
		case <-settle:
			settle = nil
			attempt("change")
		case <-retry:
			attempt("retry")
		case <-tick:
			attempt("resync")
		}
	}
}

// refresh runs detached from loop cancellation so Stop never interrupts a
// half-applied transition. It reports whether the refresh fully applied.
func (l *Loop) refresh(ctx context.Context, reason string) bool {
	res, err := l.refresher.Refresh(context.WithoutCancel(ctx), l.load())
	if err != nil {
		slog.Error("Refresh failed.", "reason", reason, "refresh", res.RefreshID, "err", err)
		return false
	}
	slog.Debug("Refresh done.", "reason", reason, "refresh", res.RefreshID, "changed", res.Changed)
	return !res.Incomplete
}
