package fileimport

import (
	"context"
	"time"
)

// Monitor polls a Seed's source on an interval and triggers Reload when the
// file's stat (mtime or size) has changed since the last successful load, or
// when a force-load-once has been armed. This is the Go analogue of
// fon9::seed::FileImpTree's monitor loop, reworked from an inotify-style
// watch into simple polling since the examples pack carries no filesystem
// notification library.
type Monitor struct {
	Seed     *Seed
	Interval time.Duration
	OnError  func(err error)
}

// NewMonitor creates a Monitor for seed, polling every interval.
func NewMonitor(seed *Seed, interval time.Duration) *Monitor {
	return &Monitor{Seed: seed, Interval: interval}
}

// Run polls until ctx is canceled. Intended to be launched on its own
// goroutine or dispatched through a workerpool.Pool's Timer.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// Poll performs a single check-and-maybe-reload cycle. Exported so a cron
// Scheduler can drive it directly instead of (or in addition to) the
// interval ticker.
func (m *Monitor) Poll(ctx context.Context) {
	m.poll(ctx)
}

func (m *Monitor) poll(ctx context.Context) {
	force := m.Seed.ConsumeForceLoadOnce()

	stat, err := m.Seed.Source.Stat()
	if err != nil {
		if !force {
			if m.OnError != nil {
				m.OnError(err)
			}
			return
		}
	} else {
		changed := !stat.ModTime.Equal(m.Seed.LastFileTime()) || stat.Size != m.Seed.LastSize()
		if !changed && !force {
			return
		}
	}

	if rerr := m.Seed.Reload(ctx); rerr != nil && m.OnError != nil {
		m.OnError(rerr)
	}
}
