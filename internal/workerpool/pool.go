// Package workerpool provides a small shared worker pool and a dedicated
// timer goroutine, the Go analogue of fon9's DefaultThreadPool and its
// companion timer thread: scheduling logic runs on the timer goroutine and
// only ever posts work to the pool, it never runs work inline.
package workerpool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultSize mirrors DefaultThreadPool.cpp's hardcoded threadCount = 4.
const DefaultSize = 4

// Pool is a bounded-concurrency job runner built on errgroup.Group. Jobs
// submitted beyond the configured size queue until a slot frees up.
type Pool struct {
	sem   chan struct{}
	group *errgroup.Group
	ctx   context.Context
}

// New creates a Pool bound to ctx with the given worker count. A size <= 0
// falls back to DefaultSize, matching the original's hardcoded default.
func New(ctx context.Context, size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	g, gctx := errgroup.WithContext(ctx)
	return &Pool{
		sem:   make(chan struct{}, size),
		group: g,
		ctx:   gctx,
	}
}

// Go submits fn to run on the pool. It blocks only long enough to acquire a
// free slot, never waiting for fn itself to finish.
func (p *Pool) Go(fn func()) {
	p.sem <- struct{}{}
	p.group.Go(func() error {
		defer func() { <-p.sem }()
		fn()
		return nil
	})
}

// Wait blocks until every job submitted via Go has returned.
func (p *Pool) Wait() error {
	return p.group.Wait()
}

// Dispatcher adapts Pool to the appender.Dispatcher / fileimport dispatch
// function shape.
func (p *Pool) Dispatcher() func(func()) {
	return p.Go
}

// Timer is a dedicated goroutine that fires fn on a fixed interval by
// posting it to a Pool, never running fn on the timer goroutine itself —
// matching the scheduler/worker split described for the file-import
// scheduler.
type Timer struct {
	interval time.Duration
	pool     *Pool
	fn       func(now time.Time)
	stop     chan struct{}
	stopOnce sync.Once
}

// NewTimer creates a Timer that posts fn to pool every interval once Start
// is called.
func NewTimer(pool *Pool, interval time.Duration, fn func(now time.Time)) *Timer {
	return &Timer{interval: interval, pool: pool, fn: fn, stop: make(chan struct{})}
}

// Start runs the timer loop until ctx is cancelled or Stop is called. Start
// itself is the "dedicated timer thread": it blocks the calling goroutine,
// so callers invoke it with `go timer.Start(ctx)`.
func (t *Timer) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case now := <-ticker.C:
			fired := now
			t.pool.Go(func() { t.fn(fired) })
		}
	}
}

// Stop ends the timer loop.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
