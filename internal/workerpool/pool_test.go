package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(context.Background(), 2)
	var n int64
	for i := 0; i < 20; i++ {
		p.Go(func() { atomic.AddInt64(&n, 1) })
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if got := atomic.LoadInt64(&n); got != 20 {
		t.Fatalf("ran %d jobs, want 20", got)
	}
}

func TestDefaultSizeUsedWhenNonPositive(t *testing.T) {
	p := New(context.Background(), 0)
	if cap(p.sem) != DefaultSize {
		t.Fatalf("pool size = %d, want default %d", cap(p.sem), DefaultSize)
	}
}

func TestTimerFiresOnPoolNotOnTimerGoroutine(t *testing.T) {
	p := New(context.Background(), 1)
	fired := make(chan struct{}, 1)
	timer := NewTimer(p, 20*time.Millisecond, func(now time.Time) {
		fired <- struct{}{}
	})
	ctx, cancel := context.WithCancel(context.Background())
	go timer.Start(ctx)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("timer never fired")
	}
	cancel()
	timer.Stop()
}
