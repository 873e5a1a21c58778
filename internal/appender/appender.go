// Package appender provides a buffered, asynchronous append worker: any
// number of producer goroutines call Append, and a single consumer goroutine
// drains the queue into a Sink. It is the Go analogue of fon9's Appender /
// WorkContentController state machine.
package appender

import (
	"context"
	"sync"
)

// State mirrors the three states a WorkContentController cycles through.
type State int

const (
	// Sleeping means no data is queued and no consumer is running.
	Sleeping State = iota
	// Ringing means data was just queued and a consumer has been dispatched
	// but has not yet started running.
	Ringing
	// Working means a consumer goroutine is actively draining the queue.
	Working
)

// Sink receives drained blocks. ConsumeAppendBuffer runs on the single
// consumer goroutine; it must not call the same Appender's WaitFlushed or
// WaitConsumed with a context other than the one it was given, or it will
// deadlock — with ctx those calls detect the re-entrant case. Append never
// waits and is safe to call from the Sink.
type Sink interface {
	ConsumeAppendBuffer(ctx context.Context, blocks [][]byte)
}

// Dispatcher runs fn asynchronously, e.g. on a worker pool.
type Dispatcher func(fn func())

type consumerKey struct{}

type waitNode struct {
	targetGen uint64
	done      chan struct{}
}

// Appender is safe for concurrent Append calls from any number of
// goroutines. Exactly one goroutine at a time ever runs the Sink.
type Appender struct {
	mu          sync.Mutex
	state       State
	queuing     [][]byte
	pendingGen  uint64
	consumedGen uint64
	waiters     []*waitNode
	sink        Sink
	dispatch    Dispatcher
	self        any // unique token identifying this Appender's consumer context
}

// New creates an Appender that hands drained blocks to sink, dispatching the
// consumer goroutine via dispatch (e.g. workerpool.Pool.Go).
func New(sink Sink, dispatch Dispatcher) *Appender {
	a := &Appender{sink: sink, dispatch: dispatch}
	a.self = a
	return a
}

// Append enqueues a copy of data and, if the appender is idle, dispatches a
// consumer goroutine. Append itself never blocks on the sink.
func (a *Appender) Append(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	a.mu.Lock()
	a.queuing = append(a.queuing, buf)
	a.pendingGen++
	start := a.state == Sleeping
	if start {
		a.state = Ringing
	}
	a.mu.Unlock()

	if start {
		a.dispatch(a.drain)
	}
}

// drain is the consumer loop (TakeCall/ConsumeAppendBuffer equivalent). It
// runs on whatever goroutine Dispatcher chose and keeps looping — without
// returning to Sleeping — as long as more data arrives while it consumes.
func (a *Appender) drain() {
	for {
		a.mu.Lock()
		if len(a.queuing) == 0 {
			a.state = Sleeping
			a.mu.Unlock()
			return
		}
		working := a.queuing
		a.queuing = nil
		gen := a.pendingGen
		a.state = Working
		a.mu.Unlock()

		ctx := context.WithValue(context.Background(), consumerKey{}, a.self)
		a.sink.ConsumeAppendBuffer(ctx, working)

		a.mu.Lock()
		a.consumedGen = gen
		a.notifyWaitersLocked()
		a.mu.Unlock()
	}
}

func (a *Appender) notifyWaitersLocked() {
	remaining := a.waiters[:0]
	for _, w := range a.waiters {
		if w.targetGen <= a.consumedGen {
			close(w.done)
		} else {
			remaining = append(remaining, w)
		}
	}
	a.waiters = remaining
}

// isReentrant reports whether ctx marks the calling goroutine as already
// running inside this Appender's own Sink callback.
func (a *Appender) isReentrant(ctx context.Context) bool {
	v, _ := ctx.Value(consumerKey{}).(any)
	return v == a.self
}

// waitGen blocks (unless called re-entrantly from within the Sink, in which
// case it returns false immediately to avoid deadlocking the single
// consumer) until every block appended before this call has been consumed.
func (a *Appender) waitGen(ctx context.Context) bool {
	if ctx != nil && a.isReentrant(ctx) {
		return false
	}

	a.mu.Lock()
	target := a.pendingGen
	if target <= a.consumedGen {
		a.mu.Unlock()
		return true
	}
	node := &waitNode{targetGen: target, done: make(chan struct{})}
	a.waiters = append(a.waiters, node)
	a.mu.Unlock()

	<-node.done
	return true
}

// WaitFlushed blocks until all data appended before this call has been
// handed to the Sink and the Sink's ConsumeAppendBuffer call has returned.
// Called from within the Sink itself (ctx carrying the consumer marker) it
// returns false immediately instead of deadlocking.
func (a *Appender) WaitFlushed(ctx context.Context) bool {
	return a.waitGen(ctx)
}

// WaitConsumed is an alias of WaitFlushed: in this implementation a block is
// only considered consumed once ConsumeAppendBuffer has returned, so the two
// waits share one generation counter.
func (a *Appender) WaitConsumed(ctx context.Context) bool {
	return a.waitGen(ctx)
}

// State reports the appender's current state, mainly for tests/metrics.
func (a *Appender) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}
