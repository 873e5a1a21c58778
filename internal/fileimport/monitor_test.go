package fileimport

import (
	"context"
	"testing"
	"time"
)

func TestMonitorPollSkipsUnchangedFile(t *testing.T) {
	src := &fakeSource{data: []byte("a\n"), modTime: time.Unix(100, 0)}
	seed := NewSeed("watchlist", "watchlist.csv", MonitorAddTail, src)
	var loads int
	seed.OnBeforeLoad = func(size int64, mon *MonitorFlag, carry []byte) (Loader, error) {
		loads++
		return NewDefaultLoader(carry, func(line []byte) error { return nil }), nil
	}
	mon := NewMonitor(seed, time.Hour)

	mon.Poll(context.Background())
	if loads != 1 {
		t.Fatalf("loads = %d, want 1", loads)
	}
	mon.Poll(context.Background())
	if loads != 1 {
		t.Fatalf("loads = %d after unchanged poll, want still 1", loads)
	}
}

func TestMonitorPollReloadsOnSizeChange(t *testing.T) {
	src := &fakeSource{data: []byte("a\n"), modTime: time.Unix(100, 0)}
	seed := NewSeed("watchlist", "watchlist.csv", MonitorAddTail, src)
	var loads int
	seed.OnBeforeLoad = func(size int64, mon *MonitorFlag, carry []byte) (Loader, error) {
		loads++
		return NewDefaultLoader(carry, func(line []byte) error { return nil }), nil
	}
	mon := NewMonitor(seed, time.Hour)
	mon.Poll(context.Background())

	src.data = append(src.data, []byte("b\n")...)
	src.modTime = time.Unix(200, 0)
	mon.Poll(context.Background())
	if loads != 2 {
		t.Fatalf("loads = %d, want 2 after file grew", loads)
	}
}

func TestMonitorPollForcesEvenWhenUnchanged(t *testing.T) {
	src := &fakeSource{data: []byte("a\n"), modTime: time.Unix(100, 0)}
	seed := NewSeed("watchlist", "watchlist.csv", MonitorAddTail, src)
	var loads int
	seed.OnBeforeLoad = func(size int64, mon *MonitorFlag, carry []byte) (Loader, error) {
		loads++
		return NewDefaultLoader(carry, func(line []byte) error { return nil }), nil
	}
	mon := NewMonitor(seed, time.Hour)
	mon.Poll(context.Background())

	seed.SetForceLoadOnce()
	mon.Poll(context.Background())
	if loads != 2 {
		t.Fatalf("loads = %d, want 2 after forced poll of unchanged file", loads)
	}
}
