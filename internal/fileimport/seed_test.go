package fileimport

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"
)

type fakeSource struct {
	data    []byte
	modTime time.Time
}

func (f *fakeSource) Stat() (FileStat, error) {
	return FileStat{Size: int64(len(f.data)), ModTime: f.modTime}, nil
}

func (f *fakeSource) OpenFrom(offset int64) (io.ReadCloser, error) {
	if offset > int64(len(f.data)) {
		offset = int64(len(f.data))
	}
	return io.NopCloser(bytes.NewReader(f.data[offset:])), nil
}

func defaultLoaderBuilder(lines *[]string) func(int64, *MonitorFlag, []byte) (Loader, error) {
	return func(size int64, mon *MonitorFlag, carry []byte) (Loader, error) {
		return NewDefaultLoader(carry, func(line []byte) error {
			*lines = append(*lines, string(line))
			return nil
		}), nil
	}
}

func TestSeedReloadParsesWholeFile(t *testing.T) {
	src := &fakeSource{data: []byte("a\nb\nc\n"), modTime: time.Unix(100, 0)}
	seed := NewSeed("roster", "roster.csv", MonitorReload, src)
	var lines []string
	seed.OnBeforeLoad = defaultLoaderBuilder(&lines)

	if err := seed.Reload(context.Background()); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if len(lines) != 3 || lines[0] != "a" || lines[2] != "c" {
		t.Fatalf("lines = %v", lines)
	}
	if seed.State() != Idle {
		t.Fatalf("state = %v, want Idle", seed.State())
	}
}

// TestSeedAddTailCarriesPartialLineAcrossGrowth mirrors spec §8 scenario 6:
// a watchlist file grows mid-line between two AddTail cycles, and the
// partial line must be completed by the second cycle, not duplicated or
// dropped.
func TestSeedAddTailCarriesPartialLineAcrossGrowth(t *testing.T) {
	src := &fakeSource{data: []byte("line1\nline2\nlin"), modTime: time.Unix(100, 0)}
	seed := NewSeed("watchlist", "watchlist.csv", MonitorAddTail, src)
	var lines []string
	seed.OnBeforeLoad = defaultLoaderBuilder(&lines)

	if err := seed.Reload(context.Background()); err != nil {
		t.Fatalf("first Reload error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "line1" || lines[1] != "line2" {
		t.Fatalf("after first cycle lines = %v", lines)
	}
	if got := seed.LastPos(); got != int64(len("line1\nline2\n")) {
		t.Fatalf("LastPos = %d, want %d", got, len("line1\nline2\n"))
	}

	src.data = append(src.data, []byte("e3\n")...)
	src.modTime = time.Unix(200, 0)
	if err := seed.Reload(context.Background()); err != nil {
		t.Fatalf("second Reload error: %v", err)
	}
	if len(lines) != 3 || lines[2] != "line3" {
		t.Fatalf("after second cycle lines = %v, want line3 appended", lines)
	}
	if got := seed.LastPos(); got != int64(len(src.data)) {
		t.Fatalf("LastPos = %d, want %d", got, len(src.data))
	}
}

// TestSeedAddTailSizeRegressTriggersFullReload covers the edge case where a
// monitored file shrinks: the seed must fall back to a full reload from
// offset zero instead of reading a bogus tail.
func TestSeedAddTailSizeRegressTriggersFullReload(t *testing.T) {
	src := &fakeSource{data: []byte("aaaa\nbbbb\ncccc\n"), modTime: time.Unix(100, 0)}
	seed := NewSeed("watchlist", "watchlist.csv", MonitorAddTail, src)
	var lines []string
	seed.OnBeforeLoad = defaultLoaderBuilder(&lines)

	if err := seed.Reload(context.Background()); err != nil {
		t.Fatalf("first Reload error: %v", err)
	}

	src.data = []byte("zz\n")
	src.modTime = time.Unix(200, 0)
	lines = nil
	if err := seed.Reload(context.Background()); err != nil {
		t.Fatalf("regress Reload error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "zz" {
		t.Fatalf("expected full reload of shrunk file, lines = %v", lines)
	}
}

func TestConsumeForceLoadOnceClearsAfterRead(t *testing.T) {
	src := &fakeSource{data: []byte("a\n"), modTime: time.Unix(100, 0)}
	seed := NewSeed("watchlist", "watchlist.csv", MonitorAddTail, src)
	seed.SetForceLoadOnce()
	if !seed.ConsumeForceLoadOnce() {
		t.Fatalf("expected force_load_once to be armed")
	}
	if seed.ConsumeForceLoadOnce() {
		t.Fatalf("force_load_once should be one-shot")
	}
}
